package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Schema pairs a structured-output JSON schema with local validation of the
// decoded object. Validation is strict: a non-conforming model response is an
// error, never coerced.
type Schema struct {
	Name       string
	Definition map[string]any
	validate   func(obj map[string]any) error
}

func (s *Schema) ValidateObject(obj map[string]any) error {
	if s.validate == nil {
		return nil
	}
	return s.validate(obj)
}

// ClassDetails mirrors the class record schema: a fixed set of named, typed
// fields used to constrain model output when editing class records.
type ClassDetails struct {
	Code      string        `json:"code" validate:"required"`
	Gender    string        `json:"gender" validate:"required,oneof=gents ladies"`
	Language  string        `json:"language" validate:"required,oneof=english urdu gujarati"`
	Level     string        `json:"level" validate:"required,oneof=salman abuzar miqdad ammar bilal"`
	Teacher   string        `json:"teacher" validate:"required"`
	StartedOn string        `json:"startedOn"`
	Format    string        `json:"format" validate:"required,oneof=online offline"`
	Address   string        `json:"address"`
	City      string        `json:"city"`
	Country   string        `json:"country"`
	Location  string        `json:"location"`
	Tags      []string      `json:"tags"`
	Students  []string      `json:"students"`
	Schedule  ClassSchedule `json:"schedule"`
}

type ClassSchedule struct {
	Day      string `json:"day"`
	Hour     string `json:"hour"`
	Minute   string `json:"minute"`
	Timezone string `json:"timezone"`
}

var classValidator = validator.New()

func validateClassDetails(obj map[string]any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("class details re-encode: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var details ClassDetails
	if err := dec.Decode(&details); err != nil {
		return fmt.Errorf("class details shape: %w", err)
	}
	if err := classValidator.Struct(&details); err != nil {
		return fmt.Errorf("class details invalid: %w", err)
	}
	return nil
}

func stringProp() map[string]any {
	return map[string]any{"type": "string"}
}

func enumProp(values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func stringArrayProp() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// ClassDetailsSchema is the structured-output schema for /update-class.
func ClassDetailsSchema() *Schema {
	return &Schema{
		Name: "classUpdate",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code":      stringProp(),
				"gender":    enumProp("gents", "ladies"),
				"language":  enumProp("english", "urdu", "gujarati"),
				"level":     enumProp("salman", "abuzar", "miqdad", "ammar", "bilal"),
				"teacher":   stringProp(),
				"startedOn": stringProp(),
				"format":    enumProp("online", "offline"),
				"address":   stringProp(),
				"city":      stringProp(),
				"country":   stringProp(),
				"location":  stringProp(),
				"tags":      stringArrayProp(),
				"students":  stringArrayProp(),
				"schedule": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"day":      stringProp(),
						"hour":     stringProp(),
						"minute":   stringProp(),
						"timezone": stringProp(),
					},
					"required":             []string{"day", "hour", "minute", "timezone"},
					"additionalProperties": false,
				},
			},
			"required": []string{
				"code", "gender", "language", "level", "teacher", "startedOn",
				"format", "address", "city", "country", "location", "tags",
				"students", "schedule",
			},
			"additionalProperties": false,
		},
		validate: validateClassDetails,
	}
}
