package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
	"github.com/minbar-app/minbar-backend/internal/schemas"
)

const structuredEditorSystem = "You are a structured JSON editor. Use the schema '%s' to return a valid JSON update. Although the input can be in multiple languages but always prefer English, set object property strings only in English script. Update the JSON only with the given instructions, do not update any other properties, just retain original values. Return ONLY valid updated JSON."

const freeformEditorSystem = "You are a JSON editor. Update the given JSON object based on the instruction. Although the input can be in multiple languages but always prefer English, set object property strings only in English script. Update the JSON only with the given instructions, do not update any other properties, just retain original values. Return ONLY valid updated JSON."

// UpdateEditor applies a natural-language instruction to a JSON object via
// the language model, memoizing results by content hash. The cache lives in
// process memory, is never evicted, and coalesces concurrent identical
// requests into one provider call.
type UpdateEditor interface {
	Apply(ctx context.Context, original map[string]any, instruction string, schema *schemas.Schema) (map[string]any, error)
}

type updateEditor struct {
	log    *logger.Logger
	openai OpenAIClient
	audit  AuditRecorder

	mu    sync.RWMutex
	cache map[string]map[string]any
	group singleflight.Group
}

func NewUpdateEditor(log *logger.Logger, openai OpenAIClient, audit AuditRecorder) (UpdateEditor, error) {
	if openai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	return &updateEditor{
		log:    log.With("service", "UpdateEditor"),
		openai: openai,
		audit:  audit,
		cache:  map[string]map[string]any{},
	}, nil
}

// cacheKey hashes (schema name, canonical JSON of original, instruction).
// encoding/json sorts map keys, so identical objects hash identically
// regardless of wire field order.
func cacheKey(schemaName string, original map[string]any, instruction string) (string, error) {
	canonical, err := json.Marshal(original)
	if err != nil {
		return "", fmt.Errorf("serialize original: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(schemaName))
	h.Write(canonical)
	h.Write([]byte(instruction))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (e *updateEditor) Apply(ctx context.Context, original map[string]any, instruction string, schema *schemas.Schema) (map[string]any, error) {
	if original == nil {
		return nil, apierr.WithCode(apierr.CodeInvalidInput, fmt.Errorf("original object required"))
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, apierr.WithCode(apierr.CodeInvalidInput, fmt.Errorf("instruction required"))
	}

	schemaName := ""
	if schema != nil {
		schemaName = schema.Name
	}
	key, err := cacheKey(schemaName, original, instruction)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		e.log.Info("cache hit for update key", "key", key)
		return cached, nil
	}

	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		// Re-check: another flight may have filled the cache between the
		// read above and entering the group.
		e.mu.RLock()
		cached, ok := e.cache[key]
		e.mu.RUnlock()
		if ok {
			return cached, nil
		}

		updated, err := e.applyViaModel(ctx, original, instruction, schema)
		if err != nil {
			return nil, err
		}

		if e.audit != nil {
			e.audit.RecordUpdate(instruction, original, updated)
		}

		e.mu.Lock()
		e.cache[key] = updated
		e.mu.Unlock()
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func (e *updateEditor) applyViaModel(ctx context.Context, original map[string]any, instruction string, schema *schemas.Schema) (map[string]any, error) {
	originalJSON, err := json.MarshalIndent(original, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize original: %w", err)
	}
	user := fmt.Sprintf("Original:\n%s\n\nInstruction:\n%s", originalJSON, instruction)

	if schema != nil {
		system := fmt.Sprintf(structuredEditorSystem, schema.Name)
		updated, err := e.openai.GenerateJSON(ctx, system, user, schema.Name, schema.Definition)
		if err != nil {
			return nil, err
		}
		if err := schema.ValidateObject(updated); err != nil {
			return nil, apierr.WithCode(apierr.CodeValidationError, err)
		}
		return updated, nil
	}

	raw, err := e.openai.CompleteText(ctx, []ChatMessage{
		{Role: "system", Content: freeformEditorSystem},
		{Role: "user", Content: user},
	}, ChatOptions{Temperature: 0.2})
	if err != nil {
		return nil, err
	}

	var updated map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &updated); err != nil {
		return nil, apierr.WithCode(apierr.CodeParseError, fmt.Errorf("model output is not valid JSON: %w", err))
	}
	return updated, nil
}
