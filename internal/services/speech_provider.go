package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"google.golang.org/api/option"

	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
)

// SpeechProviderService transcribes short audio clips with Cloud Speech.
type SpeechProviderService interface {
	TranscribeAudioBytes(ctx context.Context, audio []byte) (string, error)
	Close() error
}

type speechProviderService struct {
	log          *logger.Logger
	client       *speech.Client
	languageCode string
}

func NewSpeechProviderService(log *logger.Logger) (SpeechProviderService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "SpeechProviderService")

	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	lang := strings.TrimSpace(os.Getenv("SPEECH_LANGUAGE_CODE"))
	if lang == "" {
		lang = "en-US"
	}

	ctx := context.Background()

	var c *speech.Client
	var err error
	if creds != "" {
		c, err = speech.NewClient(ctx, option.WithCredentialsFile(creds))
	} else {
		c, err = speech.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	return &speechProviderService{
		log:          slog,
		client:       c,
		languageCode: lang,
	}, nil
}

func (s *speechProviderService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechProviderService) TranscribeAudioBytes(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", apierr.WithCode(apierr.CodeInvalidInput, fmt.Errorf("empty audio payload"))
	}

	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	resp, err := s.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               s.languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("speech recognize: %w", err))
	}

	var out strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if out.Len() > 0 {
			out.WriteString(" ")
		}
		out.WriteString(strings.TrimSpace(result.Alternatives[0].Transcript))
	}
	return out.String(), nil
}
