package services

import (
	"context"
	"fmt"

	"github.com/minbar-app/minbar-backend/internal/logger"
)

// TranscriptionProvider turns an uploaded audio file into instruction text.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

type whisperTranscriber struct {
	client OpenAIClient
}

func (w *whisperTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	return w.client.Transcribe(ctx, filename, audio)
}

type gcpSpeechTranscriber struct {
	provider SpeechProviderService
}

func (g *gcpSpeechTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	return g.provider.TranscribeAudioBytes(ctx, audio)
}

// NewTranscriptionProvider selects the configured backend. Whisper rides the
// shared OpenAI client; gcp_speech builds its own Cloud Speech client.
func NewTranscriptionProvider(log *logger.Logger, provider string, openai OpenAIClient) (TranscriptionProvider, error) {
	switch provider {
	case "whisper":
		if openai == nil {
			return nil, fmt.Errorf("openai client required for whisper transcription")
		}
		return &whisperTranscriber{client: openai}, nil
	case "gcp_speech":
		svc, err := NewSpeechProviderService(log)
		if err != nil {
			return nil, err
		}
		return &gcpSpeechTranscriber{provider: svc}, nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", provider)
	}
}
