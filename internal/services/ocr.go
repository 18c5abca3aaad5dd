package services

import (
	"context"
	"fmt"

	"github.com/minbar-app/minbar-backend/internal/logger"
)

const arabicOCRPrompt = "Read all Arabic text from this Islamic image."

// OCRProvider extracts text from an uploaded image. Two backends exist:
// the generative vision model (gemini) and the dedicated OCR API (vision).
// The active one is chosen by config, not hardcoded.
type OCRProvider interface {
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
}

type geminiOCR struct {
	client GeminiClient
}

func (g *geminiOCR) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	return g.client.GenerateFromImage(ctx, arabicOCRPrompt, image, mimeType)
}

type visionOCR struct {
	provider VisionProviderService
}

func (v *visionOCR) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	return v.provider.OCRImageBytes(ctx, image, mimeType)
}

// NewOCRProvider wires the configured backend. Only the selected backend's
// client is constructed, so a gemini-only deployment needs no GCP credentials.
func NewOCRProvider(log *logger.Logger, provider string) (OCRProvider, error) {
	switch provider {
	case "gemini":
		client, err := NewGeminiClient(log)
		if err != nil {
			return nil, err
		}
		return &geminiOCR{client: client}, nil
	case "vision":
		svc, err := NewVisionProviderService(log)
		if err != nil {
			return nil, err
		}
		return &visionOCR{provider: svc}, nil
	default:
		return nil, fmt.Errorf("unknown ocr provider %q", provider)
	}
}
