package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
)

const translationPrompt = "Translate the following Arabic text into English. Use Shia formatting (e.g., 'peace be upon him/her' for the Ahlul Bayt). Also label any content that is from the Quran, Hadith, or includes names like Imam Ali (peace be upon him) and always (peace be upon him and his family) for the Prophet. The text may have footnote markers in Arabic, retain them as English numerals. Do not add any additional comments:\n\n"

type ImageTextResult struct {
	Arabic      string `json:"arabic"`
	Translation string `json:"translation"`
}

// ImageTextService runs the upload flow: OCR the image, then translate the
// extracted Arabic into English.
type ImageTextService interface {
	ProcessImage(ctx context.Context, image []byte, mimeType string) (*ImageTextResult, error)
}

type imageTextService struct {
	log    *logger.Logger
	ocr    OCRProvider
	openai OpenAIClient
}

func NewImageTextService(log *logger.Logger, ocr OCRProvider, openai OpenAIClient) (ImageTextService, error) {
	if ocr == nil {
		return nil, fmt.Errorf("ocr provider required")
	}
	if openai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	return &imageTextService{
		log:    log.With("service", "ImageTextService"),
		ocr:    ocr,
		openai: openai,
	}, nil
}

func (s *imageTextService) ProcessImage(ctx context.Context, image []byte, mimeType string) (*ImageTextResult, error) {
	arabic, err := s.ocr.ExtractText(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	arabic = strings.TrimSpace(arabic)
	if arabic == "" {
		return nil, apierr.WithCode(apierr.CodeEmptyOCR, fmt.Errorf("no Arabic text found in the image"))
	}
	s.log.Info("OCR extracted text", "chars", len(arabic))

	translation, err := s.openai.CompleteText(ctx, []ChatMessage{
		{Role: "user", Content: translationPrompt + arabic},
	}, ChatOptions{})
	if err != nil {
		return nil, err
	}

	return &ImageTextResult{
		Arabic:      arabic,
		Translation: strings.TrimSpace(translation),
	}, nil
}
