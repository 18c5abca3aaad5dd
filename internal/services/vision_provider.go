package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	"google.golang.org/api/option"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
)

// VisionProviderService runs DOCUMENT_TEXT_DETECTION OCR on image bytes.
type VisionProviderService interface {
	OCRImageBytes(ctx context.Context, img []byte, mimeType string) (string, error)
	Close() error
}

type visionProviderService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
}

func NewVisionProviderService(log *logger.Logger) (VisionProviderService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "VisionProviderService")

	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	ctx := context.Background()

	var (
		vClient *vision.ImageAnnotatorClient
		err     error
	)
	if creds != "" {
		vClient, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(creds))
	} else {
		// ADC (GKE/Cloud Run w/ attached SA)
		vClient, err = vision.NewImageAnnotatorClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionProviderService{
		log:          slog,
		visionClient: vClient,
	}, nil
}

func (s *visionProviderService) Close() error {
	if s == nil || s.visionClient == nil {
		return nil
	}
	return s.visionClient.Close()
}

func (s *visionProviderService) OCRImageBytes(ctx context.Context, img []byte, mimeType string) (string, error) {
	if len(img) == 0 {
		return "", apierr.WithCode(apierr.CodeInvalidInput, fmt.Errorf("empty image payload"))
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	vimg, err := vision.NewImageFromReader(bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("vision NewImageFromReader: %w", err)
	}

	doc, err := s.visionClient.DetectDocumentText(ctx, vimg, nil)
	if err != nil {
		return "", apierr.WithCode(apierr.CodeProviderError, fmt.Errorf("vision DetectDocumentText: %w", err))
	}
	if doc == nil {
		return "", nil
	}
	return strings.TrimSpace(doc.Text), nil
}
