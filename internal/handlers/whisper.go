package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
	"github.com/minbar-app/minbar-backend/internal/services"
)

type WhisperHandler struct {
	log         *logger.Logger
	transcriber services.TranscriptionProvider
	uploadDir   string
}

func NewWhisperHandler(log *logger.Logger, transcriber services.TranscriptionProvider, uploadDir string) *WhisperHandler {
	return &WhisperHandler{
		log:         log.With("handler", "WhisperHandler"),
		transcriber: transcriber,
		uploadDir:   uploadDir,
	}
}

// POST /whisper
// Transcribes an uploaded audio clip into instruction text. The temp file is
// removed on every path.
func (h *WhisperHandler) Transcribe(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeMissingFile, fmt.Errorf("missing audio file: %w", err))
		return
	}

	ext := filepath.Ext(fh.Filename)
	if ext == "" {
		ext = ".webm"
	}
	tmpPath := filepath.Join(h.uploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fh, tmpPath); err != nil {
		RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	defer os.Remove(tmpPath)

	audio, err := os.ReadFile(tmpPath)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}

	text, err := h.transcriber.Transcribe(c.Request.Context(), fh.Filename, audio)
	if err != nil {
		h.log.Error("transcription failed", "error", err)
		RespondAPIError(c, err)
		return
	}

	h.log.Info("transcription complete", "chars", len(text))
	RespondOK(c, gin.H{"instruction": text})
}
