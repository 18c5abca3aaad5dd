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

type UploadHandler struct {
	log       *logger.Logger
	imageText services.ImageTextService
	uploadDir string
}

func NewUploadHandler(log *logger.Logger, imageText services.ImageTextService, uploadDir string) *UploadHandler {
	return &UploadHandler{
		log:       log.With("handler", "UploadHandler"),
		imageText: imageText,
		uploadDir: uploadDir,
	}
}

// POST /upload
// OCRs the uploaded image and translates the extracted Arabic into English.
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeMissingFile, fmt.Errorf("missing image file: %w", err))
		return
	}

	ext := filepath.Ext(fh.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	tmpPath := filepath.Join(h.uploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fh, tmpPath); err != nil {
		RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	defer os.Remove(tmpPath)

	image, err := os.ReadFile(tmpPath)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	result, err := h.imageText.ProcessImage(c.Request.Context(), image, mimeType)
	if err != nil {
		h.log.Error("image processing failed", "error", err)
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{"arabic": result.Arabic, "translation": result.Translation})
}
