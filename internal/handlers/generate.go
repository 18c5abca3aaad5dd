package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
	"github.com/minbar-app/minbar-backend/internal/services"
)

type GenerateHandler struct {
	log    *logger.Logger
	openai services.OpenAIClient
}

func NewGenerateHandler(log *logger.Logger, openai services.OpenAIClient) *GenerateHandler {
	return &GenerateHandler{
		log:    log.With("handler", "GenerateHandler"),
		openai: openai,
	}
}

type generateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Model  string `json:"model"`
}

// POST /generate
// Forwards the prompt to the chat model and returns the provider's first
// choice object untouched, logprobs included.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	choice, err := h.openai.Complete(c.Request.Context(), []services.ChatMessage{
		{Role: "user", Content: req.Prompt},
	}, services.ChatOptions{
		Model:       req.Model,
		Temperature: 0.2,
		MaxTokens:   50,
		Logprobs:    true,
		TopLogprobs: 5,
	})
	if err != nil {
		h.log.Error("generate failed", "error", err)
		RespondAPIError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", choice)
}
