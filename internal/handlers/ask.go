package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
	"github.com/minbar-app/minbar-backend/internal/rag"
)

type AskHandler struct {
	log     *logger.Logger
	chain   *rag.Chain
	manager *rag.Manager
}

func NewAskHandler(log *logger.Logger, chain *rag.Chain, manager *rag.Manager) *AskHandler {
	return &AskHandler{
		log:     log.With("handler", "AskHandler"),
		chain:   chain,
		manager: manager,
	}
}

type askRequest struct {
	Question  string `json:"question" binding:"required"`
	Namespace string `json:"namespace" binding:"required"`
}

// POST /ask
// Answers the question from the namespace's indexed documents, with
// citations back to the retrieved chunks.
func (h *AskHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	answer, err := h.chain.Answer(c.Request.Context(), req.Namespace, req.Question)
	if err != nil {
		h.log.Error("ask failed", "namespace", req.Namespace, "error", err)
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, answer)
}

// GET /namespaces
func (h *AskHandler) Namespaces(c *gin.Context) {
	RespondOK(c, gin.H{"namespaces": h.manager.Namespaces()})
}

// GET /ask/status
func (h *AskHandler) Status(c *gin.Context) {
	if !h.manager.Ready() {
		c.String(http.StatusInternalServerError, "RAG system not ready ❌")
		return
	}
	c.String(http.StatusOK, "RAG system is running ✅")
}
