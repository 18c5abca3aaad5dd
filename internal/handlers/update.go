package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minbar-app/minbar-backend/internal/logger"
	"github.com/minbar-app/minbar-backend/internal/platform/apierr"
	"github.com/minbar-app/minbar-backend/internal/schemas"
	"github.com/minbar-app/minbar-backend/internal/services"
)

type UpdateHandler struct {
	log         *logger.Logger
	editor      services.UpdateEditor
	classSchema *schemas.Schema
}

func NewUpdateHandler(log *logger.Logger, editor services.UpdateEditor) *UpdateHandler {
	return &UpdateHandler{
		log:         log.With("handler", "UpdateHandler"),
		editor:      editor,
		classSchema: schemas.ClassDetailsSchema(),
	}
}

type updateRequest struct {
	Instruction string         `json:"instruction" binding:"required"`
	Original    map[string]any `json:"original" binding:"required"`
}

// POST /update-json
// Applies the instruction to the object with no schema constraint.
func (h *UpdateHandler) UpdateJSON(c *gin.Context) {
	h.apply(c, nil)
}

// POST /update-class
// Applies the instruction under the ClassDetails schema, validating the
// model's output before returning it.
func (h *UpdateHandler) UpdateClass(c *gin.Context) {
	h.apply(c, h.classSchema)
}

func (h *UpdateHandler) apply(c *gin.Context, schema *schemas.Schema) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}

	updated, err := h.editor.Apply(c.Request.Context(), req.Original, req.Instruction, schema)
	if err != nil {
		h.log.Error("update failed", "error", err)
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{"updated": updated})
}
