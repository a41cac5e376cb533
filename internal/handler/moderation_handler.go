package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

type moderationService interface {
	Queue(ctx context.Context) (*dto.ModerationView, error)
	Approve(ctx context.Context, id string, confirmed bool) (dto.ActionResponse[models.Lesson], error)
	SetFeatured(ctx context.Context, id string, featured bool) (dto.ActionResponse[models.Lesson], error)
	RemoveLesson(ctx context.Context, id string, confirmed bool) (dto.ActionResponse[models.Lesson], error)
}

// ModerationHandler exposes admin lesson moderation.
type ModerationHandler struct {
	service moderationService
}

// NewModerationHandler constructs the handler.
func NewModerationHandler(service moderationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// Queue godoc
// @Summary Moderation queue
// @Tags Moderation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/lessons [get]
func (h *ModerationHandler) Queue(c *gin.Context) {
	view, err := h.service.Queue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}

// UpdateStatus godoc
// @Summary Approve a lesson
// @Tags Moderation
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param confirm query bool false "Confirm the action"
// @Param payload body models.StatusPatch true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/lessons/{id}/status [patch]
func (h *ModerationHandler) UpdateStatus(c *gin.Context) {
	var patch models.StatusPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	if patch.Status != models.LessonApproved {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "only approval is supported"))
		return
	}
	out, err := h.service.Approve(c.Request.Context(), c.Param("id"), confirmed(c))
	writeAction(c, http.StatusOK, out, err)
}

// UpdateFeatured godoc
// @Summary Feature or unfeature a lesson
// @Tags Moderation
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.FeaturedToggleRequest true "Featured flag"
// @Success 200 {object} response.Envelope
// @Router /admin/lessons/{id}/featured [patch]
func (h *ModerationHandler) UpdateFeatured(c *gin.Context) {
	var req dto.FeaturedToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid featured payload"))
		return
	}
	out, err := h.service.SetFeatured(c.Request.Context(), c.Param("id"), bool(req.IsFeatured))
	writeAction(c, http.StatusOK, out, err)
}

// Delete godoc
// @Summary Delete a lesson
// @Tags Moderation
// @Produce json
// @Param id path string true "Lesson ID"
// @Param confirm query bool false "Confirm the action"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/lessons/{id} [delete]
func (h *ModerationHandler) Delete(c *gin.Context) {
	out, err := h.service.RemoveLesson(c.Request.Context(), c.Param("id"), confirmed(c))
	writeAction(c, http.StatusOK, out, err)
}
