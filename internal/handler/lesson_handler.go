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

type lessonService interface {
	MyLessons(ctx context.Context, session *models.Session) (*dto.MyLessonsView, error)
	Edit(ctx context.Context, session *models.Session, id string, edit models.LessonEdit) (dto.ActionResponse[models.Lesson], error)
	Delete(ctx context.Context, session *models.Session, id string, confirmed bool) (dto.ActionResponse[models.Lesson], error)
}

// LessonHandler serves the member's own lessons.
type LessonHandler struct {
	service lessonService
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service lessonService) *LessonHandler {
	return &LessonHandler{service: service}
}

// Mine godoc
// @Summary My lessons
// @Tags Lessons
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/lessons [get]
func (h *LessonHandler) Mine(c *gin.Context) {
	view, err := h.service.MyLessons(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}

// Edit godoc
// @Summary Edit one of my lessons
// @Description Updates the lesson then its favorites copy. Premium access requires a premium account.
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body models.LessonEdit true "Lesson fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/lessons/{id} [patch]
func (h *LessonHandler) Edit(c *gin.Context) {
	var edit models.LessonEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lesson payload"))
		return
	}
	out, err := h.service.Edit(c.Request.Context(), sessionFromContext(c), c.Param("id"), edit)
	writeAction(c, http.StatusOK, out, err)
}

// Delete godoc
// @Summary Delete one of my lessons
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Param confirm query bool false "Confirm the action"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /dashboard/lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	out, err := h.service.Delete(c.Request.Context(), sessionFromContext(c), c.Param("id"), confirmed(c))
	writeAction(c, http.StatusOK, out, err)
}
