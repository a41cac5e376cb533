package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

type reportService interface {
	Cases(ctx context.Context) (*dto.ReportCasesView, error)
	CaseFile(ctx context.Context, postID string) ([]byte, string, error)
	Dismiss(ctx context.Context, postID string, confirmed bool) (dto.ActionResponse[models.ReportCase], error)
	DeleteLesson(ctx context.Context, postID string, confirmed bool) (dto.ActionResponse[models.ReportCase], error)
}

// ReportHandler exposes reported-lesson triage.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Cases godoc
// @Summary Reported lessons
// @Description Reports grouped by lesson, most reported first
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/reports [get]
func (h *ReportHandler) Cases(c *gin.Context) {
	view, err := h.service.Cases(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}

// CaseFile godoc
// @Summary Download a case file
// @Tags Reports
// @Produce application/pdf
// @Param postId path string true "Lesson ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{postId}/case-file.pdf [get]
func (h *ReportHandler) CaseFile(c *gin.Context) {
	payload, filename, err := h.service.CaseFile(c.Request.Context(), c.Param("postId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// Dismiss godoc
// @Summary Dismiss every report of a lesson
// @Tags Reports
// @Produce json
// @Param postId path string true "Lesson ID"
// @Param confirm query bool false "Confirm the action"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/reports/{postId} [delete]
func (h *ReportHandler) Dismiss(c *gin.Context) {
	out, err := h.service.Dismiss(c.Request.Context(), c.Param("postId"), confirmed(c))
	writeAction(c, http.StatusOK, out, err)
}

// DeleteLesson godoc
// @Summary Delete a reported lesson and its reports
// @Tags Reports
// @Produce json
// @Param postId path string true "Lesson ID"
// @Param confirm query bool false "Confirm the action"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/reports/{postId}/lesson [delete]
func (h *ReportHandler) DeleteLesson(c *gin.Context) {
	out, err := h.service.DeleteLesson(c.Request.Context(), c.Param("postId"), confirmed(c))
	writeAction(c, http.StatusOK, out, err)
}
