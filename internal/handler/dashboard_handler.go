package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/middleware"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

type dashboardService interface {
	AdminHome(ctx context.Context) (*dto.AdminHomeView, bool, error)
	UserHome(ctx context.Context, email string) (*dto.UserHomeView, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Admin dashboard home
// @Description Platform counters, 7-day growth series and the top contributors
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	view, fromSnapshot, err := h.service.AdminHome(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.MarkSnapshot(c, fromSnapshot)
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}

// User godoc
// @Summary Member dashboard home
// @Description Own lesson, favorite and like counters, recent lessons and weekly activity
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) User(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, fromSnapshot, err := h.service.UserHome(c.Request.Context(), session.Email())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.MarkSnapshot(c, fromSnapshot)
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}
