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

type profileService interface {
	Profile(ctx context.Context, session *models.Session) (*dto.ProfileView, error)
	Update(ctx context.Context, session *models.Session, patch models.ProfilePatch) (*dto.ProfileUpdateResponse, error)
}

// ProfileHandler serves the member profile page.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(service profileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Show godoc
// @Summary My profile
// @Description Profile record with public lessons and counters
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/profile [get]
func (h *ProfileHandler) Show(c *gin.Context) {
	view, err := h.service.Profile(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}

// Update godoc
// @Summary Update my profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.ProfilePatch true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/profile [patch]
func (h *ProfileHandler) Update(c *gin.Context) {
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	out, err := h.service.Update(c.Request.Context(), sessionFromContext(c), patch)
	if err != nil {
		if out != nil {
			response.ErrorWithData(c, err, out)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, out)
}
