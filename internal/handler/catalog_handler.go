package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

type catalogService interface {
	Featured(ctx context.Context, session *models.Session) (*dto.FeaturedView, error)
	TopContributors(ctx context.Context) (*dto.ContributorsView, error)
}

// CatalogHandler serves the public lesson strips.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Featured godoc
// @Summary Featured lessons
// @Description Premium lessons are marked locked unless the viewer is premium
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /lessons/featured [get]
func (h *CatalogHandler) Featured(c *gin.Context) {
	view, err := h.service.Featured(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}

// TopContributors godoc
// @Summary Top contributors of the week
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /contributors/top [get]
func (h *CatalogHandler) TopContributors(c *gin.Context) {
	view, err := h.service.TopContributors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}
