package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

type favoriteService interface {
	MyFavorites(ctx context.Context, session *models.Session) (*dto.MyFavoritesView, error)
	Remove(ctx context.Context, session *models.Session, id string) (dto.ActionResponse[models.Favorite], error)
}

// FavoriteHandler serves the member's favorites.
type FavoriteHandler struct {
	service favoriteService
}

// NewFavoriteHandler constructs the handler.
func NewFavoriteHandler(service favoriteService) *FavoriteHandler {
	return &FavoriteHandler{service: service}
}

// Mine godoc
// @Summary My favorites
// @Tags Favorites
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/favorites [get]
func (h *FavoriteHandler) Mine(c *gin.Context) {
	view, err := h.service.MyFavorites(c.Request.Context(), sessionFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}

// Remove godoc
// @Summary Remove a favorite
// @Tags Favorites
// @Produce json
// @Param id path string true "Favorite ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /dashboard/favorites/{id} [delete]
func (h *FavoriteHandler) Remove(c *gin.Context) {
	out, err := h.service.Remove(c.Request.Context(), sessionFromContext(c), c.Param("id"))
	writeAction(c, http.StatusOK, out, err)
}
