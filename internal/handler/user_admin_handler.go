package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

type userAdminService interface {
	Directory(ctx context.Context, search string) (*dto.UserDirectoryView, error)
	ToggleRole(ctx context.Context, actor *models.Session, id string, confirmed bool) (dto.ActionResponse[models.User], error)
	DeleteUser(ctx context.Context, actor *models.Session, id string, confirmed bool) (dto.ActionResponse[models.User], error)
	ExportCSV(ctx context.Context, search string) ([]byte, error)
}

// UserAdminHandler exposes the admin user directory.
type UserAdminHandler struct {
	service userAdminService
	now     func() time.Time
}

// NewUserAdminHandler constructs the handler.
func NewUserAdminHandler(service userAdminService) *UserAdminHandler {
	return &UserAdminHandler{service: service, now: time.Now}
}

// Directory godoc
// @Summary User directory
// @Tags Users
// @Produce json
// @Param search query string false "Name or email filter"
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *UserAdminHandler) Directory(c *gin.Context) {
	view, err := h.service.Directory(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, viewMeta(c, view.Degraded))
}

// Export godoc
// @Summary Export the user directory
// @Tags Users
// @Produce text/csv
// @Param search query string false "Name or email filter"
// @Success 200 {file} file
// @Router /admin/users/export.csv [get]
func (h *UserAdminHandler) Export(c *gin.Context) {
	payload, err := h.service.ExportCSV(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("users-%s.csv", h.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", payload)
}

// ToggleRole godoc
// @Summary Promote or demote a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Param confirm query bool false "Confirm a demotion"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/users/{id}/role [patch]
func (h *UserAdminHandler) ToggleRole(c *gin.Context) {
	out, err := h.service.ToggleRole(c.Request.Context(), sessionFromContext(c), c.Param("id"), confirmed(c))
	writeAction(c, http.StatusOK, out, err)
}

// Delete godoc
// @Summary Delete a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Param confirm query bool false "Confirm the action"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *UserAdminHandler) Delete(c *gin.Context) {
	out, err := h.service.DeleteUser(c.Request.Context(), sessionFromContext(c), c.Param("id"), confirmed(c))
	writeAction(c, http.StatusOK, out, err)
}
