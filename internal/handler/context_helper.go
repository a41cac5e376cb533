package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/middleware"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	"github.com/noah-isme/wisdom-gateway/internal/service/reconcile"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

func sessionFromContext(c *gin.Context) *models.Session {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return nil
	}
	return session
}

// confirmed reads the ?confirm=true flag destructive endpoints require.
func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

// writeAction renders a mutation result. Failures still carry the notice and
// the reconciled list so the shell can redraw without refetching.
func writeAction[T any](c *gin.Context, status int, out dto.ActionResponse[T], err error) {
	if err == nil {
		response.JSON(c, status, out)
		return
	}
	var confirm *reconcile.ConfirmationError
	if errors.As(err, &confirm) {
		response.ErrorWithData(c, err, dto.ConfirmationResponse{Confirmation: confirm.Dialog})
		return
	}
	if out.Notice.Message == "" {
		response.Error(c, err)
		return
	}
	response.ErrorWithData(c, err, out)
}

func viewMeta(c *gin.Context, degraded bool) map[string]interface{} {
	middleware.SetDegraded(c, degraded)
	return middleware.ViewMeta(c)
}
