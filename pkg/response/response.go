package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
)

// Fallback view identifiers rendered in place of a page.
const (
	ViewForbidden     = "forbidden"
	ViewNotFound      = "not_found"
	ViewLoading       = "loading"
	ViewLoginRequired = "login_required"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	View  *FallbackView          `json:"view,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// FallbackView describes a page the shell renders instead of the requested one.
type FallbackView struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	ActionText string `json:"actionText,omitempty"`
	ActionHref string `json:"actionHref,omitempty"`
}

// JSON sends a success response with optional view metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// ErrorWithData sends an error response that still carries a payload, such as
// the confirmation dialog a destructive action needs.
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr, Data: data})
}

// Fallback renders one of the fallback views with the status carried by err.
func Fallback(c *gin.Context, err *appErrors.Error, view FallbackView) {
	noStore(c)
	c.AbortWithStatusJSON(err.Status, Envelope{Error: err, View: &view})
}

// View renders a fallback view as a regular page.
func View(c *gin.Context, status int, view FallbackView) {
	noStore(c)
	c.JSON(status, Envelope{View: &view})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
