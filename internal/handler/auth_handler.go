package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/models"
	appErrors "github.com/noah-isme/wisdom-gateway/pkg/errors"
	"github.com/noah-isme/wisdom-gateway/pkg/response"
)

type identityService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	RegisterUser(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, session *models.Session) error
}

// CookieConfig describes the session cookie set after sign-in.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler wires HTTP endpoints to the identity service.
type AuthHandler struct {
	service identityService
	cookie  CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc identityService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie}
}

// Register godoc
// @Summary Create an account
// @Description Creates the identity and its backend user record (role user, not premium)
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	res, err := h.service.RegisterUser(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setCookie(c, res.Credential, res.ExpiresAt)
	response.Created(c, res)
}

// Login godoc
// @Summary Sign in
// @Description Authenticate by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setCookie(c, res.Credential, res.ExpiresAt)
	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Sign out
// @Tags Authentication
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), sessionFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	if h.cookie.Name != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Current session
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, dto.SessionView{Session: session})
}

func (h *AuthHandler) setCookie(c *gin.Context, credential string, expires time.Time) {
	if h.cookie.Name == "" || credential == "" {
		return
	}
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = int((24 * time.Hour).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, credential, maxAge, "/", "", h.cookie.Secure, true)
}
