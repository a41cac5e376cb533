package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/wisdom-gateway/internal/dto"
	"github.com/noah-isme/wisdom-gateway/internal/middleware"
	"github.com/noah-isme/wisdom-gateway/internal/models"
)

type fakeDashboardSrv struct {
	userResp  *dto.UserHomeView
	userErr   error
	userHit   bool
	lastEmail string
}

func (f *fakeDashboardSrv) AdminHome(context.Context) (*dto.AdminHomeView, bool, error) {
	return &dto.AdminHomeView{Degraded: true}, false, nil
}

func (f *fakeDashboardSrv) UserHome(_ context.Context, email string) (*dto.UserHomeView, bool, error) {
	f.lastEmail = email
	return f.userResp, f.userHit, f.userErr
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

func TestDashboardHandlerUserRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.User(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerUserSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeDashboardSrv{
		userResp: &dto.UserHomeView{Stats: dto.UserStats{TotalLessons: 4}},
		userHit:  true,
	}
	handler := NewDashboardHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextSessionKey, &models.Session{Identity: models.Identity{Email: "ada@wisdom.test"}})

	handler.User(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@wisdom.test", srv.lastEmail)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["from_snapshot"])
	stats, _ := envelope.Data["stats"].(map[string]interface{})
	assert.Equal(t, float64(4), stats["totalLessons"])
}

func TestDashboardHandlerUserError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{userErr: errors.New("boom")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextSessionKey, &models.Session{Identity: models.Identity{Email: "ada@wisdom.test"}})

	handler.User(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboardHandlerAdminFlagsDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)

	handler.Admin(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["degraded"])
	assert.Equal(t, false, envelope.Meta["from_snapshot"])
}
