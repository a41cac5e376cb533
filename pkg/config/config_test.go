package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, IdentityDev, cfg.Identity.Provider)
	assert.Equal(t, "wisdom_session", cfg.Identity.SessionCookieName)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Views.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Payment.GuardTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("BACKEND_BASE_URL", "https://api.example.com/")
	v.Set("IDENTITY_PROVIDER", "Firebase")
	v.Set("ALLOWED_ORIGINS", " https://a.dev, ,https://b.dev ")
	v.Set("VIEW_TIMEOUT", "not-a-duration")
	v.Set("DASHBOARD_CACHE_TTL", "30s")

	cfg := fromViper(v)

	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, IdentityFirebase, cfg.Identity.Provider)
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Views.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Dashboard.CacheTTL)
}
