package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Identity provider selectors.
const (
	IdentityFirebase = "firebase"
	IdentityDev      = "dev"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Backend   BackendConfig
	Identity  IdentityConfig
	JWT       JWTConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Views     ViewsConfig
	RateLimit RateLimitConfig
	Events    EventsConfig
	Payment   PaymentConfig
}

// BackendConfig points the gateway at the remote REST API.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// IdentityConfig selects and configures the identity provider.
type IdentityConfig struct {
	Provider                 string
	FirebaseProjectID        string
	CredentialsFile          string
	ServiceAccountJSONBase64 string
	SessionCookieName        string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// ViewsConfig tunes view composition.
type ViewsConfig struct {
	Timeout         time.Duration
	ProfileCacheTTL time.Duration
}

// RateLimitConfig bounds mutation and checkout traffic per caller.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// EventsConfig sizes the notification dispatcher.
type EventsConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

type PaymentConfig struct {
	GuardTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Backend = BackendConfig{
		BaseURL: strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("BACKEND_TIMEOUT"), 10*time.Second),
	}

	cfg.Identity = IdentityConfig{
		Provider:                 strings.ToLower(v.GetString("IDENTITY_PROVIDER")),
		FirebaseProjectID:        v.GetString("FIREBASE_PROJECT_ID"),
		CredentialsFile:          v.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		ServiceAccountJSONBase64: v.GetString("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"),
		SessionCookieName:        v.GetString("SESSION_COOKIE_NAME"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Views = ViewsConfig{
		Timeout:         parseDuration(v.GetString("VIEW_TIMEOUT"), 15*time.Second),
		ProfileCacheTTL: parseDuration(v.GetString("PROFILE_CACHE_TTL"), time.Minute),
	}

	cfg.RateLimit = RateLimitConfig{
		PerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		Burst:     v.GetInt("RATE_LIMIT_BURST"),
	}

	cfg.Events = EventsConfig{
		Workers:    v.GetInt("EVENTS_WORKERS"),
		MaxRetries: v.GetInt("EVENTS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("EVENTS_RETRY_DELAY"), time.Second),
	}

	cfg.Payment = PaymentConfig{
		GuardTTL: parseDuration(v.GetString("PAYMENT_GUARD_TTL"), 24*time.Hour),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:5000")
	v.SetDefault("BACKEND_TIMEOUT", "10s")

	v.SetDefault("IDENTITY_PROVIDER", IdentityDev)
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("GOOGLE_APPLICATION_CREDENTIALS", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "")
	v.SetDefault("SESSION_COOKIE_NAME", "wisdom_session")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "wisdom-gateway")

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("VIEW_TIMEOUT", "15s")
	v.SetDefault("PROFILE_CACHE_TTL", "1m")

	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	v.SetDefault("EVENTS_WORKERS", 2)
	v.SetDefault("EVENTS_MAX_RETRIES", 3)
	v.SetDefault("EVENTS_RETRY_DELAY", "1s")

	v.SetDefault("PAYMENT_GUARD_TTL", "24h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
