// Package config builds the process configuration once at startup.
// Handlers receive it by parameter; nothing reads the environment later.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Poll loop contract: attempts and spacing are fixed, callers observe
// the same timing whatever delay primitive is used underneath.
const (
	DefaultPollAttempts = 3
	DefaultPollInterval = 5 * time.Second
)

// Config holds everything the gateway needs, resolved at process start.
type Config struct {
	HTTPPort string

	// Azure Media Services v2 REST API.
	RESTAPIEndpoint string
	AADTenantDomain string
	ClientID        string
	ClientSecret    string

	// Optional Redis for processor lookup caching. Empty disables it.
	RedisAddr string

	// Directory overriding the bundled task configuration presets.
	PresetDir string

	PollAttempts int
	PollInterval time.Duration

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
	LogSource bool
}

// Load reads an optional .env file and the process environment.
func Load() (*Config, error) {
	// .env is a developer convenience, absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:           env("HTTP_PORT", "8080"),
		RESTAPIEndpoint:    strings.TrimSpace(os.Getenv("AMS_REST_API_ENDPOINT")),
		AADTenantDomain:    strings.TrimSpace(os.Getenv("AMS_AAD_TENANT_DOMAIN")),
		ClientID:           strings.TrimSpace(os.Getenv("AMS_CLIENT_ID")),
		ClientSecret:       strings.TrimSpace(os.Getenv("AMS_CLIENT_SECRET")),
		RedisAddr:          env("REDIS_ADDR", ""),
		PresetDir:          env("PRESET_DIR", ""),
		PollAttempts:       envInt("POLL_ATTEMPTS", DefaultPollAttempts),
		PollInterval:       envDuration("POLL_INTERVAL", DefaultPollInterval),
		CORSAllowedOrigins: envCSV("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           env("LOG_LEVEL", "info"),
		LogFormat:          env("LOG_FORMAT", "json"),
		LogSource:          env("LOG_SOURCE", "false") == "true",
	}

	if cfg.RESTAPIEndpoint == "" {
		return nil, fmt.Errorf("config: AMS_REST_API_ENDPOINT is required")
	}
	if cfg.AADTenantDomain == "" {
		return nil, fmt.Errorf("config: AMS_AAD_TENANT_DOMAIN is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("config: AMS_CLIENT_ID and AMS_CLIENT_SECRET are required")
	}

	return cfg, nil
}

func env(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
