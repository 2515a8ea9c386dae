package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App   AppConfig
	Beans BeansConfig
	Trace TraceConfig
	Log   LogConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	URL   string
	Port  string
}

// BeansConfig controls how the application container is populated.
type BeansConfig struct {
	// Manifest is an optional YAML bean manifest applied at boot.
	Manifest string
	// Eager builds every singleton during boot instead of on first use.
	Eager bool
}

type TraceConfig struct {
	Exporter     string // none | stdout | otlp
	OTLPEndpoint string
	ServiceName  string
	SampleRate   float64
}

type LogConfig struct {
	Level string // debug | info | warn | error
}

// IsLocal reports whether the app runs in the local environment.
func (c *Config) IsLocal() bool { return c.App.Env == "local" }

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	name := env("APP_NAME", "go-beans")
	return &Config{
		App: AppConfig{
			Name:  name,
			Env:   env("APP_ENV", "local"),
			Debug: envBool("APP_DEBUG", true),
			URL:   env("APP_URL", "http://localhost"),
			Port:  env("APP_PORT", "8000"),
		},
		Beans: BeansConfig{
			Manifest: env("BEANS_MANIFEST", ""),
			Eager:    envBool("BEANS_EAGER", false),
		},
		Trace: TraceConfig{
			Exporter:     strings.ToLower(env("TRACE_EXPORTER", "none")),
			OTLPEndpoint: env("TRACE_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  env("TRACE_SERVICE_NAME", name),
			SampleRate:   envFloat("TRACE_SAMPLE_RATE", 1.0),
		},
		Log: LogConfig{
			Level: strings.ToLower(env("LOG_LEVEL", "info")),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
