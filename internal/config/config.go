// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, database paths, decay and matcher tuning, quota tier limits,
// edge rate limiting, and observability settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS and the
// administrative reset secret.
type SecurityConfig struct {
	EnableHSTS  bool
	HSTSMaxAge  time.Duration
	AdminSecret string // shared secret for /admin endpoints (constant-time compared)
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// QuotaConfig carries per-tier monthly limit overrides. Values < 0 mean
// unlimited; the unlimited tier always bypasses the counter regardless.
type QuotaConfig struct {
	FreeLimit    int
	LightLimit   int
	RegularLimit int
}

// MatchConfig tunes the decay engine and matcher.
type MatchConfig struct {
	HalfLife      time.Duration // relevance half-life
	MinRelevance  float64       // decayed-relevance candidate floor [0,1]
	InterestBoost float64       // additive interest boost [0,1]
	MaxMatches    int           // ranked output cap
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// App
	DBPath string  // SQLite path; ":memory:" or empty selects the in-memory store
	Quota  QuotaConfig
	Match  MatchConfig

	// Async history writer
	TaskWorkers int
	TaskBuffer  int

	// Edge rate limiting (token bucket; abuse control, distinct from the
	// monthly quota)
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "vibes.db"),
		Quota: QuotaConfig{
			FreeLimit:    getint("QUOTA_FREE", 5),
			LightLimit:   getint("QUOTA_LIGHT", 25),
			RegularLimit: getint("QUOTA_REGULAR", 100),
		},
		Match: MatchConfig{
			HalfLife:      getdur("DECAY_HALF_LIFE", 30*24*time.Hour),
			MinRelevance:  getfloat("MATCH_MIN_RELEVANCE", 0.05),
			InterestBoost: getfloat("MATCH_INTEREST_BOOST", 0.15),
			MaxMatches:    getint("MATCH_MAX", 10),
		},

		// Async tasks
		TaskWorkers: getint("TASK_WORKERS", 2),
		TaskBuffer:  getint("TASK_BUFFER", 256),

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS:  getbool("ENABLE_HSTS", false),
			HSTSMaxAge:  getdur("HSTS_MAX_AGE", 180*24*time.Hour),
			AdminSecret: getenv("ADMIN_SECRET", ""),
		},

		// Observability
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-vibes-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.Match.HalfLife <= 0 {
		return cfg, errors.New("DECAY_HALF_LIFE must be > 0")
	}
	if cfg.Match.MinRelevance < 0 || cfg.Match.MinRelevance > 1 {
		return cfg, errors.New("MATCH_MIN_RELEVANCE must be between 0 and 1")
	}
	if cfg.Match.InterestBoost < 0 || cfg.Match.InterestBoost > 1 {
		return cfg, errors.New("MATCH_INTEREST_BOOST must be between 0 and 1")
	}
	if cfg.Match.MaxMatches < 1 {
		return cfg, errors.New("MATCH_MAX must be >= 1")
	}
	if cfg.TaskWorkers < 1 {
		return cfg, errors.New("TASK_WORKERS must be >= 1")
	}
	if cfg.TaskBuffer < 1 {
		return cfg, errors.New("TASK_BUFFER must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures a leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
