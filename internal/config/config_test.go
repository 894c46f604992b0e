package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.Quota.FreeLimit != 5 || cfg.Quota.LightLimit != 25 || cfg.Quota.RegularLimit != 100 {
		t.Fatalf("quota defaults wrong: %+v", cfg.Quota)
	}
	if cfg.Match.HalfLife != 30*24*time.Hour {
		t.Fatalf("HalfLife = %v", cfg.Match.HalfLife)
	}
	if cfg.Match.MinRelevance != 0.05 || cfg.Match.InterestBoost != 0.15 || cfg.Match.MaxMatches != 10 {
		t.Fatalf("match defaults wrong: %+v", cfg.Match)
	}
	if cfg.Security.AdminSecret != "" {
		t.Fatalf("AdminSecret must default to empty")
	}
	if cfg.OTEL.Enabled {
		t.Fatalf("OTEL must default disabled")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "Debug")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("QUOTA_FREE", "7")
	t.Setenv("DECAY_HALF_LIFE", "168h")
	t.Setenv("MATCH_MIN_RELEVANCE", "0.2")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example , https://b.example,")
	t.Setenv("ENABLE_HSTS", "yes")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.GinMode != "debug" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("warning must normalize to warn, got %q", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Fatalf("base path not normalized: %q", cfg.APIBasePath)
	}
	if cfg.Quota.FreeLimit != 7 {
		t.Fatalf("QUOTA_FREE override lost: %d", cfg.Quota.FreeLimit)
	}
	if cfg.Match.HalfLife != 7*24*time.Hour {
		t.Fatalf("HalfLife = %v", cfg.Match.HalfLife)
	}
	if cfg.Match.MinRelevance != 0.2 {
		t.Fatalf("MinRelevance = %v", cfg.Match.MinRelevance)
	}
	if cfg.RateRPS != 2.5 {
		t.Fatalf("RateRPS = %v", cfg.RateRPS)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[0] != "https://a.example" {
		t.Fatalf("CORS origins = %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS {
		t.Fatalf("ENABLE_HSTS=yes not honored")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct{ key, val string }{
		{"LOG_LEVEL", "verbose"},
		{"DECAY_HALF_LIFE", "-1h"},
		{"MATCH_MIN_RELEVANCE", "1.5"},
		{"MATCH_INTEREST_BOOST", "-0.1"},
		{"MATCH_MAX", "0"},
		{"TASK_WORKERS", "0"},
		{"TASK_BUFFER", "0"},
		{"RATE_RPS", "-1"},
		{"RATE_BURST", "0"},
		{"OTEL_TRACES_SAMPLER_ARG", "2"},
	}
	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			t.Setenv(c.key, c.val)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s must fail validation", c.key, c.val)
			}
		})
	}
}

func TestLoad_UnparseableValuesFallBack(t *testing.T) {
	t.Setenv("QUOTA_FREE", "many")
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("LOG_PRETTY", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quota.FreeLimit != 5 {
		t.Fatalf("bad int must fall back to default, got %d", cfg.Quota.FreeLimit)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("bad duration must fall back to default, got %v", cfg.ReadTimeout)
	}
	if cfg.LogPretty {
		t.Fatalf("unrecognized bool must fall back to default")
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":        "/",
		"/":       "/",
		"api":     "/api",
		"/api/":   "/api",
		"/api/v1": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
