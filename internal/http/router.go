// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// rate limiting, CORS, and security headers.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-vibes-backend/internal/analytics"
	"github.com/tbourn/go-vibes-backend/internal/config"
	"github.com/tbourn/go-vibes-backend/internal/decay"
	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/http/handlers"
	"github.com/tbourn/go-vibes-backend/internal/http/middleware"
	"github.com/tbourn/go-vibes-backend/internal/match"
	"github.com/tbourn/go-vibes-backend/internal/quota"
	"github.com/tbourn/go-vibes-backend/internal/services"
	"github.com/tbourn/go-vibes-backend/internal/store"
	"github.com/tbourn/go-vibes-backend/internal/taskq"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and wires the application services on top of the store.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Identity: resolve the caller from X-User-ID
//  4. AccessLogger: structured logs with PII scrubbing
//  5. Recovery: capture panics after logger
//  6. Body size limiter and gzip
//  7. Metrics (+ /metrics endpoint)
//  8. Token-bucket rate limiter per user/IP (burst control; the monthly
//     quota is enforced in the quota service, not here)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, st store.Store, tasks *taskq.Queue, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Caller identity (demo header auth)
	r.Use(middleware.Identity())

	// 4) Structured logging with redaction
	r.Use(middleware.AccessLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Admin-Secret"},
	}))

	// 5) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 6) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Token-bucket rate limiter per user/IP
	r.Use(middleware.RateLimiter(cfg.RateRPS, cfg.RateBurst))

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers
	r.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{
		EnableHSTS:        cfg.Security.EnableHSTS,
		HSTSMaxAgeSeconds: int(cfg.Security.HSTSMaxAge / time.Second),
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← store/engines
	engine := decay.New(decay.WithHalfLife(cfg.Match.HalfLife))
	matcher := &match.Matcher{
		Scorer:        match.KeywordScorer{},
		MinRelevance:  cfg.Match.MinRelevance,
		InterestBoost: cfg.Match.InterestBoost,
		MaxMatches:    cfg.Match.MaxMatches,
	}
	quotaSvc := quota.New(st)
	quotaSvc.Limits = map[domain.Tier]int{
		domain.TierFree:    cfg.Quota.FreeLimit,
		domain.TierLight:   cfg.Quota.LightLimit,
		domain.TierRegular: cfg.Quota.RegularLimit,
	}

	profileSvc := &services.ProfileService{Store: st}
	adviceSvc := &services.AdviceService{
		Store:    st,
		Decay:    engine,
		Matcher:  matcher,
		Quota:    quotaSvc,
		Tasks:    tasks,
		Profiles: profileSvc,
	}
	historySvc := &services.HistoryService{Store: st}
	favoriteSvc := &services.FavoriteService{Store: st}
	vibeSvc := &services.VibeService{Store: st, Decay: engine}
	aggregator := analytics.New(st)

	h := handlers.New(
		adviceSvc,
		quotaSvc,
		profileSvc,
		historySvc,
		favoriteSvc,
		vibeSvc,
		aggregator,
		cfg.Security.AdminSecret,
	)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Advice
		api.POST("/advice", h.RequestAdvice)
		api.GET("/advice/quota", h.GetQuota)

		// Vibe catalog
		api.GET("/vibes", h.ListVibes)
		api.GET("/vibes/:id", h.GetVibe)
		api.POST("/vibes", h.UpsertVibe)

		// Profile
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.UpdateProfile)
		api.DELETE("/profile", h.DeleteProfile)

		// History
		api.GET("/history", h.ListHistory)
		api.GET("/history/:id", h.GetHistory)
		api.POST("/history/:id/feedback", h.LeaveFeedback)
		api.DELETE("/history/:id", h.DeleteHistory)
		api.DELETE("/history", h.DeleteAllHistory)

		// Favorites
		api.POST("/favorites", h.AddFavorite)
		api.GET("/favorites", h.ListFavorites)
		api.DELETE("/favorites/:id", h.RemoveFavorite)

		// Insights
		api.GET("/insights", h.GetInsights)
		api.GET("/insights/:month", h.GetMonthlyInsights)

		// Admin
		api.POST("/admin/quota/reset", h.ResetQuotas)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Requests exceeding the cap cause downstream body
// reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
