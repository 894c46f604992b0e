// Advice HTTP handlers.
//
// This file exposes the core endpoints of the engine:
//   - POST /advice        (quota-checked personalized matching)
//   - GET  /advice/quota  (read-only quota status)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses. The monthly quota is
// surfaced via X-RateLimit-* headers on success and exhaustion alike.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-vibes-backend/internal/analytics"
	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/http/middleware"
	"github.com/tbourn/go-vibes-backend/internal/quota"
	"github.com/tbourn/go-vibes-backend/internal/services"
	"github.com/tbourn/go-vibes-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AdviceProvider serves one scenario end to end: quota, matching, async
// history. Implementations must be safe for concurrent use and honor the
// context for cancellation.
type AdviceProvider interface {
	RequestAdvice(ctx context.Context, userID string, scenario domain.Scenario) (*domain.Advice, quota.Status, error)
}

// QuotaService exposes quota state reads and the administrative reset.
type QuotaService interface {
	Peek(ctx context.Context, userID string) (quota.Status, error)
	ResetAll(ctx context.Context) error
}

// ProfileManager owns the user-profile lifecycle.
type ProfileManager interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.UserProfile, error)
	Update(ctx context.Context, userID string, upd services.ProfileUpdate) (*domain.UserProfile, error)
	Delete(ctx context.Context, userID string) error
}

// HistoryManager governs owner-only access to persisted advice history.
type HistoryManager interface {
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.AdviceHistory, int64, error)
	Get(ctx context.Context, userID, id string) (*domain.AdviceHistory, error)
	Feedback(ctx context.Context, userID, id string, rating *int, feedback string, wasHelpful *bool) (*domain.AdviceHistory, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) error
}

// FavoriteManager implements bookmarking of vibes and advice entries.
type FavoriteManager interface {
	Add(ctx context.Context, userID string, typ domain.FavoriteType, referenceID, note string) (*domain.Favorite, error)
	List(ctx context.Context, userID string, typ domain.FavoriteType) ([]domain.Favorite, error)
	Remove(ctx context.Context, userID, id string) error
}

// VibeCatalog exposes decay-adjusted reads and upserts of the vibe catalog.
type VibeCatalog interface {
	List(ctx context.Context) ([]domain.Vibe, error)
	Get(ctx context.Context, id string) (*domain.Vibe, error)
	Upsert(ctx context.Context, v *domain.Vibe) (*domain.Vibe, error)
}

// InsightsProvider computes derived analytics views.
type InsightsProvider interface {
	UserInsights(ctx context.Context, userID string) (*analytics.Insights, error)
	AggregateMonth(ctx context.Context, userID, month string) (*domain.MonthlyMetric, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the engine. It depends on abstract
// service interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	advice    AdviceProvider
	quota     QuotaService
	profiles  ProfileManager
	history   HistoryManager
	favorites FavoriteManager
	vibes     VibeCatalog
	insights  InsightsProvider

	// adminSecret gates POST /admin/quota/reset; empty disables the endpoint.
	adminSecret string
}

// New constructs a Handlers instance bound to the given services.
func New(
	advice AdviceProvider,
	quotaSvc QuotaService,
	profiles ProfileManager,
	history HistoryManager,
	favorites FavoriteManager,
	vibes VibeCatalog,
	insights InsightsProvider,
	adminSecret string,
) *Handlers {
	return &Handlers{
		advice:      advice,
		quota:       quotaSvc,
		profiles:    profiles,
		history:     history,
		favorites:   favorites,
		vibes:       vibes,
		insights:    insights,
		adminSecret: adminSecret,
	}
}

// userID extracts the authenticated user id from the Gin context (set by
// middleware.Identity). If absent it falls back to the X-User-ID header
// (tests use it). An empty result means an anonymous caller.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

// requireUserID resolves the caller identity or fails with 401. Endpoints
// that touch user-owned state use it; the advice endpoint itself accepts
// anonymous callers.
func requireUserID(c *gin.Context) (string, bool) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "X-User-ID header required")
		return "", false
	}
	return uid, true
}

//
// DTOs
//

// AdviceRequest is the JSON payload for requesting advice.
type AdviceRequest struct {
	// Scenario is the free-text situation description (1–2000 chars).
	Scenario string `json:"scenario" binding:"required" example:"dinner with new coworkers at an izakaya"`
	// Location optionally narrows the setting.
	Location string `json:"location,omitempty" example:"Tokyo"`
	// TimeOfDay optionally narrows the setting (morning/afternoon/evening).
	TimeOfDay string `json:"time_of_day,omitempty" example:"evening"`
	// Formality hints at the register (casual/formal).
	Formality string `json:"formality,omitempty" example:"casual"`
	// Preferences lists explicit topic preferences for this request only.
	Preferences []string `json:"preferences,omitempty"`
}

// AdviceResponse wraps the advice plus quota metadata.
type AdviceResponse struct {
	Advice *domain.Advice `json:"advice"`
	Quota  *quota.Status  `json:"quota,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.PageParams(c.Query("page"), c.Query("page_size"), 20, 100)
}

//
// Handlers
//

// RequestAdvice godoc
// @ID          requestAdvice
// @Summary     Get personalized scenario advice
// @Description Matches the scenario against current cultural signals, personalized by the caller's profile. Consumes one unit of the monthly quota for authenticated callers; anonymous calls are served without personalization or history.
// @Tags        Advice
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID"  example(user123)
// @Param       body       body    handlers.AdviceRequest  true  "Scenario payload"
//
// @Success     200  {object}  handlers.AdviceResponse
// @Header      200  {string}  X-RateLimit-Limit      "Monthly limit (-1 = unlimited)"
// @Header      200  {string}  X-RateLimit-Remaining  "Requests left this month"
// @Header      200  {string}  X-RateLimit-Reset      "Unix time the budget renews"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     429  {object}  handlers.ErrorResponse "Monthly quota exhausted"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /advice [post]
func (h *Handlers) RequestAdvice(c *gin.Context) {
	var req AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AdviceRequestsTotal.WithLabelValues("invalid").Inc()
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: scenario required")
		return
	}

	uid := userID(c)
	scenario := domain.Scenario{
		Description: req.Scenario,
		Location:    strings.TrimSpace(req.Location),
		TimeOfDay:   strings.TrimSpace(req.TimeOfDay),
		Formality:   strings.TrimSpace(req.Formality),
		Preferences: req.Preferences,
	}

	advice, qs, err := h.advice.RequestAdvice(c.Request.Context(), uid, scenario)
	if uid != "" {
		setQuotaHeaders(c, qs)
	}
	if err != nil {
		switch {
		case err == services.ErrQuotaExceeded:
			middleware.AdviceRequestsTotal.WithLabelValues("quota_exceeded").Inc()
			middleware.QuotaExceededTotal.WithLabelValues(tierLabel(qs)).Inc()
			failWithReset(c, http.StatusTooManyRequests, ErrCodeQuotaExceeded,
				"monthly query limit reached", qs.ResetAt)
		case err == services.ErrEmptyScenario || err == services.ErrScenarioTooLong:
			middleware.AdviceRequestsTotal.WithLabelValues("invalid").Inc()
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			middleware.AdviceRequestsTotal.WithLabelValues("error").Inc()
			fail(c, http.StatusInternalServerError, ErrCodeAdviceFailed, "internal server error")
		}
		return
	}

	middleware.AdviceRequestsTotal.WithLabelValues("ok").Inc()
	middleware.MatchesReturned.Observe(float64(len(advice.Matches)))

	resp := AdviceResponse{Advice: advice}
	if uid != "" {
		resp.Quota = &qs
	}
	ok(c, http.StatusOK, resp)
}

// tierLabel collapses a quota status into a coarse metric label. Exact tiers
// are not carried in Status, so the label distinguishes limits only.
func tierLabel(qs quota.Status) string {
	switch qs.Limit {
	case domain.TierFree.QueryLimit():
		return string(domain.TierFree)
	case domain.TierLight.QueryLimit():
		return string(domain.TierLight)
	case domain.TierRegular.QueryLimit():
		return string(domain.TierRegular)
	case domain.UnlimitedQueries:
		return string(domain.TierUnlimited)
	}
	return "custom"
}

// GetQuota godoc
// @ID          getQuota
// @Summary     Read current quota status
// @Description Reports the caller's monthly quota without consuming a unit.
// @Tags        Advice
// @Produce     json
//
// @Param       X-User-ID  header  string  true "User ID"  example(user123)
//
// @Success     200  {object}  quota.Status
// @Failure     401  {object}  handlers.ErrorResponse "Missing identity"
// @Failure     404  {object}  handlers.ErrorResponse "Profile not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /advice/quota [get]
func (h *Handlers) GetQuota(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	qs, err := h.quota.Peek(c.Request.Context(), uid)
	if err != nil {
		failErr(c, mapStoreNotFound(err))
		return
	}
	setQuotaHeaders(c, qs)
	ok(c, http.StatusOK, qs)
}
