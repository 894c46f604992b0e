// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all
// endpoints: the structured error envelope, the service-error translator,
// and the X-RateLimit-* header writer. The goal is a uniform, predictable
// shape for both success and failure responses.
//
// Conventions:
//   - All error responses return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error formatting and ensures 5xx responses are
//     logged with request context.
//   - `failErr()` maps well-known service errors onto (status, code, message)
//     in one place so individual handlers stay transport-thin.
//
// Example error response:
//
//	HTTP/1.1 403 Forbidden
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "forbidden",
//	  "message": "record is owned by another user"
//	}
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-vibes-backend/internal/http/middleware"
	"github.com/tbourn/go-vibes-backend/internal/quota"
	"github.com/tbourn/go-vibes-backend/internal/services"
	"github.com/tbourn/go-vibes-backend/internal/store"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: correlation ID echoed from X-Request-ID, used to correlate
//     server logs with client-side errors.
//   - Code: a stable, machine-readable string (see errors.go constants).
//   - Message: a human-readable description, safe to display to users.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
	// ResetAt is set on quota_exceeded responses: when the budget renews (UTC)
	ResetAt string `json:"reset_at,omitempty" example:"2026-09-01T00:00:00Z"`
}

// fail aborts the request with a structured error envelope. Server errors
// (>= 500) are logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failWithReset(c, status, code, msg, time.Time{})
}

func failWithReset(c *gin.Context, status int, code, msg string, resetAt time.Time) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}
	if !resetAt.IsZero() {
		resp.ResetAt = resetAt.UTC().Format(time.RFC3339)
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail(), used by router-level handlers
// (NoRoute, NoMethod) to keep the envelope consistent.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr translates well-known service errors into HTTP responses. Unknown
// errors become opaque 500s so internals never leak to clients.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyScenario),
		errors.Is(err, services.ErrScenarioTooLong),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrTooManyTopics),
		errors.Is(err, services.ErrInvalidTier),
		errors.Is(err, services.ErrInvalidStyle),
		errors.Is(err, services.ErrInvalidFavoriteType),
		errors.Is(err, services.ErrInvalidMonthKey),
		errors.Is(err, services.ErrInvalidVibe):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrVibeNotFound),
		errors.Is(err, services.ErrHistoryNotFound),
		errors.Is(err, services.ErrFavoriteNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrDuplicateFavorite):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// mapStoreNotFound upgrades a raw store miss to the profile-level sentinel,
// for endpoints that read quota state directly off the profile row.
func mapStoreNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return services.ErrProfileNotFound
	}
	return err
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// setQuotaHeaders publishes the monthly-quota state as X-RateLimit-* headers.
// The unlimited tier reports -1 for limit and remaining. Reset is the first
// instant of the next month in Unix seconds (server UTC clock).
func setQuotaHeaders(c *gin.Context, qs quota.Status) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(qs.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(qs.Remaining))
	if !qs.ResetAt.IsZero() {
		c.Header("X-RateLimit-Reset", strconv.FormatInt(qs.ResetAt.Unix(), 10))
	}
}
