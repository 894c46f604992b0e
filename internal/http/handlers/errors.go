// Package handlers defines the HTTP-layer error codes used across all API
// endpoints.
//
// These symbolic constants are the stable, machine-readable half of every
// error response (see response.go). Clients branch on codes; messages are
// for humans.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - quota_exceeded is distinct from too_many_requests: the former is the
//     monthly budget (renews on the first of next month), the latter is the
//     burst rate limiter (renews within seconds).
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeQuotaExceeded    = "quota_exceeded"
	ErrCodeAdviceFailed     = "advice_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
