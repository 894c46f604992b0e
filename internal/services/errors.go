// Package services defines the business logic for advice requests, user
// profiles, history, and favorites. This file centralizes the service-level
// error values so they can be consistently returned by service methods and
// translated into HTTP results at the handler layer.
package services

import "errors"

// Validation errors (rejected before touching the store).
var (
	// ErrEmptyScenario is returned when an advice request carries a blank
	// scenario description.
	ErrEmptyScenario = errors.New("scenario description is empty")

	// ErrScenarioTooLong is returned when the scenario description exceeds
	// the configured rune limit.
	ErrScenarioTooLong = errors.New("scenario description too long")

	// ErrInvalidRating is returned when a feedback rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrTooManyTopics is returned when interests or avoid-topics exceed
	// the per-list cap.
	ErrTooManyTopics = errors.New("too many preference topics")

	// ErrInvalidTier is returned when a profile update names an unknown
	// subscription tier.
	ErrInvalidTier = errors.New("unknown subscription tier")

	// ErrInvalidStyle is returned when a profile update names an unknown
	// conversation style.
	ErrInvalidStyle = errors.New("unknown conversation style")

	// ErrInvalidFavoriteType is returned when a favorite names a type other
	// than vibe or advice.
	ErrInvalidFavoriteType = errors.New("favorite type must be vibe or advice")

	// ErrInvalidMonthKey is returned when a metrics lookup key does not
	// match the YYYY-MM shape.
	ErrInvalidMonthKey = errors.New("month must have the form YYYY-MM")

	// ErrInvalidVibe is returned when a vibe upsert is missing a name or
	// category, or carries a strength outside [0,1].
	ErrInvalidVibe = errors.New("vibe requires a name, a category, and a strength in [0,1]")
)

// Business outcomes and authorization errors.
var (
	// ErrQuotaExceeded signals that the monthly request budget is spent.
	// It is a well-typed outcome the caller branches on, not a failure;
	// the accompanying quota.Status carries limit, remaining, and reset.
	ErrQuotaExceeded = errors.New("monthly query limit reached")

	// ErrNotOwner is returned whenever a history or favorite operation is
	// attempted by a user that does not own the target record. It is never
	// downgraded to a no-op.
	ErrNotOwner = errors.New("record is owned by another user")

	// ErrProfileNotFound indicates the user profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrVibeNotFound indicates the referenced vibe does not exist.
	ErrVibeNotFound = errors.New("vibe not found")

	// ErrHistoryNotFound indicates the referenced history entry does not
	// exist or is not visible to the caller.
	ErrHistoryNotFound = errors.New("history entry not found")

	// ErrFavoriteNotFound indicates the referenced favorite does not exist
	// or is not visible to the caller.
	ErrFavoriteNotFound = errors.New("favorite not found")

	// ErrDuplicateFavorite is returned when the same (type, reference) pair
	// is favorited twice by one user; duplicates are rejected, not merged.
	ErrDuplicateFavorite = errors.New("favorite already exists")
)
