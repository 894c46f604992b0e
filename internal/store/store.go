// Package store defines the persistence contract consumed by the engine and
// provides two conforming backends: a GORM/SQLite implementation for
// production and an in-memory implementation for tests and ephemeral
// deployments. No core logic may depend on which backend is active.
//
// Error semantics:
//   - ErrNotFound when a requested record does not exist.
//   - ErrDuplicate when a uniqueness constraint is violated (favorites).
//   - Any other error is a propagated backend failure; callers must not
//     swallow it or return partial data.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// Store is the persistence contract for vibes, profiles, history, favorites,
// and monthly metrics. All methods are context-aware; every call is a
// potential I/O suspension point. Implementations must be safe for
// concurrent use.
type Store interface {
	// Vibes (read-mostly; SaveVibe upserts by ID).
	SaveVibe(ctx context.Context, v *domain.Vibe) error
	GetVibe(ctx context.Context, id string) (*domain.Vibe, error)
	GetRecentVibes(ctx context.Context, limit int) ([]domain.Vibe, error)
	GetAllVibes(ctx context.Context) ([]domain.Vibe, error)
	CountVibes(ctx context.Context) (int64, error)

	// User profiles (SaveUser upserts by ID).
	GetUser(ctx context.Context, id string) (*domain.UserProfile, error)
	SaveUser(ctx context.Context, p *domain.UserProfile) error
	DeleteUser(ctx context.Context, id string) error

	// ConsumeQuery atomically increments the user's monthly counter when it
	// is still below limit, rolling the counter over to month first when the
	// stored period predates it. It returns the counter value after the call
	// and whether the increment was applied. A limit < 0 means unlimited and
	// always increments. This is the engine's single quota mutation path;
	// concurrent callers at limit-1 must yield exactly one success.
	ConsumeQuery(ctx context.Context, userID, month string, limit int) (used int, allowed bool, err error)

	// ResetAllQuotas zeroes every user's monthly counter and stamps the
	// given period month. Administrative; tier limits are untouched.
	ResetAllQuotas(ctx context.Context, month string) error

	// Advice history (newest-first listings, exclusively owned by UserID).
	SaveAdviceHistory(ctx context.Context, h *domain.AdviceHistory) error
	GetAdviceHistory(ctx context.Context, userID string, limit, offset int) ([]domain.AdviceHistory, error)
	CountAdviceHistory(ctx context.Context, userID string) (int64, error)
	GetAdviceHistoryItem(ctx context.Context, id string) (*domain.AdviceHistory, error)
	DeleteAdviceHistory(ctx context.Context, id string) error
	DeleteAllAdviceHistory(ctx context.Context, userID string) error

	// GetAdviceHistoryRange returns a user's history rows created in
	// [from, to), oldest first. Used by the analytics aggregator.
	GetAdviceHistoryRange(ctx context.Context, userID string, from, to time.Time) ([]domain.AdviceHistory, error)

	// Favorites (unique per user/type/reference).
	SaveFavorite(ctx context.Context, f *domain.Favorite) error
	GetFavorites(ctx context.Context, userID string, typ domain.FavoriteType) ([]domain.Favorite, error)
	GetFavorite(ctx context.Context, id string) (*domain.Favorite, error)
	DeleteFavorite(ctx context.Context, id string) error
	DeleteAllFavorites(ctx context.Context, userID string) error

	// Monthly metrics (SaveMonthlyMetric upserts by user+month).
	SaveMonthlyMetric(ctx context.Context, m *domain.MonthlyMetric) error
	GetMonthlyMetric(ctx context.Context, userID, month string) (*domain.MonthlyMetric, error)
}
