// GORM-backed Store implementation (SQLite via the pure-Go driver).
//
// Queries follow the thin-repository approach: persistence and query
// composition only, no business rules. The quota counter is the single
// synchronized mutation in the system and is implemented here as a
// conditional UPDATE so N concurrent consumers at limit-1 produce exactly
// one success.
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// GormStore implements Store on top of a *gorm.DB handle.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an existing GORM handle.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

// DB exposes the underlying handle for migrations and health checks.
func (s *GormStore) DB() *gorm.DB { return s.db }

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs, tunes
// the pool, and installs the OpenTelemetry tracing plugin.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if the parent directory does not exist (instead of the
	// opaque sqlite "out of memory (14)").
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for all engine models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Vibe{},
		&domain.UserProfile{},
		&domain.AdviceHistory{},
		&domain.Favorite{},
		&domain.MonthlyMetric{},
	)
}

// translate maps GORM sentinels onto the store error taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// isUniqueViolation detects unique-constraint violations across drivers that
// do not map them to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// ---- Vibes ----

// SaveVibe upserts a vibe by ID. A blank ID gets a fresh UUID.
func (s *GormStore) SaveVibe(ctx context.Context, v *domain.Vibe) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Save(v).Error
}

// GetVibe fetches a vibe by ID, or ErrNotFound.
func (s *GormStore) GetVibe(ctx context.Context, id string) (*domain.Vibe, error) {
	var v domain.Vibe
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// GetRecentVibes returns up to limit vibes ordered by last_seen descending.
func (s *GormStore) GetRecentVibes(ctx context.Context, limit int) ([]domain.Vibe, error) {
	var out []domain.Vibe
	q := s.db.WithContext(ctx).Order("last_seen desc, id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetAllVibes returns every vibe, ordered deterministically by ID.
func (s *GormStore) GetAllVibes(ctx context.Context) ([]domain.Vibe, error) {
	var out []domain.Vibe
	err := s.db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// CountVibes returns the total number of vibes.
func (s *GormStore) CountVibes(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&domain.Vibe{}).Count(&total).Error
	return total, err
}

// ---- Users ----

// GetUser fetches a profile by ID, or ErrNotFound.
func (s *GormStore) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// SaveUser upserts a profile by ID.
func (s *GormStore) SaveUser(ctx context.Context, p *domain.UserProfile) error {
	return s.db.WithContext(ctx).Save(p).Error
}

// DeleteUser removes a profile. Cascade deletion of owned history and
// favorites is enforced by the service layer, not here.
func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.UserProfile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeQuery implements the atomic check-then-increment. The rollover and
// the conditional increment run in one transaction; the UPDATE's WHERE
// clause carries the limit check so the database serializes concurrent
// consumers for the same user.
func (s *GormStore) ConsumeQuery(ctx context.Context, userID, month string, limit int) (int, bool, error) {
	var used int
	var allowed bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Roll the counter into the current month when the stored period is
		// stale. Server-observed month only; clients never supply it.
		if err := tx.Model(&domain.UserProfile{}).
			Where("id = ? AND period_month <> ?", userID, month).
			Updates(map[string]any{"queries_this_month": 0, "period_month": month}).Error; err != nil {
			return err
		}

		q := tx.Model(&domain.UserProfile{}).Where("id = ?", userID)
		if limit >= 0 {
			q = q.Where("queries_this_month < ?", limit)
		}
		res := q.Update("queries_this_month", gorm.Expr("queries_this_month + 1"))
		if res.Error != nil {
			return res.Error
		}
		allowed = res.RowsAffected > 0

		var p domain.UserProfile
		if err := tx.Where("id = ?", userID).First(&p).Error; err != nil {
			return translate(err)
		}
		used = p.QueriesThisMonth
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return used, allowed, nil
}

// ResetAllQuotas zeroes every counter and stamps the new period month.
func (s *GormStore) ResetAllQuotas(ctx context.Context, month string) error {
	return s.db.WithContext(ctx).Model(&domain.UserProfile{}).
		Where("1 = 1").
		Updates(map[string]any{"queries_this_month": 0, "period_month": month}).Error
}

// ---- Advice history ----

// SaveAdviceHistory upserts a history row. A blank ID gets a fresh UUID.
func (s *GormStore) SaveAdviceHistory(ctx context.Context, h *domain.AdviceHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Save(h).Error
}

// GetAdviceHistory returns a page of the user's history, newest first with
// an ID tie-break for determinism.
func (s *GormStore) GetAdviceHistory(ctx context.Context, userID string, limit, offset int) ([]domain.AdviceHistory, error) {
	var out []domain.AdviceHistory
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountAdviceHistory returns the user's total history rows.
func (s *GormStore) CountAdviceHistory(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&domain.AdviceHistory{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// GetAdviceHistoryItem fetches one history row by ID, or ErrNotFound.
func (s *GormStore) GetAdviceHistoryItem(ctx context.Context, id string) (*domain.AdviceHistory, error) {
	var h domain.AdviceHistory
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&h).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

// DeleteAdviceHistory removes one history row by ID.
func (s *GormStore) DeleteAdviceHistory(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.AdviceHistory{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllAdviceHistory removes every history row owned by userID.
func (s *GormStore) DeleteAllAdviceHistory(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.AdviceHistory{}).Error
}

// GetAdviceHistoryRange returns history rows created in [from, to),
// oldest first.
func (s *GormStore) GetAdviceHistoryRange(ctx context.Context, userID string, from, to time.Time) ([]domain.AdviceHistory, error) {
	var out []domain.AdviceHistory
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// ---- Favorites ----

// SaveFavorite inserts a favorite; duplicates on (user, type, reference)
// surface as ErrDuplicate.
func (s *GormStore) SaveFavorite(ctx context.Context, f *domain.Favorite) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		return translate(err)
	}
	return nil
}

// GetFavorites lists a user's favorites, newest first, optionally filtered
// by type.
func (s *GormStore) GetFavorites(ctx context.Context, userID string, typ domain.FavoriteType) ([]domain.Favorite, error) {
	var out []domain.Favorite
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	err := q.Order("created_at desc, id desc").Find(&out).Error
	return out, err
}

// GetFavorite fetches one favorite by ID, or ErrNotFound.
func (s *GormStore) GetFavorite(ctx context.Context, id string) (*domain.Favorite, error) {
	var f domain.Favorite
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// DeleteFavorite removes one favorite by ID.
func (s *GormStore) DeleteFavorite(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllFavorites removes every favorite owned by userID.
func (s *GormStore) DeleteAllFavorites(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Favorite{}).Error
}

// ---- Monthly metrics ----

// SaveMonthlyMetric upserts the aggregate for (user, month) so reaggregation
// stays idempotent.
func (s *GormStore) SaveMonthlyMetric(ctx context.Context, m *domain.MonthlyMetric) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.MonthlyMetric
		err := tx.Where("user_id = ? AND month = ?", m.UserID, m.Month).First(&existing).Error
		switch {
		case err == nil:
			m.ID = existing.ID
			m.CreatedAt = existing.CreatedAt
			return tx.Save(m).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			if m.ID == "" {
				m.ID = uuid.NewString()
			}
			return tx.Create(m).Error
		default:
			return err
		}
	})
}

// GetMonthlyMetric fetches the aggregate for (user, month), or ErrNotFound.
func (s *GormStore) GetMonthlyMetric(ctx context.Context, userID, month string) (*domain.MonthlyMetric, error) {
	var m domain.MonthlyMetric
	if err := s.db.WithContext(ctx).Where("user_id = ? AND month = ?", userID, month).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// compile-time conformance check
var _ Store = (*GormStore)(nil)
