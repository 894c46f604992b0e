package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:vibestore_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return NewGormStore(db)
}

func TestGormStore_ConsumeQueryStopsAtLimit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	month := "2026-08"

	if err := st.SaveUser(ctx, &domain.UserProfile{ID: "u1", Tier: domain.TierFree, PeriodMonth: month}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		used, allowed, err := st.ConsumeQuery(ctx, "u1", month, 3)
		if err != nil {
			t.Fatalf("consume %d: %v", i, err)
		}
		if !allowed || used != i {
			t.Fatalf("consume %d: allowed=%v used=%d", i, allowed, used)
		}
	}

	used, allowed, err := st.ConsumeQuery(ctx, "u1", month, 3)
	if err != nil {
		t.Fatalf("denied consume: %v", err)
	}
	if allowed || used != 3 {
		t.Fatalf("limit not enforced: allowed=%v used=%d", allowed, used)
	}
}

func TestGormStore_ConsumeQueryConcurrentLastUnit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	month := "2026-08"

	if err := st.SaveUser(ctx, &domain.UserProfile{
		ID: "u1", Tier: domain.TierFree, QueriesThisMonth: 4, PeriodMonth: month,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const callers = 20
	var wg sync.WaitGroup
	granted := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, allowed, err := st.ConsumeQuery(ctx, "u1", month, 5)
			if err != nil {
				t.Errorf("concurrent consume: %v", err)
				return
			}
			if allowed {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	n := 0
	for range granted {
		n++
	}
	if n != 1 {
		t.Fatalf("exactly one concurrent caller may win, got %d", n)
	}

	p, err := st.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if p.QueriesThisMonth != 5 {
		t.Fatalf("counter overran: %d", p.QueriesThisMonth)
	}
}

func TestGormStore_ConsumeQueryRollsOverStalePeriod(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_ = st.SaveUser(ctx, &domain.UserProfile{
		ID: "u1", Tier: domain.TierFree, QueriesThisMonth: 5, PeriodMonth: "2026-07",
	})

	used, allowed, err := st.ConsumeQuery(ctx, "u1", "2026-08", 5)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !allowed || used != 1 {
		t.Fatalf("rollover failed: allowed=%v used=%d", allowed, used)
	}
	p, _ := st.GetUser(ctx, "u1")
	if p.PeriodMonth != "2026-08" {
		t.Fatalf("period_month not stamped: %q", p.PeriodMonth)
	}
}

func TestGormStore_FavoriteUniqueIndex(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	f := &domain.Favorite{UserID: "u1", Type: domain.FavoriteVibe, ReferenceID: uuid.NewString()}
	if err := st.SaveFavorite(ctx, f); err != nil {
		t.Fatalf("first save: %v", err)
	}
	dup := &domain.Favorite{UserID: "u1", Type: domain.FavoriteVibe, ReferenceID: f.ReferenceID}
	if err := st.SaveFavorite(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate from the unique index, got %v", err)
	}
}

func TestGormStore_HistoryPagingNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		h := &domain.AdviceHistory{
			UserID:    "u1",
			Scenario:  domain.Scenario{Description: fmt.Sprintf("s%d", i)},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := st.SaveAdviceHistory(ctx, h); err != nil {
			t.Fatalf("save: %v", err)
		}
		ids = append(ids, h.ID)
	}

	page, err := st.GetAdviceHistory(ctx, "u1", 2, 0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[3] || page[1].ID != ids[2] {
		t.Fatalf("newest-first order wrong: %v", []string{page[0].ID, page[1].ID})
	}
	// Serialized scenario survives the round trip.
	if page[0].Scenario.Description != "s3" {
		t.Fatalf("scenario JSON round trip lost data: %+v", page[0].Scenario)
	}

	total, _ := st.CountAdviceHistory(ctx, "u1")
	if total != 4 {
		t.Fatalf("count = %d, want 4", total)
	}
}

func TestGormStore_HistoryRangeBoundaries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	from, to := domain.MonthBounds("2026-08")

	for _, at := range []time.Time{from, from.AddDate(0, 0, 15), to} {
		h := &domain.AdviceHistory{UserID: "u1", CreatedAt: at}
		if err := st.SaveAdviceHistory(ctx, h); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	rows, err := st.GetAdviceHistoryRange(ctx, "u1", from, to)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("[from,to) violated: %d rows", len(rows))
	}
}

func TestGormStore_MonthlyMetricUpsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := &domain.MonthlyMetric{
		UserID: "u1", Month: "2026-08", QueryCount: 1,
		RegionCounts: map[string]int{"jp": 1},
	}
	if err := st.SaveMonthlyMetric(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := &domain.MonthlyMetric{
		UserID: "u1", Month: "2026-08", QueryCount: 9,
		RegionCounts: map[string]int{"jp": 5, "us": 4},
	}
	if err := st.SaveMonthlyMetric(ctx, second); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("identity changed on upsert")
	}

	got, err := st.GetMonthlyMetric(ctx, "u1", "2026-08")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.QueryCount != 9 || got.RegionCounts["us"] != 4 {
		t.Fatalf("latest aggregate lost: %+v", got)
	}
}

func TestGormStore_DeleteMissingRows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.DeleteUser(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteUser(ghost) = %v", err)
	}
	if err := st.DeleteAdviceHistory(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteAdviceHistory(ghost) = %v", err)
	}
	if err := st.DeleteFavorite(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteFavorite(ghost) = %v", err)
	}
	if _, err := st.GetVibe(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetVibe(ghost) = %v", err)
	}
}
