package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

func TestMemoryStore_VibeRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	v := &domain.Vibe{Name: "quiet luxury", Category: "fashion", Strength: 0.8}
	if err := st.SaveVibe(ctx, v); err != nil {
		t.Fatalf("save vibe: %v", err)
	}
	if v.ID == "" {
		t.Fatalf("save must assign an ID")
	}

	got, err := st.GetVibe(ctx, v.ID)
	if err != nil {
		t.Fatalf("get vibe: %v", err)
	}
	if got.Name != "quiet luxury" || got.Strength != 0.8 {
		t.Fatalf("round trip lost data: %+v", got)
	}

	// Mutating the returned copy must not affect the stored record.
	got.Strength = 0
	again, _ := st.GetVibe(ctx, v.ID)
	if again.Strength != 0.8 {
		t.Fatalf("returned value aliases stored state")
	}

	if _, err := st.GetVibe(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	n, _ := st.CountVibes(ctx)
	if n != 1 {
		t.Fatalf("CountVibes = %d, want 1", n)
	}
}

func TestMemoryStore_GetRecentVibesOrdersByLastSeen(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		v := &domain.Vibe{ID: id, Name: id, Category: "x", LastSeen: base.Add(time.Duration(i) * time.Hour)}
		if err := st.SaveVibe(ctx, v); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	out, err := st.GetRecentVibes(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(out) != 2 || out[0].ID != "c" || out[1].ID != "b" {
		t.Fatalf("wrong recency order: %+v", out)
	}
}

func TestMemoryStore_HistoryOrderingAndPaging(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		h := &domain.AdviceHistory{UserID: "u1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := st.SaveAdviceHistory(ctx, h); err != nil {
			t.Fatalf("save history: %v", err)
		}
		ids = append(ids, h.ID)
	}
	// Another user's rows never leak in.
	other := &domain.AdviceHistory{UserID: "u2", CreatedAt: base.Add(time.Hour)}
	_ = st.SaveAdviceHistory(ctx, other)

	page, err := st.GetAdviceHistory(ctx, "u1", 2, 0)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[4] || page[1].ID != ids[3] {
		t.Fatalf("newest-first failed: got %s,%s want %s,%s",
			page[0].ID, page[1].ID, ids[4], ids[3])
	}

	rest, _ := st.GetAdviceHistory(ctx, "u1", 10, 4)
	if len(rest) != 1 || rest[0].ID != ids[0] {
		t.Fatalf("offset paging failed: %+v", rest)
	}

	empty, _ := st.GetAdviceHistory(ctx, "u1", 10, 99)
	if len(empty) != 0 {
		t.Fatalf("past-the-end offset must return empty, got %d", len(empty))
	}

	n, _ := st.CountAdviceHistory(ctx, "u1")
	if n != 5 {
		t.Fatalf("CountAdviceHistory = %d, want 5", n)
	}
}

func TestMemoryStore_HistoryRangeInclusiveExclusive(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	onStart := &domain.AdviceHistory{UserID: "u1", CreatedAt: from}
	inside := &domain.AdviceHistory{UserID: "u1", CreatedAt: from.AddDate(0, 0, 10)}
	onEnd := &domain.AdviceHistory{UserID: "u1", CreatedAt: to}
	for _, h := range []*domain.AdviceHistory{onStart, inside, onEnd} {
		_ = st.SaveAdviceHistory(ctx, h)
	}

	rows, err := st.GetAdviceHistoryRange(ctx, "u1", from, to)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("[from,to) must keep start and drop end: got %d rows", len(rows))
	}
	if !rows[0].CreatedAt.Equal(from) {
		t.Fatalf("range must be oldest-first, got %v first", rows[0].CreatedAt)
	}
}

func TestMemoryStore_FavoriteDuplicate(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	f := &domain.Favorite{UserID: "u1", Type: domain.FavoriteVibe, ReferenceID: "v1"}
	if err := st.SaveFavorite(ctx, f); err != nil {
		t.Fatalf("first save: %v", err)
	}
	dup := &domain.Favorite{UserID: "u1", Type: domain.FavoriteVibe, ReferenceID: "v1"}
	if err := st.SaveFavorite(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Same reference, different user or type: allowed.
	if err := st.SaveFavorite(ctx, &domain.Favorite{UserID: "u2", Type: domain.FavoriteVibe, ReferenceID: "v1"}); err != nil {
		t.Fatalf("other user blocked: %v", err)
	}
	if err := st.SaveFavorite(ctx, &domain.Favorite{UserID: "u1", Type: domain.FavoriteAdvice, ReferenceID: "v1"}); err != nil {
		t.Fatalf("other type blocked: %v", err)
	}

	mine, _ := st.GetFavorites(ctx, "u1", "")
	if len(mine) != 2 {
		t.Fatalf("GetFavorites(u1) = %d rows, want 2", len(mine))
	}
	vibesOnly, _ := st.GetFavorites(ctx, "u1", domain.FavoriteVibe)
	if len(vibesOnly) != 1 {
		t.Fatalf("type filter failed: %d rows", len(vibesOnly))
	}
}

func TestMemoryStore_UserIsolationOnDelete(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	for _, uid := range []string{"u1", "u2"} {
		_ = st.SaveUser(ctx, &domain.UserProfile{ID: uid, Tier: domain.TierFree})
		_ = st.SaveAdviceHistory(ctx, &domain.AdviceHistory{UserID: uid, CreatedAt: time.Now()})
		_ = st.SaveFavorite(ctx, &domain.Favorite{UserID: uid, Type: domain.FavoriteVibe, ReferenceID: "v-" + uid})
	}

	if err := st.DeleteAllAdviceHistory(ctx, "u1"); err != nil {
		t.Fatalf("delete history: %v", err)
	}
	if err := st.DeleteAllFavorites(ctx, "u1"); err != nil {
		t.Fatalf("delete favorites: %v", err)
	}
	if err := st.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if _, err := st.GetUser(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("u1 still present: %v", err)
	}
	n, _ := st.CountAdviceHistory(ctx, "u2")
	if n != 1 {
		t.Fatalf("u2 history affected by u1 deletion: %d", n)
	}
	favs, _ := st.GetFavorites(ctx, "u2", "")
	if len(favs) != 1 {
		t.Fatalf("u2 favorites affected by u1 deletion: %d", len(favs))
	}
	if _, err := st.GetUser(ctx, "u2"); err != nil {
		t.Fatalf("u2 profile affected: %v", err)
	}
}

func TestMemoryStore_MonthlyMetricUpsertKeepsIdentity(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	first := &domain.MonthlyMetric{UserID: "u1", Month: "2026-08", QueryCount: 2}
	if err := st.SaveMonthlyMetric(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := &domain.MonthlyMetric{UserID: "u1", Month: "2026-08", QueryCount: 7}
	if err := st.SaveMonthlyMetric(ctx, second); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert must keep the row identity: %s != %s", second.ID, first.ID)
	}

	got, err := st.GetMonthlyMetric(ctx, "u1", "2026-08")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.QueryCount != 7 {
		t.Fatalf("latest aggregate must win: %d", got.QueryCount)
	}
	if _, err := st.GetMonthlyMetric(ctx, "u1", "2026-07"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("absent month must be ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ConsumeQueryRollover(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	_ = st.SaveUser(ctx, &domain.UserProfile{ID: "u1", Tier: domain.TierFree, QueriesThisMonth: 5, PeriodMonth: "2026-07"})

	used, allowed, err := st.ConsumeQuery(ctx, "u1", "2026-08", 5)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !allowed || used != 1 {
		t.Fatalf("rollover failed: allowed=%v used=%d", allowed, used)
	}

	// limit < 0 means unlimited.
	for i := 0; i < 50; i++ {
		if _, allowed, _ := st.ConsumeQuery(ctx, "u1", "2026-08", -1); !allowed {
			t.Fatalf("negative limit must always allow")
		}
	}
}
