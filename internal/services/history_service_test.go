package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/store"
)

func ratingPtr(n int) *int    { return &n }
func helpfulPtr(b bool) *bool { return &b }

func seedEntry(t *testing.T, st *store.MemoryStore, userID string, at time.Time) *domain.AdviceHistory {
	t.Helper()
	h := &domain.AdviceHistory{
		UserID:    userID,
		Scenario:  domain.Scenario{Description: "d"},
		CreatedAt: at,
	}
	if err := st.SaveAdviceHistory(context.Background(), h); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return h
}

func TestHistoryListPage(t *testing.T) {
	st := store.NewMemoryStore()
	svc := &HistoryService{Store: st}
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	var newest string
	for i := 0; i < 5; i++ {
		h := seedEntry(t, st, "u1", base.Add(time.Duration(i)*time.Minute))
		newest = h.ID
	}
	seedEntry(t, st, "u2", base)

	items, total, err := svc.ListPage(ctx, "u1", 1, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(items) != 2 || items[0].ID != newest {
		t.Fatalf("newest-first paging wrong: %+v", items)
	}

	// Out-of-range pages normalize instead of failing.
	items, total, err = svc.ListPage(ctx, "u1", -3, 0)
	if err != nil || total != 5 || len(items) != 5 {
		t.Fatalf("normalized paging: items=%d total=%d err=%v", len(items), total, err)
	}

	// Empty history short-circuits with an empty page.
	items, total, err = svc.ListPage(ctx, "nobody", 1, 10)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty history: items=%d total=%d err=%v", len(items), total, err)
	}
}

func TestHistoryGet_Ownership(t *testing.T) {
	st := store.NewMemoryStore()
	svc := &HistoryService{Store: st}
	ctx := context.Background()

	h := seedEntry(t, st, "owner", time.Now())

	if _, err := svc.Get(ctx, "owner", h.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.Get(ctx, "intruder", h.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign read must be ErrNotOwner, got %v", err)
	}
	if _, err := svc.Get(ctx, "owner", "missing"); !errors.Is(err, ErrHistoryNotFound) {
		t.Fatalf("missing entry: got %v", err)
	}
}

func TestHistoryFeedback(t *testing.T) {
	st := store.NewMemoryStore()
	svc := &HistoryService{Store: st}
	ctx := context.Background()

	h := seedEntry(t, st, "u1", time.Now())

	got, err := svc.Feedback(ctx, "u1", h.ID, ratingPtr(4), "  solid tips  ", helpfulPtr(true))
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if got.Rating == nil || *got.Rating != 4 {
		t.Fatalf("rating not recorded: %+v", got.Rating)
	}
	if got.Feedback != "solid tips" {
		t.Fatalf("feedback not trimmed: %q", got.Feedback)
	}
	if got.WasHelpful == nil || !*got.WasHelpful {
		t.Fatalf("helpful flag not recorded")
	}

	// Partial update: rating survives a text-only follow-up.
	got, err = svc.Feedback(ctx, "u1", h.ID, nil, "more detail", nil)
	if err != nil {
		t.Fatalf("second feedback: %v", err)
	}
	if got.Rating == nil || *got.Rating != 4 {
		t.Fatalf("partial feedback clobbered the rating")
	}
}

func TestHistoryFeedback_InvalidRating(t *testing.T) {
	st := store.NewMemoryStore()
	svc := &HistoryService{Store: st}
	ctx := context.Background()
	h := seedEntry(t, st, "u1", time.Now())

	for _, bad := range []int{0, -1, 6, 100} {
		if _, err := svc.Feedback(ctx, "u1", h.ID, ratingPtr(bad), "", nil); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d: got %v", bad, err)
		}
	}
	got, _ := svc.Get(ctx, "u1", h.ID)
	if got.Rating != nil {
		t.Fatalf("invalid rating must leave the record unchanged")
	}
}

func TestHistoryFeedback_ForeignEntryUnchanged(t *testing.T) {
	st := store.NewMemoryStore()
	svc := &HistoryService{Store: st}
	ctx := context.Background()
	h := seedEntry(t, st, "owner", time.Now())

	if _, err := svc.Feedback(ctx, "intruder", h.ID, ratingPtr(1), "bad", nil); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign feedback: got %v", err)
	}
	got, _ := svc.Get(ctx, "owner", h.ID)
	if got.Rating != nil || got.Feedback != "" {
		t.Fatalf("foreign feedback mutated the record: %+v", got)
	}
}

func TestHistoryDelete(t *testing.T) {
	st := store.NewMemoryStore()
	svc := &HistoryService{Store: st}
	ctx := context.Background()

	h := seedEntry(t, st, "owner", time.Now())

	if err := svc.Delete(ctx, "intruder", h.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign delete: got %v", err)
	}
	if _, err := svc.Get(ctx, "owner", h.ID); err != nil {
		t.Fatalf("record must survive a rejected delete: %v", err)
	}

	if err := svc.Delete(ctx, "owner", h.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := svc.Get(ctx, "owner", h.ID); !errors.Is(err, ErrHistoryNotFound) {
		t.Fatalf("record survived deletion: %v", err)
	}
}

func TestHistoryDeleteAll(t *testing.T) {
	st := store.NewMemoryStore()
	svc := &HistoryService{Store: st}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		seedEntry(t, st, "u1", time.Now())
	}
	seedEntry(t, st, "u2", time.Now())

	if err := svc.DeleteAll(ctx, "u1"); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	n, _ := st.CountAdviceHistory(ctx, "u1")
	if n != 0 {
		t.Fatalf("u1 history remains: %d", n)
	}
	n, _ = st.CountAdviceHistory(ctx, "u2")
	if n != 1 {
		t.Fatalf("u2 history affected: %d", n)
	}
}
