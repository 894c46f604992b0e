// Package services – HistoryService
//
// Governs access to persisted advice history. Every read and mutation
// verifies ownership first: a row owned by another user yields ErrNotOwner,
// never a silent no-op, and the record is left unchanged.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/store"
)

// HistoryService implements the use-cases around advice history.
type HistoryService struct {
	Store store.Store
}

// ListPage returns a page of the user's history, newest first, plus the
// total count for pagination metadata.
func (s *HistoryService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.AdviceHistory, int64, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Store.CountAdviceHistory(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.AdviceHistory{}, 0, nil
	}
	items, err := s.Store.GetAdviceHistory(ctx, userID, pageSize, offset)
	return items, total, err
}

// Get returns one history entry after verifying ownership.
func (s *HistoryService) Get(ctx context.Context, userID, id string) (*domain.AdviceHistory, error) {
	return s.owned(ctx, userID, id)
}

// Feedback records post-hoc feedback on an owned entry. rating, when
// non-nil, must be in 1..5; unset fields keep their previous value.
func (s *HistoryService) Feedback(ctx context.Context, userID, id string, rating *int, feedback string, wasHelpful *bool) (*domain.AdviceHistory, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "Feedback",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("history.id", id),
		),
	)
	defer span.End()

	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, ErrInvalidRating
	}

	h, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if rating != nil {
		h.Rating = rating
	}
	if trimmed := strings.TrimSpace(feedback); trimmed != "" {
		h.Feedback = trimmed
	}
	if wasHelpful != nil {
		h.WasHelpful = wasHelpful
	}
	if err := s.Store.SaveAdviceHistory(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Delete removes one owned history entry.
func (s *HistoryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.Store.DeleteAdviceHistory(ctx, id)
}

// DeleteAll removes every history entry owned by userID.
func (s *HistoryService) DeleteAll(ctx context.Context, userID string) error {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "DeleteAll",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	return s.Store.DeleteAllAdviceHistory(ctx, userID)
}

// owned loads an entry and enforces the ownership check that precedes any
// read or mutation.
func (s *HistoryService) owned(ctx context.Context, userID, id string) (*domain.AdviceHistory, error) {
	h, err := s.Store.GetAdviceHistoryItem(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, err
	}
	if h.UserID != userID {
		return nil, ErrNotOwner
	}
	return h, nil
}
