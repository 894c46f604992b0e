// Package services – FavoriteService
//
// Implements bookmarking of vibes and advice-history entries. Referenced
// records must exist (and, for history, be owned by the caller); duplicates
// per (user, type, reference) are rejected with ErrDuplicateFavorite.
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

// FavoriteService implements the use-cases around favorites.
type FavoriteService struct {
	Store store.Store
}

// Add favorites a vibe or an owned advice entry for userID.
func (s *FavoriteService) Add(ctx context.Context, userID string, typ domain.FavoriteType, referenceID, note string) (*domain.Favorite, error) {
	tr := otel.Tracer("services/FavoriteService")
	ctx, span := tr.Start(ctx, "Add",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("favorite.type", string(typ)),
		),
	)
	defer span.End()

	if !domain.ValidFavoriteType(typ) {
		return nil, ErrInvalidFavoriteType
	}

	// The referenced record must exist before the bookmark does.
	switch typ {
	case domain.FavoriteVibe:
		if _, err := s.Store.GetVibe(ctx, referenceID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrVibeNotFound
			}
			return nil, err
		}
	case domain.FavoriteAdvice:
		h, err := s.Store.GetAdviceHistoryItem(ctx, referenceID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrHistoryNotFound
			}
			return nil, err
		}
		if h.UserID != userID {
			return nil, ErrNotOwner
		}
	}

	f := &domain.Favorite{
		UserID:      userID,
		Type:        typ,
		ReferenceID: referenceID,
		Note:        strings.TrimSpace(note),
	}
	if err := s.Store.SaveFavorite(ctx, f); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateFavorite
		}
		return nil, err
	}
	return f, nil
}

// List returns the user's favorites, optionally filtered by type.
func (s *FavoriteService) List(ctx context.Context, userID string, typ domain.FavoriteType) ([]domain.Favorite, error) {
	if typ != "" && !domain.ValidFavoriteType(typ) {
		return nil, ErrInvalidFavoriteType
	}
	return s.Store.GetFavorites(ctx, userID, typ)
}

// Remove deletes one favorite after verifying ownership; a favorite owned
// by another user yields ErrNotOwner and is left unchanged.
func (s *FavoriteService) Remove(ctx context.Context, userID, id string) error {
	tr := otel.Tracer("services/FavoriteService")
	ctx, span := tr.Start(ctx, "Remove",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	f, err := s.Store.GetFavorite(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrFavoriteNotFound
		}
		return err
	}
	if f.UserID != userID {
		return ErrNotOwner
	}
	return s.Store.DeleteFavorite(ctx, id)
}
