// Package services – VibeService
//
// Read/upsert access to the vibe catalog. Reads are always decay-adjusted at
// the server's current UTC instant; Strength is immutable after creation, so
// an upsert of an existing vibe keeps the stored base score.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/go-vibes-backend/internal/decay"
	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/store"
)

// VibeService exposes the vibe catalog with decay applied on every read.
type VibeService struct {
	Store store.Store
	Decay *decay.Engine

	// Clock is a test seam; defaults to time.Now.
	Clock func() time.Time
}

func (s *VibeService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// List returns the full catalog with CurrentRelevance computed at now.
func (s *VibeService) List(ctx context.Context) ([]domain.Vibe, error) {
	tr := otel.Tracer("services/VibeService")
	ctx, span := tr.Start(ctx, "List")
	defer span.End()

	vibes, err := s.Store.GetAllVibes(ctx)
	if err != nil {
		return nil, err
	}
	out := s.Decay.Apply(vibes, s.now())
	span.SetAttributes(attribute.Int("vibes.count", len(out)))
	return out, nil
}

// Get returns one vibe, decay-adjusted, or ErrVibeNotFound.
func (s *VibeService) Get(ctx context.Context, id string) (*domain.Vibe, error) {
	v, err := s.Store.GetVibe(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrVibeNotFound
		}
		return nil, err
	}
	v.CurrentRelevance = s.Decay.Relevance(v, s.now())
	return v, nil
}

// Upsert validates and persists a vibe. New records get a generated ID and
// observation timestamps; for existing records the stored Strength and
// FirstSeen are authoritative and incoming values are ignored.
func (s *VibeService) Upsert(ctx context.Context, v *domain.Vibe) (*domain.Vibe, error) {
	tr := otel.Tracer("services/VibeService")
	ctx, span := tr.Start(ctx, "Upsert")
	defer span.End()

	v.Name = strings.TrimSpace(v.Name)
	v.Category = strings.TrimSpace(strings.ToLower(v.Category))
	if v.Name == "" || v.Category == "" {
		return nil, ErrInvalidVibe
	}
	if v.Strength < 0 || v.Strength > 1 {
		return nil, ErrInvalidVibe
	}
	if v.Sentiment == "" {
		v.Sentiment = domain.SentimentNeutral
	}

	now := s.now()
	if v.ID == "" {
		v.ID = uuid.NewString()
		if v.FirstSeen.IsZero() {
			v.FirstSeen = now
		}
		if v.Timestamp.IsZero() {
			v.Timestamp = v.FirstSeen
		}
	} else if existing, err := s.Store.GetVibe(ctx, v.ID); err == nil {
		v.Strength = existing.Strength
		v.FirstSeen = existing.FirstSeen
		v.Timestamp = existing.Timestamp
		v.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	} else if v.FirstSeen.IsZero() {
		v.FirstSeen = now
	}
	v.LastSeen = now

	if err := s.Store.SaveVibe(ctx, v); err != nil {
		return nil, err
	}
	v.CurrentRelevance = s.Decay.Relevance(v, now)
	return v, nil
}
