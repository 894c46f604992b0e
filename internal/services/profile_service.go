// Package services – ProfileService
//
// Owns the user-profile lifecycle: get-or-create on first authentication,
// allow-listed preference updates, and account deletion with cascade to the
// user's history and favorites (referential integrity is enforced here, not
// in the store).
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

// ProfileUpdate carries the allow-listed mutable profile fields. Nil fields
// are left untouched; the quota counter is never updatable through here.
type ProfileUpdate struct {
	Tier        *domain.Tier
	Region      *string
	Interests   *[]string
	AvoidTopics *[]string
	Style       *domain.ConversationStyle
}

// ProfileService manages user profiles.
type ProfileService struct {
	Store store.Store
}

// GetOrCreate returns the profile for userID, creating a free-tier profile
// on first authentication.
func (s *ProfileService) GetOrCreate(ctx context.Context, userID string) (*domain.UserProfile, error) {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "GetOrCreate",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	p, err := s.Store.GetUser(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	p = &domain.UserProfile{
		ID:    userID,
		Tier:  domain.TierFree,
		Style: domain.StyleBalanced,
	}
	if err := s.Store.SaveUser(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the profile for userID, or ErrProfileNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	p, err := s.Store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// Update applies an allow-listed preference update to the user's own
// profile. Lists are trimmed, de-duplicated case-insensitively, and capped
// at domain.MaxPreferenceEntries.
func (s *ProfileService) Update(ctx context.Context, userID string, upd ProfileUpdate) (*domain.UserProfile, error) {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	p, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Tier != nil {
		if !upd.Tier.Valid() {
			return nil, ErrInvalidTier
		}
		p.Tier = *upd.Tier
	}
	if upd.Style != nil {
		if !domain.ValidStyle(*upd.Style) {
			return nil, ErrInvalidStyle
		}
		p.Style = *upd.Style
	}
	if upd.Region != nil {
		p.Region = strings.TrimSpace(*upd.Region)
	}
	if upd.Interests != nil {
		cleaned, err := cleanTopics(*upd.Interests)
		if err != nil {
			return nil, err
		}
		p.Interests = cleaned
	}
	if upd.AvoidTopics != nil {
		cleaned, err := cleanTopics(*upd.AvoidTopics)
		if err != nil {
			return nil, err
		}
		p.AvoidTopics = cleaned
	}

	if err := s.Store.SaveUser(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the profile and cascade-deletes the user's history and
// favorites. The cascade runs before the profile delete so a partial
// failure never strands owned rows without an owner record pointing at them.
func (s *ProfileService) Delete(ctx context.Context, userID string) error {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProfileNotFound
		}
		return err
	}
	if err := s.Store.DeleteAllAdviceHistory(ctx, userID); err != nil {
		return err
	}
	if err := s.Store.DeleteAllFavorites(ctx, userID); err != nil {
		return err
	}
	return s.Store.DeleteUser(ctx, userID)
}

// cleanTopics normalizes a preference list: trim, drop empties, de-dup
// case-insensitively, cap the length.
func cleanTopics(topics []string) ([]string, error) {
	out := make([]string, 0, len(topics))
	seen := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	if len(out) > domain.MaxPreferenceEntries {
		return nil, ErrTooManyTopics
	}
	return out, nil
}
