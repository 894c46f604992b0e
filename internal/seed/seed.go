// Package seed populates an empty store with a small builtin vibe set so a
// fresh instance can answer advice requests before any collector has fed it.
package seed

import (
	"context"
	"time"

	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/store"
)

// builtin returns the starter vibe set, aged relative to now so decay has
// something to act on from the first request.
func builtin(now time.Time) []domain.Vibe {
	mk := func(id, name, desc, category string, keywords []string, strength float64, sentiment domain.Sentiment, ageDays int, region string) domain.Vibe {
		seen := now.AddDate(0, 0, -ageDays)
		return domain.Vibe{
			ID:          id,
			Name:        name,
			Description: desc,
			Category:    category,
			Keywords:    keywords,
			Strength:    strength,
			Sentiment:   sentiment,
			Timestamp:   seen,
			FirstSeen:   seen,
			LastSeen:    now.AddDate(0, 0, -ageDays/2),
			Region:      region,
		}
	}

	return []domain.Vibe{
		mk("seed-quiet-luxury", "Quiet Luxury", "Understated high-end fashion without visible branding", "fashion",
			[]string{"fashion", "minimalism", "luxury", "style"}, 0.85, domain.SentimentPositive, 12, domain.RegionGlobal),
		mk("seed-ai-companions", "AI Companions", "Conversational AI assistants as daily companions", "tech",
			[]string{"ai", "technology", "chatbots", "assistants"}, 0.9, domain.SentimentNeutral, 5, domain.RegionGlobal),
		mk("seed-city-pop", "City Pop Revival", "1980s Japanese city pop resurging on streaming platforms", "music",
			[]string{"music", "retro", "japan", "streaming"}, 0.7, domain.SentimentPositive, 40, "jp"),
		mk("seed-run-clubs", "Social Run Clubs", "Group running as the new social scene", "fitness",
			[]string{"running", "fitness", "social", "health"}, 0.8, domain.SentimentPositive, 20, domain.RegionGlobal),
		mk("seed-third-places", "Third Places", "Cafés and libraries as community anchors outside home and work", "culture",
			[]string{"community", "cafes", "culture", "urbanism"}, 0.75, domain.SentimentPositive, 60, domain.RegionGlobal),
		mk("seed-slow-tv", "Slow TV", "Long-form unedited broadcasts as ambient viewing", "media",
			[]string{"television", "media", "relaxation"}, 0.5, domain.SentimentNeutral, 90, "eu"),
	}
}

// EnsureVibes inserts the builtin set when the store holds no vibes.
// It reports how many records it wrote.
func EnsureVibes(ctx context.Context, st store.Store, now time.Time) (int, error) {
	count, err := st.CountVibes(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	vibes := builtin(now.UTC())
	for i := range vibes {
		if err := st.SaveVibe(ctx, &vibes[i]); err != nil {
			return i, err
		}
	}
	return len(vibes), nil
}
