// Package decay implements the temporal relevance decay for vibes. It is a
// pure, deterministic library: no I/O, no logging, functional options, safe
// for concurrent use.
//
// The curve is an exponential half-life over the vibe's age:
//
//	relevance = strength * 0.5^(age / halfLife)
//
// Age is measured from Vibe.Origin() (FirstSeen, falling back to Timestamp).
// Strength is the ceiling: a vibe observed "now" (or with a future origin)
// scores exactly its strength, and the result is always in [floor*strength,
// strength]. Because the computation starts from the immutable strength and
// origin, applying it twice with the same "now" is idempotent; it never
// compounds on a previously decayed value.
package decay

import (
	"math"
	"time"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// DefaultHalfLife is the age at which relevance halves.
const DefaultHalfLife = 30 * 24 * time.Hour

// Option customizes an Engine.
type Option func(*Engine)

// WithHalfLife sets the half-life; non-positive values are ignored.
func WithHalfLife(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.halfLife = d
		}
	}
}

// WithFloor sets a relative floor in [0,1): decayed relevance never drops
// below floor*strength. Zero (the default) lets relevance approach zero.
func WithFloor(f float64) Option {
	return func(e *Engine) {
		if f >= 0 && f < 1 {
			e.floor = f
		}
	}
}

// Engine computes decay-adjusted relevance. The zero value is not usable;
// construct with New.
type Engine struct {
	halfLife time.Duration
	floor    float64
}

// New returns an Engine with the default 30-day half-life, adjusted by opts.
func New(opts ...Option) *Engine {
	e := &Engine{halfLife: DefaultHalfLife}
	for _, o := range opts {
		o(e)
	}
	return e
}

// HalfLife returns the configured half-life.
func (e *Engine) HalfLife() time.Duration { return e.halfLife }

// Relevance returns the decay-adjusted relevance of v at instant now.
// The result is non-negative, never exceeds v.Strength, and is
// non-increasing in age for a fixed strength.
func (e *Engine) Relevance(v *domain.Vibe, now time.Time) float64 {
	strength := clamp01(v.Strength)
	age := now.Sub(v.Origin())
	if age <= 0 {
		return strength
	}
	rel := strength * math.Exp2(-age.Hours()/e.halfLife.Hours())
	if min := e.floor * strength; rel < min {
		rel = min
	}
	return rel
}

// Apply recomputes CurrentRelevance for every vibe at instant now,
// preserving input order and cardinality. The input slice is not mutated.
func (e *Engine) Apply(vibes []domain.Vibe, now time.Time) []domain.Vibe {
	out := make([]domain.Vibe, len(vibes))
	for i := range vibes {
		out[i] = vibes[i]
		out[i].CurrentRelevance = e.Relevance(&vibes[i], now)
	}
	return out
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
