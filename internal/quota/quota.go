// Package quota enforces the per-user monthly advice-request budget tied to
// the subscription tier.
//
// The safety-critical property lives in Store.ConsumeQuery: an atomic
// check-then-increment so the counter can never exceed the tier limit under
// concurrent callers. This service layers tier resolution, month rollover,
// clamping, and reset-date computation on top of it, using server-observed
// UTC time only — client clocks never influence a reset.
package quota

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/store"
)

// Status reports the outcome of a quota check. Remaining is always clamped
// to >= 0; for the unlimited tier Limit and Remaining carry
// domain.UnlimitedQueries and Unlimited is true.
type Status struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Used      int       `json:"used"`
	Unlimited bool      `json:"unlimited"`
	ResetAt   time.Time `json:"reset_at"` // first instant of next month, UTC
}

// Service tracks monthly usage per user. Limits may override tier defaults
// (unset tiers fall back to domain defaults). Clock is a seam for tests and
// defaults to time.Now.
type Service struct {
	Store  store.Store
	Limits map[domain.Tier]int
	Clock  func() time.Time
}

// New returns a Service bound to st with default tier limits.
func New(st store.Store) *Service {
	return &Service{Store: st, Clock: time.Now}
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// limitFor resolves the effective monthly limit for a tier.
func (s *Service) limitFor(t domain.Tier) int {
	if s.Limits != nil {
		if n, ok := s.Limits[t]; ok {
			return n
		}
	}
	return t.QueryLimit()
}

// CheckAndConsume authorizes one request for userID, consuming a unit of
// quota when allowed. When the limit is already reached it returns
// Allowed=false with Remaining=0 and the reset date; that is a business
// outcome, not an error. The unlimited tier always passes and bypasses the
// counter semantics.
func (s *Service) CheckAndConsume(ctx context.Context, userID string) (Status, error) {
	tr := otel.Tracer("quota/Service")
	ctx, span := tr.Start(ctx, "CheckAndConsume",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	now := s.now()
	p, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	limit := s.limitFor(p.Tier)

	used, allowed, err := s.Store.ConsumeQuery(ctx, userID, domain.MonthKey(now), limit)
	if err != nil {
		return Status{}, err
	}
	return s.status(p.Tier, limit, used, allowed, now), nil
}

// Peek reports the current quota state without consuming. The stored counter
// is read as zero when its period predates the current month (lazy rollover
// happens on the next consume).
func (s *Service) Peek(ctx context.Context, userID string) (Status, error) {
	tr := otel.Tracer("quota/Service")
	ctx, span := tr.Start(ctx, "Peek",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	now := s.now()
	p, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	limit := s.limitFor(p.Tier)

	used := p.QueriesThisMonth
	if p.PeriodMonth != domain.MonthKey(now) {
		used = 0
	}
	allowed := limit < 0 || used < limit
	return s.status(p.Tier, limit, used, allowed, now), nil
}

// ResetAll zeroes every user's counter for the current month. Privileged,
// administrative; tier limits are unchanged.
func (s *Service) ResetAll(ctx context.Context) error {
	tr := otel.Tracer("quota/Service")
	ctx, span := tr.Start(ctx, "ResetAll")
	defer span.End()

	return s.Store.ResetAllQuotas(ctx, domain.MonthKey(s.now()))
}

// status assembles a Status, clamping Remaining to >= 0 in the one place
// every caller goes through.
func (s *Service) status(tier domain.Tier, limit, used int, allowed bool, now time.Time) Status {
	st := Status{
		Allowed: allowed,
		Limit:   limit,
		Used:    used,
		ResetAt: domain.NextMonthStart(now),
	}
	if limit < 0 || tier == domain.TierUnlimited {
		st.Unlimited = true
		st.Limit = domain.UnlimitedQueries
		st.Remaining = domain.UnlimitedQueries
		st.Allowed = true
		return st
	}
	if rem := limit - used; rem > 0 {
		st.Remaining = rem
	}
	return st
}
