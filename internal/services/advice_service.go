// Package services – AdviceService
//
// This file implements AdviceService, the component that owns one advice
// request end to end: validate the scenario, authorize it against the
// monthly quota, pull candidate vibes, decay-adjust them, run the
// personalized matcher, assemble the recommendation, and hand the history
// record to the async executor so persistence never blocks the response.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the user identifier and match statistics.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-vibes-backend/internal/decay"
	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/match"
	"github.com/tbourn/go-vibes-backend/internal/quota"
	"github.com/tbourn/go-vibes-backend/internal/store"
)

const (
	// maxScenarioRunes caps the scenario description length.
	maxScenarioRunes = 2000
	// recommendationTopics caps how many topics the recommendation names.
	recommendationTopics = 3
)

// HistorySink is the async surface AdviceService hands history writes to.
// *taskq.Queue satisfies it.
type HistorySink interface {
	Submit(name string, fn func(context.Context) error) bool
}

// AdviceService coordinates quota enforcement, matching, and history
// persistence for advice requests.
type AdviceService struct {
	Store   store.Store
	Decay   *decay.Engine
	Matcher *match.Matcher
	Quota   *quota.Service
	Tasks   HistorySink

	// Profiles supplies get-or-create semantics for first authentication.
	Profiles *ProfileService

	// CandidateLimit bounds how many recent vibes are pulled per request;
	// zero means all.
	CandidateLimit int

	// Clock is a test seam; defaults to time.Now.
	Clock func() time.Time
}

func (s *AdviceService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// RequestAdvice serves one scenario for userID. A blank userID is an
// anonymous request: no quota is consumed, no personalization applies, and
// no history is recorded.
//
// The returned quota.Status is meaningful whenever err is nil or
// ErrQuotaExceeded, so the transport layer can always emit rate-limit
// metadata. Zero matches is a valid outcome carried in the Advice, never an
// error.
func (s *AdviceService) RequestAdvice(ctx context.Context, userID string, scenario domain.Scenario) (*domain.Advice, quota.Status, error) {
	tr := otel.Tracer("services/AdviceService")
	ctx, span := tr.Start(ctx, "RequestAdvice",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	scenario.Description = strings.TrimSpace(scenario.Description)
	if scenario.Description == "" {
		return nil, quota.Status{}, ErrEmptyScenario
	}
	if utf8.RuneCountInString(scenario.Description) > maxScenarioRunes {
		return nil, quota.Status{}, ErrScenarioTooLong
	}

	var profile *domain.UserProfile
	var qs quota.Status
	if userID != "" {
		p, err := s.Profiles.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, quota.Status{}, err
		}
		profile = p

		qs, err = s.Quota.CheckAndConsume(ctx, userID)
		if err != nil {
			return nil, quota.Status{}, err
		}
		if !qs.Allowed {
			return nil, qs, ErrQuotaExceeded
		}
	}

	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, qs, err
	}

	res := s.Matcher.Match(scenario, candidates, profile)
	span.SetAttributes(
		attribute.Int("match.count", len(res.Matches)),
		attribute.Float64("match.confidence", res.Confidence),
	)

	advice := &domain.Advice{
		Matches:        res.Matches,
		Recommendation: buildRecommendation(res.Matches, scenario, profile),
		Reasoning:      buildReasoning(res, scenario),
		Confidence:     res.Confidence,
	}

	if userID != "" {
		s.persistHistoryAsync(userID, scenario, advice, res)
	}
	return advice, qs, nil
}

// candidates pulls the vibe pool and decay-adjusts it at "now".
func (s *AdviceService) candidates(ctx context.Context) ([]domain.Vibe, error) {
	var (
		vibes []domain.Vibe
		err   error
	)
	if s.CandidateLimit > 0 {
		vibes, err = s.Store.GetRecentVibes(ctx, s.CandidateLimit)
	} else {
		vibes, err = s.Store.GetAllVibes(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.Decay.Apply(vibes, s.now()), nil
}

// persistHistoryAsync hands the history record to the task executor. The
// request's success never depends on this write; failures are logged by the
// executor.
func (s *AdviceService) persistHistoryAsync(userID string, scenario domain.Scenario, advice *domain.Advice, res match.Result) {
	entry := &domain.AdviceHistory{
		UserID:         userID,
		Scenario:       scenario,
		Advice:         *advice,
		RegionApplied:  res.RegionApplied,
		InterestBoosts: res.InterestBoosts,
		CreatedAt:      s.now(),
	}
	st := s.Store
	s.Tasks.Submit("save_advice_history", func(ctx context.Context) error {
		return st.SaveAdviceHistory(ctx, entry)
	})
}

// buildRecommendation derives the structured recommendation from the top
// matches and the user's conversation style.
func buildRecommendation(matches []domain.AdviceMatch, scenario domain.Scenario, profile *domain.UserProfile) domain.Recommendation {
	titleCaser := cases.Title(language.English)

	topics := make([]string, 0, recommendationTopics)
	seen := make(map[string]struct{}, recommendationTopics)
	for _, m := range matches {
		key := strings.ToLower(m.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		topics = append(topics, titleCaser.String(m.Name))
		if len(topics) >= recommendationTopics {
			break
		}
	}

	style := domain.StyleBalanced
	if profile != nil && domain.ValidStyle(profile.Style) {
		style = profile.Style
	}

	behavior := "Mention current signals naturally; follow the other side's energy."
	switch {
	case strings.EqualFold(scenario.Formality, "formal"):
		behavior = "Keep references light and professional; let the other side steer."
	case strings.EqualFold(scenario.Formality, "casual"):
		behavior = "Lead with what excites you; shared enthusiasm carries casual settings."
	}

	return domain.Recommendation{
		Topics:   topics,
		Behavior: behavior,
		Style:    string(style),
	}
}

// buildReasoning produces the human-facing explanation of how the ranking
// was personalized.
func buildReasoning(res match.Result, scenario domain.Scenario) string {
	if len(res.Matches) == 0 {
		return "No current signals matched this situation; consider broadening the description."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Matched %d current signal(s) against %q; strongest: %s (%.2f).",
		len(res.Matches), scenario.Description, res.Matches[0].Name, res.Matches[0].Score)
	if len(res.InterestBoosts) > 0 {
		fmt.Fprintf(&b, " Boosted for your interests: %s.", strings.Join(res.InterestBoosts, ", "))
	}
	if res.RegionApplied != "" {
		fmt.Fprintf(&b, " Filtered to signals relevant in %s.", res.RegionApplied)
	}
	return b.String()
}
