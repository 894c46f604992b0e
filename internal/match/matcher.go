package match

import (
	"sort"
	"strings"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// Matcher defaults; all are overridable via the struct fields.
const (
	// DefaultMinRelevance is the decayed-relevance floor below which a vibe
	// is not considered a candidate.
	DefaultMinRelevance = 0.05
	// DefaultInterestBoost is the additive score bump per request when the
	// vibe intersects the user's interests.
	DefaultInterestBoost = 0.15
	// DefaultMaxMatches caps the ranked output.
	DefaultMaxMatches = 10
	// confidenceTopK is how many top scores feed the confidence scalar.
	confidenceTopK = 3
)

// Result is the matcher's output: ranked matches plus the personalization
// that was applied (recorded into history for analytics).
type Result struct {
	Matches        []domain.AdviceMatch
	Confidence     float64
	RegionApplied  string   // region hard-filter that was in effect, if any
	InterestBoosts []string // user interests that boosted at least one match
}

// Matcher scores, filters, and ranks decayed candidate vibes for a scenario.
// It is read-only: it never mutates candidates or touches the store, and a
// zero-candidate outcome is valid data (empty matches, low confidence),
// never an error.
type Matcher struct {
	Scorer        Scorer
	MinRelevance  float64 // candidate floor on CurrentRelevance
	InterestBoost float64 // bounded additive boost for interest hits
	MaxMatches    int
}

// New returns a Matcher with the default keyword scorer and thresholds.
func New() *Matcher {
	return &Matcher{
		Scorer:        KeywordScorer{},
		MinRelevance:  DefaultMinRelevance,
		InterestBoost: DefaultInterestBoost,
		MaxMatches:    DefaultMaxMatches,
	}
}

// Match ranks candidates for the scenario. Candidates must already be
// decay-adjusted (CurrentRelevance set). profile may be nil; personalization
// only applies when it is present.
//
// Pipeline: relevance floor → avoid-topic hard filter → region hard filter →
// base score blend → bounded interest boost → deterministic sort →
// confidence.
func (m *Matcher) Match(scenario domain.Scenario, candidates []domain.Vibe, profile *domain.UserProfile) Result {
	scorer := m.Scorer
	if scorer == nil {
		scorer = KeywordScorer{}
	}
	floor := m.MinRelevance
	boost := m.InterestBoost
	if boost <= 0 {
		boost = DefaultInterestBoost
	}
	maxOut := m.MaxMatches
	if maxOut <= 0 {
		maxOut = DefaultMaxMatches
	}

	var res Result
	var avoid, interests map[string]struct{}
	if profile != nil {
		avoid = topicSet(profile.AvoidTopics)
		interests = topicSet(profile.Interests)
		if profile.Region != "" {
			res.RegionApplied = profile.Region
		}
	}
	boosted := make(map[string]struct{})

	type scored struct {
		match domain.AdviceMatch
	}
	ranked := make([]scored, 0, len(candidates))

	for i := range candidates {
		v := &candidates[i]
		if v.CurrentRelevance < floor {
			continue
		}
		// Avoid-topic exclusion is absolute, irrespective of relevance.
		if profile != nil && intersects(v, avoid) != "" {
			continue
		}
		// Region hard filter: regional vibes outside the user's region are
		// excluded unless globally scoped.
		if res.RegionApplied != "" && v.Region != "" &&
			!strings.EqualFold(v.Region, domain.RegionGlobal) &&
			!strings.EqualFold(v.Region, res.RegionApplied) {
			continue
		}

		base := scorer.Score(scenario, v)
		if base <= 0 {
			continue
		}

		// Blend textual relevance with temporal relevance, then boost.
		final := 0.65*base + 0.35*v.CurrentRelevance
		if profile != nil {
			if hit := intersects(v, interests); hit != "" {
				final += boost
				boosted[hit] = struct{}{}
			}
		}
		if final > 1 {
			final = 1
		}

		ranked = append(ranked, scored{match: domain.AdviceMatch{
			VibeID:    v.ID,
			Name:      v.Name,
			Category:  v.Category,
			Score:     final,
			Relevance: v.CurrentRelevance,
		}})
	}

	// Deterministic order: score desc, relevance desc, then ID asc.
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].match, ranked[j].match
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		return a.VibeID < b.VibeID
	})

	if len(ranked) > maxOut {
		ranked = ranked[:maxOut]
	}
	res.Matches = make([]domain.AdviceMatch, len(ranked))
	for i, r := range ranked {
		res.Matches[i] = r.match
	}
	res.Confidence = confidence(res.Matches)
	res.InterestBoosts = sortedKeys(boosted)
	return res
}

// confidence derives an overall scalar in [0,1] from the magnitude and count
// of the top scores: fewer or weaker matches mean lower confidence.
func confidence(matches []domain.AdviceMatch) float64 {
	if len(matches) == 0 {
		return 0
	}
	k := confidenceTopK
	if len(matches) < k {
		k = len(matches)
	}
	sum := 0.0
	for _, m := range matches[:k] {
		sum += m.Score
	}
	mean := sum / float64(k)

	// Scale down when only one or two matches back the advice.
	countFactor := 1.0
	switch len(matches) {
	case 1:
		countFactor = 0.6
	case 2:
		countFactor = 0.85
	}
	c := mean * countFactor
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

// intersects returns the first topic from set that matches the vibe's
// category or keywords (case-insensitive), or "".
func intersects(v *domain.Vibe, set map[string]struct{}) string {
	if len(set) == 0 {
		return ""
	}
	if _, ok := set[strings.ToLower(v.Category)]; ok {
		return strings.ToLower(v.Category)
	}
	for _, kw := range v.Keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if _, ok := set[k]; ok {
			return k
		}
	}
	return ""
}

func topicSet(topics []string) map[string]struct{} {
	if len(topics) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out[t] = struct{}{}
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
