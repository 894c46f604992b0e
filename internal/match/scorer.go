// Package match ranks candidate vibes against a scenario, applying per-user
// personalization (region filter, interest boost, avoid-topic exclusion).
//
// The base relevance score is pluggable: KeywordScorer implements it as
// Jaccard overlap between the scenario's token set and the vibe's
// keyword/description/category tokens, with a small bounded boost for exact
// keyword hits. A semantic-embedding scorer can replace it behind the same
// contract (higher topical overlap ⇒ higher base score).
package match

import (
	"regexp"
	"strings"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// Scorer computes a base relevance in [0,1] between a scenario and a vibe.
// Implementations must be deterministic and safe for concurrent use.
type Scorer interface {
	Score(scenario domain.Scenario, v *domain.Vibe) float64
}

// wordRE extracts unicode words with optional trailing digits.
var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

// stopwords dropped during tokenization; keeps scores focused on topical
// terms rather than connective tissue.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"i": {}, "my": {}, "me": {}, "im": {}, "going": {}, "about": {}, "some": {}, "有": {},
}

// tokenize lowercases s and returns its non-stopword token set.
func tokenize(s string) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stopwords[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// overlap counts tokens present in both sets.
func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// KeywordScorer is the default keyword-overlap Scorer.
type KeywordScorer struct{}

// Score blends Jaccard similarity over the full token sets with bounded
// additive boosts for exact keyword and category hits, clamped to [0,1].
func (KeywordScorer) Score(scenario domain.Scenario, v *domain.Vibe) float64 {
	qTokens := tokenize(scenarioText(scenario))
	if len(qTokens) == 0 {
		return 0
	}

	vText := strings.Join(v.Keywords, " ") + " " + v.Name + " " + v.Description + " " + v.Category
	vTokens := tokenize(vText)
	if len(vTokens) == 0 {
		return 0
	}

	inter := overlap(qTokens, vTokens)
	union := len(qTokens) + len(vTokens) - inter
	if union == 0 {
		return 0
	}
	score := float64(inter) / float64(union)

	// Exact keyword hits are a stronger topical signal than raw overlap,
	// boosted additively with a cap so one keyword cannot dominate.
	boost := 0.0
	for _, kw := range v.Keywords {
		if _, ok := qTokens[strings.ToLower(strings.TrimSpace(kw))]; ok {
			boost += 0.08
		}
	}
	if _, ok := qTokens[strings.ToLower(v.Category)]; ok {
		boost += 0.08
	}
	if boost > 0.32 {
		boost = 0.32
	}

	score += boost
	if score > 1 {
		score = 1
	}
	return score
}

// scenarioText concatenates every free-text facet of the scenario for
// tokenization.
func scenarioText(sc domain.Scenario) string {
	parts := make([]string, 0, 4+len(sc.Preferences))
	parts = append(parts, sc.Description)
	if sc.Location != "" {
		parts = append(parts, sc.Location)
	}
	if sc.TimeOfDay != "" {
		parts = append(parts, sc.TimeOfDay)
	}
	if sc.Formality != "" {
		parts = append(parts, sc.Formality)
	}
	parts = append(parts, sc.Preferences...)
	return strings.Join(parts, " ")
}
