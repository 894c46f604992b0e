package match

import (
	"reflect"
	"testing"

	"github.com/tbourn/go-vibes-backend/internal/domain"
)

// catalog returns a decayed candidate set covering several categories and
// regions. CurrentRelevance is set directly; the matcher never recomputes it.
func catalog() []domain.Vibe {
	return []domain.Vibe{
		{
			ID: "v-fashion", Name: "quiet luxury", Category: "fashion",
			Keywords:         []string{"fashion", "minimalism", "style"},
			CurrentRelevance: 0.7,
		},
		{
			ID: "v-tech", Name: "ai companions", Category: "tech",
			Keywords:         []string{"ai", "chatbots", "tech"},
			CurrentRelevance: 0.8,
		},
		{
			ID: "v-music-jp", Name: "city pop revival", Category: "music",
			Keywords:         []string{"music", "playlist", "city pop"},
			Region:           "jp",
			CurrentRelevance: 0.6,
		},
		{
			ID: "v-global", Name: "social run clubs", Category: "fitness",
			Keywords:         []string{"running", "fitness", "community"},
			Region:           domain.RegionGlobal,
			CurrentRelevance: 0.5,
		},
		{
			ID: "v-stale", Name: "stale fashion note", Category: "fashion",
			Keywords:         []string{"fashion"},
			CurrentRelevance: 0.01, // below the default floor
		},
	}
}

func TestMatch_EmptyCandidates(t *testing.T) {
	res := New().Match(domain.Scenario{Description: "anything"}, nil, nil)
	if len(res.Matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(res.Matches))
	}
	if res.Confidence != 0 {
		t.Fatalf("empty result must carry zero confidence, got %v", res.Confidence)
	}
}

func TestMatch_AvoidTopicsAreHardExcluded(t *testing.T) {
	profile := &domain.UserProfile{ID: "u1", AvoidTopics: []string{"Fashion"}}
	sc := domain.Scenario{Description: "fashion conference networking event about style"}

	res := New().Match(sc, catalog(), profile)
	for _, m := range res.Matches {
		if m.Category == "fashion" {
			t.Fatalf("avoided category surfaced: %+v", m)
		}
	}
}

func TestMatch_RegionFilterKeepsGlobalAndOwn(t *testing.T) {
	profile := &domain.UserProfile{ID: "u1", Region: "us"}
	sc := domain.Scenario{Description: "music playlist for a running fitness meetup"}

	res := New().Match(sc, catalog(), profile)
	if res.RegionApplied != "us" {
		t.Fatalf("RegionApplied = %q, want us", res.RegionApplied)
	}
	for _, m := range res.Matches {
		if m.VibeID == "v-music-jp" {
			t.Fatalf("jp-scoped vibe must be excluded for a us user")
		}
	}

	// Same scenario for a jp user keeps the regional vibe.
	profile.Region = "jp"
	res = New().Match(sc, catalog(), profile)
	found := false
	for _, m := range res.Matches {
		if m.VibeID == "v-music-jp" {
			found = true
		}
	}
	if !found {
		t.Fatalf("jp vibe missing for jp user: %+v", res.Matches)
	}
}

func TestMatch_InterestBoostChangesRanking(t *testing.T) {
	sc := domain.Scenario{Description: "talking about fashion and tech at a conference"}

	base := New().Match(sc, catalog(), nil)
	boosted := New().Match(sc, catalog(), &domain.UserProfile{ID: "u1", Interests: []string{"fashion"}})

	var baseScore, boostedScore float64
	for _, m := range base.Matches {
		if m.VibeID == "v-fashion" {
			baseScore = m.Score
		}
	}
	for _, m := range boosted.Matches {
		if m.VibeID == "v-fashion" {
			boostedScore = m.Score
		}
	}
	if baseScore == 0 || boostedScore == 0 {
		t.Fatalf("fashion vibe missing from results: base=%v boosted=%v", baseScore, boostedScore)
	}
	if boostedScore <= baseScore {
		t.Fatalf("interest boost did not raise score: %v <= %v", boostedScore, baseScore)
	}
	if boostedScore > 1 {
		t.Fatalf("boosted score exceeds 1: %v", boostedScore)
	}
	if !reflect.DeepEqual(boosted.InterestBoosts, []string{"fashion"}) {
		t.Fatalf("InterestBoosts = %v, want [fashion]", boosted.InterestBoosts)
	}
}

func TestMatch_RelevanceFloorDropsStaleVibes(t *testing.T) {
	sc := domain.Scenario{Description: "fashion style question"}
	res := New().Match(sc, catalog(), nil)
	for _, m := range res.Matches {
		if m.VibeID == "v-stale" {
			t.Fatalf("vibe below relevance floor surfaced")
		}
	}
}

func TestMatch_Deterministic(t *testing.T) {
	sc := domain.Scenario{Description: "music tech fashion fitness evening"}
	profile := &domain.UserProfile{ID: "u1", Interests: []string{"tech"}, Region: "jp"}

	first := New().Match(sc, catalog(), profile)
	for i := 0; i < 10; i++ {
		again := New().Match(sc, catalog(), profile)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\nfirst=%+v\nagain=%+v", i, first, again)
		}
	}
}

func TestMatch_OrderingTieBreaks(t *testing.T) {
	// Identical text and relevance: order must fall back to ID ascending.
	twins := []domain.Vibe{
		{ID: "b", Name: "twin", Category: "music", Keywords: []string{"music"}, CurrentRelevance: 0.5},
		{ID: "a", Name: "twin", Category: "music", Keywords: []string{"music"}, CurrentRelevance: 0.5},
	}
	res := New().Match(domain.Scenario{Description: "music twin"}, twins, nil)
	if len(res.Matches) != 2 {
		t.Fatalf("want 2 matches, got %d", len(res.Matches))
	}
	if res.Matches[0].VibeID != "a" || res.Matches[1].VibeID != "b" {
		t.Fatalf("tie-break by ID failed: %s, %s", res.Matches[0].VibeID, res.Matches[1].VibeID)
	}
}

func TestMatch_MaxMatchesCap(t *testing.T) {
	m := New()
	m.MaxMatches = 2
	sc := domain.Scenario{Description: "music tech fashion fitness running playlist ai style"}
	res := m.Match(sc, catalog(), nil)
	if len(res.Matches) > 2 {
		t.Fatalf("cap violated: %d matches", len(res.Matches))
	}
}

func TestMatch_ConfidenceBounds(t *testing.T) {
	scenarios := []domain.Scenario{
		{Description: "music"},
		{Description: "fashion tech music fitness running style ai playlist"},
		{Description: "zzz nothing relevant qqq"},
	}
	for _, sc := range scenarios {
		res := New().Match(sc, catalog(), nil)
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Fatalf("confidence out of [0,1] for %q: %v", sc.Description, res.Confidence)
		}
		if len(res.Matches) == 0 && res.Confidence != 0 {
			t.Fatalf("no matches but confidence %v for %q", res.Confidence, sc.Description)
		}
	}
}

func TestKeywordScorer_ExactKeywordBeatsLooseOverlap(t *testing.T) {
	sc := domain.Scenario{Description: "building a playlist for the drive"}
	withKeyword := domain.Vibe{Name: "city pop revival", Category: "music", Keywords: []string{"playlist", "music"}}
	without := domain.Vibe{Name: "drive culture", Category: "cars", Keywords: []string{"engines"}}

	s := KeywordScorer{}
	if s.Score(sc, &withKeyword) <= s.Score(sc, &without) {
		t.Fatalf("exact keyword hit should outrank loose description overlap")
	}
}

func TestKeywordScorer_EmptyInputs(t *testing.T) {
	s := KeywordScorer{}
	if got := s.Score(domain.Scenario{}, &domain.Vibe{Name: "x", Keywords: []string{"x"}}); got != 0 {
		t.Fatalf("empty scenario must score 0, got %v", got)
	}
	if got := s.Score(domain.Scenario{Description: "words"}, &domain.Vibe{}); got != 0 {
		t.Fatalf("empty vibe must score 0, got %v", got)
	}
}
