// Package analytics rolls a user's advice history up into per-month metrics
// and a richer insights view. Aggregation is idempotent: re-running for a
// month with identical history produces an identical MonthlyMetric, and a
// month with zero rows yields no record at all (absence, not zero, so trend
// math stays clean).
package analytics

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-vibes-backend/internal/domain"
	"github.com/tbourn/go-vibes-backend/internal/store"
)

// topN caps the "top X by frequency" lists in insights.
const topN = 5

// FreqEntry is a (value, count) pair for frequency rankings.
type FreqEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Satisfaction summarizes post-hoc feedback over a user's history.
type Satisfaction struct {
	AverageRating      *float64    `json:"average_rating,omitempty"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	HelpfulPercent     *float64    `json:"helpful_percent,omitempty"`
	RatedCount         int         `json:"rated_count"`
}

// Insights is the read-only derived view over a user's full history.
type Insights struct {
	TotalQueries      int          `json:"total_queries"`
	QueriesThisMonth  int          `json:"queries_this_month"`
	QueriesLastMonth  int          `json:"queries_last_month"`
	MonthOverMonth    int          `json:"month_over_month"` // this month minus last
	TopInterests      []FreqEntry  `json:"top_interests"`
	TopRegions        []FreqEntry  `json:"top_regions"`
	TopVibes          []FreqEntry  `json:"top_vibes"`
	UsageByWeekday    map[string]int `json:"usage_by_weekday"`
	UsageByHour       map[int]int  `json:"usage_by_hour"`
	Satisfaction      Satisfaction `json:"satisfaction"`
}

// Aggregator computes monthly metrics and insights from the store. Clock is
// a seam for tests and defaults to time.Now.
type Aggregator struct {
	Store store.Store
	Clock func() time.Time
}

// New returns an Aggregator bound to st.
func New(st store.Store) *Aggregator {
	return &Aggregator{Store: st, Clock: time.Now}
}

func (a *Aggregator) now() time.Time {
	if a.Clock != nil {
		return a.Clock().UTC()
	}
	return time.Now().UTC()
}

// AggregateMonth recomputes the MonthlyMetric for (userID, month) from the
// raw history and persists it. It returns nil (and no error) when the user
// has no history rows in that month. month must be a valid YYYY-MM key.
func (a *Aggregator) AggregateMonth(ctx context.Context, userID, month string) (*domain.MonthlyMetric, error) {
	tr := otel.Tracer("analytics/Aggregator")
	ctx, span := tr.Start(ctx, "AggregateMonth",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("month", month),
		),
	)
	defer span.End()

	from, to := domain.MonthBounds(month)
	rows, err := a.Store.GetAdviceHistoryRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	metric := &domain.MonthlyMetric{
		UserID:         userID,
		Month:          month,
		QueryCount:     len(rows),
		RegionCounts:   map[string]int{},
		InterestCounts: map[string]int{},
	}

	ratingSum, ratingCount := 0, 0
	for _, h := range rows {
		if h.RegionApplied != "" {
			metric.RegionCounts[h.RegionApplied]++
		}
		// Multi-count: one row with N boosted interests increments N buckets.
		for _, interest := range h.InterestBoosts {
			metric.InterestCounts[interest]++
		}
		// Unrated rows are excluded from the average, never counted as zero.
		if h.Rating != nil {
			ratingSum += *h.Rating
			ratingCount++
		}
	}
	if ratingCount > 0 {
		avg := float64(ratingSum) / float64(ratingCount)
		metric.AvgRating = &avg
	}

	if err := a.Store.SaveMonthlyMetric(ctx, metric); err != nil {
		return nil, err
	}
	return metric, nil
}

// UserInsights derives the full insights view from the user's history. It is
// read-only and never fails on an empty history (all-zero insights are valid
// for a brand-new user).
func (a *Aggregator) UserInsights(ctx context.Context, userID string) (*Insights, error) {
	tr := otel.Tracer("analytics/Aggregator")
	ctx, span := tr.Start(ctx, "UserInsights",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	// Full scan, oldest first; the beginning of time is approximated by the
	// zero instant.
	rows, err := a.Store.GetAdviceHistoryRange(ctx, userID, time.Time{}, a.now().Add(time.Second))
	if err != nil {
		return nil, err
	}

	now := a.now()
	thisMonth := domain.MonthKey(now)
	lastMonth := domain.MonthKey(now.AddDate(0, -1, 0))

	ins := &Insights{
		TotalQueries:   len(rows),
		UsageByWeekday: map[string]int{},
		UsageByHour:    map[int]int{},
		Satisfaction: Satisfaction{
			RatingDistribution: map[int]int{},
		},
	}

	interestFreq := map[string]int{}
	regionFreq := map[string]int{}
	vibeFreq := map[string]int{}
	ratingSum := 0
	helpfulYes, helpfulTotal := 0, 0

	for _, h := range rows {
		created := h.CreatedAt.UTC()
		switch domain.MonthKey(created) {
		case thisMonth:
			ins.QueriesThisMonth++
		case lastMonth:
			ins.QueriesLastMonth++
		}
		ins.UsageByWeekday[created.Weekday().String()]++
		ins.UsageByHour[created.Hour()]++

		for _, interest := range h.InterestBoosts {
			interestFreq[interest]++
		}
		if h.RegionApplied != "" {
			regionFreq[h.RegionApplied]++
		}
		for _, m := range h.Advice.Matches {
			vibeFreq[m.Name]++
		}

		if h.Rating != nil {
			ins.Satisfaction.RatedCount++
			ratingSum += *h.Rating
			ins.Satisfaction.RatingDistribution[*h.Rating]++
		}
		if h.WasHelpful != nil {
			helpfulTotal++
			if *h.WasHelpful {
				helpfulYes++
			}
		}
	}

	ins.MonthOverMonth = ins.QueriesThisMonth - ins.QueriesLastMonth
	ins.TopInterests = topEntries(interestFreq, topN)
	ins.TopRegions = topEntries(regionFreq, topN)
	ins.TopVibes = topEntries(vibeFreq, topN)

	if ins.Satisfaction.RatedCount > 0 {
		avg := float64(ratingSum) / float64(ins.Satisfaction.RatedCount)
		ins.Satisfaction.AverageRating = &avg
	}
	if helpfulTotal > 0 {
		pct := float64(helpfulYes) / float64(helpfulTotal) * 100
		ins.Satisfaction.HelpfulPercent = &pct
	}
	return ins, nil
}

// topEntries ranks a frequency map descending by count with a value
// tie-break, truncated to n.
func topEntries(freq map[string]int, n int) []FreqEntry {
	if len(freq) == 0 {
		return nil
	}
	out := make([]FreqEntry, 0, len(freq))
	for v, c := range freq {
		out = append(out, FreqEntry{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
