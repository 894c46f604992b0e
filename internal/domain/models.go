// Package domain defines the persistence models for vibes, user profiles,
// advice history, favorites, and monthly metrics. These types are mapped
// with GORM and form the core data layer of the recommendation engine.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Tier is a subscription level determining the monthly advice-request quota.
type Tier string

// Subscription tiers. Each tier carries a fixed monthly query limit;
// TierUnlimited bypasses the counter entirely.
const (
	TierFree      Tier = "free"
	TierLight     Tier = "light"
	TierRegular   Tier = "regular"
	TierUnlimited Tier = "unlimited"
)

// UnlimitedQueries is the sentinel limit reported for TierUnlimited.
const UnlimitedQueries = -1

// defaultTierLimits maps each tier to its monthly query budget.
var defaultTierLimits = map[Tier]int{
	TierFree:      5,
	TierLight:     25,
	TierRegular:   100,
	TierUnlimited: UnlimitedQueries,
}

// Valid reports whether t is one of the known subscription tiers.
func (t Tier) Valid() bool {
	_, ok := defaultTierLimits[t]
	return ok
}

// QueryLimit returns the monthly query budget for the tier, or
// UnlimitedQueries for TierUnlimited. Unknown tiers get the free limit.
func (t Tier) QueryLimit() int {
	if n, ok := defaultTierLimits[t]; ok {
		return n
	}
	return defaultTierLimits[TierFree]
}

// Sentiment classifies the emotional polarity of a vibe.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ConversationStyle is a user's preferred register for recommendations.
type ConversationStyle string

const (
	StyleCasual   ConversationStyle = "casual"
	StyleBalanced ConversationStyle = "balanced"
	StyleFormal   ConversationStyle = "formal"
)

// ValidStyle reports whether s is a known conversation style.
func ValidStyle(s ConversationStyle) bool {
	switch s {
	case StyleCasual, StyleBalanced, StyleFormal:
		return true
	}
	return false
}

// RegionGlobal marks a vibe as globally scoped: it is never excluded by a
// user's region filter.
const RegionGlobal = "global"

// Vibe is a timestamped cultural-signal record with a decaying relevance
// score. Strength is fixed at creation and acts as the relevance ceiling;
// CurrentRelevance is derived per evaluation and only cached, never treated
// as ground truth.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Category: enumerated tag such as "fashion" or "tech" (free-form string,
//     indexed for candidate retrieval).
//   - Keywords: free-text keyword list, serialized as JSON.
//   - Strength: immutable base score in [0,1].
//   - FirstSeen/LastSeen: observation window; decay ages from FirstSeen,
//     falling back to Timestamp when FirstSeen is zero.
//   - Region: optional geography tag; RegionGlobal disables region filtering.
type Vibe struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string         `json:"name"        gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Category    string         `json:"category"    gorm:"type:varchar(64);not null;index:idx_vibe_category"`
	Keywords    []string       `json:"keywords"    gorm:"serializer:json"`
	Strength    float64        `json:"strength"    gorm:"not null;check:strength >= 0 AND strength <= 1"`
	Sentiment   Sentiment      `json:"sentiment"   gorm:"type:varchar(16);not null;default:'neutral'"`
	Timestamp   time.Time      `json:"timestamp"`
	FirstSeen   time.Time      `json:"first_seen"`
	LastSeen    time.Time      `json:"last_seen"`
	Region      string         `json:"region,omitempty" gorm:"type:varchar(64)"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// CurrentRelevance is the decay-adjusted score for the evaluation that
	// produced this value. It is recomputed from Strength and FirstSeen on
	// every read path and is not persisted as truth.
	CurrentRelevance float64 `json:"current_relevance" gorm:"-"`
}

// TableName returns the database table name for Vibe.
func (Vibe) TableName() string { return "vibes" }

// Origin returns the instant decay ages from: FirstSeen when set,
// otherwise Timestamp.
func (v *Vibe) Origin() time.Time {
	if !v.FirstSeen.IsZero() {
		return v.FirstSeen
	}
	return v.Timestamp
}

// UserProfile holds a user's subscription tier, preference data, and the
// monthly quota counter. The profile is created on first authentication.
//
// Invariant: QueriesThisMonth never exceeds the tier's QueryLimit for
// non-unlimited tiers; the counter is mutated only through the store's
// conditional increment (see store.Store.ConsumeQuery).
type UserProfile struct {
	ID               string            `json:"id"                 gorm:"type:varchar(64);primaryKey"`
	Tier             Tier              `json:"tier"               gorm:"type:varchar(16);not null;default:'free';check:tier IN ('free','light','regular','unlimited')"`
	QueriesThisMonth int               `json:"queries_this_month" gorm:"not null;default:0"`
	PeriodMonth      string            `json:"period_month"       gorm:"type:char(7)"` // YYYY-MM the counter belongs to
	Region           string            `json:"region,omitempty"   gorm:"type:varchar(64)"`
	Interests        []string          `json:"interests"          gorm:"serializer:json"`
	AvoidTopics      []string          `json:"avoid_topics"       gorm:"serializer:json"`
	Style            ConversationStyle `json:"conversation_style" gorm:"type:varchar(16);not null;default:'balanced'"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	DeletedAt        gorm.DeletedAt    `json:"-" gorm:"index"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string { return "user_profiles" }

// MaxPreferenceEntries caps the interests and avoid-topics lists.
const MaxPreferenceEntries = 20

// Scenario is the free-text situation a user requests advice for, plus
// optional structured context. Immutable once submitted.
type Scenario struct {
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
	TimeOfDay   string   `json:"time_of_day,omitempty"`
	Formality   string   `json:"formality,omitempty"`
	Preferences []string `json:"preferences,omitempty"` // explicit topic preferences
}

// AdviceMatch pairs a vibe with its personalized relevance score for one
// scenario. Score is the final ranked value; Relevance is the vibe's
// decay-adjusted relevance at evaluation time.
type AdviceMatch struct {
	VibeID    string  `json:"vibe_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Score     float64 `json:"score"`
	Relevance float64 `json:"relevance"`
}

// Recommendation is the structured output accompanying ranked matches.
type Recommendation struct {
	Topics   []string `json:"topics"`
	Behavior string   `json:"behavior"`
	Style    string   `json:"style"`
}

// Advice is the matcher's output for one scenario: ranked matches, a
// structured recommendation, a reasoning string, and an overall confidence
// in [0,1]. Ephemeral unless persisted into AdviceHistory.
type Advice struct {
	Matches        []AdviceMatch  `json:"matches"`
	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`
	Confidence     float64        `json:"confidence"`
}

// AdviceHistory is the persisted record of one advice request. Rows are
// owned exclusively by the requesting user; ownership is verified before
// any read or mutation.
type AdviceHistory struct {
	ID             string         `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID         string         `json:"user_id" gorm:"type:varchar(64);not null;index:idx_user_history,priority:1"`
	Scenario       Scenario       `json:"scenario" gorm:"serializer:json"`
	Advice         Advice         `json:"advice"   gorm:"serializer:json"`
	RegionApplied  string         `json:"region_applied,omitempty" gorm:"type:varchar(64)"`
	InterestBoosts []string       `json:"interest_boosts,omitempty" gorm:"serializer:json"`
	Rating         *int           `json:"rating,omitempty"` // 1..5, set by owner feedback
	Feedback       string         `json:"feedback,omitempty" gorm:"type:text"`
	WasHelpful     *bool          `json:"was_helpful,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index:idx_user_history,priority:2"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for AdviceHistory.
func (AdviceHistory) TableName() string { return "advice_history" }

// FavoriteType distinguishes what a favorite references.
type FavoriteType string

const (
	FavoriteVibe   FavoriteType = "vibe"
	FavoriteAdvice FavoriteType = "advice"
)

// ValidFavoriteType reports whether t is a known favorite type.
func ValidFavoriteType(t FavoriteType) bool {
	return t == FavoriteVibe || t == FavoriteAdvice
}

// Favorite bookmarks a vibe or an advice-history entry for one user.
// The (user_id, type, reference_id) tuple is unique: duplicate insertion
// is rejected, not silently merged.
type Favorite struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string         `json:"user_id"      gorm:"type:varchar(64);not null;index;uniqueIndex:ux_fav_user_type_ref"`
	Type        FavoriteType   `json:"type"         gorm:"type:varchar(16);not null;check:type IN ('vibe','advice');uniqueIndex:ux_fav_user_type_ref"`
	ReferenceID string         `json:"reference_id" gorm:"type:char(36);not null;uniqueIndex:ux_fav_user_type_ref"`
	Note        string         `json:"note,omitempty" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }

// MonthlyMetric is a derived per-user-per-month aggregate, recomputed
// idempotently from AdviceHistory and never hand-edited. AvgRating is nil
// when no rated rows exist for the month (absence, not zero).
type MonthlyMetric struct {
	ID             string         `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID         string         `json:"user_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_metric_user_month"`
	Month          string         `json:"month"   gorm:"type:char(7);not null;uniqueIndex:ux_metric_user_month"` // YYYY-MM
	QueryCount     int            `json:"query_count" gorm:"not null"`
	RegionCounts   map[string]int `json:"region_counts"   gorm:"serializer:json"`
	InterestCounts map[string]int `json:"interest_counts" gorm:"serializer:json"`
	AvgRating      *float64       `json:"avg_rating,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for MonthlyMetric.
func (MonthlyMetric) TableName() string { return "monthly_metrics" }
