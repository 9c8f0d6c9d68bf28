package models

import (
	"fmt"
	"time"
)

// TopicProfile parameterizes scoring for one standing interest bucket.
// A base score of 0 means the topic is blacklisted and can never contribute
// a nonzero composite score.
type TopicProfile struct {
	ID                string             `json:"id" yaml:"id"`
	DisplayName       string             `json:"display_name" yaml:"display_name"`
	BaseScore         int                `json:"base_score" yaml:"base_score"`
	PositiveKeywords  []string           `json:"positive_keywords,omitempty" yaml:"positive_keywords"`
	NegativeKeywords  []string           `json:"negative_keywords,omitempty" yaml:"negative_keywords"`
	SourceReliability map[string]float64 `json:"source_reliability,omitempty" yaml:"source_reliability"`
	RegionTags        []string           `json:"region_tags,omitempty" yaml:"region_tags"`
	RegionBoost       float64            `json:"region_boost" yaml:"region_boost"`
	ControversyFactor float64            `json:"controversy_factor" yaml:"controversy_factor"`
	ExclusionPatterns []string           `json:"exclusion_patterns,omitempty" yaml:"exclusion_patterns"`
	CreatedAt         time.Time          `json:"created_at" yaml:"-"`
	UpdatedAt         time.Time          `json:"updated_at" yaml:"-"`
}

func (p TopicProfile) Blacklisted() bool {
	return p.BaseScore == 0
}

// HasKeywords reports whether any keyword list is configured. Topics without
// keyword lists score neutrally instead of taking the no-match damping.
func (p TopicProfile) HasKeywords() bool {
	return len(p.PositiveKeywords) > 0 || len(p.NegativeKeywords) > 0
}

// Article is the normalized input record handed over by the acquisition
// collaborator. The engine never fetches or parses anything itself.
type Article struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	BodyText     string    `json:"body_text"`
	SourceDomain string    `json:"source_domain"`
	URL          string    `json:"url"`
	PublishedAt  time.Time `json:"published_at"`
	Summary      string    `json:"summary,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
}

// Validate reports whether the article carries the fields the pipeline
// depends on. Invalid articles are skipped, not fatal.
func (a Article) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("article missing id (url=%q)", a.URL)
	}
	if a.URL == "" {
		return fmt.Errorf("article %s missing url", a.ID)
	}
	if a.Title == "" {
		return fmt.Errorf("article %s missing title", a.ID)
	}
	return nil
}

// FactorBreakdown records the per-factor contributions behind a composite
// score, kept for explainability and test assertions.
type FactorBreakdown struct {
	Base         float64 `json:"base"`
	Keyword      float64 `json:"keyword"`
	Source       float64 `json:"source"`
	Region       float64 `json:"region"`
	Freshness    float64 `json:"freshness"`
	Controversy  float64 `json:"controversy"`
	PositiveHits int     `json:"positive_hits"`
	NegativeHits int     `json:"negative_hits"`
	Excluded     bool    `json:"excluded,omitempty"`
}

type ScoreResult struct {
	ArticleID      string          `json:"article_id"`
	TopicID        string          `json:"topic_id"`
	CompositeScore float64         `json:"composite_score"`
	Breakdown      FactorBreakdown `json:"breakdown"`
}

// Candidate pairs an article with its best-topic result. Results keeps every
// per-topic score for diagnostics.
type Candidate struct {
	Article Article       `json:"article"`
	Best    ScoreResult   `json:"best"`
	Results []ScoreResult `json:"results,omitempty"`
}

// SkippedArticle reports one malformed input dropped from a batch.
type SkippedArticle struct {
	ArticleID string `json:"article_id,omitempty"`
	URL       string `json:"url,omitempty"`
	Reason    string `json:"reason"`
}

type Section string

const (
	SectionPrimary  Section = "primary"
	SectionSurprise Section = "surprise"
)

type SelectionEntry struct {
	ArticleID    string  `json:"article_id"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	SourceDomain string  `json:"source_domain"`
	Summary      string  `json:"summary,omitempty"`
	TopicID      string  `json:"topic_id"`
	Score        float64 `json:"score"`
	Section      Section `json:"section"`
}

// Selection is the ordered output batch: primary entries by descending score,
// then surprise entries by descending score.
type Selection struct {
	ID                string           `json:"id"`
	CreatedAt         time.Time        `json:"created_at"`
	Entries           []SelectionEntry `json:"entries"`
	Shortfall         int              `json:"shortfall"`
	DuplicatesDropped int              `json:"duplicates_dropped"`
	BelowFloor        int              `json:"below_floor"`
	DegradedChecks    int              `json:"degraded_checks"`
}

// PrimaryCount returns the number of primary-section entries.
func (s Selection) PrimaryCount() int {
	n := 0
	for _, e := range s.Entries {
		if e.Section == SectionPrimary {
			n++
		}
	}
	return n
}

func (s Selection) ArticleIDs() []string {
	ids := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		ids[i] = e.ArticleID
	}
	return ids
}

// FingerprintRecord is the persisted identity of one delivered article.
// FirstDeliveredAt is set once and never updated; repeat deliveries only
// bump DeliveryCount and LastDeliveredAt.
type FingerprintRecord struct {
	ArticleID        string    `json:"article_id"`
	URLHash          string    `json:"url_hash"`
	TitleHash        string    `json:"title_hash"`
	ContentHash      string    `json:"content_hash"`
	Signature        string    `json:"-"`
	FirstDeliveredAt time.Time `json:"first_delivered_at"`
	LastDeliveredAt  time.Time `json:"last_delivered_at"`
	DeliveryCount    int       `json:"delivery_count"`
}

type Delivery struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ArticleCount  int       `json:"article_count"`
	PrimaryCount  int       `json:"primary_count"`
	SurpriseCount int       `json:"surprise_count"`
	Shortfall     int       `json:"shortfall"`
	ArticleIDs    []string  `json:"article_ids"`
}

const (
	FeedbackModeNudge = "nudge"
	FeedbackModeSet   = "set"
)

type FeedbackEvent struct {
	ID             int64     `json:"id"`
	TopicID        string    `json:"topic_id"`
	ArticleID      string    `json:"article_id,omitempty"`
	CorrectedScore int       `json:"corrected_score"`
	OldBaseScore   int       `json:"old_base_score"`
	NewBaseScore   int       `json:"new_base_score"`
	Mode           string    `json:"mode"`
	CreatedAt      time.Time `json:"created_at"`
}

type Stats struct {
	TotalProfiles       int        `json:"total_profiles"`
	BlacklistedProfiles int        `json:"blacklisted_profiles"`
	FingerprintRecords  int        `json:"fingerprint_records"`
	DeliveredLastWeek   int        `json:"delivered_last_week"`
	OldestFirstDelivery *time.Time `json:"oldest_first_delivery,omitempty"`
	TotalDeliveries     int        `json:"total_deliveries"`
	TotalFeedbackEvents int        `json:"total_feedback_events"`
	DatabaseSizeBytes   int64      `json:"database_size_bytes"`
}
