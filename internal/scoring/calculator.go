package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/nofchi/winnow/internal/config"
	"github.com/nofchi/winnow/internal/models"
)

// Calculator computes composite relevance scores. It is a pure function of
// (article, profiles, now) and holds no mutable state, so one instance can
// score articles from any number of goroutines.
type Calculator struct {
	cfg config.ScoringConfig
}

func NewCalculator(cfg config.ScoringConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Score produces one result per profile, or a single zero result when an
// exclusion pattern fires. Exclusion is global: a pattern configured on any
// profile kills the article for every topic.
func (c *Calculator) Score(article models.Article, profiles []models.TopicProfile, now time.Time) []models.ScoreResult {
	text := strings.ToLower(article.Title + " " + article.BodyText)

	if topicID, hit := findExclusion(text, profiles); hit {
		return []models.ScoreResult{{
			ArticleID: article.ID,
			TopicID:   topicID,
			Breakdown: models.FactorBreakdown{Excluded: true},
		}}
	}

	// Freshness depends only on the article, so compute it once per call.
	freshness := c.freshnessFactor(now.Sub(article.PublishedAt))

	results := make([]models.ScoreResult, 0, len(profiles))
	for _, p := range profiles {
		results = append(results, c.scoreTopic(article, p, text, freshness))
	}
	return results
}

func (c *Calculator) scoreTopic(article models.Article, p models.TopicProfile, text string, freshness float64) models.ScoreResult {
	breakdown := models.FactorBreakdown{
		Base:        float64(p.BaseScore),
		Keyword:     1.0,
		Source:      1.0,
		Region:      1.0,
		Freshness:   freshness,
		Controversy: p.ControversyFactor,
	}

	// Blacklisted topics never contribute, whatever the other factors say.
	if p.BaseScore == 0 {
		return models.ScoreResult{ArticleID: article.ID, TopicID: p.ID, Breakdown: breakdown}
	}

	keyword, pos, neg := c.keywordFactor(text, p)
	breakdown.Keyword = keyword
	breakdown.PositiveHits = pos
	breakdown.NegativeHits = neg

	if mult, ok := p.SourceReliability[strings.ToLower(article.SourceDomain)]; ok {
		breakdown.Source = mult
	}

	if regionMatch(article.Tags, p.RegionTags) {
		breakdown.Region = p.RegionBoost
	}

	composite := float64(p.BaseScore) * keyword * breakdown.Source * breakdown.Region *
		freshness * p.ControversyFactor

	return models.ScoreResult{
		ArticleID:      article.ID,
		TopicID:        p.ID,
		CompositeScore: clamp(composite, 0, 100),
		Breakdown:      breakdown,
	}
}

// keywordFactor scans for configured keywords and returns the combined
// factor plus the distinct positive and negative hit counts. Topics without
// keyword lists stay neutral; topics whose lists produced no hit at all take
// the no-match damping so a high base score alone cannot over-trigger.
func (c *Calculator) keywordFactor(text string, p models.TopicProfile) (float64, int, int) {
	if !p.HasKeywords() {
		return 1.0, 0, 0
	}

	pos := countMatches(text, p.PositiveKeywords)
	neg := countMatches(text, p.NegativeKeywords)
	if pos == 0 && neg == 0 {
		return c.cfg.NoMatchMultiplier, 0, 0
	}

	factor := 1.0
	if pos > 0 {
		factor = 1.0 + c.cfg.PositiveStep*float64(pos)
	}
	if neg > 0 {
		factor *= 1.0 - c.cfg.NegativeStep*float64(neg)
	}

	return clamp(factor, c.cfg.KeywordFactorMin, c.cfg.KeywordFactorMax), pos, neg
}

// freshnessFactor decays from the boost (inside the grace window) down to
// exactly the floor at the staleness horizon, then stays flat. The curve is
// exponential between the two anchors, continuous and monotone.
func (c *Calculator) freshnessFactor(age time.Duration) float64 {
	grace := time.Duration(c.cfg.FreshGraceMinutes) * time.Minute
	horizon := time.Duration(c.cfg.StalenessHorizonHours) * time.Hour

	// Future-dated articles count as fresh; publisher clocks drift.
	if age <= grace {
		return c.cfg.FreshBoost
	}
	if age >= horizon {
		return c.cfg.FreshFloor
	}

	progress := float64(age-grace) / float64(horizon-grace)
	return c.cfg.FreshBoost * math.Pow(c.cfg.FreshFloor/c.cfg.FreshBoost, progress)
}

// Best picks the primary-topic result. Topics with positive keyword evidence
// outrank topics without any, whatever their composite: an article that only
// mentions football belongs to the football topic even when an evidence-less
// profile carries a far higher base score. Among equals the highest composite
// wins, and the earliest result (profiles are ordered by topic id) settles
// exact ties.
func Best(results []models.ScoreResult) (models.ScoreResult, bool) {
	if len(results) == 0 {
		return models.ScoreResult{}, false
	}

	best := results[0]
	bestEvidence := best.Breakdown.PositiveHits > 0
	for _, r := range results[1:] {
		evidence := r.Breakdown.PositiveHits > 0
		switch {
		case evidence && !bestEvidence:
			best, bestEvidence = r, true
		case evidence == bestEvidence && r.CompositeScore > best.CompositeScore:
			best = r
		}
	}
	return best, true
}

// findExclusion returns the id of the first profile whose exclusion pattern
// occurs in the text.
func findExclusion(text string, profiles []models.TopicProfile) (string, bool) {
	for _, p := range profiles {
		for _, pattern := range p.ExclusionPatterns {
			pattern = strings.ToLower(strings.TrimSpace(pattern))
			if pattern == "" {
				continue
			}
			if strings.Contains(text, pattern) {
				return p.ID, true
			}
		}
	}
	return "", false
}

// countMatches counts how many distinct keywords occur in the text.
func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func regionMatch(tags, regions []string) bool {
	for _, tag := range tags {
		for _, region := range regions {
			if strings.EqualFold(tag, region) {
				return true
			}
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
