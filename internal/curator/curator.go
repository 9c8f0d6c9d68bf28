package curator

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nofchi/winnow/internal/fingerprint"
	"github.com/nofchi/winnow/internal/models"
	"github.com/nofchi/winnow/internal/similarity"
)

// DuplicateChecker is the slice of the fingerprint index the curator needs.
type DuplicateChecker interface {
	IsDuplicate(models.Article) bool
	DegradedChecks() int64
}

// Options bound one curation run. Zero values are not defaulted here; the
// caller passes config-derived values so tests can pin exact behavior.
type Options struct {
	TargetSize      int
	PrimaryRatio    float64
	HighThreshold   float64
	MediumThreshold float64
	MinScore        float64
}

// Curator assembles the bounded, ordered selection. It reads the duplicate
// index but never writes it: committing fingerprints is the caller's act
// once delivery is confirmed, so a failed delivery cannot mark articles as
// already sent.
type Curator struct {
	index   DuplicateChecker
	fp      *fingerprint.Fingerprinter
	checker *similarity.Checker
}

func New(index DuplicateChecker, fp *fingerprint.Fingerprinter, checker *similarity.Checker) *Curator {
	return &Curator{index: index, fp: fp, checker: checker}
}

// Curate turns scored candidates into an ordered selection: primary entries
// first (descending score), then surprise entries (descending score). The
// result also carries the run accounting counters (shortfall, duplicates
// dropped, below-floor drops, degraded duplicate checks).
func (c *Curator) Curate(candidates []models.Candidate, opts Options) models.Selection {
	sel := models.Selection{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	degradedBefore := c.index.DegradedChecks()

	ranked := make([]models.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.Slice(ranked, func(i, j int) bool { return rankBefore(ranked[i], ranked[j]) })

	kept := c.filter(ranked, opts, &sel)

	high, medium, surprise := partition(kept, opts.HighThreshold, opts.MediumThreshold)

	primaryCount := int(math.Round(float64(opts.TargetSize) * opts.PrimaryRatio))
	surpriseCount := opts.TargetSize - primaryCount

	primary := append(high, medium...)
	if len(primary) > primaryCount {
		primary = primary[:primaryCount]
	}
	picks := stratifiedPick(surprise, surpriseCount)

	for _, cand := range primary {
		sel.Entries = append(sel.Entries, entry(cand, models.SectionPrimary))
	}
	for _, cand := range picks {
		sel.Entries = append(sel.Entries, entry(cand, models.SectionSurprise))
	}

	if len(sel.Entries) < opts.TargetSize {
		sel.Shortfall = opts.TargetSize - len(sel.Entries)
	}
	sel.DegradedChecks = int(c.index.DegradedChecks() - degradedBefore)

	slog.Info("Curated selection",
		"selection", sel.ID,
		"entries", len(sel.Entries),
		"primary", len(primary),
		"surprise", len(picks),
		"shortfall", sel.Shortfall,
		"duplicates_dropped", sel.DuplicatesDropped,
		"below_floor", sel.BelowFloor)
	return sel
}

// filter walks the ranked candidates and drops below-floor scores, repeated
// ids, articles the index has already seen, and in-batch near-duplicates of
// an already-kept candidate. Walking in rank order means that of two
// near-identical batchmates the better one survives.
func (c *Curator) filter(ranked []models.Candidate, opts Options, sel *models.Selection) []models.Candidate {
	var kept []models.Candidate
	seenIDs := make(map[string]bool)
	seenHashes := make(map[string]bool)
	var seenSigs []similarity.StoredSignature

	for _, cand := range ranked {
		if cand.Best.CompositeScore < opts.MinScore {
			sel.BelowFloor++
			continue
		}
		if seenIDs[cand.Article.ID] {
			sel.DuplicatesDropped++
			continue
		}
		if c.index.IsDuplicate(cand.Article) {
			sel.DuplicatesDropped++
			seenIDs[cand.Article.ID] = true
			continue
		}

		f := c.fp.Fingerprint(cand.Article)
		if seenHashes[f.URLHash] || seenHashes[f.TitleHash] || seenHashes[f.ContentHash] {
			sel.DuplicatesDropped++
			continue
		}
		if _, dup := c.checker.MatchAny(f.Shingles, seenSigs); dup {
			sel.DuplicatesDropped++
			continue
		}

		seenIDs[cand.Article.ID] = true
		seenHashes[f.URLHash] = true
		seenHashes[f.TitleHash] = true
		seenHashes[f.ContentHash] = true
		seenSigs = append(seenSigs, similarity.StoredSignature{
			ArticleID: cand.Article.ID,
			Shingles:  c.checker.ShinglesToJSON(f.Shingles),
		})
		kept = append(kept, cand)
	}
	return kept
}

func partition(kept []models.Candidate, highThreshold, mediumThreshold float64) (high, medium, surprise []models.Candidate) {
	for _, cand := range kept {
		switch score := cand.Best.CompositeScore; {
		case score >= highThreshold:
			high = append(high, cand)
		case score >= mediumThreshold:
			medium = append(medium, cand)
		default:
			surprise = append(surprise, cand)
		}
	}
	return high, medium, surprise
}

// stratifiedPick spreads the surprise slots across the bucket's score range:
// the range is split into equal bands and the top article of each band is
// taken, highest band first. Bands with nothing left fall through to the
// best remaining articles. Plain top-k here would cluster every pick at the
// top edge of the low-score range, which defeats the point of surprise.
func stratifiedPick(bucket []models.Candidate, slots int) []models.Candidate {
	if slots <= 0 || len(bucket) == 0 {
		return nil
	}
	if len(bucket) <= slots {
		return bucket
	}

	hi := bucket[0].Best.CompositeScore
	lo := bucket[len(bucket)-1].Best.CompositeScore
	width := (hi - lo) / float64(slots)
	if width <= 0 {
		return bucket[:slots]
	}

	used := make(map[string]bool)
	picked := make([]models.Candidate, 0, slots)
	for band := 0; band < slots; band++ {
		upper := hi - float64(band)*width
		lower := upper - width
		if band == slots-1 {
			lower = lo
		}
		for _, cand := range bucket {
			score := cand.Best.CompositeScore
			if score > upper || used[cand.Article.ID] {
				continue
			}
			if score < lower {
				break
			}
			picked = append(picked, cand)
			used[cand.Article.ID] = true
			break
		}
	}

	for _, cand := range bucket {
		if len(picked) >= slots {
			break
		}
		if !used[cand.Article.ID] {
			picked = append(picked, cand)
			used[cand.Article.ID] = true
		}
	}

	sort.Slice(picked, func(i, j int) bool { return rankBefore(picked[i], picked[j]) })
	return picked
}

// rankBefore orders by composite descending, then more recent published_at,
// then article id, so runs over the same pool are fully reproducible.
func rankBefore(a, b models.Candidate) bool {
	if a.Best.CompositeScore != b.Best.CompositeScore {
		return a.Best.CompositeScore > b.Best.CompositeScore
	}
	if !a.Article.PublishedAt.Equal(b.Article.PublishedAt) {
		return a.Article.PublishedAt.After(b.Article.PublishedAt)
	}
	return a.Article.ID < b.Article.ID
}

func entry(cand models.Candidate, section models.Section) models.SelectionEntry {
	return models.SelectionEntry{
		ArticleID:    cand.Article.ID,
		Title:        cand.Article.Title,
		URL:          cand.Article.URL,
		SourceDomain: cand.Article.SourceDomain,
		Summary:      cand.Article.Summary,
		TopicID:      cand.Best.TopicID,
		Score:        cand.Best.CompositeScore,
		Section:      section,
	}
}
