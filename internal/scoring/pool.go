package scoring

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nofchi/winnow/internal/models"
)

// BatchResult carries the scored candidates and the malformed inputs that
// were skipped along the way.
type BatchResult struct {
	Candidates []models.Candidate
	Skipped    []models.SkippedArticle
}

// ScoreBatch scores a batch concurrently (up to workers at a time). Every
// article in the batch is scored against the same reference instant so the
// run is internally consistent. Malformed articles are skipped with a
// diagnostic; they never abort the batch. Results keep the input order.
func ScoreBatch(ctx context.Context, calc *Calculator, articles []models.Article, profiles []models.TopicProfile, workers int) BatchResult {
	if workers < 1 {
		workers = 1
	}
	now := time.Now()

	// Each goroutine writes only its own slot, so no locking is needed.
	candidates := make([]*models.Candidate, len(articles))
	skipped := make([]*models.SkippedArticle, len(articles))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, article := range articles {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, a models.Article) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := a.Validate(); err != nil {
				slog.Warn("Skipping malformed article", "error", err)
				skipped[i] = &models.SkippedArticle{ArticleID: a.ID, URL: a.URL, Reason: err.Error()}
				return
			}

			results := calc.Score(a, profiles, now)
			best, ok := Best(results)
			if !ok {
				slog.Warn("No profiles configured, skipping article", "article", a.ID)
				skipped[i] = &models.SkippedArticle{ArticleID: a.ID, URL: a.URL, Reason: "no profiles configured"}
				return
			}

			candidates[i] = &models.Candidate{Article: a, Best: best, Results: results}
		}(i, article)
	}
	wg.Wait()

	var out BatchResult
	for i := range articles {
		if candidates[i] != nil {
			out.Candidates = append(out.Candidates, *candidates[i])
		}
		if skipped[i] != nil {
			out.Skipped = append(out.Skipped, *skipped[i])
		}
	}
	return out
}
