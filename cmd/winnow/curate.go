package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/nofchi/winnow/internal/curator"
	"github.com/nofchi/winnow/internal/models"
	"github.com/nofchi/winnow/internal/profiles"
	"github.com/nofchi/winnow/internal/scoring"
)

// runOutput is the curate command's JSON result: the selection plus the
// articles that were rejected before scoring.
type runOutput struct {
	models.Selection
	Skipped []models.SkippedArticle `json:"skipped,omitempty"`
}

// runCurate scores a batch of candidate articles against the stored topic
// profiles and assembles a selection. It never writes to the fingerprint
// index; the caller confirms delivery separately.
func runCurate() {
	fs := flag.NewFlagSet("curate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	inPath := fs.String("in", "", "Candidate articles JSON (use - for stdin)")
	outPath := fs.String("out", "", "Write selection JSON here (default stdout)")
	fs.Parse(os.Args[1:])

	if *inPath == "" {
		fatal("Missing -in: curate needs a candidate articles file")
	}

	cfg := setup(*configPath)
	db := openDB(cfg)
	defer db.Close()

	store := profiles.New(db)
	snapshot, err := store.Snapshot()
	if err != nil {
		fatal("Failed to load topic profiles", "error", err)
	}
	if len(snapshot) == 0 {
		fatal("No topic profiles seeded; run 'winnow init' first")
	}

	articles, err := loadArticles(*inPath)
	if err != nil {
		fatal("Failed to load articles", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	calc := scoring.NewCalculator(cfg.Scoring)
	batch := scoring.ScoreBatch(ctx, calc, articles, snapshot, cfg.Scoring.Workers)

	index, fp, checker := buildIndex(cfg, db)
	cur := curator.New(index, fp, checker)
	selection := cur.Curate(batch.Candidates, curator.Options{
		TargetSize:      cfg.Curation.TargetSize,
		PrimaryRatio:    cfg.Curation.PrimaryRatio,
		HighThreshold:   cfg.Curation.HighThreshold,
		MediumThreshold: cfg.Curation.MediumThreshold,
		MinScore:        cfg.Curation.MinScore,
	})

	if err := writeJSON(*outPath, runOutput{Selection: selection, Skipped: batch.Skipped}); err != nil {
		fatal("Failed to write selection", "error", err)
	}

	slog.Info("Curation complete",
		"selection", selection.ID,
		"candidates", len(articles),
		"selected", len(selection.Entries),
		"skipped", len(batch.Skipped),
		"duration", time.Since(started).Round(time.Millisecond))
}

// runConfirm records a delivered selection in the fingerprint index so its
// articles are treated as duplicates from now on. Per-article commit failures
// are logged and counted but do not stop the remaining commits.
func runConfirm() {
	fs := flag.NewFlagSet("confirm", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	inPath := fs.String("in", "", "Articles JSON that backed the selection (use - for stdin)")
	selPath := fs.String("selection", "", "Selection JSON emitted by curate")
	fs.Parse(os.Args[1:])

	if *inPath == "" || *selPath == "" {
		fatal("Missing flags: confirm needs both -in and -selection")
	}

	cfg := setup(*configPath)
	db := openDB(cfg)
	defer db.Close()

	selection, err := loadSelection(*selPath)
	if err != nil {
		fatal("Failed to load selection", "error", err)
	}
	articles, err := loadArticles(*inPath)
	if err != nil {
		fatal("Failed to load articles", "error", err)
	}

	byID := make(map[string]models.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	index, _, _ := buildIndex(cfg, db)

	committed := 0
	failed := 0
	for _, entry := range selection.Entries {
		article, ok := byID[entry.ArticleID]
		if !ok {
			slog.Error("Selection references an article missing from input", "article", entry.ArticleID)
			failed++
			continue
		}
		if err := index.Commit(article); err != nil {
			slog.Error("Failed to commit fingerprint", "article", entry.ArticleID, "error", err)
			failed++
			continue
		}
		committed++
	}

	primary := selection.PrimaryCount()
	delivery := models.Delivery{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now(),
		ArticleCount:  len(selection.Entries),
		PrimaryCount:  primary,
		SurpriseCount: len(selection.Entries) - primary,
		Shortfall:     selection.Shortfall,
		ArticleIDs:    selection.ArticleIDs(),
	}
	if err := db.InsertDelivery(delivery); err != nil {
		fatal("Failed to record delivery", "error", err)
	}

	slog.Info("Delivery confirmed",
		"selection", selection.ID,
		"delivery", delivery.ID,
		"committed", committed,
		"failed", failed)

	if failed > 0 {
		os.Exit(1)
	}
}
