package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	winnow "github.com/nofchi/winnow"
	"github.com/nofchi/winnow/internal/profiles"
)

// runInit creates the database schema and seeds topic profiles from a
// snapshot file, falling back to the embedded defaults.
func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	profilesPath := fs.String("profiles", "profiles.yaml", "Path to profiles file")
	replace := fs.Bool("replace", false, "Overwrite profiles that already exist")
	fs.Parse(os.Args[1:])

	cfg := setup(*configPath)
	db := openDB(cfg)
	defer db.Close()

	list, err := profiles.Load(*profilesPath, winnow.ProfilesYAML)
	if err != nil {
		fatal("Failed to load profiles", "error", err)
	}

	store := profiles.New(db)
	written, err := store.Seed(list, *replace)
	if err != nil {
		fatal("Failed to seed profiles", "error", err)
	}

	slog.Info("Database initialized",
		"path", cfg.Database.Path,
		"profiles", len(list),
		"written", written,
		"replace", *replace)
}

// runStatus prints store counters plus the most recent deliveries and
// feedback events.
func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	recent := fs.Int("recent", 5, "How many recent deliveries and feedback events to show")
	fs.Parse(os.Args[1:])

	cfg := setup(*configPath)
	db := openDB(cfg)
	defer db.Close()

	stats, err := db.Stats()
	if err != nil {
		fatal("Failed to read stats", "error", err)
	}

	fmt.Printf("Topic profiles:        %d (%d blacklisted)\n", stats.TotalProfiles, stats.BlacklistedProfiles)
	fmt.Printf("Fingerprint records:   %d\n", stats.FingerprintRecords)
	fmt.Printf("Delivered last 7d:     %d\n", stats.DeliveredLastWeek)
	if stats.OldestFirstDelivery != nil {
		fmt.Printf("Oldest fingerprint:    %s (%.0fd ago)\n",
			stats.OldestFirstDelivery.Format("2006-01-02"),
			time.Since(*stats.OldestFirstDelivery).Hours()/24)
	}
	fmt.Printf("Deliveries:            %d\n", stats.TotalDeliveries)
	fmt.Printf("Feedback events:       %d\n", stats.TotalFeedbackEvents)
	if stats.DatabaseSizeBytes > 0 {
		fmt.Printf("Database size:         %.1f MB\n", float64(stats.DatabaseSizeBytes)/(1024*1024))
	}

	if *recent <= 0 {
		return
	}

	deliveries, err := db.RecentDeliveries(*recent)
	if err != nil {
		fatal("Failed to read deliveries", "error", err)
	}
	if len(deliveries) > 0 {
		fmt.Printf("\nRecent deliveries:\n")
		for _, d := range deliveries {
			fmt.Printf("  %s  %2d articles (%d primary, %d surprise, shortfall %d)\n",
				d.CreatedAt.Format("2006-01-02 15:04"),
				d.ArticleCount, d.PrimaryCount, d.SurpriseCount, d.Shortfall)
		}
	}

	events, err := db.RecentFeedbackEvents(*recent)
	if err != nil {
		fatal("Failed to read feedback events", "error", err)
	}
	if len(events) > 0 {
		fmt.Printf("\nRecent feedback:\n")
		for _, e := range events {
			fmt.Printf("  %s  %-16s %3d -> %-3d (%s)\n",
				e.CreatedAt.Format("2006-01-02 15:04"),
				e.TopicID, e.OldBaseScore, e.NewBaseScore, e.Mode)
		}
	}
}

// runPurge removes fingerprint records and audit rows older than the
// retention window.
func runPurge() {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	days := fs.Int("days", 0, "Retention in days (default from config)")
	fs.Parse(os.Args[1:])

	cfg := setup(*configPath)
	if *days <= 0 {
		*days = cfg.Retention.MaxAgeDays
	}
	if *days <= 0 {
		fatal("Retention must be positive", "days", *days)
	}

	db := openDB(cfg)
	defer db.Close()

	index, _, _ := buildIndex(cfg, db)
	fingerprints, err := index.PurgeOlderThan(*days)
	if err != nil {
		fatal("Failed to purge fingerprints", "error", err)
	}

	cutoff := time.Now().AddDate(0, 0, -*days)
	deliveries, err := db.PurgeDeliveriesBefore(cutoff)
	if err != nil {
		fatal("Failed to purge deliveries", "error", err)
	}
	events, err := db.PurgeFeedbackEventsBefore(cutoff)
	if err != nil {
		fatal("Failed to purge feedback events", "error", err)
	}

	slog.Info("Purge complete",
		"days", *days,
		"fingerprints", fingerprints,
		"deliveries", deliveries,
		"feedback_events", events)
}
