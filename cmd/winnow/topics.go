package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nofchi/winnow/internal/feedback"
	"github.com/nofchi/winnow/internal/profiles"
)

// runTopics prints the stored topic profiles in id order.
func runTopics() {
	fs := flag.NewFlagSet("topics", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	fs.Parse(os.Args[1:])

	cfg := setup(*configPath)
	db := openDB(cfg)
	defer db.Close()

	store := profiles.New(db)
	list, err := store.Snapshot()
	if err != nil {
		fatal("Failed to load topic profiles", "error", err)
	}
	if len(list) == 0 {
		fmt.Println("No topic profiles. Run 'winnow init' to seed the defaults.")
		return
	}

	fmt.Printf("%-16s %-24s %5s  %s\n", "ID", "NAME", "BASE", "NOTES")
	for _, p := range list {
		var notes []string
		if p.Blacklisted() {
			notes = append(notes, "blacklisted")
		}
		if n := len(p.PositiveKeywords); n > 0 {
			notes = append(notes, fmt.Sprintf("%d positive", n))
		}
		if n := len(p.NegativeKeywords); n > 0 {
			notes = append(notes, fmt.Sprintf("%d negative", n))
		}
		if n := len(p.ExclusionPatterns); n > 0 {
			notes = append(notes, fmt.Sprintf("%d exclusions", n))
		}
		fmt.Printf("%-16s %-24s %5d  %s\n", p.ID, p.DisplayName, p.BaseScore, strings.Join(notes, ", "))
	}
}

// runFeedback nudges a topic's base score toward a corrected value using
// the configured feedback weight.
func runFeedback() {
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	topicID := fs.String("topic", "", "Topic profile id")
	score := fs.Int("score", -1, "Corrected score (0-100)")
	articleID := fs.String("article", "", "Article that prompted the correction (optional)")
	fs.Parse(os.Args[1:])

	if *topicID == "" || *score < 0 {
		fatal("Missing flags: feedback needs -topic and -score")
	}

	cfg := setup(*configPath)
	db := openDB(cfg)
	defer db.Close()

	applier := feedback.New(profiles.New(db), db, cfg.Feedback.Weight)
	event, err := applier.Apply(*articleID, *topicID, *score)
	if err != nil {
		fatal("Failed to apply feedback", "error", err)
	}
	fmt.Printf("%s: %d -> %d (corrected to %d at weight %.2f)\n",
		event.TopicID, event.OldBaseScore, event.NewBaseScore, *score, cfg.Feedback.Weight)
}

// runSetScore sets a topic's base score directly, bypassing the weighted
// nudge. The change is still recorded as a feedback event.
func runSetScore() {
	fs := flag.NewFlagSet("set-score", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	topicID := fs.String("topic", "", "Topic profile id")
	score := fs.Int("score", -1, "New base score (0-100)")
	fs.Parse(os.Args[1:])

	if *topicID == "" || *score < 0 {
		fatal("Missing flags: set-score needs -topic and -score")
	}

	cfg := setup(*configPath)
	db := openDB(cfg)
	defer db.Close()

	applier := feedback.New(profiles.New(db), db, cfg.Feedback.Weight)
	event, err := applier.Set(*topicID, *score)
	if err != nil {
		fatal("Failed to set score", "error", err)
	}
	fmt.Printf("%s: %d -> %d\n", event.TopicID, event.OldBaseScore, event.NewBaseScore)
}

// runBlacklist zeroes a topic's base score so every article assigned to it
// scores 0 until the topic is restored.
func runBlacklist() {
	fs := flag.NewFlagSet("blacklist", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	topicID := fs.String("topic", "", "Topic profile id")
	fs.Parse(os.Args[1:])

	if *topicID == "" {
		fatal("Missing flags: blacklist needs -topic")
	}

	cfg := setup(*configPath)
	db := openDB(cfg)
	defer db.Close()

	applier := feedback.New(profiles.New(db), db, cfg.Feedback.Weight)
	event, err := applier.Set(*topicID, 0)
	if err != nil {
		fatal("Failed to blacklist topic", "error", err)
	}
	fmt.Printf("%s blacklisted (was %d)\n", event.TopicID, event.OldBaseScore)
}

// runKeywords replaces a topic's positive and negative keyword lists.
// Omitting a flag clears that list.
func runKeywords() {
	fs := flag.NewFlagSet("keywords", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	topicID := fs.String("topic", "", "Topic profile id")
	positive := fs.String("positive", "", "Comma-separated positive keywords")
	negative := fs.String("negative", "", "Comma-separated negative keywords")
	fs.Parse(os.Args[1:])

	if *topicID == "" {
		fatal("Missing flags: keywords needs -topic")
	}

	cfg := setup(*configPath)
	db := openDB(cfg)
	defer db.Close()

	store := profiles.New(db)
	pos := splitList(*positive)
	neg := splitList(*negative)
	if err := store.SetKeywords(*topicID, pos, neg); err != nil {
		fatal("Failed to update keywords", "error", err)
	}
	slog.Info("Updated keywords", "topic", *topicID, "positive", len(pos), "negative", len(neg))
}
