package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nofchi/winnow/internal/config"
	"github.com/nofchi/winnow/internal/database"
	"github.com/nofchi/winnow/internal/fingerprint"
	"github.com/nofchi/winnow/internal/models"
	"github.com/nofchi/winnow/internal/similarity"
)

// setup loads configuration and installs the default logger. Commands call
// it first so that every later failure is reported at the configured level.
func setup(configPath string) config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	return cfg
}

func openDB(cfg config.Config) *database.DB {
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	return db
}

// buildIndex wires the fingerprint pipeline from config: one shingle checker
// shared by the fingerprinter and the delivered-content index.
func buildIndex(cfg config.Config, db *database.DB) (*fingerprint.Index, *fingerprint.Fingerprinter, *similarity.Checker) {
	checker := similarity.New(cfg.Similarity.Threshold, cfg.Similarity.NGramSize)
	fp := fingerprint.NewFingerprinter(checker, cfg.Similarity.ExcerptLength)
	index := fingerprint.NewIndex(db, fp, checker, cfg.Similarity.CompareWindowDays)
	return index, fp, checker
}

// loadArticles reads a JSON array of normalized articles from path,
// or from stdin when path is "-".
func loadArticles(path string) ([]models.Article, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var articles []models.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("parse articles: %w", err)
	}
	return articles, nil
}

func loadSelection(path string) (models.Selection, error) {
	var sel models.Selection
	data, err := readInput(path)
	if err != nil {
		return sel, err
	}
	if err := json.Unmarshal(data, &sel); err != nil {
		return sel, fmt.Errorf("parse selection: %w", err)
	}
	return sel, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeJSON writes v indented to path, or to stdout when path is empty or "-".
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
