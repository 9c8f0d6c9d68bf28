package config

import (
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Scoring    ScoringConfig    `yaml:"scoring"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Curation   CurationConfig   `yaml:"curation"`
	Feedback   FeedbackConfig   `yaml:"feedback"`
	Retention  RetentionConfig  `yaml:"retention"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ScoringConfig names every multiplier the composite score is sensitive to.
// The defaults are tuning knobs, not invariants; tests pin them explicitly.
type ScoringConfig struct {
	Workers               int     `yaml:"workers"`
	NoMatchMultiplier     float64 `yaml:"no_match_multiplier"`
	PositiveStep          float64 `yaml:"positive_step"`
	NegativeStep          float64 `yaml:"negative_step"`
	KeywordFactorMax      float64 `yaml:"keyword_factor_max"`
	KeywordFactorMin      float64 `yaml:"keyword_factor_min"`
	FreshBoost            float64 `yaml:"fresh_boost"`
	FreshFloor            float64 `yaml:"fresh_floor"`
	FreshGraceMinutes     int     `yaml:"fresh_grace_minutes"`
	StalenessHorizonHours int     `yaml:"staleness_horizon_hours"`
}

type SimilarityConfig struct {
	Threshold         float64 `yaml:"threshold"`
	NGramSize         int     `yaml:"ngram_size"`
	CompareWindowDays int     `yaml:"compare_window_days"`
	ExcerptLength     int     `yaml:"excerpt_length"`
}

type CurationConfig struct {
	TargetSize      int     `yaml:"target_size"`
	PrimaryRatio    float64 `yaml:"primary_ratio"`
	HighThreshold   float64 `yaml:"high_threshold"`
	MediumThreshold float64 `yaml:"medium_threshold"`
	MinScore        float64 `yaml:"min_score"`
}

type FeedbackConfig struct {
	Weight float64 `yaml:"weight"`
}

type RetentionConfig struct {
	MaxAgeDays int `yaml:"max_age_days"`
}

func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Path: "./winnow.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Scoring: ScoringConfig{
			Workers:               3,
			NoMatchMultiplier:     0.8,
			PositiveStep:          0.25,
			NegativeStep:          0.3,
			KeywordFactorMax:      2.0,
			KeywordFactorMin:      0.1,
			FreshBoost:            1.5,
			FreshFloor:            0.1,
			FreshGraceMinutes:     60,
			StalenessHorizonHours: 168,
		},
		Similarity: SimilarityConfig{
			Threshold:         0.6,
			NGramSize:         3,
			CompareWindowDays: 14,
			ExcerptLength:     500,
		},
		Curation: CurationConfig{
			TargetSize:      50,
			PrimaryRatio:    0.95,
			HighThreshold:   70,
			MediumThreshold: 40,
			MinScore:        1.0,
		},
		Feedback: FeedbackConfig{
			Weight: 0.5,
		},
		Retention: RetentionConfig{
			MaxAgeDays: 30,
		},
	}
}

// Load reads a YAML config file and merges it over defaults.
// If the file does not exist, defaults are returned without error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No config file found, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
