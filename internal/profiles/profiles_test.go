package profiles

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nofchi/winnow/internal/database"
	"github.com/nofchi/winnow/internal/models"
)

const snapshotYAML = `profiles:
  - id: ai
    display_name: Artificial Intelligence
    base_score: 85
    positive_keywords: [llm, model release]
  - id: football
    base_score: 30
    positive_keywords: [football, bundesliga]
    negative_keywords: [rumor]
    region_tags: [germany]
    region_boost: 1.4
  - id: celebrity
    base_score: 0
    exclusion_patterns: ["sponsored content"]
`

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.New(path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), path
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(snapshotYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	list, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d profiles, want 3", len(list))
	}

	ai := list[0]
	if ai.DisplayName != "Artificial Intelligence" {
		t.Errorf("display name = %q", ai.DisplayName)
	}
	// Omitted multipliers default to neutral.
	if ai.RegionBoost != 1.0 || ai.ControversyFactor != 1.0 {
		t.Errorf("defaults = region %v, controversy %v; want 1.0 and 1.0", ai.RegionBoost, ai.ControversyFactor)
	}

	football := list[1]
	if football.DisplayName != "football" {
		t.Errorf("missing display name should fall back to id, got %q", football.DisplayName)
	}
	if football.RegionBoost != 1.4 {
		t.Errorf("region boost = %v, want 1.4", football.RegionBoost)
	}

	if !list[2].Blacklisted() {
		t.Error("celebrity with base 0 should be blacklisted")
	}
}

func TestLoadFallsBackToEmbedded(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	list, err := Load(missing, []byte(snapshotYAML))
	if err != nil {
		t.Fatalf("Load with embedded fallback: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("got %d profiles, want 3 from the embedded snapshot", len(list))
	}
}

func TestLoadRejectsInvalidProfiles(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing id", "profiles:\n  - base_score: 50\n"},
		{"base score too high", "profiles:\n  - id: x\n    base_score: 101\n"},
		{"negative base score", "profiles:\n  - id: x\n    base_score: -5\n"},
		{"region boost out of range", "profiles:\n  - id: x\n    base_score: 50\n    region_boost: 1.9\n"},
		{"controversy out of range", "profiles:\n  - id: x\n    base_score: 50\n    controversy_factor: 2.5\n"},
		{"reliability out of range", "profiles:\n  - id: x\n    base_score: 50\n    source_reliability: {a.test: 0.2}\n"},
		{"empty snapshot", "profiles: []\n"},
		{"not yaml", "{{{{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load("does-not-exist.yaml", []byte(tt.yaml)); err == nil {
				t.Error("Load accepted an invalid snapshot")
			}
		})
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	list, err := Load("does-not-exist.yaml", []byte(snapshotYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	written, err := store.Seed(list, false)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if written != 3 {
		t.Errorf("first seed wrote %d, want 3", written)
	}

	// An adjusted score must survive a repeat seed.
	if err := store.SetBaseScore("football", 77); err != nil {
		t.Fatalf("SetBaseScore: %v", err)
	}
	written, err = store.Seed(list, false)
	if err != nil {
		t.Fatalf("repeat Seed: %v", err)
	}
	if written != 0 {
		t.Errorf("repeat seed wrote %d, want 0", written)
	}
	p, err := store.Get("football")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.BaseScore != 77 {
		t.Errorf("base score = %d after repeat seed, want the adjusted 77", p.BaseScore)
	}

	// Replace mode overwrites deliberately.
	written, err = store.Seed(list, true)
	if err != nil {
		t.Fatalf("replace Seed: %v", err)
	}
	if written != 3 {
		t.Errorf("replace seed wrote %d, want 3", written)
	}
	p, _ = store.Get("football")
	if p.BaseScore != 30 {
		t.Errorf("base score = %d after replace, want the snapshot's 30", p.BaseScore)
	}
}

func TestSnapshotOrderedByID(t *testing.T) {
	store, _ := newTestStore(t)
	seed := []models.TopicProfile{
		{ID: "zebra", BaseScore: 10, RegionBoost: 1.0, ControversyFactor: 1.0},
		{ID: "alpha", BaseScore: 20, RegionBoost: 1.0, ControversyFactor: 1.0},
		{ID: "mid", BaseScore: 30, RegionBoost: 1.0, ControversyFactor: 1.0},
	}
	if _, err := store.Seed(seed, false); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	list, err := store.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	want := []string{"alpha", "mid", "zebra"}
	if len(list) != len(want) {
		t.Fatalf("got %d profiles, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("snapshot[%d] = %s, want %s", i, list[i].ID, id)
		}
	}
}

func TestGetUnknownTopic(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get("rugby")
	if !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("Get(unknown) error = %v, want ErrUnknownTopic", err)
	}
	if err := store.SetBaseScore("rugby", 50); !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("SetBaseScore(unknown) error = %v, want ErrUnknownTopic", err)
	}
	if err := store.SetKeywords("rugby", []string{"x"}, nil); !errors.Is(err, ErrUnknownTopic) {
		t.Errorf("SetKeywords(unknown) error = %v, want ErrUnknownTopic", err)
	}
}

func TestSetBaseScoreValidatesRange(t *testing.T) {
	store, _ := newTestStore(t)
	seed := []models.TopicProfile{{ID: "ai", BaseScore: 85, RegionBoost: 1.0, ControversyFactor: 1.0}}
	if _, err := store.Seed(seed, false); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	if err := store.SetBaseScore("ai", 101); err == nil {
		t.Error("SetBaseScore accepted 101")
	}
	if err := store.SetBaseScore("ai", -1); err == nil {
		t.Error("SetBaseScore accepted -1")
	}
}

func TestMutationsPersistAcrossReopen(t *testing.T) {
	store, path := newTestStore(t)
	seed := []models.TopicProfile{
		{ID: "football", BaseScore: 30, RegionBoost: 1.0, ControversyFactor: 1.0},
	}
	if _, err := store.Seed(seed, false); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := store.SetKeywords("football", []string{"bundesliga"}, []string{"rumor"}); err != nil {
		t.Fatalf("SetKeywords: %v", err)
	}
	if err := store.Blacklist("football"); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}

	reopened, err := database.New(path)
	if err != nil {
		t.Fatalf("reopen database: %v", err)
	}
	defer reopened.Close()

	p, err := New(reopened).Get("football")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !p.Blacklisted() {
		t.Error("blacklist did not persist")
	}
	if len(p.PositiveKeywords) != 1 || p.PositiveKeywords[0] != "bundesliga" {
		t.Errorf("positive keywords = %v, want [bundesliga]", p.PositiveKeywords)
	}
	if len(p.NegativeKeywords) != 1 || p.NegativeKeywords[0] != "rumor" {
		t.Errorf("negative keywords = %v, want [rumor]", p.NegativeKeywords)
	}
}
