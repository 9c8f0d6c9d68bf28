package fingerprint

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nofchi/winnow/internal/database"
	"github.com/nofchi/winnow/internal/models"
	"github.com/nofchi/winnow/internal/similarity"
)

func newTestIndex(t *testing.T) (*Index, *database.DB) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	checker := similarity.New(0.6, 3)
	fp := NewFingerprinter(checker, 500)
	return NewIndex(db, fp, checker, 14), db
}

func article(id, title, body, url string) models.Article {
	return models.Article{
		ID:          id,
		Title:       title,
		BodyText:    body,
		URL:         url,
		PublishedAt: time.Now(),
	}
}

func TestIndexCommitThenDuplicate(t *testing.T) {
	ix, _ := newTestIndex(t)

	a := article("a1", "Council passes budget", "The council passed the budget after a marathon session.", "https://example.com/budget")
	if ix.IsDuplicate(a) {
		t.Fatal("article flagged duplicate before any commit")
	}
	if err := ix.Commit(a); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !ix.IsDuplicate(a) {
		t.Fatal("committed article not detected as duplicate")
	}
}

func TestIndexDetectsVariants(t *testing.T) {
	ix, _ := newTestIndex(t)

	original := article("orig",
		"Central bank raises interest rates",
		"The central bank raised its key interest rate by a quarter point on Thursday, citing persistent inflation in services and housing.",
		"https://news.example.com/rates/raise")
	if err := ix.Commit(original); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tests := []struct {
		name string
		a    models.Article
	}{
		{
			"same url with tracking params",
			article("v1", "Totally new headline", "Totally different body text about something else entirely.",
				"https://news.example.com/rates/raise?utm_source=feed&utm_campaign=daily"),
		},
		{
			"same title from another source",
			article("v2", "Central Bank Raises Interest Rates!", "Different wire copy of the same event.",
				"https://other.example.com/econ/cb-hike"),
		},
		{
			"same body under a new headline",
			article("v3", "Borrowing just got pricier",
				"The central bank raised its key interest rate by a quarter point on Thursday, citing persistent inflation in services and housing.",
				"https://third.example.com/markets/hike"),
		},
		{
			"near-paraphrase of the body",
			article("v4", "Rates up again",
				"The central bank raised its key interest rate by a quarter point on Thursday, citing persistent inflation in services and in housing.",
				"https://fourth.example.com/cb"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !ix.IsDuplicate(tt.a) {
				t.Errorf("%s not detected as duplicate", tt.a.ID)
			}
		})
	}

	t.Run("unrelated article passes", func(t *testing.T) {
		fresh := article("fresh", "Comet visible next month",
			"Astronomers say a newly discovered comet should be visible to the naked eye next month.",
			"https://news.example.com/space/comet")
		if ix.IsDuplicate(fresh) {
			t.Error("unrelated article flagged as duplicate")
		}
	})
}

func TestIndexRepeatCommit(t *testing.T) {
	ix, db := newTestIndex(t)

	a := article("a1", "Council passes budget", "The council passed the budget.", "https://example.com/budget")
	if err := ix.Commit(a); err != nil {
		t.Fatalf("first Commit: %v", err)
	}
	first, err := db.GetFingerprint("a1")
	if err != nil {
		t.Fatalf("GetFingerprint: %v", err)
	}

	if err := ix.Commit(a); err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	second, err := db.GetFingerprint("a1")
	if err != nil {
		t.Fatalf("GetFingerprint: %v", err)
	}

	if second.DeliveryCount != 2 {
		t.Errorf("DeliveryCount = %d, want 2", second.DeliveryCount)
	}
	if !second.FirstDeliveredAt.Equal(first.FirstDeliveredAt) {
		t.Errorf("FirstDeliveredAt changed on repeat commit: %v -> %v",
			first.FirstDeliveredAt, second.FirstDeliveredAt)
	}
	if second.LastDeliveredAt.Before(second.FirstDeliveredAt) {
		t.Errorf("LastDeliveredAt %v before FirstDeliveredAt %v",
			second.LastDeliveredAt, second.FirstDeliveredAt)
	}
}

func TestIndexPurgeOlderThan(t *testing.T) {
	ix, db := newTestIndex(t)

	// An old record written directly so its first delivery predates retention.
	old := time.Now().AddDate(0, 0, -40)
	err := db.UpsertFingerprint(models.FingerprintRecord{
		ArticleID:        "ancient",
		URLHash:          "u1",
		TitleHash:        "t1",
		ContentHash:      "c1",
		Signature:        "[]",
		FirstDeliveredAt: old,
		LastDeliveredAt:  old,
	})
	if err != nil {
		t.Fatalf("UpsertFingerprint: %v", err)
	}

	recent := article("recent", "Fresh story", "Body of a fresh story.", "https://example.com/fresh")
	if err := ix.Commit(recent); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	purged, err := ix.PurgeOlderThan(30)
	if err != nil {
		t.Fatalf("PurgeOlderThan: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	if _, err := db.GetFingerprint("ancient"); err == nil {
		t.Error("ancient record survived the purge")
	}
	if _, err := db.GetFingerprint("recent"); err != nil {
		t.Errorf("recent record was purged: %v", err)
	}
}

func TestIndexDegradesWhenStoreFails(t *testing.T) {
	ix, db := newTestIndex(t)

	a := article("a1", "Council passes budget", "The council passed the budget.", "https://example.com/budget")
	if err := ix.Commit(a); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// A broken store must fail toward delivery, never block the pipeline.
	db.Close()

	if ix.IsDuplicate(a) {
		t.Error("degraded check reported duplicate; want not-duplicate")
	}
	if got := ix.DegradedChecks(); got != 1 {
		t.Errorf("DegradedChecks = %d, want 1", got)
	}
}
