package fingerprint

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nofchi/winnow/internal/database"
	"github.com/nofchi/winnow/internal/models"
	"github.com/nofchi/winnow/internal/similarity"
)

// Index answers "was this already delivered, in any near-identical form".
// Lookups that fail at the store level are treated as not-duplicate: an
// occasional repeat beats a blocked pipeline. Every such degradation is
// logged and counted so the operator can see the index is limping.
type Index struct {
	db       *database.DB
	fp       *Fingerprinter
	checker  *similarity.Checker
	window   time.Duration
	degraded atomic.Int64
}

// NewIndex wires the persistent index. windowDays bounds how far back the
// signature comparison reaches; the exact-hash lookups are unbounded.
func NewIndex(db *database.DB, fp *Fingerprinter, checker *similarity.Checker, windowDays int) *Index {
	return &Index{
		db:      db,
		fp:      fp,
		checker: checker,
		window:  time.Duration(windowDays) * 24 * time.Hour,
	}
}

// IsDuplicate reports whether any fingerprint of the article matches an
// existing record: url hash, title hash, content hash, or shingle signature
// within the compare window.
func (ix *Index) IsDuplicate(a models.Article) bool {
	f := ix.fp.Fingerprint(a)

	matchID, err := ix.db.FindFingerprintMatch(f.URLHash, f.TitleHash, f.ContentHash)
	if err == nil {
		slog.Debug("Duplicate by fingerprint hash", "article", a.ID, "matches", matchID)
		return true
	}
	if !errors.Is(err, sql.ErrNoRows) {
		ix.degrade("fingerprint hash lookup failed", a.ID, err)
		return false
	}

	sigs, err := ix.db.SignaturesSince(time.Now().Add(-ix.window))
	if err != nil {
		ix.degrade("signature scan failed", a.ID, err)
		return false
	}
	if matchID, ok := ix.checker.MatchAny(f.Shingles, sigs); ok {
		slog.Debug("Duplicate by shingle signature", "article", a.ID, "matches", matchID)
		return true
	}
	return false
}

// Commit records an article as delivered. Repeat commits bump the delivery
// count and refresh last_delivered_at; first_delivered_at stays fixed. Only
// call this after delivery is confirmed, never for merely-scored articles.
func (ix *Index) Commit(a models.Article) error {
	f := ix.fp.Fingerprint(a)
	now := time.Now()
	rec := models.FingerprintRecord{
		ArticleID:        a.ID,
		URLHash:          f.URLHash,
		TitleHash:        f.TitleHash,
		ContentHash:      f.ContentHash,
		Signature:        ix.checker.ShinglesToJSON(f.Shingles),
		FirstDeliveredAt: now,
		LastDeliveredAt:  now,
	}
	if err := ix.db.UpsertFingerprint(rec); err != nil {
		return fmt.Errorf("commit fingerprint %s: %w", a.ID, err)
	}
	return nil
}

// PurgeOlderThan removes records first delivered more than the given number
// of days ago. Retention is the operator's call; scoring and curation never
// invoke this.
func (ix *Index) PurgeOlderThan(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	n, err := ix.db.PurgeFingerprintsBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge fingerprints: %w", err)
	}
	return n, nil
}

// DegradedChecks returns how many duplicate checks fell back to
// not-duplicate because the store was unavailable.
func (ix *Index) DegradedChecks() int64 {
	return ix.degraded.Load()
}

func (ix *Index) degrade(msg, articleID string, err error) {
	ix.degraded.Add(1)
	slog.Warn("Duplicate check degraded, treating article as new",
		"reason", msg, "article", articleID, "error", err)
}
