package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nofchi/winnow/internal/models"
	"github.com/nofchi/winnow/internal/similarity"
)

// FindFingerprintMatch returns the article id of the first record sharing a
// url, title, or content hash with the given values. sql.ErrNoRows means no
// exact-hash duplicate exists.
func (db *DB) FindFingerprintMatch(urlHash, titleHash, contentHash string) (string, error) {
	var id string
	err := db.conn.QueryRow(`
		SELECT article_id FROM fingerprints
		WHERE url_hash = ? OR title_hash = ? OR content_hash = ?
		LIMIT 1`, urlHash, titleHash, contentHash).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// SignaturesSince returns the stored shingle signatures of records first
// delivered at or after the cutoff, for near-duplicate comparison.
func (db *DB) SignaturesSince(cutoff time.Time) ([]similarity.StoredSignature, error) {
	rows, err := db.conn.Query(`
		SELECT article_id, signature FROM fingerprints
		WHERE first_delivered_at >= ?`, timeString(cutoff))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sigs []similarity.StoredSignature
	for rows.Next() {
		var s similarity.StoredSignature
		if err := rows.Scan(&s.ArticleID, &s.Shingles); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		sigs = append(sigs, s)
	}
	return sigs, rows.Err()
}

// UpsertFingerprint inserts a new record or, when the article id already
// exists, increments its delivery count and refreshes last_delivered_at.
// first_delivered_at is never changed after the initial insert.
func (db *DB) UpsertFingerprint(rec models.FingerprintRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO fingerprints (article_id, url_hash, title_hash, content_hash,
			signature, first_delivered_at, last_delivered_at, delivery_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(article_id) DO UPDATE SET
			delivery_count    = delivery_count + 1,
			last_delivered_at = excluded.last_delivered_at`,
		rec.ArticleID, rec.URLHash, rec.TitleHash, rec.ContentHash,
		rec.Signature, timeString(rec.FirstDeliveredAt), timeString(rec.LastDeliveredAt))
	return err
}

func (db *DB) GetFingerprint(articleID string) (models.FingerprintRecord, error) {
	var rec models.FingerprintRecord
	var firstDelivered, lastDelivered string

	err := db.conn.QueryRow(`
		SELECT article_id, url_hash, title_hash, content_hash, signature,
		       first_delivered_at, last_delivered_at, delivery_count
		FROM fingerprints WHERE article_id = ?`, articleID).Scan(
		&rec.ArticleID, &rec.URLHash, &rec.TitleHash, &rec.ContentHash,
		&rec.Signature, &firstDelivered, &lastDelivered, &rec.DeliveryCount)
	if err != nil {
		return rec, err
	}

	rec.FirstDeliveredAt, _ = parseTime(firstDelivered)
	rec.LastDeliveredAt, _ = parseTime(lastDelivered)
	return rec, nil
}

func (db *DB) CountFingerprints() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM fingerprints`).Scan(&n)
	return n, err
}

func (db *DB) CountFingerprintsSince(cutoff time.Time) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM fingerprints WHERE last_delivered_at >= ?`,
		timeString(cutoff)).Scan(&n)
	return n, err
}

// OldestFirstDelivery returns the earliest first_delivered_at, or nil when
// the index is empty.
func (db *DB) OldestFirstDelivery() (*time.Time, error) {
	var oldest sql.NullString
	err := db.conn.QueryRow(`SELECT MIN(first_delivered_at) FROM fingerprints`).Scan(&oldest)
	if err != nil {
		return nil, err
	}
	if !oldest.Valid {
		return nil, nil
	}
	t, err := parseTime(oldest.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// PurgeFingerprintsBefore deletes records whose first delivery predates the
// cutoff and returns how many were removed.
func (db *DB) PurgeFingerprintsBefore(cutoff time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM fingerprints WHERE first_delivered_at < ?`,
		timeString(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
