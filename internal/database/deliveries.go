package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nofchi/winnow/internal/models"
)

func (db *DB) InsertDelivery(d models.Delivery) error {
	_, err := db.conn.Exec(`
		INSERT INTO deliveries (id, created_at, article_count, primary_count, surprise_count, shortfall, article_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, timeString(d.CreatedAt), d.ArticleCount, d.PrimaryCount,
		d.SurpriseCount, d.Shortfall, jsonStrings(d.ArticleIDs))
	return err
}

// RecentDeliveries returns the N most recent delivery records.
func (db *DB) RecentDeliveries(limit int) ([]models.Delivery, error) {
	rows, err := db.conn.Query(`
		SELECT id, created_at, article_count, primary_count, surprise_count, shortfall, article_ids
		FROM deliveries ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeliveries(rows)
}

func (db *DB) CountDeliveries() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM deliveries`).Scan(&n)
	return n, err
}

func (db *DB) PurgeDeliveriesBefore(cutoff time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM deliveries WHERE created_at < ?`, timeString(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanDeliveries(rows *sql.Rows) ([]models.Delivery, error) {
	var deliveries []models.Delivery
	for rows.Next() {
		var d models.Delivery
		var createdAt, articleIDs string

		if err := rows.Scan(&d.ID, &createdAt, &d.ArticleCount, &d.PrimaryCount,
			&d.SurpriseCount, &d.Shortfall, &articleIDs); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}

		d.CreatedAt, _ = parseTime(createdAt)
		d.ArticleIDs = parseStrings(articleIDs)
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
