package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nofchi/winnow/internal/models"
)

func (db *DB) InsertFeedbackEvent(e models.FeedbackEvent) error {
	_, err := db.conn.Exec(`
		INSERT INTO feedback_events (topic_id, article_id, corrected_score, old_base_score, new_base_score, mode)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.TopicID, e.ArticleID, e.CorrectedScore, e.OldBaseScore, e.NewBaseScore, e.Mode)
	return err
}

// RecentFeedbackEvents returns the N most recent feedback applications.
func (db *DB) RecentFeedbackEvents(limit int) ([]models.FeedbackEvent, error) {
	rows, err := db.conn.Query(`
		SELECT id, topic_id, article_id, corrected_score, old_base_score, new_base_score, mode, created_at
		FROM feedback_events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeedbackEvents(rows)
}

func (db *DB) CountFeedbackEvents() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM feedback_events`).Scan(&n)
	return n, err
}

func (db *DB) PurgeFeedbackEventsBefore(cutoff time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM feedback_events WHERE created_at < ?`, timeString(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanFeedbackEvents(rows *sql.Rows) ([]models.FeedbackEvent, error) {
	var events []models.FeedbackEvent
	for rows.Next() {
		var e models.FeedbackEvent
		var createdAt string

		if err := rows.Scan(&e.ID, &e.TopicID, &e.ArticleID, &e.CorrectedScore,
			&e.OldBaseScore, &e.NewBaseScore, &e.Mode, &createdAt); err != nil {
			return nil, fmt.Errorf("scan feedback event: %w", err)
		}

		e.CreatedAt, _ = parseTime(createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}
