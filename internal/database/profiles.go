package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nofchi/winnow/internal/models"
)

func (db *DB) ListProfiles() ([]models.TopicProfile, error) {
	rows, err := db.conn.Query(`
		SELECT id, display_name, base_score, positive_keywords, negative_keywords,
		       source_reliability, region_tags, region_boost, controversy_factor,
		       exclusion_patterns, created_at, updated_at
		FROM profiles ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfiles(rows)
}

func (db *DB) GetProfile(id string) (models.TopicProfile, error) {
	var p models.TopicProfile
	var positive, negative, reliability, regions, exclusions string
	var createdAt, updatedAt string

	err := db.conn.QueryRow(`
		SELECT id, display_name, base_score, positive_keywords, negative_keywords,
		       source_reliability, region_tags, region_boost, controversy_factor,
		       exclusion_patterns, created_at, updated_at
		FROM profiles WHERE id = ?`, id).Scan(
		&p.ID, &p.DisplayName, &p.BaseScore, &positive, &negative,
		&reliability, &regions, &p.RegionBoost, &p.ControversyFactor,
		&exclusions, &createdAt, &updatedAt)
	if err != nil {
		return p, err
	}

	decodeProfileColumns(&p, positive, negative, reliability, regions, exclusions)
	p.CreatedAt, _ = parseTime(createdAt)
	p.UpdatedAt, _ = parseTime(updatedAt)
	return p, nil
}

// InsertProfile adds a profile only if the id is not present yet. It reports
// whether a row was written, so seeding can count what it actually added.
func (db *DB) InsertProfile(p models.TopicProfile) (bool, error) {
	res, err := db.conn.Exec(`
		INSERT OR IGNORE INTO profiles (id, display_name, base_score, positive_keywords,
			negative_keywords, source_reliability, region_tags, region_boost,
			controversy_factor, exclusion_patterns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.DisplayName, p.BaseScore,
		jsonStrings(p.PositiveKeywords), jsonStrings(p.NegativeKeywords),
		jsonReliability(p.SourceReliability), jsonStrings(p.RegionTags),
		p.RegionBoost, p.ControversyFactor, jsonStrings(p.ExclusionPatterns))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpsertProfile writes the full profile, replacing any existing row.
func (db *DB) UpsertProfile(p models.TopicProfile) error {
	_, err := db.conn.Exec(`
		INSERT INTO profiles (id, display_name, base_score, positive_keywords,
			negative_keywords, source_reliability, region_tags, region_boost,
			controversy_factor, exclusion_patterns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name       = excluded.display_name,
			base_score         = excluded.base_score,
			positive_keywords  = excluded.positive_keywords,
			negative_keywords  = excluded.negative_keywords,
			source_reliability = excluded.source_reliability,
			region_tags        = excluded.region_tags,
			region_boost       = excluded.region_boost,
			controversy_factor = excluded.controversy_factor,
			exclusion_patterns = excluded.exclusion_patterns,
			updated_at         = datetime('now')`,
		p.ID, p.DisplayName, p.BaseScore,
		jsonStrings(p.PositiveKeywords), jsonStrings(p.NegativeKeywords),
		jsonReliability(p.SourceReliability), jsonStrings(p.RegionTags),
		p.RegionBoost, p.ControversyFactor, jsonStrings(p.ExclusionPatterns))
	return err
}

func (db *DB) UpdateProfileScore(id string, baseScore int) error {
	res, err := db.conn.Exec(`UPDATE profiles SET base_score = ?, updated_at = datetime('now') WHERE id = ?`,
		baseScore, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) UpdateProfileKeywords(id string, positive, negative []string) error {
	res, err := db.conn.Exec(`
		UPDATE profiles SET positive_keywords = ?, negative_keywords = ?, updated_at = datetime('now')
		WHERE id = ?`,
		jsonStrings(positive), jsonStrings(negative), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) ProfileCount() (total int, blacklisted int, err error) {
	err = db.conn.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&total)
	if err != nil {
		return
	}
	err = db.conn.QueryRow(`SELECT COUNT(*) FROM profiles WHERE base_score = 0`).Scan(&blacklisted)
	return
}

func scanProfiles(rows *sql.Rows) ([]models.TopicProfile, error) {
	var profiles []models.TopicProfile
	for rows.Next() {
		var p models.TopicProfile
		var positive, negative, reliability, regions, exclusions string
		var createdAt, updatedAt string

		if err := rows.Scan(
			&p.ID, &p.DisplayName, &p.BaseScore, &positive, &negative,
			&reliability, &regions, &p.RegionBoost, &p.ControversyFactor,
			&exclusions, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}

		decodeProfileColumns(&p, positive, negative, reliability, regions, exclusions)
		p.CreatedAt, _ = parseTime(createdAt)
		p.UpdatedAt, _ = parseTime(updatedAt)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func decodeProfileColumns(p *models.TopicProfile, positive, negative, reliability, regions, exclusions string) {
	p.PositiveKeywords = parseStrings(positive)
	p.NegativeKeywords = parseStrings(negative)
	p.SourceReliability = parseReliability(reliability)
	p.RegionTags = parseStrings(regions)
	p.ExclusionPatterns = parseStrings(exclusions)
}

func jsonStrings(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(list)
	return string(data)
}

func parseStrings(data string) []string {
	var list []string
	json.Unmarshal([]byte(data), &list)
	return list
}

func jsonReliability(m map[string]float64) string {
	if len(m) == 0 {
		return "{}"
	}
	data, _ := json.Marshal(m)
	return string(data)
}

func parseReliability(data string) map[string]float64 {
	var m map[string]float64
	json.Unmarshal([]byte(data), &m)
	return m
}
