package database

import (
	"time"

	"github.com/nofchi/winnow/internal/models"
)

// Stats aggregates the counters shown by the status command.
func (db *DB) Stats() (models.Stats, error) {
	var s models.Stats

	total, blacklisted, err := db.ProfileCount()
	if err != nil {
		return s, err
	}
	s.TotalProfiles = total
	s.BlacklistedProfiles = blacklisted

	s.FingerprintRecords, err = db.CountFingerprints()
	if err != nil {
		return s, err
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	s.DeliveredLastWeek, err = db.CountFingerprintsSince(weekAgo)
	if err != nil {
		return s, err
	}

	s.OldestFirstDelivery, err = db.OldestFirstDelivery()
	if err != nil {
		return s, err
	}

	s.TotalDeliveries, err = db.CountDeliveries()
	if err != nil {
		return s, err
	}

	s.TotalFeedbackEvents, err = db.CountFeedbackEvents()
	if err != nil {
		return s, err
	}

	size, _ := db.DatabaseSizeBytes()
	s.DatabaseSizeBytes = size

	return s, nil
}
