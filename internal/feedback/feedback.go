package feedback

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/nofchi/winnow/internal/database"
	"github.com/nofchi/winnow/internal/models"
	"github.com/nofchi/winnow/internal/profiles"
)

// Applier feeds score corrections back into the profile store. A nudge moves
// the base score toward the correction by a configured weight; one data
// point never overwrites a profile outright. The explicit Set path does, and
// the two must stay distinct operations.
type Applier struct {
	store  *profiles.Store
	db     *database.DB
	weight float64
}

func New(store *profiles.Store, db *database.DB, weight float64) *Applier {
	return &Applier{store: store, db: db, weight: weight}
}

// Apply nudges the topic's base score toward the corrected value:
// new = round(old*(1-w) + corrected*w), clamped to [0,100].
func (a *Applier) Apply(articleID, topicID string, corrected int) (models.FeedbackEvent, error) {
	if err := checkScore(corrected); err != nil {
		return models.FeedbackEvent{}, err
	}

	p, err := a.store.Get(topicID)
	if err != nil {
		return models.FeedbackEvent{}, err
	}

	nudged := float64(p.BaseScore)*(1-a.weight) + float64(corrected)*a.weight
	newScore := clampScore(int(math.Round(nudged)))

	if err := a.store.SetBaseScore(topicID, newScore); err != nil {
		return models.FeedbackEvent{}, err
	}

	event := models.FeedbackEvent{
		TopicID:        topicID,
		ArticleID:      articleID,
		CorrectedScore: corrected,
		OldBaseScore:   p.BaseScore,
		NewBaseScore:   newScore,
		Mode:           models.FeedbackModeNudge,
	}
	return event, a.record(event)
}

// Set assigns the base score directly, bypassing averaging. This is the
// operator's override, not the feedback path.
func (a *Applier) Set(topicID string, score int) (models.FeedbackEvent, error) {
	if err := checkScore(score); err != nil {
		return models.FeedbackEvent{}, err
	}

	p, err := a.store.Get(topicID)
	if err != nil {
		return models.FeedbackEvent{}, err
	}

	if err := a.store.SetBaseScore(topicID, score); err != nil {
		return models.FeedbackEvent{}, err
	}

	event := models.FeedbackEvent{
		TopicID:        topicID,
		CorrectedScore: score,
		OldBaseScore:   p.BaseScore,
		NewBaseScore:   score,
		Mode:           models.FeedbackModeSet,
	}
	return event, a.record(event)
}

func (a *Applier) record(event models.FeedbackEvent) error {
	if err := a.db.InsertFeedbackEvent(event); err != nil {
		return fmt.Errorf("record feedback event: %w", err)
	}
	slog.Info("Applied feedback",
		"topic", event.TopicID,
		"mode", event.Mode,
		"old", event.OldBaseScore,
		"new", event.NewBaseScore)
	return nil
}

func checkScore(score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("corrected score %d outside [0,100]", score)
	}
	return nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
