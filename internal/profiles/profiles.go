package profiles

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nofchi/winnow/internal/database"
	"github.com/nofchi/winnow/internal/models"
)

// ErrUnknownTopic marks a lookup against a topic id that was never seeded.
// It is a configuration error: callers must surface it, not default around it.
var ErrUnknownTopic = errors.New("unknown topic")

// Store is the keyed profile collection backing scoring and feedback.
// Profiles are never deleted, only blacklisted (base score set to 0).
type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

type snapshotFile struct {
	Profiles []models.TopicProfile `yaml:"profiles"`
}

// Load reads a profile snapshot from a YAML file, falling back to the
// embedded default snapshot when the file does not exist.
func Load(path string, embedded []byte) ([]models.TopicProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			data = embedded
		} else {
			return nil, fmt.Errorf("read profile snapshot: %w", err)
		}
	}

	var f snapshotFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse profile snapshot: %w", err)
	}
	if len(f.Profiles) == 0 {
		return nil, fmt.Errorf("profile snapshot is empty")
	}

	for i := range f.Profiles {
		applyDefaults(&f.Profiles[i])
		if err := validate(f.Profiles[i]); err != nil {
			return nil, fmt.Errorf("profile %d: %w", i, err)
		}
	}
	return f.Profiles, nil
}

// applyDefaults fills neutral multipliers for fields omitted in YAML.
func applyDefaults(p *models.TopicProfile) {
	if p.RegionBoost == 0 {
		p.RegionBoost = 1.0
	}
	if p.ControversyFactor == 0 {
		p.ControversyFactor = 1.0
	}
	if p.DisplayName == "" {
		p.DisplayName = p.ID
	}
}

func validate(p models.TopicProfile) error {
	if p.ID == "" {
		return fmt.Errorf("missing id")
	}
	if p.BaseScore < 0 || p.BaseScore > 100 {
		return fmt.Errorf("topic %q: base_score %d outside [0,100]", p.ID, p.BaseScore)
	}
	if p.RegionBoost < 1.0 || p.RegionBoost > 1.5 {
		return fmt.Errorf("topic %q: region_boost %.2f outside [1.0,1.5]", p.ID, p.RegionBoost)
	}
	if p.ControversyFactor < 1.0 || p.ControversyFactor > 2.0 {
		return fmt.Errorf("topic %q: controversy_factor %.2f outside [1.0,2.0]", p.ID, p.ControversyFactor)
	}
	for domain, mult := range p.SourceReliability {
		if mult < 0.7 || mult > 1.5 {
			return fmt.Errorf("topic %q: source_reliability[%s] %.2f outside [0.7,1.5]", p.ID, domain, mult)
		}
	}
	return nil
}

// Seed writes profiles into the store. Without replace, existing ids are
// left untouched so repeated init runs never clobber feedback-adjusted
// scores. Returns how many profiles were written.
func (s *Store) Seed(list []models.TopicProfile, replace bool) (int, error) {
	written := 0
	for _, p := range list {
		if replace {
			if err := s.db.UpsertProfile(p); err != nil {
				return written, fmt.Errorf("seed profile %s: %w", p.ID, err)
			}
			written++
			continue
		}
		added, err := s.db.InsertProfile(p)
		if err != nil {
			return written, fmt.Errorf("seed profile %s: %w", p.ID, err)
		}
		if added {
			written++
		}
	}
	return written, nil
}

// Snapshot returns all profiles ordered by id, the scoring input for a run.
func (s *Store) Snapshot() ([]models.TopicProfile, error) {
	list, err := s.db.ListProfiles()
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	return list, nil
}

func (s *Store) Get(id string) (models.TopicProfile, error) {
	p, err := s.db.GetProfile(id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("topic %q: %w", id, ErrUnknownTopic)
	}
	if err != nil {
		return p, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) SetBaseScore(id string, score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("base score %d outside [0,100]", score)
	}
	err := s.db.UpdateProfileScore(id, score)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("topic %q: %w", id, ErrUnknownTopic)
	}
	if err != nil {
		return fmt.Errorf("set base score for %s: %w", id, err)
	}
	return nil
}

// Blacklist zeroes a topic's base score, which forces its composite to 0
// permanently. Profiles are blacklisted instead of deleted.
func (s *Store) Blacklist(id string) error {
	return s.SetBaseScore(id, 0)
}

func (s *Store) SetKeywords(id string, positive, negative []string) error {
	err := s.db.UpdateProfileKeywords(id, positive, negative)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("topic %q: %w", id, ErrUnknownTopic)
	}
	if err != nil {
		return fmt.Errorf("set keywords for %s: %w", id, err)
	}
	return nil
}
