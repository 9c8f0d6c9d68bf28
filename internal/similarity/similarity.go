package similarity

import (
	"encoding/json"
	"strings"
	"unicode"
)

// StoredSignature holds the minimal data needed to compare a new article
// against an already-delivered one.
type StoredSignature struct {
	ArticleID string
	Shingles  string
}

type Checker struct {
	threshold float64
	ngramSize int
}

func New(threshold float64, ngramSize int) *Checker {
	return &Checker{threshold: threshold, ngramSize: ngramSize}
}

// Normalize lowercases the text and folds every punctuation or whitespace
// run into a single space. Title and content fingerprints share this
// normalization so that cosmetic edits do not defeat matching.
func Normalize(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevSpace = false
		} else if !prevSpace {
			sb.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(sb.String())
}

// Shingles extracts the set of character n-grams from normalized text.
func (c *Checker) Shingles(text string) map[string]struct{} {
	normalized := Normalize(text)
	set := make(map[string]struct{})
	runes := []rune(normalized)
	for i := 0; i <= len(runes)-c.ngramSize; i++ {
		gram := string(runes[i : i+c.ngramSize])
		set[gram] = struct{}{}
	}
	return set
}

// ShinglesToJSON serializes a shingle set for database storage.
func (c *Checker) ShinglesToJSON(shingles map[string]struct{}) string {
	list := make([]string, 0, len(shingles))
	for k := range shingles {
		list = append(list, k)
	}
	data, _ := json.Marshal(list)
	return string(data)
}

// ShinglesFromJSON deserializes a stored shingle set.
func (c *Checker) ShinglesFromJSON(data string) map[string]struct{} {
	var list []string
	json.Unmarshal([]byte(data), &list)
	set := make(map[string]struct{}, len(list))
	for _, g := range list {
		set[g] = struct{}{}
	}
	return set
}

// Jaccard computes |A intersection B| / |A union B|.
func (c *Checker) Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Similar reports whether two shingle sets meet the configured threshold.
func (c *Checker) Similar(a, b map[string]struct{}) bool {
	return c.Jaccard(a, b) >= c.threshold
}

// MatchAny compares a shingle set against stored signatures and returns the
// article id of the first match, if any.
func (c *Checker) MatchAny(shingles map[string]struct{}, existing []StoredSignature) (string, bool) {
	for _, stored := range existing {
		existingSet := c.ShinglesFromJSON(stored.Shingles)
		if c.Jaccard(shingles, existingSet) >= c.threshold {
			return stored.ArticleID, true
		}
	}
	return "", false
}
