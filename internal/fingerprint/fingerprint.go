package fingerprint

import (
	"encoding/hex"
	"net/url"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/nofchi/winnow/internal/models"
	"github.com/nofchi/winnow/internal/similarity"
)

// Fingerprint is the derived identity of one article: three exact hashes
// plus a shingle set for near-duplicate comparison. A match on any one of
// the four is enough to call the article a duplicate.
type Fingerprint struct {
	URLHash     string
	TitleHash   string
	ContentHash string
	Shingles    map[string]struct{}
}

// Fingerprinter derives fingerprints. It is pure and safe for concurrent use.
type Fingerprinter struct {
	checker    *similarity.Checker
	excerptLen int
}

func NewFingerprinter(checker *similarity.Checker, excerptLen int) *Fingerprinter {
	return &Fingerprinter{checker: checker, excerptLen: excerptLen}
}

func (f *Fingerprinter) Fingerprint(a models.Article) Fingerprint {
	excerpt := f.excerpt(a.BodyText)
	return Fingerprint{
		URLHash:     hash(NormalizeURL(a.URL)),
		TitleHash:   hash(similarity.Normalize(a.Title)),
		ContentHash: hash(excerpt),
		Shingles:    f.checker.Shingles(a.Title + " " + excerpt),
	}
}

// excerpt normalizes the body and truncates it so republished copies that
// only diverge in trailing boilerplate still hash identically.
func (f *Fingerprinter) excerpt(body string) string {
	normalized := similarity.Normalize(body)
	runes := []rune(normalized)
	if len(runes) > f.excerptLen {
		runes = runes[:f.excerptLen]
	}
	return string(runes)
}

// NormalizeURL reduces a URL to lowercased scheme://host/path with the query
// string and fragment stripped, so tracking parameters and re-shared links
// collapse to one identity. Unparseable input falls back to the trimmed,
// lowercased raw string.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	path := strings.TrimSuffix(u.Path, "/")
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + path
}

func hash(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
