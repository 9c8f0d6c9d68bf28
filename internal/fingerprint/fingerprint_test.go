package fingerprint

import (
	"testing"

	"github.com/nofchi/winnow/internal/models"
	"github.com/nofchi/winnow/internal/similarity"
)

func testFingerprinter() *Fingerprinter {
	return NewFingerprinter(similarity.New(0.6, 3), 500)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://example.com/story", "https://example.com/story"},
		{"tracking params stripped", "https://example.com/story?utm_source=feed&utm_medium=rss", "https://example.com/story"},
		{"fragment stripped", "https://example.com/story#comments", "https://example.com/story"},
		{"trailing slash stripped", "https://example.com/story/", "https://example.com/story"},
		{"host lowercased", "https://Example.COM/Story", "https://example.com/Story"},
		{"scheme lowercased", "HTTPS://example.com/story", "https://example.com/story"},
		{"whitespace trimmed", "  https://example.com/story  ", "https://example.com/story"},
		{"root path collapses", "https://example.com/", "https://example.com"},
		{"unparseable falls back to lowercase", "not a url at all", "not a url at all"},
		{"missing host falls back", "/relative/path?q=1", "/relative/path?q=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFingerprintURLVariantsCollide(t *testing.T) {
	fp := testFingerprinter()

	a := fp.Fingerprint(models.Article{
		ID:    "a1",
		Title: "Original headline",
		URL:   "https://example.com/story?utm_source=newsletter",
	})
	b := fp.Fingerprint(models.Article{
		ID:    "a2",
		Title: "Completely different headline",
		URL:   "https://EXAMPLE.com/story/",
	})

	if a.URLHash != b.URLHash {
		t.Error("URL variants should produce the same url hash")
	}
	if a.TitleHash == b.TitleHash {
		t.Error("different titles should produce different title hashes")
	}
}

func TestFingerprintTitleNormalization(t *testing.T) {
	fp := testFingerprinter()

	a := fp.Fingerprint(models.Article{ID: "a1", Title: "Breaking: AI Model Released!", URL: "https://x.test/1"})
	b := fp.Fingerprint(models.Article{ID: "a2", Title: "breaking ai model released", URL: "https://x.test/2"})

	if a.TitleHash != b.TitleHash {
		t.Error("titles equal after normalization should hash identically")
	}
}

func TestFingerprintExcerptIgnoresTrailingBoilerplate(t *testing.T) {
	fp := NewFingerprinter(similarity.New(0.6, 3), 40)

	body := "The council passed the budget after a marathon session on Tuesday night."
	a := fp.Fingerprint(models.Article{ID: "a1", Title: "T", URL: "https://x.test/1", BodyText: body})
	b := fp.Fingerprint(models.Article{ID: "a2", Title: "T", URL: "https://x.test/2", BodyText: body + " Subscribe to our newsletter for more."})

	if a.ContentHash != b.ContentHash {
		t.Error("bodies diverging only past the excerpt length should hash identically")
	}
}

func TestFingerprintShinglesCoverTitleAndBody(t *testing.T) {
	fp := testFingerprinter()

	f := fp.Fingerprint(models.Article{
		ID:       "a1",
		Title:    "Rate decision",
		URL:      "https://x.test/1",
		BodyText: "The central bank held rates steady.",
	})
	if len(f.Shingles) == 0 {
		t.Fatal("fingerprint has no shingles")
	}

	titleOnly := fp.Fingerprint(models.Article{ID: "a2", Title: "Rate decision", URL: "https://x.test/2"})
	if len(titleOnly.Shingles) >= len(f.Shingles) {
		t.Error("body text should contribute shingles beyond the title")
	}
}
