// Package slug turns free-text feature titles into filesystem-safe,
// kebab-case identifiers.
//
// [Slugify] is total: every input, including the empty string, yields a
// non-empty slug, and applying it twice gives the same result as applying it
// once. [New] adds the title-length checks used when starting a workstream.
package slug

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is returned when a title contains no usable characters.
const Fallback = "untitled"

// MaxLength caps the length of a generated slug in bytes.
const MaxLength = 80

// Title length bounds enforced by [New], counted in characters after trimming.
const (
	MinTitleLength = 3
	MaxTitleLength = 200
)

// ErrInvalidTitle is returned by [New] when a title is too short or too long.
var ErrInvalidTitle = errors.New("invalid title")

// Slugify converts title into a lowercase, hyphen-separated identifier.
//
// Accented characters are folded to their ASCII base letters, every run of
// characters outside [a-z0-9] becomes a single hyphen, and leading/trailing
// hyphens are trimmed. Results longer than [MaxLength] are cut at a hyphen
// boundary where possible.
func Slugify(title string) string {
	folded := fold(title)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	s := truncate(b.String(), MaxLength)
	if s == "" {
		return Fallback
	}
	return s
}

// New validates title and returns its slug.
func New(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	n := utf8.RuneCountInString(trimmed)
	if n < MinTitleLength {
		return "", fmt.Errorf("%w: must be at least %d characters", ErrInvalidTitle, MinTitleLength)
	}
	if n > MaxTitleLength {
		return "", fmt.Errorf("%w: must be at most %d characters", ErrInvalidTitle, MaxTitleLength)
	}
	return Slugify(trimmed), nil
}

// fold strips combining marks after NFKD decomposition, so "Café" becomes "Cafe".
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, '-'); i > max/2 {
		cut = cut[:i]
	}
	return strings.Trim(cut, "-")
}
