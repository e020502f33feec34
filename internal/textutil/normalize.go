// package textutil implements text normalization and similarity scoring for
// cross-language track matching.
//
// Catalog search only works when source titles and artist names are reduced
// to a comparable form: diacritics stripped, decoration suffixes removed,
// punctuation cleaned. Similarity is a Ratcliff/Obershelp ratio over the
// normalized forms so every caller scores on the same 0..1 scale.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

	// Keep letters, digits, underscore, whitespace, hyphen, apostrophe and
	// dot. \p{L} rather than \w so Arabic text survives cleaning.
	nonSearchChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-'.]`)
	multiSpace     = regexp.MustCompile(`\s+`)

	// Title decoration patterns, applied in order. Each removes featured
	// artist credits or remix/version/edit qualifiers.
	titlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\(feat\.?\s+[^)]+\)`),
		regexp.MustCompile(`(?i)\[feat\.?\s+[^\]]+\]`),
		regexp.MustCompile(`(?i)\(featuring\s+[^)]+\)`),
		regexp.MustCompile(`(?i)\s+feat\.?\s+.+$`),
		regexp.MustCompile(`(?i)\s+featuring\s+.+$`),
		regexp.MustCompile(`(?i)\s+ft\.?\s+.+$`),
		regexp.MustCompile(`(?i)\s+with\s+.+$`),
		regexp.MustCompile(`(?i)\([^)]*remix[^)]*\)`),
		regexp.MustCompile(`(?i)\([^)]*version[^)]*\)`),
		regexp.MustCompile(`(?i)\([^)]*edit[^)]*\)`),
	}
)

// Normalize strips combining diacritical marks via canonical decomposition
// and collapses runs of whitespace.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	stripped, _, err := transform.String(stripMarks, text)
	if err != nil {
		stripped = text
	}

	return strings.TrimSpace(multiSpace.ReplaceAllString(stripped, " "))
}

// CleanForSearch normalizes text and removes punctuation that confuses
// catalog search, keeping word characters, whitespace, hyphens, apostrophes
// and dots.
func CleanForSearch(text string) string {
	if text == "" {
		return ""
	}

	cleaned := nonSearchChars.ReplaceAllString(Normalize(text), " ")
	return strings.TrimSpace(multiSpace.ReplaceAllString(cleaned, " "))
}

// ExtractMainTitle removes featured-artist credits and remix/version/edit
// qualifiers from a track title, leaving the main title.
func ExtractMainTitle(title string) string {
	if title == "" {
		return ""
	}

	cleaned := title
	for _, p := range titlePatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}

	return strings.TrimSpace(cleaned)
}

// Similarity returns a 0..1 similarity ratio between two strings.
//
// Both inputs are lowercased and cleaned before comparison; equal normalized
// forms score exactly 1.0, everything else uses the Ratcliff/Obershelp
// matching ratio.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	na := CleanForSearch(strings.ToLower(a))
	nb := CleanForSearch(strings.ToLower(b))

	if na == nb {
		return 1.0
	}

	return ratcliffObershelp([]rune(na), []rune(nb))
}

// ratcliffObershelp computes 2*M/T where M is the total length of matching
// blocks (longest common substring, recursing on both sides) and T is the
// combined length.
func ratcliffObershelp(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(matchingChars(a, b)) / float64(total)
}

func matchingChars(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}

	matched := size
	matched += matchingChars(a[:ai], b[:bi])
	matched += matchingChars(a[ai+size:], b[bi+size:])
	return matched
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				curr[j+1] = prev[j] + 1
				if curr[j+1] > size {
					size = curr[j+1]
					ai = i - size + 1
					bi = j - size + 1
				}
			} else {
				curr[j+1] = 0
			}
		}
		prev, curr = curr, prev
	}

	return ai, bi, size
}
