package matching

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	leadingTheRe  = regexp.MustCompile(`^the\s+`)
	hyphenRe      = regexp.MustCompile(`\s*-\s*`)
	curlyQuotesRe = regexp.MustCompile("[’‘`]")
	punctRe       = regexp.MustCompile(`[^\p{L}\p{N}' ]+`)

	// Discogs disambiguates duplicate artist names with a numeric suffix,
	// e.g. "Fuse (2)". The suffix never appears on streaming platforms.
	discogsSuffixRe = regexp.MustCompile(`\s+\(\d+\)$`)

	featuringRes = []*regexp.Regexp{
		regexp.MustCompile(`\s+feat\.?\s+`),
		regexp.MustCompile(`\s+ft\.?\s+`),
		regexp.MustCompile(`\s+featuring\s+`),
		regexp.MustCompile(`\s+with\s+`),
	}

	ampersandRe = regexp.MustCompile(`\s+&\s+`)
)

// NormalizeText lowercases, unifies quote characters, strips punctuation,
// drops a leading article, and collapses whitespace so textual comparisons
// ignore cosmetic differences between catalogs.
func NormalizeText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = curlyQuotesRe.ReplaceAllString(text, "'")
	text = hyphenRe.ReplaceAllString(text, " ")
	text = punctRe.ReplaceAllString(text, " ")
	text = leadingTheRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NormalizeArtist normalizes an artist name, keeping only the primary artist:
// featuring credits, "A & B" pairings, and Discogs numeric disambiguation
// suffixes are stripped.
func NormalizeArtist(artist string) string {
	artist = discogsSuffixRe.ReplaceAllString(strings.TrimSpace(artist), "")
	artist = strings.ToLower(artist)

	// Ampersand pairings must be split before NormalizeText strips the "&".
	if parts := ampersandRe.Split(artist, 2); len(parts) > 1 {
		artist = parts[0]
	}
	artist = NormalizeText(artist)

	for _, re := range featuringRes {
		if parts := re.Split(artist, 2); len(parts) > 1 {
			artist = strings.TrimSpace(parts[0])
			break
		}
	}

	return artist
}

// Tokens splits normalized text into its token set.
func Tokens(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}

// TokensOverlap reports whether two normalized strings share at least one token.
func TokensOverlap(a, b string) bool {
	set := make(map[string]struct{})
	for _, tok := range Tokens(a) {
		set[tok] = struct{}{}
	}
	for _, tok := range Tokens(b) {
		if _, ok := set[tok]; ok {
			return true
		}
	}
	return false
}

// Ratio returns a similarity in [0, 1] based on edit distance between two
// already-normalized strings.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}

	dist := levenshtein.ComputeDistance(a, b)
	if dist >= longest {
		return 0
	}
	return 1 - float64(dist)/float64(longest)
}

// TokenSortRatio compares the two strings with their tokens sorted, so word
// order ("Orbital - Halcyon" vs "Halcyon - Orbital") does not matter.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortTokens(a), sortTokens(b))
}

// PartialRatio rewards containment: a short title appearing whole inside a
// longer candidate title scores 1 regardless of the extra text.
func PartialRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		return 1
	}
	return Ratio(a, b)
}

func sortTokens(text string) string {
	toks := Tokens(text)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}
