package matching

import (
	"math"

	"github.com/discosync/discosync/internal/models"
)

// Weights holds the scorer's component weights. All fields are tunable
// configuration; see [DefaultWeights] for the shipped values.
type Weights struct {
	Artist         float64
	Title          float64
	Verified       float64
	Popularity     float64
	VersionBonus   float64
	VersionPenalty float64
}

// DefaultWeights returns the default component weights: artist 0.40, title
// 0.30, verified 0.20, popularity 0.10, with a 0.10 bonus for a matching
// remix tag and a 0.15 penalty for a missing one.
func DefaultWeights() Weights {
	return Weights{
		Artist:         0.40,
		Title:          0.30,
		Verified:       0.20,
		Popularity:     0.10,
		VersionBonus:   0.10,
		VersionPenalty: 0.15,
	}
}

// Score is the scored breakdown for one candidate. Component fields hold the
// unweighted sub-scores in [0, 1]; Total is the weighted, clamped result.
type Score struct {
	Artist     float64
	Title      float64
	Verified   float64
	Popularity float64
	Version    float64 // +1 matching tag, -1 missing tag, 0 neutral
	Total      float64
}

// Scorer computes match confidence between a Discogs track and a platform
// candidate. Pure and deterministic: no I/O, no clock, no randomness.
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score scores candidate against track. The result is always in [0, 1].
//
// A candidate whose title shares no tokens with the source title scores 0
// outright: popularity and verification can never rescue a wrong title.
func (s *Scorer) Score(track models.TrackDescriptor, candidate models.Candidate) Score {
	parsed := ParseTitle(track.Title, track.VersionInfo)

	result := Score{
		Artist:     s.artistScore(track.Artist, candidate.Artist),
		Title:      s.titleScore(parsed, candidate.Title),
		Verified:   s.verifiedScore(candidate),
		Popularity: s.popularityScore(candidate),
	}

	if result.Title == 0 {
		return result
	}

	total := result.Artist*s.weights.Artist +
		result.Title*s.weights.Title +
		result.Verified*s.weights.Verified +
		result.Popularity*s.weights.Popularity

	if parsed.HasVersion() {
		if parsed.VersionMatches(candidate.Title) {
			result.Version = 1
			total += s.weights.VersionBonus
		} else {
			result.Version = -1
			total -= s.weights.VersionPenalty
		}
	}

	result.Total = clamp01(total)
	return result
}

// artistScore compares primary artist names, tolerant of word order.
func (s *Scorer) artistScore(source, candidate string) float64 {
	a, b := NormalizeArtist(source), NormalizeArtist(candidate)
	return clamp01(math.Max(Ratio(a, b), TokenSortRatio(a, b)))
}

// titleScore compares full titles with the version tag kept in place, so two
// titles differing only in remix label sit strictly below identical titles.
// Zero token overlap yields a hard zero.
func (s *Scorer) titleScore(parsed ParsedTitle, candidateTitle string) float64 {
	a, b := NormalizeText(parsed.Full), NormalizeText(candidateTitle)
	if !TokensOverlap(a, b) {
		return 0
	}

	score := Ratio(a, b)
	score = math.Max(score, TokenSortRatio(a, b)*0.95)
	score = math.Max(score, PartialRatio(a, b)*0.90)
	return clamp01(score)
}

// verifiedScore contributes only on platforms whose verified flag is
// trustworthy; elsewhere the component is zero regardless of the flag.
func (s *Scorer) verifiedScore(candidate models.Candidate) float64 {
	if candidate.Verified && candidate.Platform.VerifiedSignalReliable() {
		return 1
	}
	return 0
}

// popularityScore normalizes raw popularity logarithmically. Raw magnitudes
// differ by orders of magnitude between platforms (a 0-100 score vs raw play
// counts), so a linear scale would saturate one platform and underflow the
// other.
func (s *Scorer) popularityScore(candidate models.Candidate) float64 {
	raw := candidate.Popularity
	if raw <= 0 {
		return 0
	}
	max := candidate.Platform.MaxPopularity()
	return clamp01(math.Log10(raw+1) / math.Log10(max+1))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
