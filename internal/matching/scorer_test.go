package matching

import (
	"testing"

	"github.com/discosync/discosync/internal/models"
)

func spotifyCandidate(artist, title string) models.Candidate {
	return models.Candidate{
		ExternalID: "sp:1",
		Artist:     artist,
		Title:      title,
		Platform:   models.PlatformSpotify,
	}
}

func TestScorerExactMatch(t *testing.T) {
	s := NewScorer(DefaultWeights())
	track := models.TrackDescriptor{Artist: "Rhythim Is Rhythim", Title: "Strings Of Life"}
	cand := spotifyCandidate("Rhythim Is Rhythim", "Strings Of Life")

	got := s.Score(track, cand)
	if got.Artist != 1 || got.Title != 1 {
		t.Errorf("exact match: artist=%v title=%v, want 1 and 1", got.Artist, got.Title)
	}
	if got.Total < 0.70 {
		t.Errorf("exact unverified match total = %v, want >= 0.70", got.Total)
	}
}

func TestScorerZeroTitleOverlapScoresZero(t *testing.T) {
	s := NewScorer(DefaultWeights())
	track := models.TrackDescriptor{Artist: "Aphex Twin", Title: "Windowlicker"}
	cand := spotifyCandidate("Aphex Twin", "Xtal")
	cand.Verified = true
	cand.Popularity = 100

	if got := s.Score(track, cand); got.Total != 0 {
		t.Errorf("disjoint titles: total = %v, want 0", got.Total)
	}
}

func TestScorerVersionMonotonicity(t *testing.T) {
	s := NewScorer(DefaultWeights())
	track := models.TrackDescriptor{Artist: "Hardfloor", Title: "Acperience 1 (Hardfloor Remix)"}

	matching := s.Score(track, spotifyCandidate("Hardfloor", "Acperience 1 (Hardfloor Remix)"))
	mismatched := s.Score(track, spotifyCandidate("Hardfloor", "Acperience 1"))

	if matching.Total <= mismatched.Total {
		t.Errorf("matching remix tag (%v) must beat the plain mix (%v)",
			matching.Total, mismatched.Total)
	}
	if matching.Version != 1 {
		t.Errorf("matching remix tag: version component = %v, want 1", matching.Version)
	}
	if mismatched.Version != -1 {
		t.Errorf("missing remix tag: version component = %v, want -1", mismatched.Version)
	}
}

func TestScorerVerifiedGatedByPlatform(t *testing.T) {
	s := NewScorer(DefaultWeights())
	track := models.TrackDescriptor{Artist: "Orbital", Title: "Halcyon"}

	spotify := spotifyCandidate("Orbital", "Halcyon")
	spotify.Verified = true
	if got := s.Score(track, spotify); got.Verified != 1 {
		t.Errorf("spotify verified component = %v, want 1", got.Verified)
	}

	soundcloud := models.Candidate{
		ExternalID: "sc:1",
		Artist:     "Orbital",
		Title:      "Halcyon",
		Verified:   true,
		Platform:   models.PlatformSoundCloud,
	}
	if got := s.Score(track, soundcloud); got.Verified != 0 {
		t.Errorf("soundcloud verified component = %v, want 0", got.Verified)
	}
}

func TestScorerPopularityLogScale(t *testing.T) {
	s := NewScorer(DefaultWeights())
	track := models.TrackDescriptor{Artist: "Orbital", Title: "Halcyon"}

	quiet := spotifyCandidate("Orbital", "Halcyon")
	quiet.Popularity = 0
	loud := spotifyCandidate("Orbital", "Halcyon")
	loud.Popularity = 100

	low := s.Score(track, quiet)
	high := s.Score(track, loud)
	if low.Popularity != 0 {
		t.Errorf("zero popularity component = %v, want 0", low.Popularity)
	}
	if high.Popularity <= low.Popularity || high.Popularity > 1 {
		t.Errorf("max popularity component = %v, want in (0, 1]", high.Popularity)
	}
	if high.Total <= low.Total {
		t.Errorf("popularity should raise the total: %v vs %v", high.Total, low.Total)
	}
}

func TestScorerTotalClamped(t *testing.T) {
	s := NewScorer(DefaultWeights())
	track := models.TrackDescriptor{Artist: "Underworld", Title: "Rez"}
	cand := spotifyCandidate("Underworld", "Rez")
	cand.Verified = true
	cand.Popularity = 100

	got := s.Score(track, cand)
	if got.Total < 0 || got.Total > 1 {
		t.Errorf("total = %v, want within [0, 1]", got.Total)
	}
}

func TestScorerWordOrderTolerant(t *testing.T) {
	s := NewScorer(DefaultWeights())
	track := models.TrackDescriptor{Artist: "Reese Project", Title: "Direct Me"}
	cand := spotifyCandidate("The Reese Project", "Direct Me")

	if got := s.Score(track, cand); got.Artist != 1 {
		t.Errorf("leading article should not lower artist score: %v", got.Artist)
	}
}
