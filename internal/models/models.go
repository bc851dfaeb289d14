package models

import (
	"fmt"
	"time"
)

// Platform identifies a streaming destination. The set is closed: dispatch is
// always by explicit tag, never by probing client capabilities at runtime.
type Platform string

const (
	PlatformSpotify    Platform = "spotify"
	PlatformSoundCloud Platform = "soundcloud"
)

// ParsePlatform converts a user-supplied string into a [Platform].
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformSpotify:
		return PlatformSpotify, nil
	case PlatformSoundCloud:
		return PlatformSoundCloud, nil
	default:
		return "", fmt.Errorf("unknown platform %q (must be %q or %q)", s, PlatformSpotify, PlatformSoundCloud)
	}
}

// Valid reports whether p is a member of the closed platform set.
func (p Platform) Valid() bool {
	return p == PlatformSpotify || p == PlatformSoundCloud
}

func (p Platform) String() string { return string(p) }

// VerifiedSignalReliable reports whether the platform's verified-artist flag
// carries real signal. SoundCloud marks far too many re-upload accounts as
// verified for the flag to be usable, so its verified component scores zero.
func (p Platform) VerifiedSignalReliable() bool {
	return p == PlatformSpotify
}

// MaxPopularity returns the expected upper bound of the platform's raw
// popularity metric. Spotify reports a 0-100 score; SoundCloud reports raw
// play counts that routinely reach the millions.
func (p Platform) MaxPopularity() float64 {
	switch p {
	case PlatformSpotify:
		return 100
	case PlatformSoundCloud:
		return 10_000_000
	default:
		return 1
	}
}

// Wantlist is modeled as a synthetic folder so the sync engine can treat it
// like any other unit of work.
const (
	WantlistFolderID   int64 = -1
	WantlistFolderName       = "Wantlist"
)

// Folder is a Discogs collection folder, the unit of sync.
type Folder struct {
	ID    int64
	Name  string
	Count int
}

// Wantlist returns the synthetic folder representing the user's wantlist.
func Wantlist() Folder {
	return Folder{ID: WantlistFolderID, Name: WantlistFolderName}
}

// IsWantlist reports whether f is the synthetic wantlist folder.
func (f Folder) IsWantlist() bool { return f.ID == WantlistFolderID }

// Release is a Discogs release referenced by a folder or the wantlist.
type Release struct {
	ID     int64
	Title  string
	Artist string
	Year   int
}

// TrackDescriptor describes a single Discogs track. It is immutable once
// derived from a release tracklist; ReleaseID and Position together form the
// stable identity used as the cache key.
type TrackDescriptor struct {
	Artist          string
	Title           string
	VersionInfo     string // remix/mix label when Discogs reports one separately
	DurationSeconds int    // 0 when unknown
	ReleaseID       int64
	Position        string // e.g. "A1", "B2", "3"
}

func (t TrackDescriptor) String() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// Candidate is one platform search result considered for a track.
type Candidate struct {
	ExternalID      string
	Artist          string
	Title           string
	DurationSeconds int     // 0 when unknown
	Popularity      float64 // raw platform units, see Platform.MaxPopularity
	Verified        bool
	Platform        Platform
}

// MatchResult is a resolved track: the winning candidate and its confidence.
type MatchResult struct {
	Candidate  Candidate
	Confidence float64
	MatchedAt  time.Time
}

// CacheKey identifies one cached resolution.
type CacheKey struct {
	ReleaseID   int64
	Position    string
	Destination Platform
}

// CacheEntry is a persisted resolution. At most one live entry exists per
// key; writers always overwrite, never merge.
type CacheEntry struct {
	Key        CacheKey
	ExternalID string
	Confidence float64
	ResolvedAt time.Time
}

// PlaylistState is the current remote state of one playlist.
type PlaylistState struct {
	ID       string
	Name     string
	TrackIDs []string // platform order
}

// FolderMapping links a Discogs folder to the playlist created for it on a
// destination. Persisted so renames and orphan cleanup survive across runs.
type FolderMapping struct {
	FolderID     int64
	FolderName   string
	Destination  Platform
	PlaylistID   string
	PlaylistName string
	CreatedAt    time.Time
}

// SyncPlan is the ordered diff computed for one folder. Applying it makes the
// remote playlist equal the desired state.
type SyncPlan struct {
	FolderID       int64
	FolderName     string
	PlaylistID     string // empty when the playlist does not exist yet
	PlaylistName   string
	CreatePlaylist bool
	ToAdd          []string // desired order preserved
	ToRemove       []string
	Missing        []TrackDescriptor
}

// Empty reports whether applying the plan would change nothing remotely.
func (p SyncPlan) Empty() bool {
	return !p.CreatePlaylist && len(p.ToAdd) == 0 && len(p.ToRemove) == 0
}

// MissingTrack records a track whose best candidate did not clear the
// confidence threshold, for the report feature.
type MissingTrack struct {
	ReleaseID   int64
	FolderID    int64
	Artist      string
	Title       string
	Position    string
	Destination Platform
	SearchedAt  time.Time
}
