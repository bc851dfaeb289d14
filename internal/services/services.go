// Package services implements clients for the external APIs the sync engine
// talks to: Discogs as the collection source, and Spotify and SoundCloud as
// playlist destinations.
package services

import (
	"context"

	"github.com/discosync/discosync/internal/models"
)

// CollectionSource reads a user's record collection. Implemented by the
// Discogs client; tests substitute an in-memory source.
type CollectionSource interface {
	// ListFolders returns the user's collection folders, excluding the
	// synthetic "all items" folder.
	ListFolders(ctx context.Context) ([]models.Folder, error)

	// ListWantlist returns the wantlist as releases.
	ListWantlist(ctx context.Context) ([]models.Release, error)

	// ListFolderReleases returns every release in one folder.
	ListFolderReleases(ctx context.Context, folderID int64) ([]models.Release, error)

	// ListReleaseTracklist returns the tracks of one release, in side order.
	ListReleaseTracklist(ctx context.Context, releaseID int64) ([]models.TrackDescriptor, error)
}

// PlatformClient is a playlist destination. Implemented by the Spotify and
// SoundCloud clients.
type PlatformClient interface {
	Platform() models.Platform

	// BuildQuery renders a platform-appropriate search query.
	BuildQuery(artist, title string) string

	// Search returns up to limit candidates for the query.
	Search(ctx context.Context, query string, limit int) ([]models.Candidate, error)

	// GetPlaylist finds the caller's playlist by exact name. Returns
	// (nil, nil) when no such playlist exists.
	GetPlaylist(ctx context.Context, name string) (*models.PlaylistState, error)

	// ListPlaylists returns all of the caller's playlists with their track
	// contents.
	ListPlaylists(ctx context.Context) ([]models.PlaylistState, error)

	CreatePlaylist(ctx context.Context, name string) (*models.PlaylistState, error)
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error
	RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error
	DeletePlaylist(ctx context.Context, playlistID string) error
}
