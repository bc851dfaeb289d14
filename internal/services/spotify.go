package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/shared"
)

// Spotify does not expose a public "verified artist" flag; follower count is
// the proxy. Artists above this threshold count as established.
const spotifyVerifiedFollowers = 10_000

const spotifyBatchSize = 100

// SpotifyClient syncs playlists through the Spotify Web API.
type SpotifyClient struct {
	client *spotify.Client
	userID string
	logger *log.Logger
}

// NewSpotifyAuthenticator builds the OAuth authenticator with the scopes
// playlist sync needs.
func NewSpotifyAuthenticator(cfg shared.SpotifyConfig) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
		),
	)
}

// NewSpotifyClient wraps an authorized token in an API client and resolves
// the current user, which playlist creation requires.
func NewSpotifyClient(ctx context.Context, cfg shared.SpotifyConfig, token *oauth2.Token, logger *log.Logger) (*SpotifyClient, error) {
	if token == nil {
		return nil, shared.ErrNotAuthenticated
	}

	auth := NewSpotifyAuthenticator(cfg)
	client := spotify.New(auth.Client(ctx, token), spotify.WithRetry(true))

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve spotify user: %w", shared.ErrAuthFailed, err)
	}

	return &SpotifyClient{
		client: client,
		userID: user.ID,
		logger: shared.WithLogger(logger, "service", "spotify"),
	}, nil
}

func (c *SpotifyClient) Platform() models.Platform { return models.PlatformSpotify }

// BuildQuery uses Spotify's fielded search syntax to keep artist and title
// terms from bleeding into each other.
func (c *SpotifyClient) BuildQuery(artist, title string) string {
	return fmt.Sprintf("artist:%s track:%s", artist, title)
}

func (c *SpotifyClient) Search(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	results, err := c.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("spotify search failed: %w", err)
	}
	if results.Tracks == nil {
		return nil, nil
	}

	tracks := results.Tracks.Tracks
	followers, err := c.artistFollowers(ctx, tracks)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(tracks))
	for _, track := range tracks {
		var artistID spotify.ID
		names := make([]string, 0, len(track.Artists))
		for i, artist := range track.Artists {
			if i == 0 {
				artistID = artist.ID
			}
			names = append(names, artist.Name)
		}

		candidates = append(candidates, models.Candidate{
			ExternalID:      string(track.ID),
			Artist:          strings.Join(names, ", "),
			Title:           track.Name,
			DurationSeconds: int(track.TimeDuration().Seconds()),
			Popularity:      float64(track.Popularity),
			Verified:        followers[artistID] > spotifyVerifiedFollowers,
			Platform:        models.PlatformSpotify,
		})
	}
	return candidates, nil
}

// artistFollowers batch-fetches follower counts for the primary artist of
// each track. One extra request per search instead of one per candidate.
func (c *SpotifyClient) artistFollowers(ctx context.Context, tracks []spotify.FullTrack) (map[spotify.ID]uint, error) {
	seen := make(map[spotify.ID]struct{})
	var ids []spotify.ID
	for _, track := range tracks {
		if len(track.Artists) == 0 {
			continue
		}
		id := track.Artists[0].ID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	artists, err := c.client.GetArtists(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("spotify artist lookup failed: %w", err)
	}

	followers := make(map[spotify.ID]uint, len(artists))
	for _, artist := range artists {
		if artist != nil {
			followers[artist.ID] = artist.Followers.Count
		}
	}
	return followers, nil
}

func (c *SpotifyClient) GetPlaylist(ctx context.Context, name string) (*models.PlaylistState, error) {
	playlists, err := c.listPlaylistSummaries(ctx)
	if err != nil {
		return nil, err
	}

	for _, playlist := range playlists {
		if playlist.Name != name {
			continue
		}
		trackIDs, err := c.playlistTrackIDs(ctx, playlist.ID)
		if err != nil {
			return nil, err
		}
		return &models.PlaylistState{
			ID:       string(playlist.ID),
			Name:     playlist.Name,
			TrackIDs: trackIDs,
		}, nil
	}
	return nil, nil
}

func (c *SpotifyClient) ListPlaylists(ctx context.Context) ([]models.PlaylistState, error) {
	summaries, err := c.listPlaylistSummaries(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]models.PlaylistState, 0, len(summaries))
	for _, playlist := range summaries {
		trackIDs, err := c.playlistTrackIDs(ctx, playlist.ID)
		if err != nil {
			return nil, err
		}
		states = append(states, models.PlaylistState{
			ID:       string(playlist.ID),
			Name:     playlist.Name,
			TrackIDs: trackIDs,
		})
	}
	return states, nil
}

func (c *SpotifyClient) listPlaylistSummaries(ctx context.Context) ([]spotify.SimplePlaylist, error) {
	page, err := c.client.CurrentUsersPlaylists(ctx, spotify.Limit(50))
	if err != nil {
		return nil, fmt.Errorf("failed to list spotify playlists: %w", err)
	}

	var playlists []spotify.SimplePlaylist
	for {
		playlists = append(playlists, page.Playlists...)
		if err := c.client.NextPage(ctx, page); err == spotify.ErrNoMorePages {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to page spotify playlists: %w", err)
		}
	}
	return playlists, nil
}

func (c *SpotifyClient) playlistTrackIDs(ctx context.Context, playlistID spotify.ID) ([]string, error) {
	page, err := c.client.GetPlaylistItems(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to read spotify playlist %s: %w", playlistID, err)
	}

	var ids []string
	for {
		for _, item := range page.Items {
			if item.Track.Track != nil {
				ids = append(ids, string(item.Track.Track.ID))
			}
		}
		if err := c.client.NextPage(ctx, page); err == spotify.ErrNoMorePages {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to page spotify playlist %s: %w", playlistID, err)
		}
	}
	return ids, nil
}

func (c *SpotifyClient) CreatePlaylist(ctx context.Context, name string) (*models.PlaylistState, error) {
	playlist, err := c.client.CreatePlaylistForUser(ctx, c.userID, name, "Synced from Discogs collection", false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create spotify playlist %q: %w", name, err)
	}

	c.logger.Debug("created playlist", "name", name, "id", playlist.ID)
	return &models.PlaylistState{ID: string(playlist.ID), Name: playlist.Name}, nil
}

func (c *SpotifyClient) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	for _, batch := range batchIDs(trackIDs, spotifyBatchSize) {
		if _, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toSpotifyIDs(batch)...); err != nil {
			return fmt.Errorf("failed to add tracks to spotify playlist %s: %w", playlistID, err)
		}
	}
	return nil
}

func (c *SpotifyClient) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	for _, batch := range batchIDs(trackIDs, spotifyBatchSize) {
		if _, err := c.client.RemoveTracksFromPlaylist(ctx, spotify.ID(playlistID), toSpotifyIDs(batch)...); err != nil {
			return fmt.Errorf("failed to remove tracks from spotify playlist %s: %w", playlistID, err)
		}
	}
	return nil
}

// DeletePlaylist unfollows the playlist, which is Spotify's deletion model
// for playlists the user owns.
func (c *SpotifyClient) DeletePlaylist(ctx context.Context, playlistID string) error {
	if err := c.client.UnfollowPlaylist(ctx, spotify.ID(playlistID)); err != nil {
		return fmt.Errorf("failed to delete spotify playlist %s: %w", playlistID, err)
	}
	return nil
}

func toSpotifyIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}

// batchIDs splits ids into chunks of at most size elements.
func batchIDs(ids []string, size int) [][]string {
	var batches [][]string
	for len(ids) > size {
		batches = append(batches, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		batches = append(batches, ids)
	}
	return batches
}
