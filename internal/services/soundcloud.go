package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/shared"
)

const soundcloudBaseURL = "https://api.soundcloud.com"

// SoundCloudClient syncs playlists through the SoundCloud public API.
// SoundCloud has no endpoint for incremental playlist edits; adds and
// removals are expressed as a full track-list replacement.
type SoundCloudClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *log.Logger
}

// NewSoundCloudOAuthConfig builds the OAuth config for the authorization
// code flow.
func NewSoundCloudOAuthConfig(cfg shared.SoundCloudConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://secure.soundcloud.com/authorize",
			TokenURL: "https://secure.soundcloud.com/oauth/token",
		},
	}
}

func NewSoundCloudClient(ctx context.Context, cfg shared.SoundCloudConfig, token *oauth2.Token, logger *log.Logger) (*SoundCloudClient, error) {
	if token == nil {
		return nil, shared.ErrNotAuthenticated
	}

	oauthCfg := NewSoundCloudOAuthConfig(cfg)
	return &SoundCloudClient{
		baseURL:    soundcloudBaseURL,
		httpClient: oauthCfg.Client(ctx, token),
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		retry:      DefaultRetryPolicy(),
		logger:     shared.WithLogger(logger, "service", "soundcloud"),
	}, nil
}

type soundcloudUser struct {
	Username       string `json:"username"`
	Verified       bool   `json:"verified"`
	FollowersCount int    `json:"followers_count"`
}

type soundcloudTrack struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	DurationMS    int64          `json:"duration"`
	PlaybackCount float64        `json:"playback_count"`
	User          soundcloudUser `json:"user"`
}

type soundcloudPlaylist struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Tracks []soundcloudTrack `json:"tracks"`
}

type soundcloudTrackRef struct {
	ID int64 `json:"id"`
}

type soundcloudPlaylistUpdate struct {
	Playlist struct {
		Title   string               `json:"title,omitempty"`
		Sharing string               `json:"sharing,omitempty"`
		Tracks  []soundcloudTrackRef `json:"tracks"`
	} `json:"playlist"`
}

func (c *SoundCloudClient) Platform() models.Platform { return models.PlatformSoundCloud }

// BuildQuery returns a plain-text query; SoundCloud search has no fielded
// syntax.
func (c *SoundCloudClient) BuildQuery(artist, title string) string {
	return strings.TrimSpace(artist + " " + title)
}

func (c *SoundCloudClient) Search(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	params := url.Values{"q": {query}, "limit": {strconv.Itoa(limit)}}

	var tracks []soundcloudTrack
	if err := c.doRequest(ctx, http.MethodGet, "/tracks?"+params.Encode(), nil, &tracks); err != nil {
		return nil, fmt.Errorf("soundcloud search failed: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(tracks))
	for _, t := range tracks {
		candidates = append(candidates, models.Candidate{
			ExternalID:      strconv.FormatInt(t.ID, 10),
			Artist:          t.User.Username,
			Title:           t.Title,
			DurationSeconds: int(t.DurationMS / 1000),
			Popularity:      t.PlaybackCount,
			Verified:        t.User.Verified,
			Platform:        models.PlatformSoundCloud,
		})
	}
	return candidates, nil
}

func (c *SoundCloudClient) GetPlaylist(ctx context.Context, name string) (*models.PlaylistState, error) {
	playlists, err := c.fetchPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range playlists {
		if p.Title == name {
			state := toPlaylistState(p)
			return &state, nil
		}
	}
	return nil, nil
}

func (c *SoundCloudClient) ListPlaylists(ctx context.Context) ([]models.PlaylistState, error) {
	playlists, err := c.fetchPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]models.PlaylistState, 0, len(playlists))
	for _, p := range playlists {
		states = append(states, toPlaylistState(p))
	}
	return states, nil
}

func (c *SoundCloudClient) CreatePlaylist(ctx context.Context, name string) (*models.PlaylistState, error) {
	var update soundcloudPlaylistUpdate
	update.Playlist.Title = name
	update.Playlist.Sharing = "private"
	update.Playlist.Tracks = []soundcloudTrackRef{}

	var created soundcloudPlaylist
	if err := c.doRequest(ctx, http.MethodPost, "/playlists", update, &created); err != nil {
		return nil, fmt.Errorf("failed to create soundcloud playlist %q: %w", name, err)
	}

	c.logger.Debug("created playlist", "name", name, "id", created.ID)
	state := toPlaylistState(created)
	return &state, nil
}

func (c *SoundCloudClient) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	return c.updateTracks(ctx, playlistID, func(current []string) []string {
		present := make(map[string]struct{}, len(current))
		for _, id := range current {
			present[id] = struct{}{}
		}
		for _, id := range trackIDs {
			if _, ok := present[id]; !ok {
				current = append(current, id)
				present[id] = struct{}{}
			}
		}
		return current
	})
}

func (c *SoundCloudClient) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	return c.updateTracks(ctx, playlistID, func(current []string) []string {
		drop := make(map[string]struct{}, len(trackIDs))
		for _, id := range trackIDs {
			drop[id] = struct{}{}
		}
		kept := current[:0]
		for _, id := range current {
			if _, ok := drop[id]; !ok {
				kept = append(kept, id)
			}
		}
		return kept
	})
}

func (c *SoundCloudClient) DeletePlaylist(ctx context.Context, playlistID string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/playlists/"+url.PathEscape(playlistID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete soundcloud playlist %s: %w", playlistID, err)
	}
	return nil
}

// updateTracks reads the playlist, transforms its track list, and writes the
// result back in one replacement request.
func (c *SoundCloudClient) updateTracks(ctx context.Context, playlistID string, transform func([]string) []string) error {
	var current soundcloudPlaylist
	if err := c.doRequest(ctx, http.MethodGet, "/playlists/"+url.PathEscape(playlistID), nil, &current); err != nil {
		return fmt.Errorf("failed to read soundcloud playlist %s: %w", playlistID, err)
	}

	ids := make([]string, 0, len(current.Tracks))
	for _, t := range current.Tracks {
		ids = append(ids, strconv.FormatInt(t.ID, 10))
	}

	var update soundcloudPlaylistUpdate
	update.Playlist.Tracks = []soundcloudTrackRef{}
	for _, id := range transform(ids) {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid soundcloud track id %q: %w", id, err)
		}
		update.Playlist.Tracks = append(update.Playlist.Tracks, soundcloudTrackRef{ID: n})
	}

	if err := c.doRequest(ctx, http.MethodPut, "/playlists/"+url.PathEscape(playlistID), update, nil); err != nil {
		return fmt.Errorf("failed to update soundcloud playlist %s: %w", playlistID, err)
	}
	return nil
}

func (c *SoundCloudClient) fetchPlaylists(ctx context.Context) ([]soundcloudPlaylist, error) {
	var playlists []soundcloudPlaylist
	if err := c.doRequest(ctx, http.MethodGet, "/me/playlists", nil, &playlists); err != nil {
		return nil, fmt.Errorf("failed to list soundcloud playlists: %w", err)
	}
	return playlists, nil
}

func (c *SoundCloudClient) doRequest(ctx context.Context, method, path string, payload, out any) error {
	return c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		}
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

func toPlaylistState(p soundcloudPlaylist) models.PlaylistState {
	ids := make([]string, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		ids = append(ids, strconv.FormatInt(t.ID, 10))
	}
	return models.PlaylistState{
		ID:       strconv.FormatInt(p.ID, 10),
		Name:     p.Title,
		TrackIDs: ids,
	}
}
