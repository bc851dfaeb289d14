package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/shared"
)

func newTestSoundCloudClient(t *testing.T, handler http.Handler) *SoundCloudClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &SoundCloudClient{
		baseURL:    server.URL,
		httpClient: server.Client(),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		retry:      RetryPolicy{MaxAttempts: 1, InitialBackoff: time.Millisecond, Retryable: IsRetryable},
		logger:     shared.NewLogger(io.Discard),
	}
}

func TestSoundCloudSearch(t *testing.T) {
	client := newTestSoundCloudClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tracks" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("q"); got != "Rhythim Is Rhythim Strings Of Life" {
			t.Errorf("query = %q", got)
		}
		fmt.Fprint(w, `[
			{"id": 123, "title": "Strings Of Life", "duration": 430000, "playback_count": 250000,
			 "user": {"username": "Rhythim Is Rhythim", "verified": true}}
		]`)
	}))

	query := client.BuildQuery("Rhythim Is Rhythim", "Strings Of Life")
	candidates, err := client.Search(context.Background(), query, 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}

	c := candidates[0]
	if c.ExternalID != "123" || c.Platform != models.PlatformSoundCloud {
		t.Errorf("candidate = %+v", c)
	}
	if c.DurationSeconds != 430 {
		t.Errorf("duration = %d, want 430", c.DurationSeconds)
	}
	if c.Popularity != 250000 {
		t.Errorf("popularity = %v, want raw playback count", c.Popularity)
	}
}

func TestSoundCloudGetPlaylist(t *testing.T) {
	client := newTestSoundCloudClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id": 7, "title": "Discogs - Techno", "tracks": [{"id": 1}, {"id": 2}]},
			{"id": 8, "title": "Liked Mixes", "tracks": []}
		]`)
	}))

	state, err := client.GetPlaylist(context.Background(), "Discogs - Techno")
	if err != nil {
		t.Fatalf("get playlist failed: %v", err)
	}
	if state == nil {
		t.Fatal("expected playlist")
	}
	if state.ID != "7" || len(state.TrackIDs) != 2 || state.TrackIDs[0] != "1" {
		t.Errorf("state = %+v", state)
	}

	missing, err := client.GetPlaylist(context.Background(), "Discogs - Ambient")
	if err != nil {
		t.Fatalf("get playlist failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown playlist, got %+v", missing)
	}
}

func TestSoundCloudAddTracksReplacesList(t *testing.T) {
	var putBody soundcloudPlaylistUpdate
	client := newTestSoundCloudClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/playlists/7":
			fmt.Fprint(w, `{"id": 7, "title": "Discogs - Techno", "tracks": [{"id": 1}, {"id": 2}]}`)
		case r.Method == http.MethodPut && r.URL.Path == "/playlists/7":
			if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
				t.Errorf("bad put body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))

	if err := client.AddTracks(context.Background(), "7", []string{"2", "3"}); err != nil {
		t.Fatalf("add tracks failed: %v", err)
	}

	var got []int64
	for _, ref := range putBody.Playlist.Tracks {
		got = append(got, ref.ID)
	}
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("track list = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("track list = %v, want %v", got, want)
		}
	}
}

func TestSoundCloudRemoveTracks(t *testing.T) {
	var putBody soundcloudPlaylistUpdate
	client := newTestSoundCloudClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/playlists/7":
			fmt.Fprint(w, `{"id": 7, "title": "Discogs - Techno", "tracks": [{"id": 1}, {"id": 2}, {"id": 3}]}`)
		case r.Method == http.MethodPut && r.URL.Path == "/playlists/7":
			if err := json.NewDecoder(r.Body).Decode(&putBody); err != nil {
				t.Errorf("bad put body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))

	if err := client.RemoveTracks(context.Background(), "7", []string{"2"}); err != nil {
		t.Fatalf("remove tracks failed: %v", err)
	}

	if len(putBody.Playlist.Tracks) != 2 {
		t.Fatalf("track list = %+v, want ids 1 and 3", putBody.Playlist.Tracks)
	}
	if putBody.Playlist.Tracks[0].ID != 1 || putBody.Playlist.Tracks[1].ID != 3 {
		t.Errorf("track list = %+v, want ids 1 and 3", putBody.Playlist.Tracks)
	}
}

func TestSoundCloudDeletePlaylist(t *testing.T) {
	deleted := false
	client := newTestSoundCloudClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/playlists/7" {
			deleted = true
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))

	if err := client.DeletePlaylist(context.Background(), "7"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !deleted {
		t.Error("delete request never sent")
	}
}
