package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/discosync/discosync/internal/shared"
)

func newTestDiscogsClient(t *testing.T, handler http.Handler) *DiscogsClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &DiscogsClient{
		baseURL:    server.URL,
		token:      "test-token",
		httpClient: server.Client(),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		retry:      RetryPolicy{MaxAttempts: 1, InitialBackoff: time.Millisecond, Retryable: IsRetryable},
		logger:     shared.NewLogger(io.Discard),
	}
}

func TestDiscogsIdentity(t *testing.T) {
	var gotAuth string
	client := newTestDiscogsClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"username": "crate_digger"}`)
	}))

	username, err := client.Identity(context.Background())
	if err != nil {
		t.Fatalf("identity failed: %v", err)
	}
	if username != "crate_digger" {
		t.Errorf("username = %q, want crate_digger", username)
	}
	if gotAuth != "Discogs token=test-token" {
		t.Errorf("authorization header = %q", gotAuth)
	}

	// The username is cached; a second call must not hit the API.
	client.baseURL = "http://127.0.0.1:0"
	if _, err := client.Identity(context.Background()); err != nil {
		t.Errorf("cached identity failed: %v", err)
	}
}

func TestDiscogsListFolders(t *testing.T) {
	client := newTestDiscogsClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/identity":
			fmt.Fprint(w, `{"username": "crate_digger"}`)
		case "/users/crate_digger/collection/folders":
			fmt.Fprint(w, `{"folders": [
				{"id": 0, "name": "All", "count": 30},
				{"id": 1, "name": "Uncategorized", "count": 10},
				{"id": 42, "name": "Techno", "count": 20}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}))

	folders, err := client.ListFolders(context.Background())
	if err != nil {
		t.Fatalf("list folders failed: %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("got %d folders, want 2 (synthetic All excluded)", len(folders))
	}
	if folders[1].ID != 42 || folders[1].Name != "Techno" || folders[1].Count != 20 {
		t.Errorf("folder = %+v", folders[1])
	}
}

func TestDiscogsListFolderReleasesPaginates(t *testing.T) {
	client := newTestDiscogsClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/oauth/identity":
			fmt.Fprint(w, `{"username": "crate_digger"}`)
		case r.URL.Path == "/users/crate_digger/collection/folders/42/releases":
			if r.URL.Query().Get("page") == "1" {
				fmt.Fprint(w, `{
					"pagination": {"page": 1, "pages": 2},
					"releases": [{"basic_information": {"id": 100, "title": "Energy Flash", "year": 1990, "artists": [{"name": "Joey Beltram"}]}}]
				}`)
			} else {
				fmt.Fprint(w, `{
					"pagination": {"page": 2, "pages": 2},
					"releases": [{"basic_information": {"id": 101, "title": "Mentasm", "year": 1991, "artists": [{"name": "Second Phase"}]}}]
				}`)
			}
		default:
			http.NotFound(w, r)
		}
	}))

	releases, err := client.ListFolderReleases(context.Background(), 42)
	if err != nil {
		t.Fatalf("list releases failed: %v", err)
	}
	if len(releases) != 2 {
		t.Fatalf("got %d releases, want 2", len(releases))
	}
	if releases[0].Artist != "Joey Beltram" || releases[1].ID != 101 {
		t.Errorf("releases = %+v", releases)
	}
}

func TestDiscogsListReleaseTracklist(t *testing.T) {
	client := newTestDiscogsClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/releases/100" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"id": 100,
			"title": "Classics",
			"artists": [{"name": "Model 500"}],
			"tracklist": [
				{"position": "", "type_": "heading", "title": "Side A"},
				{"position": "A1", "type_": "track", "title": "No UFO's", "duration": "4:20"},
				{"position": "A2", "type_": "track", "title": "Night Drive", "duration": "6:02", "artists": [{"name": "Model 500", "join": ""}]}
			]
		}`)
	}))

	tracks, err := client.ListReleaseTracklist(context.Background(), 100)
	if err != nil {
		t.Fatalf("tracklist failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2 (heading skipped)", len(tracks))
	}
	first := tracks[0]
	if first.Artist != "Model 500" {
		t.Errorf("track without artists should inherit release artist, got %q", first.Artist)
	}
	if first.Position != "A1" || first.DurationSeconds != 260 {
		t.Errorf("track = %+v", first)
	}
	if first.ReleaseID != 100 {
		t.Errorf("release id = %d", first.ReleaseID)
	}
}

func TestDiscogsErrorSurfacesStatus(t *testing.T) {
	client := newTestDiscogsClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "invalid token"}`, http.StatusUnauthorized)
	}))

	if _, err := client.Identity(context.Background()); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"4:20", 260},
		{"0:45", 45},
		{"1:02:03", 3723},
		{"", 0},
		{"n/a", 0},
	}

	for _, tc := range cases {
		if got := parseDuration(tc.in); got != tc.want {
			t.Errorf("parseDuration(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
