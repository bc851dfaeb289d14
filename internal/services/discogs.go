package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/shared"
)

const discogsBaseURL = "https://api.discogs.com"

// Discogs caps authenticated clients at 60 requests per minute.
const discogsRequestsPerSecond = 1.0

// DiscogsClient reads a user's collection from the Discogs API.
type DiscogsClient struct {
	baseURL    string
	token      string
	username   string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *log.Logger
}

func NewDiscogsClient(token string, logger *log.Logger) *DiscogsClient {
	return &DiscogsClient{
		baseURL:    discogsBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(discogsRequestsPerSecond), 2),
		retry:      DefaultRetryPolicy(),
		logger:     shared.WithLogger(logger, "service", "discogs"),
	}
}

type discogsIdentity struct {
	Username string `json:"username"`
}

type discogsFolder struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type discogsFolderList struct {
	Folders []discogsFolder `json:"folders"`
}

type discogsArtist struct {
	Name string `json:"name"`
}

type discogsBasicInfo struct {
	ID      int64           `json:"id"`
	Title   string          `json:"title"`
	Year    int             `json:"year"`
	Artists []discogsArtist `json:"artists"`
}

type discogsPagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type discogsReleasePage struct {
	Pagination discogsPagination `json:"pagination"`
	Releases   []struct {
		BasicInformation discogsBasicInfo `json:"basic_information"`
	} `json:"releases"`
}

type discogsWantPage struct {
	Pagination discogsPagination `json:"pagination"`
	Wants      []struct {
		BasicInformation discogsBasicInfo `json:"basic_information"`
	} `json:"wants"`
}

type discogsTrack struct {
	Position string          `json:"position"`
	Type     string          `json:"type_"`
	Title    string          `json:"title"`
	Duration string          `json:"duration"`
	Artists  []discogsArtist `json:"artists"`
}

type discogsRelease struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Artists   []discogsArtist `json:"artists"`
	Tracklist []discogsTrack  `json:"tracklist"`
}

// Identity resolves and caches the username the token belongs to. Every
// collection endpoint is scoped by username, so this runs once per process.
func (c *DiscogsClient) Identity(ctx context.Context) (string, error) {
	if c.username != "" {
		return c.username, nil
	}

	var identity discogsIdentity
	if err := c.doRequest(ctx, "/oauth/identity", nil, &identity); err != nil {
		return "", fmt.Errorf("failed to resolve discogs identity: %w", err)
	}
	if identity.Username == "" {
		return "", fmt.Errorf("%w: discogs identity returned no username", shared.ErrAuthFailed)
	}

	c.username = identity.Username
	c.logger.Debug("resolved identity", "username", c.username)
	return c.username, nil
}

func (c *DiscogsClient) ListFolders(ctx context.Context) ([]models.Folder, error) {
	username, err := c.Identity(ctx)
	if err != nil {
		return nil, err
	}

	var list discogsFolderList
	path := fmt.Sprintf("/users/%s/collection/folders", url.PathEscape(username))
	if err := c.doRequest(ctx, path, nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	folders := make([]models.Folder, 0, len(list.Folders))
	for _, f := range list.Folders {
		// Folder 0 is the synthetic "All" view; syncing it would duplicate
		// every real folder.
		if f.ID == 0 {
			continue
		}
		folders = append(folders, models.Folder{ID: f.ID, Name: f.Name, Count: f.Count})
	}
	return folders, nil
}

func (c *DiscogsClient) ListFolderReleases(ctx context.Context, folderID int64) ([]models.Release, error) {
	username, err := c.Identity(ctx)
	if err != nil {
		return nil, err
	}

	var releases []models.Release
	path := fmt.Sprintf("/users/%s/collection/folders/%d/releases", url.PathEscape(username), folderID)

	for page := 1; ; page++ {
		query := url.Values{"per_page": {"100"}, "page": {strconv.Itoa(page)}}

		var result discogsReleasePage
		if err := c.doRequest(ctx, path, query, &result); err != nil {
			return nil, fmt.Errorf("failed to list releases for folder %d: %w", folderID, err)
		}
		for _, item := range result.Releases {
			releases = append(releases, toRelease(item.BasicInformation))
		}
		if page >= result.Pagination.Pages {
			break
		}
	}
	return releases, nil
}

func (c *DiscogsClient) ListWantlist(ctx context.Context) ([]models.Release, error) {
	username, err := c.Identity(ctx)
	if err != nil {
		return nil, err
	}

	var releases []models.Release
	path := fmt.Sprintf("/users/%s/wants", url.PathEscape(username))

	for page := 1; ; page++ {
		query := url.Values{"per_page": {"100"}, "page": {strconv.Itoa(page)}}

		var result discogsWantPage
		if err := c.doRequest(ctx, path, query, &result); err != nil {
			return nil, fmt.Errorf("failed to list wantlist: %w", err)
		}
		for _, item := range result.Wants {
			releases = append(releases, toRelease(item.BasicInformation))
		}
		if page >= result.Pagination.Pages {
			break
		}
	}
	return releases, nil
}

func (c *DiscogsClient) ListReleaseTracklist(ctx context.Context, releaseID int64) ([]models.TrackDescriptor, error) {
	var release discogsRelease
	path := fmt.Sprintf("/releases/%d", releaseID)
	if err := c.doRequest(ctx, path, nil, &release); err != nil {
		return nil, fmt.Errorf("failed to fetch release %d: %w", releaseID, err)
	}

	releaseArtist := joinArtists(release.Artists)

	var tracks []models.TrackDescriptor
	for _, t := range release.Tracklist {
		// Tracklists interleave headings and index rows with real tracks.
		if t.Type != "" && t.Type != "track" {
			continue
		}

		artist := joinArtists(t.Artists)
		if artist == "" {
			artist = releaseArtist
		}

		tracks = append(tracks, models.TrackDescriptor{
			Artist:          artist,
			Title:           t.Title,
			DurationSeconds: parseDuration(t.Duration),
			ReleaseID:       releaseID,
			Position:        t.Position,
		})
	}
	return tracks, nil
}

func (c *DiscogsClient) doRequest(ctx context.Context, path string, query url.Values, out any) error {
	return c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		endpoint := c.baseURL + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Discogs token="+c.token)
		req.Header.Set("User-Agent", "discosync/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

func toRelease(info discogsBasicInfo) models.Release {
	return models.Release{
		ID:     info.ID,
		Title:  info.Title,
		Artist: joinArtists(info.Artists),
		Year:   info.Year,
	}
}

func joinArtists(artists []discogsArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// parseDuration converts a "m:ss" or "h:mm:ss" duration to seconds.
// Unparseable or empty durations yield 0, which matchers treat as unknown.
func parseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}
