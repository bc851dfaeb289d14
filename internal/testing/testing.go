// package testing contains shared test doubles for the collection source
// and platform clients.
package testing

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/discosync/discosync/internal/models"
)

// MockCollectionSource is an in-memory [services.CollectionSource].
type MockCollectionSource struct {
	Folders    []models.Folder
	Wantlist   []models.Release
	Releases   map[int64][]models.Release         // folder id -> releases
	Tracklists map[int64][]models.TrackDescriptor // release id -> tracks

	FoldersErr error
}

func (m *MockCollectionSource) ListFolders(ctx context.Context) ([]models.Folder, error) {
	if m.FoldersErr != nil {
		return nil, m.FoldersErr
	}
	return m.Folders, nil
}

func (m *MockCollectionSource) ListWantlist(ctx context.Context) ([]models.Release, error) {
	return m.Wantlist, nil
}

func (m *MockCollectionSource) ListFolderReleases(ctx context.Context, folderID int64) ([]models.Release, error) {
	return m.Releases[folderID], nil
}

func (m *MockCollectionSource) ListReleaseTracklist(ctx context.Context, releaseID int64) ([]models.TrackDescriptor, error) {
	tracks, ok := m.Tracklists[releaseID]
	if !ok {
		return nil, fmt.Errorf("unknown release %d", releaseID)
	}
	return tracks, nil
}

// MockPlatformClient is an in-memory [services.PlatformClient] with canned
// search results and call counters.
type MockPlatformClient struct {
	mu sync.Mutex

	Dest    models.Platform
	Results map[string][]models.Candidate // query -> candidates

	SearchErr error
	CreateErr error
	AddErr    error
	DeleteErr error

	Playlists []models.PlaylistState

	SearchCalls  []string
	AddedTracks  map[string][]string
	Removed      map[string][]string
	DeletedIDs   []string
	nextPlaylist int
}

func NewMockPlatformClient(dest models.Platform) *MockPlatformClient {
	return &MockPlatformClient{
		Dest:        dest,
		Results:     make(map[string][]models.Candidate),
		AddedTracks: make(map[string][]string),
		Removed:     make(map[string][]string),
	}
}

func (m *MockPlatformClient) Platform() models.Platform { return m.Dest }

func (m *MockPlatformClient) BuildQuery(artist, title string) string {
	return artist + " " + title
}

func (m *MockPlatformClient) Search(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls = append(m.SearchCalls, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.Results[query], nil
}

// SearchCount returns how many searches ran.
func (m *MockPlatformClient) SearchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SearchCalls)
}

func (m *MockPlatformClient) GetPlaylist(ctx context.Context, name string) (*models.PlaylistState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Playlists {
		if m.Playlists[i].Name == name {
			state := m.Playlists[i]
			return &state, nil
		}
	}
	return nil, nil
}

func (m *MockPlatformClient) ListPlaylists(ctx context.Context) ([]models.PlaylistState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PlaylistState, len(m.Playlists))
	copy(out, m.Playlists)
	return out, nil
}

func (m *MockPlatformClient) CreatePlaylist(ctx context.Context, name string) (*models.PlaylistState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextPlaylist++
	state := models.PlaylistState{ID: "pl_" + strconv.Itoa(m.nextPlaylist), Name: name}
	m.Playlists = append(m.Playlists, state)
	return &state, nil
}

func (m *MockPlatformClient) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return m.AddErr
	}
	m.AddedTracks[playlistID] = append(m.AddedTracks[playlistID], trackIDs...)
	return nil
}

func (m *MockPlatformClient) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed[playlistID] = append(m.Removed[playlistID], trackIDs...)
	return nil
}

func (m *MockPlatformClient) DeletePlaylist(ctx context.Context, playlistID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeletedIDs = append(m.DeletedIDs, playlistID)
	return nil
}
