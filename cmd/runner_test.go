package main

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/services"
	"github.com/discosync/discosync/internal/shared"
	mocks "github.com/discosync/discosync/internal/testing"
)

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, *mocks.MockPlatformClient) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	source := &mocks.MockCollectionSource{
		Folders: []models.Folder{{ID: 42, Name: "Techno", Count: 1}},
		Releases: map[int64][]models.Release{
			42: {{ID: 100, Title: "Classics", Artist: "Model 500"}},
		},
		Tracklists: map[int64][]models.TrackDescriptor{
			100: {{Artist: "Model 500", Title: "No UFO's", ReleaseID: 100, Position: "A1"}},
		},
	}

	client := mocks.NewMockPlatformClient(models.PlatformSpotify)
	client.Results["Model 500 No UFO's"] = []models.Candidate{
		{ExternalID: "sp:ufo", Artist: "Model 500", Title: "No UFO's", Platform: models.PlatformSpotify},
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Logger: shared.NewLogger(io.Discard),
		Output: output,
		Source: source,
		Clients: map[models.Platform]services.PlatformClient{
			models.PlatformSpotify: client,
		},
		DB: db,
	})
	return runner, output, client
}

func TestNewRunnerDefaults(t *testing.T) {
	runner := NewRunner(RunnerOpts{})

	if runner.config == nil {
		t.Error("expected default config")
	}
	if runner.logger == nil {
		t.Error("expected default logger")
	}
	if runner.output != os.Stdout {
		t.Error("expected stdout output")
	}
	if runner.clients == nil {
		t.Error("expected client map")
	}
}

func TestRunnerRegister(t *testing.T) {
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})

	commands := runner.register()
	if len(commands) != 6 {
		t.Fatalf("registered %d commands, want 6", len(commands))
	}

	names := make(map[string]bool)
	for _, cmd := range commands {
		names[cmd.Name] = true
	}
	for _, want := range []string{"setup", "auth", "sync", "folders", "report", "cache"} {
		if !names[want] {
			t.Errorf("command %q not registered", want)
		}
	}
}

func TestRunnerSyncCommand(t *testing.T) {
	runner, output, client := newTestRunner(t)

	app := runner.register()
	var syncCmd = app[2]
	if syncCmd.Name != "sync" {
		t.Fatalf("expected sync command, got %q", syncCmd.Name)
	}

	if err := syncCmd.Run(context.Background(), []string{"sync", "--skip-wantlist", "spotify"}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	if len(client.AddedTracks["pl_1"]) != 1 {
		t.Errorf("platform received %v", client.AddedTracks)
	}
	if !strings.Contains(output.String(), "Techno") {
		t.Errorf("summary missing folder name: %q", output.String())
	}
}

func TestRunnerSyncRejectsUnknownDestination(t *testing.T) {
	runner, _, _ := newTestRunner(t)

	err := runner.register()[2].Run(context.Background(), []string{"sync", "napster"})
	if err == nil {
		t.Fatal("expected error for unknown destination")
	}
}

func TestRunnerTokenRoundTrip(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	dir := t.TempDir()
	runner.config.Database.Path = filepath.Join(dir, "discosync.db")

	token := &oauth2.Token{AccessToken: "secret", TokenType: "Bearer"}
	if err := runner.saveToken(models.PlatformSpotify, token); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := runner.loadToken(models.PlatformSpotify)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.AccessToken != "secret" {
		t.Errorf("token = %+v", loaded)
	}

	info, err := os.Stat(runner.tokenPath(models.PlatformSpotify))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestRunnerLoadTokenMissing(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	runner.config.Database.Path = filepath.Join(t.TempDir(), "discosync.db")

	if _, err := runner.loadToken(models.PlatformSoundCloud); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestRunnerWriteJSON(t *testing.T) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})

	if err := runner.writeJSON(map[string]int{"tracks": 3}, false); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if got := strings.TrimSpace(output.String()); got != `{"tracks":3}` {
		t.Errorf("output = %q", got)
	}
}
