package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/services"
	"github.com/discosync/discosync/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for
// each command action.
type Runner struct {
	config  *shared.Config
	logger  *log.Logger
	output  io.Writer
	source  services.CollectionSource
	clients map[models.Platform]services.PlatformClient
	db      *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner. Nil
// fields get production defaults; tests inject doubles.
type RunnerOpts struct {
	Config  *shared.Config
	Logger  *log.Logger
	Output  io.Writer
	Source  services.CollectionSource
	Clients map[models.Platform]services.PlatformClient
	DB      *sql.DB
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Clients == nil {
		opts.Clients = make(map[models.Platform]services.PlatformClient)
	}

	return &Runner{
		config:  opts.Config,
		logger:  opts.Logger,
		output:  opts.Output,
		source:  opts.Source,
		clients: opts.Clients,
		db:      opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, foldersCommand, reportCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// reloadConfig replaces the runner's config from the --config flag when the
// file exists.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	path := cmd.String("config")
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current settings", "path", path, "error", err)
		return
	}
	r.config = config
}

// openDatabase opens (once) the sqlite database from config.
func (r *Runner) openDatabase() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	r.db = db
	return db, nil
}

// collectionSource returns the Discogs client, or the injected double.
func (r *Runner) collectionSource() (services.CollectionSource, error) {
	if r.source != nil {
		return r.source, nil
	}

	token := r.config.Credentials.Discogs.Token
	if token == "" {
		return nil, fmt.Errorf("%w: discogs token not configured", shared.ErrMissingCredentials)
	}
	r.source = services.NewDiscogsClient(token, r.logger)
	return r.source, nil
}

// platformClient returns a destination client, building one from the saved
// OAuth token when none was injected.
func (r *Runner) platformClient(ctx context.Context, destination models.Platform) (services.PlatformClient, error) {
	if client, ok := r.clients[destination]; ok {
		return client, nil
	}

	token, err := r.loadToken(destination)
	if err != nil {
		return nil, err
	}

	var client services.PlatformClient
	switch destination {
	case models.PlatformSpotify:
		client, err = services.NewSpotifyClient(ctx, r.config.Credentials.Spotify, token, r.logger)
	case models.PlatformSoundCloud:
		client, err = services.NewSoundCloudClient(ctx, r.config.Credentials.SoundCloud, token, r.logger)
	default:
		return nil, fmt.Errorf("%w: unknown destination %q", shared.ErrInvalidArgument, destination)
	}
	if err != nil {
		return nil, err
	}

	r.clients[destination] = client
	return client, nil
}

// tokenPath stores tokens next to the database so everything lives in one
// place.
func (r *Runner) tokenPath(destination models.Platform) string {
	dir := filepath.Dir(r.config.Database.Path)
	return filepath.Join(dir, fmt.Sprintf("%s_token.json", destination))
}

func (r *Runner) loadToken(destination models.Platform) (*oauth2.Token, error) {
	data, err := os.ReadFile(r.tokenPath(destination))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: run `discosync auth %s` first", shared.ErrNotAuthenticated, destination)
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

func (r *Runner) saveToken(destination models.Platform, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	path := r.tokenPath(destination)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	r.logger.Info("token saved", "path", path)
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
