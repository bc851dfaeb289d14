package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/server"
	"github.com/discosync/discosync/internal/services"
	"github.com/discosync/discosync/internal/shared"
)

func authCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
	timeoutFlag := &cli.DurationFlag{
		Name:  "timeout",
		Usage: "How long to wait for the browser authorization",
		Value: 5 * time.Minute,
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize a destination platform with OAuth2",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authorize Spotify",
				Flags:  []cli.Flag{configFlag, timeoutFlag},
				Action: r.AuthSpotify,
			},
			{
				Name:   "soundcloud",
				Usage:  "Authorize SoundCloud",
				Flags:  []cli.Flag{configFlag, timeoutFlag},
				Action: r.AuthSoundCloud,
			},
		},
	}
}

// AuthSpotify runs the Spotify authorization code flow and saves the token.
func (r *Runner) AuthSpotify(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	cfg := r.config.Credentials.Spotify
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client id and secret required", shared.ErrMissingCredentials)
	}

	return r.authorize(ctx, cmd, models.PlatformSpotify, &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes: []string{
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
	})
}

// AuthSoundCloud runs the SoundCloud authorization code flow and saves the
// token.
func (r *Runner) AuthSoundCloud(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	cfg := r.config.Credentials.SoundCloud
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("%w: soundcloud client id and secret required", shared.ErrMissingCredentials)
	}

	return r.authorize(ctx, cmd, models.PlatformSoundCloud, services.NewSoundCloudOAuthConfig(cfg))
}

func (r *Runner) authorize(ctx context.Context, cmd *cli.Command, destination models.Platform, config *oauth2.Config) error {
	authCtx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	token, err := server.Authorize(authCtx, config, r.logger)
	if err != nil {
		return fmt.Errorf("%s authorization failed: %w", destination, err)
	}

	if err := r.saveToken(destination, token); err != nil {
		return err
	}
	return r.writePlainln("%s authorized", destination)
}
