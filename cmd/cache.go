package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/repositories"
	"github.com/discosync/discosync/internal/shared"
)

func cacheCommand(r *Runner) *cli.Command {
	configFlag := func() *cli.StringFlag {
		return &cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		}
	}

	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and maintain the track match cache",
		Commands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Show cache counts for a destination",
				ArgsUsage: "<spotify|soundcloud>",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.CacheStats,
			},
			{
				Name:      "purge",
				Usage:     "Delete stale cache entries, or everything with --all",
				ArgsUsage: "[spotify|soundcloud]",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "all", Usage: "Delete fresh entries too"},
				},
				Action: r.CachePurge,
			},
		},
	}
}

// CacheStats prints fresh and stale entry counts.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	destination, err := models.ParsePlatform(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}

	stats, err := repositories.NewMatchCacheRepository(db).Stats(destination, r.config.Sync.CacheTTL())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	return r.writePlainln("%s cache: %d entries (%d fresh, %d stale)",
		stats.Destination, stats.Total, stats.Fresh, stats.Stale)
}

// CachePurge deletes stale entries, or the whole cache with --all.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	repo := repositories.NewMatchCacheRepository(db)

	if cmd.Bool("all") {
		var destination models.Platform
		if arg := cmd.Args().First(); arg != "" {
			if destination, err = models.ParsePlatform(arg); err != nil {
				return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
			}
		}
		purged, err := repo.PurgeAll(destination)
		if err != nil {
			return err
		}
		return r.writePlainln("purged %d cache entries", purged)
	}

	purged, err := repo.PurgeStale(r.config.Sync.CacheTTL())
	if err != nil {
		return err
	}
	return r.writePlainln("purged %d stale cache entries", purged)
}
