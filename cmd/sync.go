package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/discosync/discosync/internal/matching"
	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/repositories"
	"github.com/discosync/discosync/internal/shared"
	"github.com/discosync/discosync/internal/tasks"
	"github.com/discosync/discosync/internal/ui"
)

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Sync collection folders to playlists on a destination",
		ArgsUsage: "<spotify|soundcloud>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Compute plans without changing playlists",
			},
			&cli.StringSliceFlag{
				Name:    "folder",
				Aliases: []string{"f"},
				Usage:   "Only sync folders with this name (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "skip-wantlist",
				Usage: "Do not sync the wantlist",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run result as JSON",
			},
		},
		Action: r.Sync,
	}
}

// Sync runs a full sync of the collection to one destination.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	destination, err := models.ParsePlatform(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}

	source, err := r.collectionSource()
	if err != nil {
		return err
	}
	client, err := r.platformClient(ctx, destination)
	if err != nil {
		return err
	}
	db, err := r.openDatabase()
	if err != nil {
		return err
	}

	cfg := r.config.Sync
	weights := matching.Weights{
		Artist:         r.config.Matching.ArtistWeight,
		Title:          r.config.Matching.TitleWeight,
		Verified:       r.config.Matching.VerifiedWeight,
		Popularity:     r.config.Matching.PopularityWeight,
		VersionBonus:   r.config.Matching.VersionBonusWeight,
		VersionPenalty: r.config.Matching.VersionPenaltyWeight,
	}
	resolver := tasks.NewTrackResolver(
		repositories.NewMatchCacheRepository(db),
		matching.NewScorer(weights),
		tasks.ResolverConfig{
			MinConfidence:  cfg.MinConfidence,
			HighConfidence: cfg.HighConfidence,
			TTL:            cfg.CacheTTL(),
			SearchLimit:    cfg.SearchLimit,
		},
		r.logger,
	)
	builder := tasks.NewSnapshotBuilder(source, resolver, cfg.SearchTimeout(), r.logger)

	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if update.FolderName == "" {
				continue
			}
			r.logger.Debug("progress", "phase", update.Phase, "folder", update.FolderName,
				"completed", update.Completed, "total", update.Total)
		}
	}()

	orchestrator := tasks.NewOrchestrator(tasks.OrchestratorOpts{
		Source:         source,
		Builder:        builder,
		Mappings:       repositories.NewFolderMappingRepository(db),
		Missing:        repositories.NewMissingTrackRepository(db),
		PlaylistPrefix: cfg.PlaylistPrefix,
		Workers:        cfg.Workers,
		RateLimit:      cfg.RateLimit,
		Logger:         r.logger,
		Progress:       progress,
	})

	result, err := orchestrator.Run(ctx, client, tasks.SyncOptions{
		DryRun:          cmd.Bool("dry-run"),
		Folders:         cmd.StringSlice("folder"),
		IncludeWantlist: !cmd.Bool("skip-wantlist"),
	})
	close(progress)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}
	return r.printSummary(result)
}

func (r *Runner) printSummary(result *tasks.SyncResult) error {
	mode := ""
	if result.DryRun {
		mode = " (dry run)"
	}
	if err := r.writePlainln("%s", ui.Title(fmt.Sprintf("Sync to %s%s", result.Destination, mode))); err != nil {
		return err
	}

	for _, outcome := range result.Outcomes {
		switch outcome.Status {
		case tasks.StatusFailed:
			if err := r.writePlainln("  %s %s: %v", ui.Err("✗"), outcome.Folder.Name, outcome.Err); err != nil {
				return err
			}
		case tasks.StatusSkipped:
			if err := r.writePlainln("  %s %s: up to date", ui.OK("✓"), outcome.Folder.Name); err != nil {
				return err
			}
		default:
			line := fmt.Sprintf("  %s %s: +%d -%d", ui.OK("✓"), outcome.Folder.Name,
				len(outcome.Plan.ToAdd), len(outcome.Plan.ToRemove))
			if outcome.Missing > 0 {
				line += " " + ui.Warn(fmt.Sprintf("(%d missing)", outcome.Missing))
			}
			if err := r.writePlainln("%s", line); err != nil {
				return err
			}
		}
	}

	if err := r.writePlainln(""); err != nil {
		return err
	}
	if err := r.writePlainln("  playlists created: %d  deleted: %d", result.PlaylistsCreated, result.PlaylistsDeleted); err != nil {
		return err
	}
	if err := r.writePlainln("  tracks added: %d  removed: %d  cached: %d", result.TracksAdded, result.TracksRemoved, result.TracksCached); err != nil {
		return err
	}
	if result.TracksFlagged > 0 {
		if err := r.writePlainln("  %s", ui.Warn(fmt.Sprintf("flagged for review: %d", result.TracksFlagged))); err != nil {
			return err
		}
	}
	if result.TracksMissing > 0 {
		if err := r.writePlainln("  %s", ui.Warn(fmt.Sprintf("missing tracks: %d (see `discosync report %s`)", result.TracksMissing, result.Destination))); err != nil {
			return err
		}
	}
	if result.FoldersFailed > 0 {
		if err := r.writePlainln("  %s", ui.Err(fmt.Sprintf("folders failed: %d", result.FoldersFailed))); err != nil {
			return err
		}
	}
	if result.CleanupErr != nil {
		if err := r.writePlainln("  %s", ui.Err(fmt.Sprintf("orphan cleanup failed: %v", result.CleanupErr))); err != nil {
			return err
		}
	}
	return r.writePlainln("  run %s finished in %s", result.RunID, result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
}
