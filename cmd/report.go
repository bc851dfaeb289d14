package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/discosync/discosync/internal/formatter"
	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/repositories"
	"github.com/discosync/discosync/internal/shared"
)

func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Report tracks that could not be matched on a destination",
		ArgsUsage: "<spotify|soundcloud>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: text, csv, or json",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to this file instead of stdout",
			},
		},
		Action: r.Report,
	}
}

// Report prints or writes the missing-track report for one destination.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	destination, err := models.ParsePlatform(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidArgument, err)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}

	tracks, err := repositories.NewMissingTrackRepository(db).ListByDestination(destination)
	if err != nil {
		return err
	}
	report := formatter.NewMissingReport(destination, tracks)

	output := cmd.String("output")
	switch cmd.String("format") {
	case "csv":
		if output != "" {
			path, err := formatter.WriteCSVReport(report, output)
			if err != nil {
				return err
			}
			return r.writePlainln("report written to %s", path)
		}
		data, err := formatter.ExportToCSV(report)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case "json":
		if output != "" {
			path, err := formatter.WriteJSONReport(report, output)
			if err != nil {
				return err
			}
			return r.writePlainln("report written to %s", path)
		}
		return r.writeJSON(report, true)
	case "text":
		data, err := formatter.ExportToText(report)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, cmd.String("format"))
	}
}
