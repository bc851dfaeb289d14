package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

func foldersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "folders",
		Usage: "List Discogs collection folders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Folders,
	}
}

// Folders lists the user's collection folders.
func (r *Runner) Folders(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	source, err := r.collectionSource()
	if err != nil {
		return err
	}

	folders, err := source.ListFolders(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(folders, true)
	}

	for _, folder := range folders {
		if err := r.writePlainln("%d\t%s (%d releases)", folder.ID, folder.Name, folder.Count); err != nil {
			return err
		}
	}
	return nil
}
