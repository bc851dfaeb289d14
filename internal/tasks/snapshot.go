package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/services"
)

// FolderSnapshot is the resolved picture of one folder: every track that
// matched on the destination, in collection order, plus the ones that did
// not.
type FolderSnapshot struct {
	Folder   models.Folder
	Resolved []models.MatchResult
	Missing  []models.TrackDescriptor
	Cached   int
	Flagged  int
}

// TrackIDs returns the resolved external IDs in collection order.
func (s FolderSnapshot) TrackIDs() []string {
	ids := make([]string, 0, len(s.Resolved))
	for _, m := range s.Resolved {
		ids = append(ids, m.Candidate.ExternalID)
	}
	return ids
}

// SnapshotBuilder walks a folder's releases and resolves each track against
// a destination platform.
type SnapshotBuilder struct {
	source   services.CollectionSource
	resolver *TrackResolver
	logger   *log.Logger
	timeout  time.Duration
}

func NewSnapshotBuilder(source services.CollectionSource, resolver *TrackResolver, timeout time.Duration, logger *log.Logger) *SnapshotBuilder {
	return &SnapshotBuilder{
		source:   source,
		resolver: resolver,
		logger:   logger,
		timeout:  timeout,
	}
}

// BuildFolder resolves every track in folder against client's platform.
// Tracks are resolved sequentially in release order so the resulting
// playlist mirrors the collection; parallelism lives at the folder level.
func (b *SnapshotBuilder) BuildFolder(ctx context.Context, client services.PlatformClient, folder models.Folder) (*FolderSnapshot, error) {
	releases, err := b.listReleases(ctx, folder)
	if err != nil {
		return nil, err
	}

	snapshot := &FolderSnapshot{Folder: folder}
	for _, release := range releases {
		tracks, err := b.source.ListReleaseTracklist(ctx, release.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read tracklist of %q: %w", release.Title, err)
		}

		for _, track := range tracks {
			resolution, err := b.resolveTrack(ctx, client, track)
			if err != nil {
				return nil, err
			}

			if resolution.Cached {
				snapshot.Cached++
			}
			if resolution.Flagged {
				snapshot.Flagged++
			}
			if resolution.Found() {
				snapshot.Resolved = append(snapshot.Resolved, *resolution.Match)
			} else {
				snapshot.Missing = append(snapshot.Missing, track)
			}
		}
	}

	b.logger.Info("folder resolved", "folder", folder.Name,
		"matched", len(snapshot.Resolved), "missing", len(snapshot.Missing),
		"cached", snapshot.Cached)
	return snapshot, nil
}

func (b *SnapshotBuilder) listReleases(ctx context.Context, folder models.Folder) ([]models.Release, error) {
	var (
		releases []models.Release
		err      error
	)
	if folder.IsWantlist() {
		releases, err = b.source.ListWantlist(ctx)
	} else {
		releases, err = b.source.ListFolderReleases(ctx, folder.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list releases of folder %q: %w", folder.Name, err)
	}
	return releases, nil
}

func (b *SnapshotBuilder) resolveTrack(ctx context.Context, client services.PlatformClient, track models.TrackDescriptor) (Resolution, error) {
	if b.timeout <= 0 {
		return b.resolver.Resolve(ctx, client, track)
	}
	resolveCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.resolver.Resolve(resolveCtx, client, track)
}
