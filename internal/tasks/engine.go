package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/repositories"
	"github.com/discosync/discosync/internal/services"
	"github.com/discosync/discosync/internal/shared"
)

// OutcomeStatus describes how a folder's sync ended.
type OutcomeStatus string

const (
	// StatusApplied means the plan was executed against the platform.
	StatusApplied OutcomeStatus = "applied"
	// StatusPlanned means dry run: the plan was computed but not executed.
	StatusPlanned OutcomeStatus = "planned"
	// StatusSkipped means the playlist already matched the collection.
	StatusSkipped OutcomeStatus = "skipped"
	// StatusFailed means this folder errored; other folders proceed.
	StatusFailed OutcomeStatus = "failed"
)

// SyncOptions selects what a run covers.
type SyncOptions struct {
	// DryRun computes plans without touching the platform or the database.
	DryRun bool
	// Folders restricts the run to folders with these names. Empty means
	// all folders.
	Folders []string
	// IncludeWantlist adds the wantlist as a synthetic folder.
	IncludeWantlist bool
}

// FolderOutcome is the result of syncing one folder.
type FolderOutcome struct {
	Folder  models.Folder
	Status  OutcomeStatus
	Plan    models.SyncPlan
	Cached  int
	Flagged int
	Missing int
	Err     error
}

// SyncResult aggregates a whole run.
type SyncResult struct {
	RunID            string
	Destination      models.Platform
	DryRun           bool
	StartedAt        time.Time
	FinishedAt       time.Time
	Outcomes         []FolderOutcome
	Orphans          []models.PlaylistState
	PlaylistsCreated int
	PlaylistsDeleted int
	TracksAdded      int
	TracksRemoved    int
	TracksMissing    int
	TracksFlagged    int
	TracksCached     int
	FoldersFailed    int
	// CleanupErr is set when orphan cleanup failed after the folders
	// already synced; the per-folder outcomes above still stand.
	CleanupErr error
}

// Orchestrator drives a full sync run: folders resolve and apply in
// parallel, each isolated from the others' failures, with cleanup of
// orphaned playlists at the end.
type Orchestrator struct {
	source   services.CollectionSource
	builder  *SnapshotBuilder
	mappings *repositories.FolderMappingRepository
	missing  *repositories.MissingTrackRepository
	prefix   string
	workers  int
	limiter  *rate.Limiter
	logger   *log.Logger
	progress chan<- ProgressUpdate
}

type OrchestratorOpts struct {
	Source         services.CollectionSource
	Builder        *SnapshotBuilder
	Mappings       *repositories.FolderMappingRepository
	Missing        *repositories.MissingTrackRepository
	PlaylistPrefix string
	Workers        int
	RateLimit      float64
	Logger         *log.Logger
	// Progress receives advisory updates; sends never block.
	Progress chan<- ProgressUpdate
}

func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	limit := rate.Limit(opts.RateLimit)
	if opts.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &Orchestrator{
		source:   opts.Source,
		builder:  opts.Builder,
		mappings: opts.Mappings,
		missing:  opts.Missing,
		prefix:   opts.PlaylistPrefix,
		workers:  workers,
		limiter:  rate.NewLimiter(limit, workers),
		logger:   opts.Logger,
		progress: opts.Progress,
	}
}

type folderJob struct {
	folder    models.Folder
	playlists *playlistIndex
}

// Run syncs the selected folders to client's platform.
func (o *Orchestrator) Run(ctx context.Context, client services.PlatformClient, opts SyncOptions) (*SyncResult, error) {
	result := &SyncResult{
		RunID:       shared.GenerateID(),
		Destination: client.Platform(),
		DryRun:      opts.DryRun,
		StartedAt:   time.Now(),
	}
	logger := shared.WithLogger(o.logger, "run", result.RunID, "destination", client.Platform())
	logger.Info("sync started", "dry_run", opts.DryRun)

	o.sendProgress(ProgressUpdate{Phase: PhaseListing})
	folders, universe, err := o.selectFolders(ctx, opts)
	if err != nil {
		return nil, err
	}

	playlists, err := client.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	index := newPlaylistIndex(playlists)

	jobs := make(chan folderJob)
	results := make(chan FolderOutcome)

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := o.limiter.Wait(ctx); err != nil {
					results <- FolderOutcome{Folder: job.folder, Status: StatusFailed, Err: err}
					continue
				}
				results <- o.syncFolder(ctx, client, job, opts.DryRun)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, folder := range folders {
			select {
			case jobs <- folderJob{folder: folder, playlists: index}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for outcome := range results {
		completed++
		o.sendProgress(ProgressUpdate{
			Phase:      PhaseApplying,
			FolderName: outcome.Folder.Name,
			Completed:  completed,
			Total:      len(folders),
		})
		o.tally(result, outcome)
	}

	o.sendProgress(ProgressUpdate{Phase: PhaseCleanup})
	if err := o.cleanupOrphans(ctx, client, playlists, universe, opts.DryRun, result); err != nil {
		result.CleanupErr = err
		logger.Error("orphan cleanup failed", "error", err)
	}

	result.FinishedAt = time.Now()
	o.sendProgress(ProgressUpdate{Phase: PhaseDone, Completed: completed, Total: len(folders)})
	logger.Info("sync finished",
		"folders", len(folders), "failed", result.FoldersFailed,
		"added", result.TracksAdded, "removed", result.TracksRemoved,
		"missing", result.TracksMissing)
	return result, nil
}

// selectFolders returns the folders to sync this run plus the full folder
// universe. Orphan detection runs against the universe so a filtered or
// wantlist-skipping run never mistakes an unselected folder's playlist for
// an orphan.
func (o *Orchestrator) selectFolders(ctx context.Context, opts SyncOptions) (selected, universe []models.Folder, err error) {
	folders, err := o.source.ListFolders(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list collection folders: %w", err)
	}
	universe = append(folders, models.Wantlist())

	selected = folders
	if opts.IncludeWantlist {
		selected = universe
	}
	if len(opts.Folders) == 0 {
		return selected, universe, nil
	}

	wanted := make(map[string]struct{}, len(opts.Folders))
	for _, name := range opts.Folders {
		wanted[strings.ToLower(name)] = struct{}{}
	}

	var filtered []models.Folder
	for _, folder := range selected {
		if _, ok := wanted[strings.ToLower(folder.Name)]; ok {
			filtered = append(filtered, folder)
		}
	}
	if len(filtered) == 0 {
		return nil, nil, fmt.Errorf("%w: no folder matches %v", shared.ErrInvalidArgument, opts.Folders)
	}
	return filtered, universe, nil
}

// syncFolder resolves, plans, and (unless dry run) applies one folder. Any
// error is captured in the outcome so the rest of the run proceeds.
func (o *Orchestrator) syncFolder(ctx context.Context, client services.PlatformClient, job folderJob, dryRun bool) FolderOutcome {
	folder := job.folder
	outcome := FolderOutcome{Folder: folder}

	o.sendProgress(ProgressUpdate{Phase: PhaseResolving, FolderName: folder.Name})
	snapshot, err := o.builder.BuildFolder(ctx, client, folder)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}
	outcome.Cached = snapshot.Cached
	outcome.Flagged = snapshot.Flagged
	outcome.Missing = len(snapshot.Missing)

	o.sendProgress(ProgressUpdate{Phase: PhaseReconciling, FolderName: folder.Name})
	plan, err := o.planFolder(client.Platform(), folder, snapshot, job.playlists)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}
	outcome.Plan = plan

	if dryRun {
		outcome.Status = StatusPlanned
		return outcome
	}
	if plan.Empty() {
		// The playlist needs no changes, but the missing-track records
		// still have to reflect this run's resolution results.
		if err := o.recordMissing(client.Platform(), folder, snapshot.Missing); err != nil {
			outcome.Status = StatusFailed
			outcome.Err = err
			return outcome
		}
		outcome.Status = StatusSkipped
		return outcome
	}

	if err := o.applyPlan(ctx, client, folder, snapshot, &outcome.Plan); err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}
	outcome.Status = StatusApplied
	return outcome
}

// planFolder locates the target playlist and diffs it. A saved mapping
// takes precedence over name lookup so a renamed folder keeps its playlist.
func (o *Orchestrator) planFolder(destination models.Platform, folder models.Folder, snapshot *FolderSnapshot, index *playlistIndex) (models.SyncPlan, error) {
	playlistName := PlaylistName(o.prefix, folder)

	var current *models.PlaylistState
	mapping, err := o.mappings.Get(folder.ID, destination)
	if err != nil {
		return models.SyncPlan{}, err
	}
	if mapping != nil {
		current = index.byID(mapping.PlaylistID)
	}
	if current == nil {
		current = index.byName(playlistName)
	}

	plan, err := BuildPlan(folder, snapshot.TrackIDs(), current, playlistName)
	if err != nil {
		return models.SyncPlan{}, err
	}
	plan.Missing = snapshot.Missing
	return plan, nil
}

func (o *Orchestrator) applyPlan(ctx context.Context, client services.PlatformClient, folder models.Folder, snapshot *FolderSnapshot, plan *models.SyncPlan) error {
	if plan.CreatePlaylist {
		created, err := client.CreatePlaylist(ctx, plan.PlaylistName)
		if err != nil {
			return err
		}
		plan.PlaylistID = created.ID
	}

	if len(plan.ToAdd) > 0 {
		if err := client.AddTracks(ctx, plan.PlaylistID, plan.ToAdd); err != nil {
			return err
		}
	}
	if len(plan.ToRemove) > 0 {
		if err := client.RemoveTracks(ctx, plan.PlaylistID, plan.ToRemove); err != nil {
			return err
		}
	}

	if err := o.mappings.Save(models.FolderMapping{
		FolderID:     folder.ID,
		FolderName:   folder.Name,
		Destination:  client.Platform(),
		PlaylistID:   plan.PlaylistID,
		PlaylistName: plan.PlaylistName,
	}); err != nil {
		return err
	}

	return o.recordMissing(client.Platform(), folder, snapshot.Missing)
}

// recordMissing replaces the folder's missing-track records with this run's
// misses, so the report always reflects the latest attempt.
func (o *Orchestrator) recordMissing(destination models.Platform, folder models.Folder, missing []models.TrackDescriptor) error {
	if err := o.missing.DeleteForFolder(folder.ID, destination); err != nil {
		return err
	}
	for _, track := range missing {
		if err := o.missing.Save(models.MissingTrack{
			ReleaseID:   track.ReleaseID,
			FolderID:    folder.ID,
			Position:    track.Position,
			Artist:      track.Artist,
			Title:       track.Title,
			Destination: destination,
		}); err != nil {
			return err
		}
	}
	return nil
}

// cleanupOrphans deletes prefixed playlists that no longer map to a folder,
// along with their stale mappings. Runs once per sync, after all folders.
func (o *Orchestrator) cleanupOrphans(ctx context.Context, client services.PlatformClient, playlists []models.PlaylistState, folders []models.Folder, dryRun bool, result *SyncResult) error {
	result.Orphans = FindOrphanPlaylists(o.prefix, playlists, folders)
	if dryRun {
		return nil
	}

	for _, orphan := range result.Orphans {
		if err := client.DeletePlaylist(ctx, orphan.ID); err != nil {
			return fmt.Errorf("failed to delete orphan playlist %q: %w", orphan.Name, err)
		}
		result.PlaylistsDeleted++
		o.logger.Info("deleted orphan playlist", "name", orphan.Name)
	}

	live := make(map[int64]struct{}, len(folders))
	for _, folder := range folders {
		live[folder.ID] = struct{}{}
	}
	mappings, err := o.mappings.ListByDestination(client.Platform())
	if err != nil {
		return err
	}
	for _, mapping := range mappings {
		if _, ok := live[mapping.FolderID]; ok {
			continue
		}
		if err := o.mappings.Delete(mapping.FolderID, client.Platform()); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) tally(result *SyncResult, outcome FolderOutcome) {
	result.Outcomes = append(result.Outcomes, outcome)
	result.TracksCached += outcome.Cached
	result.TracksFlagged += outcome.Flagged
	result.TracksMissing += outcome.Missing

	switch outcome.Status {
	case StatusFailed:
		result.FoldersFailed++
		o.logger.Error("folder sync failed", "folder", outcome.Folder.Name, "error", outcome.Err)
	case StatusApplied, StatusPlanned:
		result.TracksAdded += len(outcome.Plan.ToAdd)
		result.TracksRemoved += len(outcome.Plan.ToRemove)
		if outcome.Plan.CreatePlaylist {
			result.PlaylistsCreated++
		}
	}
}

// sendProgress delivers an update without ever blocking the sync on a slow
// consumer.
func (o *Orchestrator) sendProgress(update ProgressUpdate) {
	if o.progress == nil {
		return
	}
	select {
	case o.progress <- update:
	default:
	}
}

// playlistIndex is a read-only lookup over the platform's playlists,
// shared by all workers.
type playlistIndex struct {
	names map[string]*models.PlaylistState
	ids   map[string]*models.PlaylistState
}

func newPlaylistIndex(playlists []models.PlaylistState) *playlistIndex {
	index := &playlistIndex{
		names: make(map[string]*models.PlaylistState, len(playlists)),
		ids:   make(map[string]*models.PlaylistState, len(playlists)),
	}
	for i := range playlists {
		p := &playlists[i]
		index.ids[p.ID] = p
		if _, ok := index.names[p.Name]; !ok {
			index.names[p.Name] = p
		}
	}
	return index
}

func (i *playlistIndex) byName(name string) *models.PlaylistState { return i.names[name] }
func (i *playlistIndex) byID(id string) *models.PlaylistState     { return i.ids[id] }
