package tasks

import (
	"fmt"
	"strings"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/shared"
)

// PlaylistName renders the playlist name for a folder under a prefix.
func PlaylistName(prefix string, folder models.Folder) string {
	return prefix + folder.Name
}

// BuildPlan diffs the desired track list against the playlist's current
// state. Pure: no I/O, deterministic for given inputs.
//
// desired may contain duplicates (the same pressing filed twice, or one
// track resolving identically across releases); they collapse to the first
// occurrence. A duplicate in current is different: playlists store tracks
// by position, so a repeated ID means the remote state is ambiguous and the
// plan cannot be trusted.
func BuildPlan(folder models.Folder, desired []string, current *models.PlaylistState, playlistName string) (models.SyncPlan, error) {
	plan := models.SyncPlan{
		FolderID:     folder.ID,
		FolderName:   folder.Name,
		PlaylistName: playlistName,
	}

	wanted := make(map[string]struct{}, len(desired))
	var deduped []string
	for _, id := range desired {
		if _, ok := wanted[id]; ok {
			continue
		}
		wanted[id] = struct{}{}
		deduped = append(deduped, id)
	}

	if current == nil {
		plan.CreatePlaylist = true
		plan.ToAdd = deduped
		return plan, nil
	}

	plan.PlaylistID = current.ID
	have := make(map[string]struct{}, len(current.TrackIDs))
	for _, id := range current.TrackIDs {
		if _, ok := have[id]; ok {
			return models.SyncPlan{}, fmt.Errorf("%w: playlist %q lists track %s twice",
				shared.ErrReconcileConflict, current.Name, id)
		}
		have[id] = struct{}{}
	}

	for _, id := range deduped {
		if _, ok := have[id]; !ok {
			plan.ToAdd = append(plan.ToAdd, id)
		}
	}
	for _, id := range current.TrackIDs {
		if _, ok := wanted[id]; !ok {
			plan.ToRemove = append(plan.ToRemove, id)
		}
	}
	return plan, nil
}

// FindOrphanPlaylists returns prefixed playlists that no longer correspond
// to any folder. Each orphan appears exactly once even if the platform
// reports it multiple times.
func FindOrphanPlaylists(prefix string, playlists []models.PlaylistState, folders []models.Folder) []models.PlaylistState {
	expected := make(map[string]struct{}, len(folders))
	for _, folder := range folders {
		expected[PlaylistName(prefix, folder)] = struct{}{}
	}

	seen := make(map[string]struct{})
	var orphans []models.PlaylistState
	for _, playlist := range playlists {
		if !strings.HasPrefix(playlist.Name, prefix) {
			continue
		}
		if _, ok := expected[playlist.Name]; ok {
			continue
		}
		if _, ok := seen[playlist.ID]; ok {
			continue
		}
		seen[playlist.ID] = struct{}{}
		orphans = append(orphans, playlist)
	}
	return orphans
}
