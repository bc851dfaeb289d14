package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/discosync/discosync/internal/models"
)

// MissingTrackRepository records tracks that no platform candidate matched,
// so later runs can report them. Misses are never consulted during
// resolution; every run retries them against the platform.
type MissingTrackRepository struct {
	db *sql.DB
}

func NewMissingTrackRepository(db *sql.DB) *MissingTrackRepository {
	return &MissingTrackRepository{db: db}
}

// Save inserts or refreshes one missing-track record.
func (r *MissingTrackRepository) Save(track models.MissingTrack) error {
	searchedAt := track.SearchedAt
	if searchedAt.IsZero() {
		searchedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO missing_tracks (release_id, folder_id, track_position, artist, title, destination, searched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(release_id, track_position, destination) DO UPDATE SET
			folder_id = excluded.folder_id,
			artist = excluded.artist,
			title = excluded.title,
			searched_at = excluded.searched_at`,
		track.ReleaseID, track.FolderID, track.Position, track.Artist, track.Title,
		string(track.Destination), searchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save missing track: %w", err)
	}
	return nil
}

// ListByDestination returns missing tracks for one destination, most
// recently searched first.
func (r *MissingTrackRepository) ListByDestination(destination models.Platform) ([]models.MissingTrack, error) {
	rows, err := r.db.Query(`
		SELECT release_id, folder_id, track_position, artist, title, destination, searched_at
		FROM missing_tracks
		WHERE destination = ?
		ORDER BY searched_at DESC, artist, title`,
		string(destination),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list missing tracks: %w", err)
	}
	defer rows.Close()

	return scanMissing(rows)
}

// DeleteForFolder clears prior records for a folder ahead of a fresh sync,
// so resolved tracks stop appearing in reports.
func (r *MissingTrackRepository) DeleteForFolder(folderID int64, destination models.Platform) error {
	_, err := r.db.Exec(`DELETE FROM missing_tracks WHERE folder_id = ? AND destination = ?`,
		folderID, string(destination))
	if err != nil {
		return fmt.Errorf("failed to clear missing tracks: %w", err)
	}
	return nil
}

func scanMissing(rows *sql.Rows) ([]models.MissingTrack, error) {
	var tracks []models.MissingTrack
	for rows.Next() {
		var t models.MissingTrack
		if err := rows.Scan(&t.ReleaseID, &t.FolderID, &t.Position, &t.Artist, &t.Title, &t.Destination, &t.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan missing track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}
