package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/discosync/discosync/internal/models"
)

// FolderMappingRepository persists which playlist each Discogs folder syncs
// to on each destination, so renamed folders keep writing to the playlist
// they created.
type FolderMappingRepository struct {
	db *sql.DB
}

func NewFolderMappingRepository(db *sql.DB) *FolderMappingRepository {
	return &FolderMappingRepository{db: db}
}

// Get returns the mapping for (folderID, destination), or (nil, nil) when
// none exists.
func (r *FolderMappingRepository) Get(folderID int64, destination models.Platform) (*models.FolderMapping, error) {
	row := r.db.QueryRow(`
		SELECT folder_id, folder_name, destination, playlist_id, playlist_name, created_at
		FROM folder_mappings
		WHERE folder_id = ? AND destination = ?`,
		folderID, string(destination),
	)

	var m models.FolderMapping
	err := row.Scan(&m.FolderID, &m.FolderName, &m.Destination, &m.PlaylistID, &m.PlaylistName, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read folder mapping: %w", err)
	}
	return &m, nil
}

// Save inserts or updates the mapping for its (folder, destination) pair.
func (r *FolderMappingRepository) Save(m models.FolderMapping) error {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO folder_mappings (folder_id, folder_name, destination, playlist_id, playlist_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(folder_id, destination) DO UPDATE SET
			folder_name = excluded.folder_name,
			playlist_id = excluded.playlist_id,
			playlist_name = excluded.playlist_name`,
		m.FolderID, m.FolderName, string(m.Destination), m.PlaylistID, m.PlaylistName, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save folder mapping: %w", err)
	}
	return nil
}

// Delete removes the mapping for (folderID, destination). Deleting a
// missing mapping is not an error.
func (r *FolderMappingRepository) Delete(folderID int64, destination models.Platform) error {
	_, err := r.db.Exec(`DELETE FROM folder_mappings WHERE folder_id = ? AND destination = ?`,
		folderID, string(destination))
	if err != nil {
		return fmt.Errorf("failed to delete folder mapping: %w", err)
	}
	return nil
}

// ListByDestination returns every mapping for one destination, oldest first.
func (r *FolderMappingRepository) ListByDestination(destination models.Platform) ([]models.FolderMapping, error) {
	rows, err := r.db.Query(`
		SELECT folder_id, folder_name, destination, playlist_id, playlist_name, created_at
		FROM folder_mappings
		WHERE destination = ?
		ORDER BY created_at`,
		string(destination),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.FolderMapping
	for rows.Next() {
		var m models.FolderMapping
		if err := rows.Scan(&m.FolderID, &m.FolderName, &m.Destination, &m.PlaylistID, &m.PlaylistName, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}
