package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/discosync/discosync/internal/models"
	"github.com/discosync/discosync/internal/shared"
)

// MatchCacheRepository stores resolved track matches keyed by
// (release, track position, destination). Entries never expire on disk;
// staleness is evaluated against the TTL at read time, so a TTL change
// applies to existing rows immediately.
type MatchCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

// CacheStats summarizes the cache contents for one destination.
type CacheStats struct {
	Destination models.Platform
	Total       int
	Fresh       int
	Stale       int
}

func NewMatchCacheRepository(db *sql.DB) *MatchCacheRepository {
	return &MatchCacheRepository{db: db, now: time.Now}
}

// Get returns the cached entry for key if one exists and is younger than
// ttl. Both a miss and a stale entry return (nil, nil).
func (r *MatchCacheRepository) Get(key models.CacheKey, ttl time.Duration) (*models.CacheEntry, error) {
	if !key.Destination.Valid() {
		return nil, fmt.Errorf("%w: unknown destination %q", shared.ErrCacheInconsistent, key.Destination)
	}

	row := r.db.QueryRow(`
		SELECT external_id, confidence, resolved_at
		FROM matched_tracks
		WHERE release_id = ? AND track_position = ? AND destination = ?`,
		key.ReleaseID, key.Position, string(key.Destination),
	)

	entry := models.CacheEntry{Key: key}
	err := row.Scan(&entry.ExternalID, &entry.Confidence, &entry.ResolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read match cache: %w", err)
	}

	if r.now().Sub(entry.ResolvedAt) >= ttl {
		return nil, nil
	}
	return &entry, nil
}

// Put inserts or overwrites the entry for its key. Concurrent writers for
// the same key resolve last-writer-wins.
func (r *MatchCacheRepository) Put(entry models.CacheEntry) error {
	if !entry.Key.Destination.Valid() {
		return fmt.Errorf("%w: unknown destination %q", shared.ErrCacheInconsistent, entry.Key.Destination)
	}
	if entry.ExternalID == "" {
		return fmt.Errorf("%w: empty external id for release %d position %q",
			shared.ErrCacheInconsistent, entry.Key.ReleaseID, entry.Key.Position)
	}

	resolvedAt := entry.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = r.now()
	}

	_, err := r.db.Exec(`
		INSERT INTO matched_tracks (release_id, track_position, destination, external_id, confidence, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(release_id, track_position, destination) DO UPDATE SET
			external_id = excluded.external_id,
			confidence = excluded.confidence,
			resolved_at = excluded.resolved_at`,
		entry.Key.ReleaseID, entry.Key.Position, string(entry.Key.Destination),
		entry.ExternalID, entry.Confidence, resolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write match cache: %w", err)
	}
	return nil
}

// Stats counts fresh and stale entries for one destination under ttl.
func (r *MatchCacheRepository) Stats(destination models.Platform, ttl time.Duration) (CacheStats, error) {
	stats := CacheStats{Destination: destination}
	cutoff := r.now().Add(-ttl)

	row := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(resolved_at > ?), 0)
		FROM matched_tracks
		WHERE destination = ?`,
		cutoff, string(destination),
	)
	if err := row.Scan(&stats.Total, &stats.Fresh); err != nil {
		return stats, fmt.Errorf("failed to count match cache: %w", err)
	}
	stats.Stale = stats.Total - stats.Fresh
	return stats, nil
}

// PurgeStale deletes entries older than ttl and returns how many were
// removed.
func (r *MatchCacheRepository) PurgeStale(ttl time.Duration) (int64, error) {
	cutoff := r.now().Add(-ttl)
	res, err := r.db.Exec(`DELETE FROM matched_tracks WHERE resolved_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge match cache: %w", err)
	}
	return res.RowsAffected()
}

// PurgeAll empties the cache for one destination, or for every destination
// when destination is empty.
func (r *MatchCacheRepository) PurgeAll(destination models.Platform) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if destination == "" {
		res, err = r.db.Exec(`DELETE FROM matched_tracks`)
	} else {
		res, err = r.db.Exec(`DELETE FROM matched_tracks WHERE destination = ?`, string(destination))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to purge match cache: %w", err)
	}
	return res.RowsAffected()
}
