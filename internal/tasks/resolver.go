package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/discosync/discosync/internal/matching"
	"github.com/discosync/discosync/internal/models"
)

// SearchClient is the slice of a platform client the resolver needs.
type SearchClient interface {
	Platform() models.Platform
	BuildQuery(artist, title string) string
	Search(ctx context.Context, query string, limit int) ([]models.Candidate, error)
}

// MatchCache is the cache surface the resolver reads and writes.
type MatchCache interface {
	Get(key models.CacheKey, ttl time.Duration) (*models.CacheEntry, error)
	Put(entry models.CacheEntry) error
}

// ResolverConfig tunes match acceptance.
type ResolverConfig struct {
	// MinConfidence is the inclusive acceptance floor.
	MinConfidence float64
	// HighConfidence short-circuits candidate scoring. Accepted matches
	// below it are flagged for review.
	HighConfidence float64
	// TTL bounds how old a cached match may be before it is re-resolved.
	TTL time.Duration
	// SearchLimit caps candidates fetched per query.
	SearchLimit int
}

// Resolution is the outcome of resolving one track.
type Resolution struct {
	Match    *models.MatchResult // nil when no candidate cleared the floor
	Cached   bool                // satisfied from the cache, no search ran
	Flagged  bool                // accepted below the high-confidence threshold
	Fallback bool                // accepted from the version-stripped fallback query
}

// Found reports whether the track resolved to a platform candidate.
func (r Resolution) Found() bool { return r.Match != nil }

// TrackResolver turns a Discogs track into a platform track ID, consulting
// the cache first and searching the platform on a miss.
//
// Misses are never cached: a track absent from the platform today may be
// uploaded tomorrow, so every run retries it.
type TrackResolver struct {
	cache  MatchCache
	scorer *matching.Scorer
	cfg    ResolverConfig
	logger *log.Logger
	now    func() time.Time
}

func NewTrackResolver(cache MatchCache, scorer *matching.Scorer, cfg ResolverConfig, logger *log.Logger) *TrackResolver {
	return &TrackResolver{
		cache:  cache,
		scorer: scorer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve resolves one track against client's platform.
//
// A platform search failure is returned as an error, never treated as "no
// match": conflating the two would let an outage poison playlists with
// false removals downstream.
func (r *TrackResolver) Resolve(ctx context.Context, client SearchClient, track models.TrackDescriptor) (Resolution, error) {
	key := models.CacheKey{
		ReleaseID:   track.ReleaseID,
		Position:    track.Position,
		Destination: client.Platform(),
	}

	if entry, err := r.cache.Get(key, r.cfg.TTL); err != nil {
		return Resolution{}, err
	} else if entry != nil {
		return Resolution{
			Cached:  true,
			Flagged: entry.Confidence < r.cfg.HighConfidence,
			Match: &models.MatchResult{
				Candidate: models.Candidate{
					ExternalID: entry.ExternalID,
					Platform:   key.Destination,
				},
				Confidence: entry.Confidence,
				MatchedAt:  entry.ResolvedAt,
			},
		}, nil
	}

	parsed := matching.ParseTitle(track.Title, track.VersionInfo)

	query := client.BuildQuery(track.Artist, parsed.SearchTitle())
	candidates, err := client.Search(ctx, query, r.cfg.SearchLimit)
	if err != nil {
		return Resolution{}, fmt.Errorf("search failed for %s: %w", track, err)
	}

	resolution := Resolution{}
	if len(candidates) == 0 && parsed.HasVersion() && parsed.AllowFallback() {
		// Retry without the version tag. Only for version types where the
		// base recording is an acceptable substitute.
		candidates, err = client.Search(ctx, client.BuildQuery(track.Artist, parsed.Base), r.cfg.SearchLimit)
		if err != nil {
			return Resolution{}, fmt.Errorf("fallback search failed for %s: %w", track, err)
		}
		resolution.Fallback = true
	}

	best, bestScore := r.pickBest(track, candidates)
	if best == nil || bestScore < r.cfg.MinConfidence {
		r.logger.Debug("no match", "track", track.String(), "best", bestScore)
		return Resolution{Fallback: resolution.Fallback}, nil
	}

	matchedAt := r.now()
	if err := r.cache.Put(models.CacheEntry{
		Key:        key,
		ExternalID: best.ExternalID,
		Confidence: bestScore,
		ResolvedAt: matchedAt,
	}); err != nil {
		return Resolution{}, err
	}

	resolution.Match = &models.MatchResult{Candidate: *best, Confidence: bestScore, MatchedAt: matchedAt}
	resolution.Flagged = bestScore < r.cfg.HighConfidence
	r.logger.Debug("matched", "track", track.String(), "id", best.ExternalID,
		"confidence", bestScore, "flagged", resolution.Flagged)
	return resolution, nil
}

// pickBest scores candidates in order, short-circuiting at the
// high-confidence threshold.
func (r *TrackResolver) pickBest(track models.TrackDescriptor, candidates []models.Candidate) (*models.Candidate, float64) {
	var (
		best      *models.Candidate
		bestScore float64
	)
	for i := range candidates {
		score := r.scorer.Score(track, candidates[i])
		if score.Total > bestScore {
			best = &candidates[i]
			bestScore = score.Total
		}
		if score.Total >= r.cfg.HighConfidence {
			break
		}
	}
	return best, bestScore
}
