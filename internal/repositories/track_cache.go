package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/taan/internal/models"
	"github.com/desertthunder/taan/internal/shared"
)

// TrackFetcher resolves a track from the Web API.
type TrackFetcher func(ctx context.Context, id string) (models.Track, error)

// TrackCache answers metadata lookups from the tracks table, falling back to fetch on a miss.
//
// It satisfies playback.MetadataSource and playback.TrackRecorder.
type TrackCache struct {
	repo  *TrackRepository
	fetch TrackFetcher
}

// NewTrackCache creates a TrackCache. fetch may be nil, in which case misses are errors.
func NewTrackCache(repo *TrackRepository, fetch TrackFetcher) *TrackCache {
	return &TrackCache{repo: repo, fetch: fetch}
}

func (c *TrackCache) Lookup(ctx context.Context, id string) (models.Track, error) {
	t, err := c.repo.Get(id)
	if err == nil {
		return *t, nil
	}
	if !errors.Is(err, shared.ErrTrackNotFound) || c.fetch == nil {
		return models.Track{}, err
	}

	fetched, err := c.fetch(ctx, id)
	if err != nil {
		return models.Track{}, fmt.Errorf("failed to fetch track %s: %w", id, err)
	}
	// a failed cache write is not a failed lookup
	_ = c.repo.Upsert(&fetched)
	return fetched, nil
}

// Remember caches a track reported by the engine.
func (c *TrackCache) Remember(_ context.Context, t models.Track) error {
	return c.repo.Upsert(&t)
}
