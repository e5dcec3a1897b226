package spotify

import (
	"context"
	"sync"
	"time"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

const (
	snapshotSourceLimit = 50
	// snapshotFeatureCap bounds the feature fetch regardless of how many
	// distinct tracks the sources yield.
	snapshotFeatureCap = 100
)

// FetchSnapshot gathers all listening sources concurrently. A failed source
// degrades to an empty slice so one flaky endpoint cannot sink the whole
// snapshot; the personality analysis downstream scores whatever arrived.
func (c *Client) FetchSnapshot(ctx context.Context, token string) (domain.ListeningSnapshot, error) {
	snap := domain.ListeningSnapshot{
		TopArtists: make(map[domain.TimeRange][]domain.Artist, len(domain.TimeRanges)),
		TopTracks:  make(map[domain.TimeRange][]domain.Track, len(domain.TimeRanges)),
		TakenAt:    time.Now(),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, tr := range domain.TimeRanges {
		tr := tr
		wg.Add(1)
		go func() {
			defer wg.Done()
			artists, err := c.TopArtists(ctx, token, tr, snapshotSourceLimit)
			if err != nil {
				c.logger.Warn("spotify adapter: snapshot source failed", "source", "top-artists", "range", tr, "err", err)
				artists = []domain.Artist{}
			}
			mu.Lock()
			snap.TopArtists[tr] = artists
			mu.Unlock()
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			tracks, err := c.TopTracks(ctx, token, tr, snapshotSourceLimit)
			if err != nil {
				c.logger.Warn("spotify adapter: snapshot source failed", "source", "top-tracks", "range", tr, "err", err)
				tracks = []domain.Track{}
			}
			mu.Lock()
			snap.TopTracks[tr] = tracks
			mu.Unlock()
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		played, err := c.RecentlyPlayed(ctx, token, snapshotSourceLimit)
		if err != nil {
			c.logger.Warn("spotify adapter: snapshot source failed", "source", "recently-played", "err", err)
			played = []domain.PlayedTrack{}
		}
		mu.Lock()
		snap.RecentlyPlayed = played
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		saved, err := c.SavedTracks(ctx, token, snapshotSourceLimit)
		if err != nil {
			c.logger.Warn("spotify adapter: snapshot source failed", "source", "saved-tracks", "err", err)
			saved = []domain.SavedTrack{}
		}
		mu.Lock()
		snap.SavedTracks = saved
		mu.Unlock()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		followed, err := c.FollowedArtists(ctx, token, snapshotSourceLimit)
		if err != nil {
			c.logger.Warn("spotify adapter: snapshot source failed", "source", "followed-artists", "err", err)
			followed = []domain.Artist{}
		}
		mu.Lock()
		snap.FollowedArtists = followed
		mu.Unlock()
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return domain.ListeningSnapshot{}, err
	}

	featureIDs := snapshotTrackIDs(snap)
	features, err := c.AudioFeatures(ctx, token, featureIDs)
	if err != nil {
		c.logger.Warn("spotify adapter: snapshot audio features failed", "err", err)
		features = []domain.AudioFeatures{}
	}
	snap.AudioFeatures = features

	return snap, nil
}

// snapshotTrackIDs selects the tracks whose features feed the analysis:
// short and medium term favorites plus recent history and library, deduped
// and capped.
func snapshotTrackIDs(snap domain.ListeningSnapshot) []string {
	ids := make([]string, 0, snapshotFeatureCap)
	seen := make(map[string]struct{}, snapshotFeatureCap)

	add := func(id string) bool {
		if id == "" {
			return len(ids) < snapshotFeatureCap
		}
		if _, dup := seen[id]; dup {
			return len(ids) < snapshotFeatureCap
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		return len(ids) < snapshotFeatureCap
	}

	for _, t := range snap.TopTracks[domain.TimeRangeShort] {
		if !add(t.ID) {
			return ids
		}
	}
	for _, t := range snap.TopTracks[domain.TimeRangeMedium] {
		if !add(t.ID) {
			return ids
		}
	}
	for _, p := range snap.RecentlyPlayed {
		if !add(p.Track.ID) {
			return ids
		}
	}
	for _, s := range snap.SavedTracks {
		if !add(s.Track.ID) {
			return ids
		}
	}
	return ids
}
