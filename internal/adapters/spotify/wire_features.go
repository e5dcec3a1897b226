package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

// featureBatchSize is the provider's hard limit on ids per bulk request.
const featureBatchSize = 50

// AudioFeatures fetches feature records for the given track ids in batches.
// Batches rejected with 403/429 degrade to sequential per-track fetches;
// batches failing for other reasons are skipped. The call returns partial
// results rather than failing as a whole.
func (c *Client) AudioFeatures(ctx context.Context, token string, trackIDs []string) ([]domain.AudioFeatures, error) {
	ids := dedupeIDs(trackIDs)
	if len(ids) == 0 {
		return []domain.AudioFeatures{}, nil
	}

	features := make([]domain.AudioFeatures, 0, len(ids))
	for start := 0; start < len(ids); start += featureBatchSize {
		end := start + featureBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		// Sequential across batches with pacing, to stay clear of the
		// provider's rate limits.
		if err := c.limiter.Wait(ctx); err != nil {
			return features, err
		}

		batchFeatures, err := c.audioFeaturesBatch(ctx, token, batch)
		if err == nil {
			features = append(features, batchFeatures...)
			continue
		}

		var apiErr *ports.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusForbidden || apiErr.Status == http.StatusTooManyRequests) {
			c.logger.Warn("spotify adapter: bulk audio features rejected, fetching individually", "status", apiErr.Status, "batch", len(batch))
			features = append(features, c.audioFeaturesIndividually(ctx, token, batch)...)
			continue
		}

		if ctx.Err() != nil {
			return features, ctx.Err()
		}
		c.logger.Warn("spotify adapter: skipping audio-features batch", "batch", len(batch), "err", err)
	}

	return features, nil
}

func (c *Client) audioFeaturesBatch(ctx context.Context, token string, ids []string) ([]domain.AudioFeatures, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	var body struct {
		AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
	}
	if err := c.get(ctx, token, "audio-features", "/audio-features", query, &body); err != nil {
		return nil, err
	}

	features := make([]domain.AudioFeatures, 0, len(body.AudioFeatures))
	for _, f := range body.AudioFeatures {
		// The provider returns null entries for tracks it has no analysis for.
		if f == nil || f.ID == "" {
			continue
		}
		features = append(features, mapFeaturesToDomain(*f))
	}
	return features, nil
}

// audioFeaturesIndividually is the degraded path after a 403/429: one request
// per track, paced, failures skipped.
func (c *Client) audioFeaturesIndividually(ctx context.Context, token string, ids []string) []domain.AudioFeatures {
	features := make([]domain.AudioFeatures, 0, len(ids))
	for _, id := range ids {
		if err := c.limiter.Wait(ctx); err != nil {
			return features
		}

		var f spotifyAudioFeatures
		if err := c.get(ctx, token, "audio-features", "/audio-features/"+id, nil, &f); err != nil {
			if ctx.Err() != nil {
				return features
			}
			c.logger.Debug("spotify adapter: audio features unavailable for track", "track", id, "err", err)
			continue
		}
		if f.ID == "" {
			continue
		}
		features = append(features, mapFeaturesToDomain(f))
	}
	return features
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
