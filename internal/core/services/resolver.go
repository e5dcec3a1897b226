package services

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

const (
	maxResolvedTracks    = 20
	minPrimaryResolution = 10
	searchResultLimit    = 5
)

// Resolver matches candidate tracks against the provider's catalog. It
// processes candidates sequentially with a rate-limit safety margin between
// search calls.
type Resolver struct {
	provider ports.MusicProvider
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewResolver constructs a Resolver. The limiter paces search requests; pass
// nil to search without delays (tests).
func NewResolver(provider ports.MusicProvider, limiter *rate.Limiter, logger *log.Logger) *Resolver {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Resolver{provider: provider, limiter: limiter, logger: logger}
}

// Resolve matches candidates one by one until 20 tracks are found or the
// candidates are exhausted. Unresolvable candidates are skipped, never fatal.
func (r *Resolver) Resolve(ctx context.Context, auth ports.TokenSource, candidates []domain.CandidateTrack) ([]domain.Track, error) {
	resolved := make([]domain.Track, 0, maxResolvedTracks)
	seen := make(map[string]struct{})

	for _, candidate := range candidates {
		if len(resolved) >= maxResolvedTracks {
			break
		}

		track, err := r.resolveOne(ctx, auth, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return resolved, ctx.Err()
			}
			r.logger.Debug("resolver: candidate skipped", "title", candidate.Title, "artist", candidate.Artist, "err", err)
			continue
		}

		if _, dup := seen[track.ID]; dup {
			continue
		}
		seen[track.ID] = struct{}{}
		resolved = append(resolved, track)
	}

	return resolved, nil
}

// resolveOne works through the query ladder until one formulation yields a
// confident match.
func (r *Resolver) resolveOne(ctx context.Context, auth ports.TokenSource, candidate domain.CandidateTrack) (domain.Track, error) {
	title := normalizeTrackString(candidate.Title)
	artist := normalizeTrackString(candidate.Artist)

	queries := []string{
		fmt.Sprintf("track:%q artist:%q", title, artist),
		fmt.Sprintf("%q %q", title, artist),
		fmt.Sprintf("%s %s", title, artist),
		stripPunctuation(title + " " + artist),
	}

	for _, query := range queries {
		if err := r.limiter.Wait(ctx); err != nil {
			return domain.Track{}, err
		}

		token, err := auth.Token(ctx)
		if err != nil {
			return domain.Track{}, err
		}

		results, err := r.provider.SearchTracks(ctx, token, query, searchResultLimit)
		if err != nil {
			return domain.Track{}, err
		}
		if len(results) == 0 {
			continue
		}

		if track, ok := bestMatch(candidate, results); ok {
			return track, nil
		}
	}

	return domain.Track{}, &ports.NoConfidentMatchError{Title: candidate.Title, Artist: candidate.Artist}
}

// bestMatch picks the highest-scoring result above the confidence threshold.
func bestMatch(candidate domain.CandidateTrack, results []domain.Track) (domain.Track, bool) {
	bestScore := 0.0
	bestIndex := -1
	for i, result := range results {
		score, ok := matchScore(candidate.Title, candidate.Artist, result.Title, result.Artist)
		if ok && score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}
	if bestIndex == -1 {
		return domain.Track{}, false
	}
	return results[bestIndex], true
}

// Supplement runs broader searches to top up a short track list, deduplicated
// by provider id against what is already resolved.
func (r *Resolver) Supplement(ctx context.Context, auth ports.TokenSource, queries []string, resolved []domain.Track) ([]domain.Track, error) {
	seen := make(map[string]struct{}, len(resolved))
	for _, t := range resolved {
		seen[t.ID] = struct{}{}
	}

	for _, query := range queries {
		if len(resolved) >= maxResolvedTracks {
			break
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return resolved, err
		}

		token, err := auth.Token(ctx)
		if err != nil {
			return resolved, err
		}

		results, err := r.provider.SearchTracks(ctx, token, query, maxResolvedTracks-len(resolved))
		if err != nil {
			if ctx.Err() != nil {
				return resolved, ctx.Err()
			}
			r.logger.Warn("resolver: supplemental search failed", "query", query, "err", err)
			continue
		}

		for _, track := range results {
			if _, dup := seen[track.ID]; dup {
				continue
			}
			seen[track.ID] = struct{}{}
			resolved = append(resolved, track)
			if len(resolved) >= maxResolvedTracks {
				break
			}
		}
	}

	return resolved, nil
}
