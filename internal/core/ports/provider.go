package ports

import (
	"context"
	"fmt"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

// APIError describes a non-2xx response (or a network failure, Status 0)
// from one of the provider's REST endpoints.
type APIError struct {
	Status   int
	Endpoint string
	Body     string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("provider: %s request failed", e.Endpoint)
	}
	return fmt.Sprintf("provider: %s status %d", e.Endpoint, e.Status)
}

// AuthFailure reports whether the error means the bearer token was rejected.
func (e *APIError) AuthFailure() bool {
	return e.Status == 401 || e.Status == 403
}

// MusicProvider is the typed surface of the streaming provider's REST API.
// Every method takes the bearer access token explicitly; the token store
// decides what token that is.
type MusicProvider interface {
	Me(ctx context.Context, token string) (domain.User, error)
	TopArtists(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.Artist, error)
	TopTracks(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.Track, error)
	RecentlyPlayed(ctx context.Context, token string, limit int) ([]domain.PlayedTrack, error)
	SavedTracks(ctx context.Context, token string, limit int) ([]domain.SavedTrack, error)
	FollowedArtists(ctx context.Context, token string, limit int) ([]domain.Artist, error)

	// AudioFeatures returns whatever feature records could be fetched for the
	// given ids. Partial results are normal; it never fails the whole call
	// because one batch was rejected.
	AudioFeatures(ctx context.Context, token string, trackIDs []string) ([]domain.AudioFeatures, error)

	// SearchTracks returns up to limit candidates. Zero results is an empty
	// slice, not an error.
	SearchTracks(ctx context.Context, token string, query string, limit int) ([]domain.Track, error)

	// CreatePlaylist is NOT idempotent: every call creates a new playlist.
	// Callers must not blindly retry after ambiguous network failures.
	CreatePlaylist(ctx context.Context, token string, userID, name, description string) (domain.Playlist, error)
	AddTracks(ctx context.Context, token string, playlistID string, uris []string) error

	// FetchSnapshot fans out the profile data sources concurrently and
	// substitutes empty collections for sources that failed.
	FetchSnapshot(ctx context.Context, token string) (domain.ListeningSnapshot, error)
}
