package spotify

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

// Me resolves the current user's profile.
func (c *Client) Me(ctx context.Context, token string) (domain.User, error) {
	var body spotifyUser
	if err := c.get(ctx, token, "me", "/me", nil, &body); err != nil {
		return domain.User{}, err
	}

	image := ""
	if len(body.Images) > 0 {
		image = body.Images[0].URL
	}
	return domain.User{
		ID:    body.ID,
		Name:  body.DisplayName,
		Email: body.Email,
		Image: image,
	}, nil
}

// TopArtists fetches the user's top artists for one time range.
func (c *Client) TopArtists(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.Artist, error) {
	query := url.Values{}
	query.Set("time_range", string(tr))
	query.Set("limit", strconv.Itoa(limit))

	var body pagedArtists
	if err := c.get(ctx, token, "top-artists", "/me/top/artists", query, &body); err != nil {
		return nil, err
	}
	return mapArtistsToDomain(body.Items), nil
}

// TopTracks fetches the user's top tracks for one time range.
func (c *Client) TopTracks(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.Track, error) {
	query := url.Values{}
	query.Set("time_range", string(tr))
	query.Set("limit", strconv.Itoa(limit))

	var body pagedTracks
	if err := c.get(ctx, token, "top-tracks", "/me/top/tracks", query, &body); err != nil {
		return nil, err
	}
	return mapTracksToDomain(body.Items), nil
}

// RecentlyPlayed fetches the listening history.
func (c *Client) RecentlyPlayed(ctx context.Context, token string, limit int) ([]domain.PlayedTrack, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var body recentlyPlayedPage
	if err := c.get(ctx, token, "recently-played", "/me/player/recently-played", query, &body); err != nil {
		return nil, err
	}

	played := make([]domain.PlayedTrack, 0, len(body.Items))
	for _, item := range body.Items {
		played = append(played, domain.PlayedTrack{
			Track:    mapTrackToDomain(item.Track),
			PlayedAt: item.PlayedAt,
		})
	}
	return played, nil
}

// SavedTracks fetches the user's library.
func (c *Client) SavedTracks(ctx context.Context, token string, limit int) ([]domain.SavedTrack, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var body savedTracksPage
	if err := c.get(ctx, token, "saved-tracks", "/me/tracks", query, &body); err != nil {
		return nil, err
	}

	saved := make([]domain.SavedTrack, 0, len(body.Items))
	for _, item := range body.Items {
		saved = append(saved, domain.SavedTrack{
			Track:   mapTrackToDomain(item.Track),
			AddedAt: item.AddedAt,
		})
	}
	return saved, nil
}

// FollowedArtists fetches the artists the user follows.
func (c *Client) FollowedArtists(ctx context.Context, token string, limit int) ([]domain.Artist, error) {
	query := url.Values{}
	query.Set("type", "artist")
	query.Set("limit", strconv.Itoa(limit))

	var body followedArtistsPage
	if err := c.get(ctx, token, "followed-artists", "/me/following", query, &body); err != nil {
		return nil, err
	}
	return mapArtistsToDomain(body.Artists.Items), nil
}
