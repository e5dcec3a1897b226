package spotify

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

// SearchTracks runs a track search. Zero results is not an error.
func (c *Client) SearchTracks(ctx context.Context, token, q string, limit int) ([]domain.Track, error) {
	query := url.Values{}
	query.Set("q", q)
	query.Set("type", "track")
	query.Set("limit", strconv.Itoa(limit))

	var body searchResponse
	if err := c.get(ctx, token, "search", "/search", query, &body); err != nil {
		return nil, err
	}
	return mapTracksToDomain(body.Tracks.Items), nil
}
