package spotify

import (
	"context"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

// CreatePlaylist creates a private playlist owned by the given user.
func (c *Client) CreatePlaylist(ctx context.Context, token, userID, name, description string) (domain.Playlist, error) {
	payload := createPlaylistRequest{
		Name:        name,
		Description: description,
		Public:      false,
	}

	var body spotifyPlaylist
	if err := c.post(ctx, token, "create-playlist", "/users/"+userID+"/playlists", payload, &body); err != nil {
		return domain.Playlist{}, err
	}

	return domain.Playlist{
		ID:          body.ID,
		Name:        body.Name,
		Description: body.Description,
	}, nil
}

// AddTracks appends track URIs to a playlist in a single call.
func (c *Client) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	return c.post(ctx, token, "add-tracks", "/playlists/"+playlistID+"/tracks", addTracksRequest{URIs: uris}, nil)
}
