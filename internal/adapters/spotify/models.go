package spotify

import (
	"strings"
	"time"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

// Wire types for the provider API, based on the documented response shapes.

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyArtist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

type spotifyAlbum struct {
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []spotifyImage `json:"images"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	URI        string          `json:"uri"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMs int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
}

type spotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Images      []spotifyImage `json:"images"`
}

type spotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Danceability     float64 `json:"danceability"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Tempo            float64 `json:"tempo"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Liveness         float64 `json:"liveness"`
	Mode             float64 `json:"mode"`
}

type pagedArtists struct {
	Items []spotifyArtist `json:"items"`
}

type pagedTracks struct {
	Items []spotifyTrack `json:"items"`
}

type playedItem struct {
	Track    spotifyTrack `json:"track"`
	PlayedAt time.Time    `json:"played_at"`
}

type recentlyPlayedPage struct {
	Items []playedItem `json:"items"`
}

type savedItem struct {
	AddedAt time.Time    `json:"added_at"`
	Track   spotifyTrack `json:"track"`
}

type savedTracksPage struct {
	Items []savedItem `json:"items"`
}

// followedArtistsPage is the cursor envelope of the following endpoint.
type followedArtistsPage struct {
	Artists struct {
		Items []spotifyArtist `json:"items"`
	} `json:"artists"`
}

type searchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyPlaylist struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// mapTrackToDomain flattens the nested wire track into the domain shape.
func mapTrackToDomain(st spotifyTrack) domain.Track {
	artistNames := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		artistNames = append(artistNames, a.Name)
	}

	coverURL := ""
	if len(st.Album.Images) > 0 {
		coverURL = st.Album.Images[0].URL
	}

	return domain.Track{
		ID:          st.ID,
		URI:         st.URI,
		Title:       st.Name,
		Artist:      strings.Join(artistNames, ", "),
		Album:       st.Album.Name,
		ReleaseDate: st.Album.ReleaseDate,
		DurationMs:  st.DurationMs,
		Popularity:  st.Popularity,
		CoverURL:    coverURL,
	}
}

func mapArtistToDomain(sa spotifyArtist) domain.Artist {
	genres := sa.Genres
	if genres == nil {
		genres = []string{}
	}
	return domain.Artist{
		ID:         sa.ID,
		Name:       sa.Name,
		Genres:     genres,
		Popularity: sa.Popularity,
	}
}

func mapFeaturesToDomain(f spotifyAudioFeatures) domain.AudioFeatures {
	return domain.AudioFeatures{
		Energy:           f.Energy,
		Valence:          f.Valence,
		Danceability:     f.Danceability,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Tempo:            f.Tempo,
		Loudness:         f.Loudness,
		Speechiness:      f.Speechiness,
		Liveness:         f.Liveness,
		Mode:             f.Mode,
	}
}

func mapTracksToDomain(items []spotifyTrack) []domain.Track {
	tracks := make([]domain.Track, 0, len(items))
	for _, st := range items {
		tracks = append(tracks, mapTrackToDomain(st))
	}
	return tracks
}

func mapArtistsToDomain(items []spotifyArtist) []domain.Artist {
	artists := make([]domain.Artist, 0, len(items))
	for _, sa := range items {
		artists = append(artists, mapArtistToDomain(sa))
	}
	return artists
}
