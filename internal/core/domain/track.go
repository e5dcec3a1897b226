package domain

// Track represents a concrete provider track in the domain layer.
type Track struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	DurationMs  int    `json:"durationMs,omitempty"`
	Popularity  int    `json:"popularity,omitempty"`
	CoverURL    string `json:"coverUrl,omitempty"`
}

// CandidateTrack is a title/artist pair proposed by the completion backend,
// not yet matched to a real catalog entry.
type CandidateTrack struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Artist represents a provider artist with its genre tags.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
}

// AudioFeatures holds the numeric audio profile of a track. All fields are in
// [0,1] except Tempo (BPM) and Loudness (dB).
type AudioFeatures struct {
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
