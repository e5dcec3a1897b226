package domain

import "time"

// TimeRange selects the aggregation window for top artists/tracks.
type TimeRange string

const (
	TimeRangeShort  TimeRange = "short_term"
	TimeRangeMedium TimeRange = "medium_term"
	TimeRangeLong   TimeRange = "long_term"
)

// TimeRanges lists all windows in short-to-long order.
var TimeRanges = []TimeRange{TimeRangeShort, TimeRangeMedium, TimeRangeLong}

// PlayedTrack is a recently-played history entry.
type PlayedTrack struct {
	Track    Track
	PlayedAt time.Time
}

// SavedTrack is a library entry.
type SavedTrack struct {
	Track   Track
	AddedAt time.Time
}

// ListeningSnapshot is the raw provider data a personality profile is
// computed from. Sources that could not be fetched are present as empty
// collections; the aggregation engine treats absence and emptiness alike.
type ListeningSnapshot struct {
	TopArtists      map[TimeRange][]Artist
	TopTracks       map[TimeRange][]Track
	RecentlyPlayed  []PlayedTrack
	SavedTracks     []SavedTrack
	FollowedArtists []Artist
	AudioFeatures   []AudioFeatures
	TakenAt         time.Time
}

// TrackVolume counts the tracks backing the snapshot across all sources.
func (s ListeningSnapshot) TrackVolume() int {
	n := len(s.RecentlyPlayed) + len(s.SavedTracks)
	for _, tracks := range s.TopTracks {
		n += len(tracks)
	}
	return n
}
