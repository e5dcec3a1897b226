package services

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

const (
	maxGenrePreferences = 20
	minQualityScore     = 0.3
	releaseYearWindow   = 10
)

// neutralFeatureProfile is returned when no audio-feature records are
// available. Avoids NaN and degenerate downstream prompts.
var neutralFeatureProfile = domain.AudioFeatures{
	Energy:           0.5,
	Valence:          0.5,
	Danceability:     0.5,
	Acousticness:     0.5,
	Instrumentalness: 0.5,
	Tempo:            120,
	Loudness:         -10,
	Speechiness:      0.1,
	Liveness:         0.5,
	Mode:             0.5,
}

// AnalyzePersonality turns a raw listening snapshot into a MusicPersonality.
// It is a pure function of the snapshot: same input, same output. When the
// snapshot's data-quality score falls below the gate it returns
// ports.ErrInsufficientData instead of a low-confidence profile.
func AnalyzePersonality(snap domain.ListeningSnapshot) (domain.MusicPersonality, error) {
	if SnapshotQuality(snap) < minQualityScore {
		return domain.MusicPersonality{}, ports.ErrInsufficientData
	}

	return domain.MusicPersonality{
		Genres:              analyzeGenrePreferences(snap.TopArtists),
		AudioFeatures:       analyzeAudioFeatures(snap.AudioFeatures),
		ListeningPatterns:   analyzeListeningPatterns(snap.RecentlyPlayed),
		ArtistDiversity:     analyzeArtistDiversity(snap.TopArtists),
		TemporalPreferences: analyzeTemporalPreferences(snap.RecentlyPlayed),
		MoodProfile:         analyzeMoodProfile(snap.AudioFeatures),
		DiscoveryProfile:    analyzeDiscoveryProfile(snap),
	}, nil
}

// SnapshotQuality scores how much usable listening history the snapshot
// carries, in [0,1]. Each data source contributes a fixed share when present,
// plus a small bonus for track volume.
func SnapshotQuality(snap domain.ListeningSnapshot) float64 {
	score := 0.0
	for _, artists := range snap.TopArtists {
		if len(artists) > 0 {
			score += 0.2
			break
		}
	}
	for _, tracks := range snap.TopTracks {
		if len(tracks) > 0 {
			score += 0.2
			break
		}
	}
	if len(snap.AudioFeatures) > 0 {
		score += 0.2
	}
	if len(snap.RecentlyPlayed) > 0 {
		score += 0.15
	}
	if len(snap.SavedTracks) > 0 {
		score += 0.15
	}
	if len(snap.FollowedArtists) > 0 {
		score += 0.1
	}
	if snap.TrackVolume() >= 20 {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}
	return score
}

// timeRangeWeight weights recent listening over long-term history: 3 for
// short term, 2 for medium, 1 for long.
func timeRangeWeight(tr domain.TimeRange) float64 {
	switch tr {
	case domain.TimeRangeShort:
		return 3
	case domain.TimeRangeMedium:
		return 2
	default:
		return 1
	}
}

func analyzeGenrePreferences(topArtists map[domain.TimeRange][]domain.Artist) []domain.GenrePreference {
	weights := make(map[string]float64)
	recency := make(map[string]float64)

	for _, tr := range domain.TimeRanges {
		artists := topArtists[tr]
		rangeWeight := timeRangeWeight(tr)
		for i, artist := range artists {
			positionDecay := 1 - float64(i)/float64(len(artists))
			for _, genre := range artist.Genres {
				weights[genre] += rangeWeight * positionDecay
				if rangeWeight > recency[genre] {
					recency[genre] = rangeWeight
				}
			}
		}
	}

	prefs := make([]domain.GenrePreference, 0, len(weights))
	for genre, weight := range weights {
		confidence := recency[genre] / 3
		if confidence > 1 {
			confidence = 1
		}
		prefs = append(prefs, domain.GenrePreference{Genre: genre, Weight: weight, Confidence: confidence})
	}

	sort.Slice(prefs, func(i, j int) bool {
		if prefs[i].Weight != prefs[j].Weight {
			return prefs[i].Weight > prefs[j].Weight
		}
		return prefs[i].Genre < prefs[j].Genre
	})

	if len(prefs) > maxGenrePreferences {
		prefs = prefs[:maxGenrePreferences]
	}
	return prefs
}

func analyzeAudioFeatures(features []domain.AudioFeatures) domain.AudioFeatures {
	if len(features) == 0 {
		return neutralFeatureProfile
	}

	var sum domain.AudioFeatures
	for _, f := range features {
		sum.Energy += f.Energy
		sum.Valence += f.Valence
		sum.Danceability += f.Danceability
		sum.Acousticness += f.Acousticness
		sum.Instrumentalness += f.Instrumentalness
		sum.Tempo += f.Tempo
		sum.Loudness += f.Loudness
		sum.Speechiness += f.Speechiness
		sum.Liveness += f.Liveness
		sum.Mode += f.Mode
	}

	n := float64(len(features))
	return domain.AudioFeatures{
		Energy:           sum.Energy / n,
		Valence:          sum.Valence / n,
		Danceability:     sum.Danceability / n,
		Acousticness:     sum.Acousticness / n,
		Instrumentalness: sum.Instrumentalness / n,
		Tempo:            sum.Tempo / n,
		Loudness:         sum.Loudness / n,
		Speechiness:      sum.Speechiness / n,
		Liveness:         sum.Liveness / n,
		Mode:             sum.Mode / n,
	}
}

func analyzeListeningPatterns(recent []domain.PlayedTrack) domain.ListeningPatterns {
	if len(recent) == 0 {
		return domain.ListeningPatterns{}
	}

	counts := make(map[string]int)
	artists := make(map[string]struct{})
	for _, item := range recent {
		counts[item.Track.ID]++
		artists[item.Track.Artist] = struct{}{}
	}

	repeated := 0
	for _, c := range counts {
		if c > 1 {
			repeated++
		}
	}

	activity := float64(len(recent)) / 50
	if activity > 1 {
		activity = 1
	}

	return domain.ListeningPatterns{
		RepeatListening:     float64(repeated) / float64(len(counts)),
		DiversityScore:      float64(len(artists)) / float64(len(recent)),
		RecentActivityLevel: activity,
	}
}

func analyzeArtistDiversity(topArtists map[domain.TimeRange][]domain.Artist) domain.ArtistDiversity {
	genreCounts := make(map[string]int)
	var popularitySum float64
	var artistCount int

	for _, tr := range domain.TimeRanges {
		for _, artist := range topArtists[tr] {
			artistCount++
			popularitySum += float64(artist.Popularity)
			for _, genre := range artist.Genres {
				genreCounts[genre]++
			}
		}
	}

	if artistCount == 0 {
		return domain.ArtistDiversity{MainGenres: []string{}, NicheFactor: 1}
	}

	type genreCount struct {
		genre string
		count int
	}
	ranked := make([]genreCount, 0, len(genreCounts))
	for genre, count := range genreCounts {
		ranked = append(ranked, genreCount{genre, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].genre < ranked[j].genre
	})

	mainGenres := make([]string, 0, 5)
	for _, gc := range ranked {
		mainGenres = append(mainGenres, gc.genre)
		if len(mainGenres) == 5 {
			break
		}
	}

	mainstream := popularitySum / float64(artistCount) / 100
	return domain.ArtistDiversity{
		MainGenres:       mainGenres,
		MainstreamFactor: mainstream,
		NicheFactor:      1 - mainstream,
		GenreSpread:      len(genreCounts),
	}
}

func analyzeTemporalPreferences(recent []domain.PlayedTrack) domain.TemporalPreferences {
	var morning, afternoon, evening int
	for _, item := range recent {
		hour := item.PlayedAt.Hour()
		switch {
		case hour >= 6 && hour < 12:
			morning++
		case hour >= 12 && hour < 18:
			afternoon++
		default:
			evening++
		}
	}

	prefs := domain.TemporalPreferences{
		MorningMood:   "calm",
		AfternoonMood: "relaxed",
		EveningMood:   "party",
	}
	if morning > 0 {
		prefs.MorningMood = "energetic"
	}
	if afternoon > 0 {
		prefs.AfternoonMood = "focused"
	}
	if evening > 0 {
		prefs.EveningMood = "chill"
	}
	return prefs
}

func analyzeMoodProfile(features []domain.AudioFeatures) domain.MoodProfile {
	if len(features) == 0 {
		return domain.MoodProfile{DominantMood: domain.MoodBalanced, MoodVariability: 0.5}
	}

	var valenceSum, energySum float64
	for _, f := range features {
		valenceSum += f.Valence
		energySum += f.Energy
	}
	n := float64(len(features))
	avgValence := valenceSum / n
	avgEnergy := energySum / n

	var variance float64
	for _, f := range features {
		variance += (f.Valence - avgValence) * (f.Valence - avgValence)
	}

	return domain.MoodProfile{
		DominantMood:    classifyMood(avgValence, avgEnergy),
		MoodVariability: math.Sqrt(variance / n),
	}
}

// classifyMood is the deterministic decision table on average valence and
// energy. Order matters: the first matching row wins.
func classifyMood(valence, energy float64) domain.Mood {
	switch {
	case valence > 0.7 && energy > 0.7:
		return domain.MoodEuphoric
	case valence > 0.6 && energy > 0.6:
		return domain.MoodHappy
	case valence < 0.4 && energy < 0.4:
		return domain.MoodMelancholic
	case valence < 0.5 && energy > 0.6:
		return domain.MoodIntense
	case valence > 0.5 && energy < 0.4:
		return domain.MoodPeaceful
	default:
		return domain.MoodBalanced
	}
}

func analyzeDiscoveryProfile(snap domain.ListeningSnapshot) domain.DiscoveryProfile {
	short := snap.TopTracks[domain.TimeRangeShort]
	medium := snap.TopTracks[domain.TimeRangeMedium]

	profile := domain.DiscoveryProfile{Openness: 0.5, NewVsOld: 0.5}
	if len(short) == 0 {
		return profile
	}

	mediumIDs := make(map[string]struct{}, len(medium))
	for _, t := range medium {
		mediumIDs[t.ID] = struct{}{}
	}

	fresh := 0
	for _, t := range short {
		if _, ok := mediumIDs[t.ID]; !ok {
			fresh++
		}
	}
	openness := float64(fresh) / float64(len(short)) * 2
	if openness > 1 {
		openness = 1
	}
	profile.Openness = openness

	var yearSum, yearCount float64
	for _, t := range short {
		if year := releaseYear(t.ReleaseDate); year > 0 {
			yearSum += float64(year)
			yearCount++
		}
	}
	if yearCount > 0 {
		now := snap.TakenAt
		if now.IsZero() {
			now = time.Now()
		}
		avgYear := yearSum / yearCount
		newVsOld := (avgYear - float64(now.Year()-releaseYearWindow)) / releaseYearWindow
		if newVsOld < 0 {
			newVsOld = 0
		}
		if newVsOld > 1 {
			newVsOld = 1
		}
		profile.NewVsOld = newVsOld
	}

	return profile
}

// releaseYear parses the year out of the provider's release_date, which may
// be "2006", "2006-01" or "2006-01-02".
func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
