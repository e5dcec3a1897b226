package services

import (
	"sort"
	"strings"
)

// KeywordAnalysis classifies the user's free-text keywords into known mood
// and genre buckets. Echoed back to the caller; not load-bearing for track
// selection.
type KeywordAnalysis struct {
	Moods    []string `json:"moods"`
	Genres   []string `json:"genres"`
	Keywords []string `json:"keywords"`
}

var moodKeywords = map[string][]string{
	"happy":     {"glücklich", "fröhlich", "positiv", "gut gelaunt", "happy"},
	"sad":       {"traurig", "melancholisch", "deprimiert", "down", "sad"},
	"energetic": {"energetisch", "power", "workout", "sport", "motivierend"},
	"relaxed":   {"entspannt", "chill", "ruhig", "meditation", "relaxed"},
	"party":     {"party", "feiern", "club", "dance", "tanzen"},
	"romantic":  {"romantisch", "liebe", "romantic", "love", "date"},
}

var genreKeywords = map[string][]string{
	"pop":        {"pop", "mainstream", "charts", "radio"},
	"rock":       {"rock", "alternative", "indie rock", "classic rock"},
	"hiphop":     {"hip-hop", "rap", "urban", "beats"},
	"electronic": {"electronic", "edm", "house", "techno", "dance"},
	"jazz":       {"jazz", "blues", "soul", "swing"},
	"classical":  {"klassik", "classical", "orchestra", "symphony"},
}

// AnalyzeKeywords matches keywords against the mood and genre buckets.
func AnalyzeKeywords(keywords []string) KeywordAnalysis {
	analysis := KeywordAnalysis{
		Moods:    []string{},
		Genres:   []string{},
		Keywords: keywords,
	}

	for mood, words := range moodKeywords {
		if anyKeywordContains(keywords, words) {
			analysis.Moods = append(analysis.Moods, mood)
		}
	}
	for genre, words := range genreKeywords {
		if anyKeywordContains(keywords, words) {
			analysis.Genres = append(analysis.Genres, genre)
		}
	}

	sort.Strings(analysis.Moods)
	sort.Strings(analysis.Genres)
	return analysis
}

func anyKeywordContains(keywords, words []string) bool {
	for _, keyword := range keywords {
		lowered := strings.ToLower(keyword)
		for _, word := range words {
			if strings.Contains(lowered, word) {
				return true
			}
		}
	}
	return false
}
