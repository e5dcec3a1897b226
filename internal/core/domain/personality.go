package domain

import (
	"fmt"
	"strings"
)

// GenrePreference is one weighted genre in the listening profile.
// Weight is a time-decayed, position-decayed accumulation count; Confidence
// reflects how recent the supporting data is.
type GenrePreference struct {
	Genre      string  `json:"genre"`
	Weight     float64 `json:"weight"`
	Confidence float64 `json:"confidence"`
}

// ListeningPatterns summarizes recent listening behavior.
type ListeningPatterns struct {
	RepeatListening     float64 `json:"repeatListening"`
	DiversityScore      float64 `json:"diversityScore"`
	RecentActivityLevel float64 `json:"recentActivityLevel"`
}

// ArtistDiversity summarizes how broad and how mainstream the taste is.
type ArtistDiversity struct {
	MainGenres       []string `json:"mainGenres"`
	MainstreamFactor float64  `json:"mainstreamFactor"`
	NicheFactor      float64  `json:"nicheFactor"`
	GenreSpread      int      `json:"genreSpread"`
}

// TemporalPreferences holds the coarse time-of-day listening moods.
type TemporalPreferences struct {
	MorningMood   string `json:"morningMood"`
	AfternoonMood string `json:"afternoonMood"`
	EveningMood   string `json:"eveningMood"`
}

// Mood is the dominant emotional register of the profile.
type Mood string

const (
	MoodEuphoric    Mood = "euphoric"
	MoodHappy       Mood = "happy"
	MoodMelancholic Mood = "melancholic"
	MoodIntense     Mood = "intense"
	MoodPeaceful    Mood = "peaceful"
	MoodBalanced    Mood = "balanced"
)

// MoodProfile classifies the dominant mood and its variability.
type MoodProfile struct {
	DominantMood    Mood    `json:"dominantMood"`
	MoodVariability float64 `json:"moodVariability"`
}

// DiscoveryProfile measures openness to new music.
type DiscoveryProfile struct {
	Openness float64 `json:"openness"`
	NewVsOld float64 `json:"newVsOld"`
}

// PersonalityInsights is the natural-language enrichment of the profile.
// Descriptive only; playlist selection never depends on it.
type PersonalityInsights struct {
	PersonalityType      string   `json:"personalityType"`
	BehaviorDescription  string   `json:"behaviorDescription"`
	MoodDescription      string   `json:"moodDescription"`
	DiscoveryDescription string   `json:"discoveryDescription"`
	SocialDescription    string   `json:"socialDescription"`
	Recommendations      []string `json:"recommendations"`
}

// MusicPersonality is the immutable statistical profile derived from one
// listening snapshot. It is a pure function of the snapshot and holds no
// reference back to the session or token.
type MusicPersonality struct {
	Genres              []GenrePreference    `json:"genres"`
	AudioFeatures       AudioFeatures        `json:"audioFeatures"`
	ListeningPatterns   ListeningPatterns    `json:"listeningPatterns"`
	ArtistDiversity     ArtistDiversity      `json:"artistDiversity"`
	TemporalPreferences TemporalPreferences  `json:"temporalPreferences"`
	MoodProfile         MoodProfile          `json:"moodProfile"`
	DiscoveryProfile    DiscoveryProfile     `json:"discoveryProfile"`
	Insights            *PersonalityInsights `json:"insights,omitempty"`
}

// TopGenres returns up to n genre names in descending weight order.
func (p MusicPersonality) TopGenres(n int) []string {
	if n > len(p.Genres) {
		n = len(p.Genres)
	}
	names := make([]string, 0, n)
	for _, g := range p.Genres[:n] {
		names = append(names, g.Genre)
	}
	return names
}

// Summary renders a short human-readable tag suitable for a playlist
// description.
func (p MusicPersonality) Summary() string {
	summary := fmt.Sprintf("%s (%.0f%% energy)", p.MoodProfile.DominantMood, p.AudioFeatures.Energy*100)
	if genres := p.TopGenres(3); len(genres) > 0 {
		summary += " | " + strings.Join(genres, ", ")
	}
	return summary
}
