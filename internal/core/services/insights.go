package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

// InsightsGenerator produces the natural-language enrichment of a
// personality profile. Purely descriptive: playlist generation never waits
// on or fails because of this step.
type InsightsGenerator struct {
	completer ports.TextCompleter
	logger    *log.Logger
}

// NewInsightsGenerator constructs an InsightsGenerator. A nil completer
// means the deterministic template narrative is always used.
func NewInsightsGenerator(completer ports.TextCompleter, logger *log.Logger) *InsightsGenerator {
	return &InsightsGenerator{completer: completer, logger: logger}
}

// Generate returns insights for the profile, preferring the completion
// backend and falling back to the template narrative on any failure.
func (g *InsightsGenerator) Generate(ctx context.Context, p domain.MusicPersonality) domain.PersonalityInsights {
	if g.completer == nil {
		return templateInsights(p)
	}

	text, err := g.completer.GenerateText(ctx, ports.CompletionRequest{
		Prompt:      buildInsightsPrompt(p),
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		g.logger.Warn("insights: completion failed, using template narrative", "err", err)
		return templateInsights(p)
	}

	insights, err := parseInsights(text)
	if err != nil {
		g.logger.Warn("insights: unparseable completion, using template narrative", "err", err)
		return templateInsights(p)
	}
	return insights
}

func buildInsightsPrompt(p domain.MusicPersonality) string {
	var b strings.Builder
	b.WriteString("You are a music psychologist. Describe this listener based only on the metrics below.\n\n")
	fmt.Fprintf(&b, "- Top genres: %s\n", strings.Join(p.TopGenres(5), ", "))
	fmt.Fprintf(&b, "- Dominant mood: %s (variability %.2f)\n", p.MoodProfile.DominantMood, p.MoodProfile.MoodVariability)
	fmt.Fprintf(&b, "- Energy %.2f, valence %.2f, danceability %.2f, tempo %.0f BPM\n",
		p.AudioFeatures.Energy, p.AudioFeatures.Valence, p.AudioFeatures.Danceability, p.AudioFeatures.Tempo)
	fmt.Fprintf(&b, "- Openness to new music: %.2f, new vs. old: %.2f\n", p.DiscoveryProfile.Openness, p.DiscoveryProfile.NewVsOld)
	fmt.Fprintf(&b, "- Mainstream factor: %.2f, genre spread: %d\n", p.ArtistDiversity.MainstreamFactor, p.ArtistDiversity.GenreSpread)
	fmt.Fprintf(&b, "- Repeat listening: %.2f, diversity: %.2f\n", p.ListeningPatterns.RepeatListening, p.ListeningPatterns.DiversityScore)
	b.WriteString(`
Return a strict JSON object with exactly these fields:
{"personalityType": string, "behaviorDescription": string, "moodDescription": string, "discoveryDescription": string, "socialDescription": string, "recommendations": [5 strings]}
Return ONLY the JSON object, no additional text.`)
	return b.String()
}

func parseInsights(text string) (domain.PersonalityInsights, error) {
	cleaned := stripCodeFences(text)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return domain.PersonalityInsights{}, fmt.Errorf("parse insights: no JSON object in response")
	}

	var insights domain.PersonalityInsights
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &insights); err != nil {
		return domain.PersonalityInsights{}, fmt.Errorf("parse insights: %w", err)
	}

	if insights.PersonalityType == "" || insights.BehaviorDescription == "" ||
		insights.MoodDescription == "" || insights.DiscoveryDescription == "" ||
		insights.SocialDescription == "" || len(insights.Recommendations) == 0 {
		return domain.PersonalityInsights{}, fmt.Errorf("parse insights: missing required fields")
	}
	return insights, nil
}

// templateInsights derives a narrative purely from the numeric profile, with
// no network call.
func templateInsights(p domain.MusicPersonality) domain.PersonalityInsights {
	personalityType := "The Balanced Listener"
	switch {
	case p.DiscoveryProfile.Openness > 0.6 && p.ArtistDiversity.NicheFactor > 0.5:
		personalityType = "The Explorer"
	case p.AudioFeatures.Energy > 0.7:
		personalityType = "The Energizer"
	case p.MoodProfile.DominantMood == domain.MoodPeaceful || p.MoodProfile.DominantMood == domain.MoodMelancholic:
		personalityType = "The Contemplative"
	case p.ArtistDiversity.MainstreamFactor > 0.7:
		personalityType = "The Hitmaker"
	}

	behavior := fmt.Sprintf("You listen with %.0f%% energy and gravitate towards %s.",
		p.AudioFeatures.Energy*100, orUnknown(strings.Join(p.TopGenres(3), ", ")))
	mood := fmt.Sprintf("Your dominant listening mood is %s.", p.MoodProfile.DominantMood)
	discovery := "You mostly stay with music you already know."
	if p.DiscoveryProfile.Openness > 0.6 {
		discovery = "You are constantly hunting for new music."
	} else if p.DiscoveryProfile.Openness > 0.3 {
		discovery = "You mix familiar favorites with occasional discoveries."
	}
	social := fmt.Sprintf("Your taste is %.0f%% mainstream across %d genres.",
		p.ArtistDiversity.MainstreamFactor*100, p.ArtistDiversity.GenreSpread)

	recommendations := []string{
		"Revisit a classic album from your top genre",
		"Try a curated discovery playlist once a week",
		"Explore the deep cuts of an artist you already follow",
		"Add one song outside your comfort zone to each playlist",
		"Check out live versions of your most-repeated tracks",
	}

	return domain.PersonalityInsights{
		PersonalityType:      personalityType,
		BehaviorDescription:  behavior,
		MoodDescription:      mood,
		DiscoveryDescription: discovery,
		SocialDescription:    social,
		Recommendations:      recommendations,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "a broad mix of genres"
	}
	return s
}
