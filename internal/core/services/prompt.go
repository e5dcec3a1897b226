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

const (
	maxCandidates         = 20
	completionTemperature = 0.7
	completionMaxTokens   = 1000
)

// PromptEngine builds generation prompts, invokes the completion backend and
// turns its answer into candidate tracks. It never fails: any completion or
// parse problem falls back to the static catalog.
type PromptEngine struct {
	completer ports.TextCompleter
	logger    *log.Logger
}

// NewPromptEngine constructs a PromptEngine. The completer may be nil, in
// which case every request goes straight to the fallback catalog.
func NewPromptEngine(completer ports.TextCompleter, logger *log.Logger) *PromptEngine {
	return &PromptEngine{completer: completer, logger: logger}
}

// SuggestTracks returns up to 20 candidates for the given keywords,
// personality-biased when a profile is supplied.
func (e *PromptEngine) SuggestTracks(ctx context.Context, keywords []string, personality *domain.MusicPersonality) []domain.CandidateTrack {
	if e.completer == nil {
		return fallbackCandidates(keywords)
	}

	var prompt string
	if personality != nil {
		prompt = buildPersonalityPrompt(keywords, *personality)
	} else {
		prompt = buildStandardPrompt(keywords)
	}

	text, err := e.completer.GenerateText(ctx, ports.CompletionRequest{
		Prompt:      prompt,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		e.logger.Warn("prompt engine: completion failed, using fallback catalog", "err", err)
		return fallbackCandidates(keywords)
	}

	candidates, err := ParseCandidates(text)
	if err != nil {
		e.logger.Warn("prompt engine: unparseable completion, using fallback catalog", "err", err)
		return fallbackCandidates(keywords)
	}

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return candidates
}

func buildStandardPrompt(keywords []string) string {
	var b strings.Builder
	b.WriteString("You are a music expert and playlist curator. Create a playlist based on these keywords: ")
	b.WriteString(strings.Join(keywords, ", "))
	b.WriteString(".\n\n")
	b.WriteString("Analyze the keywords and pick 20 songs matching the desired mood and style.\n")
	b.WriteString("Consider the emotional tone of the keywords, fitting genres, well-known songs available on streaming services, and a good mix of artists.\n\n")
	b.WriteString(outputFormatInstruction)
	return b.String()
}

func buildPersonalityPrompt(keywords []string, p domain.MusicPersonality) string {
	topGenres := strings.Join(p.TopGenres(5), ", ")

	var b strings.Builder
	b.WriteString("You are an AI music curator building a personalized playlist for a listener with this profile:\n\n")
	fmt.Fprintf(&b, "- Preferred genres: %s\n", topGenres)
	fmt.Fprintf(&b, "- Dominant mood: %s\n", p.MoodProfile.DominantMood)
	fmt.Fprintf(&b, "- Energy level: %.0f%%\n", p.AudioFeatures.Energy*100)
	fmt.Fprintf(&b, "- Positivity: %.0f%%\n", p.AudioFeatures.Valence*100)
	fmt.Fprintf(&b, "- Danceability: %.0f%%\n", p.AudioFeatures.Danceability*100)
	fmt.Fprintf(&b, "- Average tempo: %.0f BPM\n", p.AudioFeatures.Tempo)
	fmt.Fprintf(&b, "- Openness to new music: %.0f%%\n", p.DiscoveryProfile.Openness*100)
	fmt.Fprintf(&b, "- Mainstream vs. niche: %.0f%% mainstream\n", p.ArtistDiversity.MainstreamFactor*100)
	fmt.Fprintf(&b, "- New vs. old music: %.0f%% new\n", p.DiscoveryProfile.NewVsOld*100)
	b.WriteString("\nCurrent request keywords: ")
	b.WriteString(strings.Join(keywords, ", "))
	b.WriteString("\n\nCreate a playlist of 20 songs matching the keywords AND the listener's profile.\n")
	fmt.Fprintf(&b, "Roughly 70%% of the songs should come from the preferred genres (%s); the rest may be related or complementary genres.\n", topGenres)
	b.WriteString("Respect the energy level and mood preference, and mix well-known and lesser-known songs according to the listener's openness.\n\n")
	b.WriteString(outputFormatInstruction)
	return b.String()
}

const outputFormatInstruction = `Format the output as a JSON array of objects with "title" and "artist".
Example: [{"title": "Song Name", "artist": "Artist Name"}, ...]
Return ONLY the JSON array, with no additional text or explanation.`

// ParseCandidates extracts a candidate list from a completion response,
// tolerating Markdown fences and surrounding prose, with one repair pass
// before giving up.
func ParseCandidates(text string) ([]domain.CandidateTrack, error) {
	cleaned := stripCodeFences(text)

	payload, err := sliceJSONArray(cleaned)
	if err != nil {
		return nil, err
	}

	candidates, err := decodeCandidates(payload)
	if err == nil {
		return candidates, nil
	}

	// Repair pass: models sometimes annotate entries with parenthetical
	// comments or stray whitespace that breaks strict JSON.
	repaired := strings.Join(strings.Fields(stripParentheticals(payload)), " ")
	candidates, repairErr := decodeCandidates(repaired)
	if repairErr != nil {
		return nil, fmt.Errorf("parse candidates: %w", err)
	}
	return candidates, nil
}

// stripParentheticals removes round-bracket comments only; square brackets
// are JSON structure and must survive.
func stripParentheticals(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

func stripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func sliceJSONArray(text string) (string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("parse candidates: no JSON array in response")
	}
	return text[start : end+1], nil
}

func decodeCandidates(payload string) ([]domain.CandidateTrack, error) {
	var raw []domain.CandidateTrack
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, err
	}

	candidates := make([]domain.CandidateTrack, 0, len(raw))
	for _, c := range raw {
		if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Artist) == "" {
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no usable candidates in response")
	}
	return candidates, nil
}

// fallbackCatalog is served when the completion backend is unavailable or
// returns garbage. Keyword filtering keeps it loosely on-topic.
var fallbackCatalog = []domain.CandidateTrack{
	{Title: "Weightless", Artist: "Marconi Union"},
	{Title: "Clair de Lune", Artist: "Claude Debussy"},
	{Title: "Mad World", Artist: "Gary Jules"},
	{Title: "Uptown Funk", Artist: "Mark Ronson ft. Bruno Mars"},
	{Title: "Can't Stop the Feeling!", Artist: "Justin Timberlake"},
	{Title: "Happy", Artist: "Pharrell Williams"},
	{Title: "I Gotta Feeling", Artist: "The Black Eyed Peas"},
	{Title: "Party Rock Anthem", Artist: "LMFAO"},
	{Title: "Good as Hell", Artist: "Lizzo"},
	{Title: "Summer", Artist: "Calvin Harris"},
	{Title: "Blinding Lights", Artist: "The Weeknd"},
	{Title: "Levitating", Artist: "Dua Lipa"},
	{Title: "Don't Stop Believin'", Artist: "Journey"},
	{Title: "Bohemian Rhapsody", Artist: "Queen"},
	{Title: "Sweet Child O' Mine", Artist: "Guns N' Roses"},
	{Title: "Shape of You", Artist: "Ed Sheeran"},
	{Title: "Anti-Hero", Artist: "Taylor Swift"},
	{Title: "As It Was", Artist: "Harry Styles"},
	{Title: "God's Plan", Artist: "Drake"},
	{Title: "HUMBLE.", Artist: "Kendrick Lamar"},
}

func fallbackCandidates(keywords []string) []domain.CandidateTrack {
	var filtered []domain.CandidateTrack
	for _, song := range fallbackCatalog {
		for _, keyword := range keywords {
			kw := strings.ToLower(keyword)
			if strings.Contains(strings.ToLower(song.Title), kw) ||
				strings.Contains(strings.ToLower(song.Artist), kw) {
				filtered = append(filtered, song)
				break
			}
		}
	}

	if len(filtered) < 1 {
		filtered = fallbackCatalog
	}
	if len(filtered) > maxCandidates {
		filtered = filtered[:maxCandidates]
	}
	return filtered
}
