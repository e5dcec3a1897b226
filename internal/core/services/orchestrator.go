package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

// ErrNoTracksResolved means no candidate survived resolution, including the
// supplemental pass. The only genuinely user-visible generation failure.
var ErrNoTracksResolved = errors.New("service: no matching tracks found")

// Orchestrator runs the playlist-generation pipeline: snapshot → personality
// → prompt → resolution → playlist assembly.
type Orchestrator struct {
	provider ports.MusicProvider
	prompts  *PromptEngine
	resolver *Resolver
	insights *InsightsGenerator
	logger   *log.Logger
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(provider ports.MusicProvider, prompts *PromptEngine, resolver *Resolver, insights *InsightsGenerator, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		prompts:  prompts,
		resolver: resolver,
		insights: insights,
		logger:   logger,
	}
}

// GenerateRequest is one playlist-generation request.
type GenerateRequest struct {
	Keywords           []string
	UsePersonalization bool
}

// GenerateResult echoes the created playlist plus the inputs that shaped it.
// The playlist is embedded so its id, name and tracks serialize at the top
// level of the response object rather than one layer down.
type GenerateResult struct {
	domain.Playlist
	Keywords     []string                 `json:"keywords"`
	Analysis     KeywordAnalysis          `json:"analysis"`
	Personality  *domain.MusicPersonality `json:"personality,omitempty"`
	TrackCount   int                      `json:"trackCount"`
	Personalized bool                     `json:"personalized"`
}

// GeneratePlaylist creates a real playlist in the user's provider account
// from keywords and, when available, the listening-history profile.
func (o *Orchestrator) GeneratePlaylist(ctx context.Context, auth ports.TokenSource, req GenerateRequest) (GenerateResult, error) {
	analysis := AnalyzeKeywords(req.Keywords)

	var personality *domain.MusicPersonality
	if req.UsePersonalization {
		if p, err := o.Personality(ctx, auth); err == nil {
			personality = &p
		} else if errors.Is(err, ports.ErrInsufficientData) {
			o.logger.Info("orchestrator: not enough listening data, generating from keywords only")
		} else if errors.Is(err, ports.ErrAuthExpired) {
			return GenerateResult{}, err
		} else {
			o.logger.Warn("orchestrator: personality analysis failed, generating from keywords only", "err", err)
		}
	}

	candidates := o.prompts.SuggestTracks(ctx, req.Keywords, personality)

	tracks, err := o.resolver.Resolve(ctx, auth, candidates)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("service: resolve candidates: %w", err)
	}

	if len(tracks) < minPrimaryResolution {
		queries := supplementalQueries(req.Keywords, personality)
		tracks, err = o.resolver.Supplement(ctx, auth, queries, tracks)
		if err != nil {
			return GenerateResult{}, fmt.Errorf("service: supplemental search: %w", err)
		}
	}

	if len(tracks) == 0 {
		return GenerateResult{}, ErrNoTracksResolved
	}

	playlist, err := o.assemble(ctx, auth, req.Keywords, personality, tracks)
	if err != nil {
		return GenerateResult{}, err
	}

	return GenerateResult{
		Playlist:     playlist,
		Keywords:     req.Keywords,
		Analysis:     analysis,
		Personality:  personality,
		TrackCount:   len(playlist.Tracks),
		Personalized: personality != nil,
	}, nil
}

// Personality fetches a fresh listening snapshot and aggregates it, enriched
// with the narrative insights when a completer is configured.
func (o *Orchestrator) Personality(ctx context.Context, auth ports.TokenSource) (domain.MusicPersonality, error) {
	token, err := auth.Token(ctx)
	if err != nil {
		return domain.MusicPersonality{}, err
	}

	snapshot, err := o.provider.FetchSnapshot(ctx, token)
	if err != nil {
		return domain.MusicPersonality{}, fmt.Errorf("service: fetch listening snapshot: %w", err)
	}

	personality, err := AnalyzePersonality(snapshot)
	if err != nil {
		return domain.MusicPersonality{}, err
	}

	if o.insights != nil {
		insights := o.insights.Generate(ctx, personality)
		personality.Insights = &insights
	}

	return personality, nil
}

// supplementalQueries broadens the search when the primary pass resolved too
// few tracks: the raw keywords, then top genres, then the dominant mood.
func supplementalQueries(keywords []string, personality *domain.MusicPersonality) []string {
	queries := []string{strings.Join(keywords, " ")}
	if personality != nil {
		for _, genre := range personality.TopGenres(3) {
			queries = append(queries, genre)
		}
		queries = append(queries, string(personality.MoodProfile.DominantMood))
	}
	return queries
}

func (o *Orchestrator) assemble(ctx context.Context, auth ports.TokenSource, keywords []string, personality *domain.MusicPersonality, tracks []domain.Track) (domain.Playlist, error) {
	token, err := auth.Token(ctx)
	if err != nil {
		return domain.Playlist{}, err
	}

	user, err := o.provider.Me(ctx, token)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("service: resolve user id: %w", err)
	}

	name := "NeuroTunes: " + strings.Join(keywords, ", ")
	description := "Generated with NeuroTunes based on: " + strings.Join(keywords, ", ")
	if personality != nil {
		description += " | Personality: " + personality.Summary()
	}

	playlist, err := o.provider.CreatePlaylist(ctx, token, user.ID, name, description)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("service: create playlist: %w", err)
	}

	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.URI != "" {
			uris = append(uris, t.URI)
		}
	}

	// One bulk call; the 20-track cap keeps this far below the provider's
	// per-call URI limit.
	if len(uris) > 0 {
		if err := o.provider.AddTracks(ctx, token, playlist.ID, uris); err != nil {
			return domain.Playlist{}, fmt.Errorf("service: add tracks: %w", err)
		}
	}

	playlist.Tracks = tracks
	playlist.Description = description
	return playlist, nil
}
