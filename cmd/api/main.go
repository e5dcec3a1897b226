package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/neurotunes/internal/adapters/accounts"
	"github.com/ewilliams-labs/neurotunes/internal/adapters/gemini"
	"github.com/ewilliams-labs/neurotunes/internal/adapters/rest"
	"github.com/ewilliams-labs/neurotunes/internal/adapters/spotify"
	"github.com/ewilliams-labs/neurotunes/internal/adapters/sqlite"
	"github.com/ewilliams-labs/neurotunes/internal/config"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
	"github.com/ewilliams-labs/neurotunes/internal/core/services"
	"github.com/ewilliams-labs/neurotunes/internal/worker"
)

// Scopes cover everything the snapshot and playlist operations touch.
var spotifyScopes = []string{
	"user-read-email",
	"user-read-private",
	"user-top-read",
	"user-read-recently-played",
	"user-library-read",
	"user-follow-read",
	"playlist-modify-private",
	"playlist-modify-public",
}

func main() {
	// 1. Configuration (Environment Variables)
	// Crash early if required config is missing.
	logger := config.NewLogger(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration error", "err", err)
	}

	// 2. Initialize "Driven" Adapters (The Tools)
	// -- Session store
	sessionStore, err := sqlite.NewAdapter(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to initialize database", "err", err)
	}
	defer sessionStore.Close()

	// -- Accounts service (token refresh) and provider API client
	refresher := accounts.NewRefresher(cfg.SpotifyClientID, cfg.SpotifyClientSecret, "", logger)
	provider := spotify.NewClient(nil, "", logger)

	// -- Text completion, optional
	var completer ports.TextCompleter
	if cfg.GeminiAPIKey != "" {
		completer = gemini.NewClient(cfg.GeminiAPIKey, "", "")
	} else {
		logger.Warn("GEMINI_API_KEY not set, using built-in track catalog and template insights")
	}

	// 3. Initialize Core Logic (The Driver)
	// Dependency injection: adapters in, agnostic services out.
	tokens := services.NewTokenStore(sessionStore, refresher, logger)
	prompts := services.NewPromptEngine(completer, logger)
	resolver := services.NewResolver(provider, nil, logger)
	insights := services.NewInsightsGenerator(completer, logger)
	orchestrator := services.NewOrchestrator(provider, prompts, resolver, insights, logger)

	janitor := worker.NewJanitor(sessionStore, time.Hour, logger)
	janitor.Start()
	defer janitor.Stop()

	// 4. Initialize "Driving" Adapter (The Interface)
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
		RedirectURL:  cfg.RedirectURL(),
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.spotify.com/authorize",
			TokenURL: "https://accounts.spotify.com/api/token",
		},
	}

	handler := rest.NewHandler(
		orchestrator,
		tokens,
		sessionStore,
		provider,
		oauthCfg,
		[]byte(cfg.SessionSecret),
		cfg.Env,
		logger,
	)

	// 5. Start the Server
	logger.Info("🎧 NeuroTunes API is running", "addr", cfg.Addr, "env", cfg.Env)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal("server error", "err", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "err", err)
		}
	}
}
