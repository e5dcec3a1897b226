// Package rest provides the HTTP interface: the OAuth login flow and the
// JSON API consumed by the web frontend.
package rest

import (
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
	"github.com/ewilliams-labs/neurotunes/internal/core/services"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	orchestrator *services.Orchestrator
	tokens       *services.TokenStore
	sessions     ports.SessionRepository
	provider     ports.MusicProvider
	oauth        *oauth2.Config
	secret       []byte
	env          string
	logger       *log.Logger
	router       *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes. secret signs
// the session cookie; env toggles error detail in responses.
func NewHandler(
	orchestrator *services.Orchestrator,
	tokens *services.TokenStore,
	sessions ports.SessionRepository,
	provider ports.MusicProvider,
	oauth *oauth2.Config,
	secret []byte,
	env string,
	logger *log.Logger,
) *Handler {
	h := &Handler{
		orchestrator: orchestrator,
		tokens:       tokens,
		sessions:     sessions,
		provider:     provider,
		oauth:        oauth,
		secret:       secret,
		env:          env,
		logger:       logger,
		router:       http.NewServeMux(),
	}

	// Register Routes
	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
// It acts as a proxy, passing the request to our internal router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	// Health Check
	h.router.HandleFunc("GET /health", h.HealthCheck)
	// Authentication
	h.router.HandleFunc("GET /auth/login", h.Login)
	h.router.HandleFunc("GET /auth/callback", h.Callback)
	h.router.HandleFunc("POST /auth/logout", h.Logout)
	// API
	h.router.HandleFunc("GET /api/session", h.GetSession)
	h.router.HandleFunc("GET /api/personality", h.GetPersonality)
	h.router.HandleFunc("POST /api/generate-playlist", h.GeneratePlaylist)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "NeuroTunes is live 🎧"})
}
