package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
	"github.com/ewilliams-labs/neurotunes/internal/core/services"
)

type generateRequest struct {
	Keywords           []string `json:"keywords"`
	UsePersonalization bool     `json:"usePersonalization"`
}

// GeneratePlaylist handles POST /api/generate-playlist
func (h *Handler) GeneratePlaylist(w http.ResponseWriter, r *http.Request) {
	sess, err := h.currentSession(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	if sess.AuthError != domain.AuthErrorNone {
		writeError(w, http.StatusUnauthorized, "session expired, please sign in again")
		return
	}

	// 1. Decode Request
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	keywords := make([]string, 0, len(req.Keywords))
	for _, kw := range req.Keywords {
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		writeError(w, http.StatusBadRequest, "keywords are required")
		return
	}

	// 2. Call Service
	result, err := h.orchestrator.GeneratePlaylist(r.Context(), h.tokens.Source(sess.ID), services.GenerateRequest{
		Keywords:           keywords,
		UsePersonalization: req.UsePersonalization,
	})
	if err != nil {
		h.respondGenerateError(w, err)
		return
	}

	// 3. Respond
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"playlist": result,
	})
}

func (h *Handler) respondGenerateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNoTracksResolved):
		writeError(w, http.StatusNotFound, "no matching songs found")
	case errors.Is(err, ports.ErrAuthExpired):
		writeError(w, http.StatusUnauthorized, "session expired, please sign in again")
	default:
		h.logger.Error("rest: playlist generation failed", "err", err)
		if h.env == "production" {
			writeError(w, http.StatusInternalServerError, "playlist generation failed")
			return
		}
		writeErrorWithDetails(w, http.StatusInternalServerError, "playlist generation failed", err.Error())
	}
}

// GetPersonality handles GET /api/personality
func (h *Handler) GetPersonality(w http.ResponseWriter, r *http.Request) {
	sess, err := h.currentSession(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	if sess.AuthError != domain.AuthErrorNone {
		writeError(w, http.StatusUnauthorized, "session expired, please sign in again")
		return
	}

	personality, err := h.orchestrator.Personality(r.Context(), h.tokens.Source(sess.ID))
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrInsufficientData):
			writeError(w, http.StatusUnprocessableEntity, "not enough listening history to build a profile")
		case errors.Is(err, ports.ErrAuthExpired):
			writeError(w, http.StatusUnauthorized, "session expired, please sign in again")
		default:
			h.logger.Error("rest: personality analysis failed", "err", err)
			writeError(w, http.StatusInternalServerError, "personality analysis failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"personality": personality,
	})
}
