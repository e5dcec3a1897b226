package rest

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

const (
	sessionCookieName = "neurotunes_session"
	stateCookieName   = "neurotunes_oauth_state"

	sessionCookieTTL = 30 * 24 * time.Hour
	stateCookieTTL   = 10 * time.Minute
)

var errNoSession = errors.New("rest: no valid session")

// Login starts the authorization-code flow: a state nonce in a short-lived
// cookie, then a redirect to the provider's consent page.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback finishes the flow: verifies the state nonce, exchanges the code,
// resolves the user's profile, persists the session row and hands the browser
// a signed session cookie.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Warn("rest: authorization denied", "error", errParam)
		writeError(w, http.StatusUnauthorized, "authorization denied")
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "state mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("rest: code exchange failed", "err", err)
		writeError(w, http.StatusUnauthorized, "code exchange failed")
		return
	}

	user, err := h.provider.Me(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("rest: profile lookup failed", "err", err)
		writeError(w, http.StatusBadGateway, "profile lookup failed")
		return
	}

	now := time.Now()
	sess := domain.Session{
		ID:           uuid.NewString(),
		User:         user,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.sessions.Create(r.Context(), sess); err != nil {
		h.logger.Error("rest: session create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	signed, err := h.signSessionToken(sess.ID, now)
	if err != nil {
		h.logger.Error("rest: session token signing failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(sessionCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.env == "production",
	})
	// Clear the state nonce.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/", MaxAge: -1})

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout destroys the server-side session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid, err := h.sessionID(r); err == nil {
		if err := h.sessions.Delete(r.Context(), sid); err != nil {
			h.logger.Warn("rest: session delete failed", "session", sid, "err", err)
		}
	}

	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Path: "/", MaxAge: -1, HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetSession reports the signed-in user. Tokens never leave the server; an
// auth error is reported as data so the frontend can prompt a re-login.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.currentSession(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":      sess.User,
		"expiresAt": sess.ExpiresAt,
		"error":     string(sess.AuthError),
	})
}

func (h *Handler) signSessionToken(sessionID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionCookieTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// sessionID extracts and verifies the session id from the signed cookie.
func (h *Handler) sessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", errNoSession
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("rest: unexpected signing method %v", t.Header["alg"])
		}
		return h.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", errNoSession
	}
	return claims.Subject, nil
}

// currentSession loads the session behind the request cookie, refreshing the
// access token when stale.
func (h *Handler) currentSession(r *http.Request) (domain.Session, error) {
	sid, err := h.sessionID(r)
	if err != nil {
		return domain.Session{}, err
	}

	sess, err := h.tokens.Access(r.Context(), sid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Session{}, errNoSession
		}
		return domain.Session{}, err
	}
	return sess, nil
}
