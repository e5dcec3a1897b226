package domain

import "time"

// AuthError is carried on a session as data rather than raised as an
// exception. Callers must check it before trusting the access token.
type AuthError string

const (
	AuthErrorNone          AuthError = ""
	AuthErrorNoRefresh     AuthError = "NoRefreshToken"
	AuthErrorRefreshFailed AuthError = "RefreshTokenError"
)

// User is the provider account a session belongs to.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Image string `json:"image,omitempty"`
}

// TokenPair is the result of an OAuth token exchange or refresh. RefreshToken
// may be empty when the provider chose not to rotate it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Session holds the OAuth credentials and user identity for one logged-in
// browser session. Mutated only by the token store's refresh state machine.
type Session struct {
	ID           string
	User         User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AuthError    AuthError
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Stale reports whether the access token should be refreshed before use.
func (s Session) Stale(now time.Time, buffer time.Duration) bool {
	return !now.Before(s.ExpiresAt.Add(-buffer))
}
