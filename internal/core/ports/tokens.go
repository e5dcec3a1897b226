package ports

import (
	"context"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

// TokenRefresher exchanges a refresh token for a fresh access token at the
// provider's accounts endpoint.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)
}

// TokenSource yields a valid access token for the current session,
// refreshing transparently when stale. It returns ErrAuthExpired when the
// session cannot be made usable again without re-authentication.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
