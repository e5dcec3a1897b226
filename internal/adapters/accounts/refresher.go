// Package accounts talks to the provider's accounts service for token
// refresh. The interactive authorization flow lives in the rest adapter;
// this package only handles the refresh_token grant.
package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// Refresher exchanges refresh tokens for fresh access tokens.
type Refresher struct {
	client       *resty.Client
	tokenURL     string
	clientID     string
	clientSecret string
	logger       *log.Logger
}

var _ ports.TokenRefresher = (*Refresher)(nil)

// NewRefresher constructs a Refresher. An empty tokenURL selects the real
// accounts service; tests point it at a local server.
func NewRefresher(clientID, clientSecret, tokenURL string, logger *log.Logger) *Refresher {
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	return &Refresher{
		client:       client,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Refresh performs the refresh_token grant. The response may omit a new
// refresh token, in which case the returned pair carries an empty one and
// the caller keeps the token it already holds.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	var body tokenResponse
	var errBody tokenErrorResponse

	resp, err := r.client.R().
		SetContext(ctx).
		SetBasicAuth(r.clientID, r.clientSecret).
		SetFormData(map[string]string{
			"grant_type":    "refresh_token",
			"refresh_token": refreshToken,
		}).
		SetResult(&body).
		SetError(&errBody).
		Post(r.tokenURL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("accounts: token refresh request: %w", err)
	}

	if resp.IsError() {
		r.logger.Warn("accounts: token refresh rejected", "status", resp.StatusCode(), "error", errBody.Error)
		return domain.TokenPair{}, fmt.Errorf("accounts: token refresh failed: status %d: %s", resp.StatusCode(), errBody.Error)
	}

	if body.AccessToken == "" {
		return domain.TokenPair{}, fmt.Errorf("accounts: token refresh returned no access token")
	}

	return domain.TokenPair{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}, nil
}
