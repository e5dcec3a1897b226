package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

const (
	// Tokens are treated as stale this long before their actual expiry so an
	// in-flight API call never races the deadline.
	refreshBuffer = 5 * time.Minute

	refreshRetries    = 2
	refreshRetryDelay = 500 * time.Millisecond
)

// TokenStore owns the access/refresh token state machine for every session.
// It serializes refresh attempts per session: concurrent callers observing a
// stale token all wait on a single in-flight refresh.
type TokenStore struct {
	repo      ports.SessionRepository
	refresher ports.TokenRefresher
	logger    *log.Logger
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]*refreshCall
}

type refreshCall struct {
	done    chan struct{}
	session domain.Session
	err     error
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(repo ports.SessionRepository, refresher ports.TokenRefresher, logger *log.Logger) *TokenStore {
	return &TokenStore{
		repo:      repo,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
		inflight:  make(map[string]*refreshCall),
	}
}

// Access loads the session and returns it with a usable access token,
// refreshing first when stale. Refresh failures are carried as data on the
// session (AuthError), never as a returned error; the returned error is
// reserved for repository problems.
func (s *TokenStore) Access(ctx context.Context, sessionID string) (domain.Session, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("token store: load session: %w", err)
	}

	if sess.AuthError != domain.AuthErrorNone {
		return sess, nil
	}
	if !sess.Stale(s.now(), refreshBuffer) {
		return sess, nil
	}

	return s.refresh(ctx, sess)
}

// refresh runs the REFRESHING transition with single-flight semantics.
func (s *TokenStore) refresh(ctx context.Context, sess domain.Session) (domain.Session, error) {
	s.mu.Lock()
	if call, ok := s.inflight[sess.ID]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.session, call.err
		case <-ctx.Done():
			return domain.Session{}, ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	s.inflight[sess.ID] = call
	s.mu.Unlock()

	call.session, call.err = s.doRefresh(ctx, sess)

	s.mu.Lock()
	delete(s.inflight, sess.ID)
	s.mu.Unlock()
	close(call.done)

	return call.session, call.err
}

func (s *TokenStore) doRefresh(ctx context.Context, sess domain.Session) (domain.Session, error) {
	if sess.RefreshToken == "" {
		s.logger.Warn("token store: stale token without refresh token", "session", sess.ID)
		return s.fail(ctx, sess, domain.AuthErrorNoRefresh)
	}

	var pair domain.TokenPair
	var err error
	for attempt := 0; attempt <= refreshRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(refreshRetryDelay):
			case <-ctx.Done():
				return domain.Session{}, ctx.Err()
			}
		}
		pair, err = s.refresher.Refresh(ctx, sess.RefreshToken)
		if err == nil {
			break
		}
		s.logger.Warn("token store: refresh attempt failed", "session", sess.ID, "attempt", attempt+1, "err", err)
	}
	if err != nil {
		return s.fail(ctx, sess, domain.AuthErrorRefreshFailed)
	}

	sess.AccessToken = pair.AccessToken
	sess.ExpiresAt = pair.ExpiresAt
	// The provider may omit the rotated refresh token; keep the old one then.
	if pair.RefreshToken != "" {
		sess.RefreshToken = pair.RefreshToken
	}
	sess.AuthError = domain.AuthErrorNone
	sess.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("token store: persist refreshed session: %w", err)
	}

	s.logger.Debug("token store: access token refreshed", "session", sess.ID, "expires", sess.ExpiresAt)
	return sess, nil
}

// fail records a terminal auth error on the session. The rest of the
// application treats such a session as signed out for API-calling purposes
// while still allowing a manual re-authentication.
func (s *TokenStore) fail(ctx context.Context, sess domain.Session, reason domain.AuthError) (domain.Session, error) {
	sess.AuthError = reason
	sess.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("token store: persist auth error: %w", err)
	}
	return sess, nil
}

// Source returns a request-scoped token accessor bound to one session.
func (s *TokenStore) Source(sessionID string) ports.TokenSource {
	return &storeSource{store: s, sessionID: sessionID}
}

type storeSource struct {
	store     *TokenStore
	sessionID string
}

func (src *storeSource) Token(ctx context.Context) (string, error) {
	sess, err := src.store.Access(ctx, src.sessionID)
	if err != nil {
		return "", err
	}
	if sess.AuthError != domain.AuthErrorNone {
		return "", fmt.Errorf("token store: %s: %w", sess.AuthError, ports.ErrAuthExpired)
	}
	return sess.AccessToken, nil
}
