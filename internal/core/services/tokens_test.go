package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func seedSession(t *testing.T, repo *memorySessions, sess domain.Session) {
	t.Helper()
	if err := repo.Create(context.Background(), sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func TestTokenStore_Access(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		session     domain.Session
		refresher   *fakeRefresher
		wantToken   string
		wantError   domain.AuthError
		wantCalls   int
		wantRefresh string
	}{
		{
			name: "fresh token passes through",
			session: domain.Session{
				ID:           "s1",
				AccessToken:  "fresh",
				RefreshToken: "r1",
				ExpiresAt:    now.Add(time.Hour),
			},
			refresher: &fakeRefresher{},
			wantToken: "fresh",
			wantCalls: 0,
		},
		{
			name: "stale token is refreshed",
			session: domain.Session{
				ID:           "s1",
				AccessToken:  "stale",
				RefreshToken: "r1",
				ExpiresAt:    now.Add(time.Minute),
			},
			refresher: &fakeRefresher{pair: domain.TokenPair{
				AccessToken: "renewed",
				ExpiresAt:   now.Add(time.Hour),
			}},
			wantToken:   "renewed",
			wantCalls:   1,
			wantRefresh: "r1",
		},
		{
			name: "rotated refresh token is stored",
			session: domain.Session{
				ID:           "s1",
				AccessToken:  "stale",
				RefreshToken: "r1",
				ExpiresAt:    now.Add(-time.Minute),
			},
			refresher: &fakeRefresher{pair: domain.TokenPair{
				AccessToken:  "renewed",
				RefreshToken: "r2",
				ExpiresAt:    now.Add(time.Hour),
			}},
			wantToken:   "renewed",
			wantCalls:   1,
			wantRefresh: "r2",
		},
		{
			name: "no refresh token records auth error",
			session: domain.Session{
				ID:          "s1",
				AccessToken: "stale",
				ExpiresAt:   now.Add(-time.Minute),
			},
			refresher: &fakeRefresher{},
			wantToken: "stale",
			wantError: domain.AuthErrorNoRefresh,
			wantCalls: 0,
		},
		{
			name: "refresh failure records auth error after retries",
			session: domain.Session{
				ID:           "s1",
				AccessToken:  "stale",
				RefreshToken: "r1",
				ExpiresAt:    now.Add(-time.Minute),
			},
			refresher: &fakeRefresher{err: errors.New("boom")},
			wantToken: "stale",
			wantError: domain.AuthErrorRefreshFailed,
			wantCalls: 3, // initial attempt plus two retries
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemorySessions()
			seedSession(t, repo, tt.session)

			store := NewTokenStore(repo, tt.refresher, testLogger())
			store.now = func() time.Time { return now }

			sess, err := store.Access(context.Background(), tt.session.ID)
			if err != nil {
				t.Fatalf("access: %v", err)
			}

			if sess.AccessToken != tt.wantToken {
				t.Errorf("access token = %q, want %q", sess.AccessToken, tt.wantToken)
			}
			if sess.AuthError != tt.wantError {
				t.Errorf("auth error = %q, want %q", sess.AuthError, tt.wantError)
			}
			if got := tt.refresher.callCount(); got != tt.wantCalls {
				t.Errorf("refresh calls = %d, want %d", got, tt.wantCalls)
			}
			if tt.wantRefresh != "" && sess.RefreshToken != tt.wantRefresh {
				t.Errorf("refresh token = %q, want %q", sess.RefreshToken, tt.wantRefresh)
			}
		})
	}
}

func TestTokenStore_Access_MissingSession(t *testing.T) {
	store := NewTokenStore(newMemorySessions(), &fakeRefresher{}, testLogger())

	_, err := store.Access(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenStore_Access_SingleFlight(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	repo := newMemorySessions()
	seedSession(t, repo, domain.Session{
		ID:           "s1",
		AccessToken:  "stale",
		RefreshToken: "r1",
		ExpiresAt:    now.Add(-time.Minute),
	})

	refresher := &fakeRefresher{
		pair: domain.TokenPair{
			AccessToken: "renewed",
			ExpiresAt:   now.Add(time.Hour),
		},
		// Long enough that all goroutines pile up behind the first call.
		delay: 50 * time.Millisecond,
	}

	store := NewTokenStore(repo, refresher, testLogger())
	store.now = func() time.Time { return now }

	const callers = 8
	var wg sync.WaitGroup
	results := make([]domain.Session, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = store.Access(context.Background(), "s1")
		}()
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].AccessToken != "renewed" {
			t.Errorf("caller %d: access token = %q, want %q", i, results[i].AccessToken, "renewed")
		}
	}
	if got := refresher.callCount(); got != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", got)
	}
}

func TestTokenStore_Source(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	repo := newMemorySessions()
	seedSession(t, repo, domain.Session{
		ID:          "ok",
		AccessToken: "fresh",
		ExpiresAt:   now.Add(time.Hour),
	})
	seedSession(t, repo, domain.Session{
		ID:          "broken",
		AccessToken: "stale",
		ExpiresAt:   now.Add(time.Hour),
		AuthError:   domain.AuthErrorRefreshFailed,
	})

	store := NewTokenStore(repo, &fakeRefresher{}, testLogger())
	store.now = func() time.Time { return now }

	token, err := store.Source("ok").Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "fresh" {
		t.Errorf("token = %q, want %q", token, "fresh")
	}

	_, err = store.Source("broken").Token(context.Background())
	if !errors.Is(err, ports.ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}
