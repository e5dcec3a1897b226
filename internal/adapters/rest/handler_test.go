package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/services"
)

// memorySessions is an in-memory session repository for handler tests.
type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]domain.Session)}
}

func (m *memorySessions) Create(ctx context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memorySessions) GetByID(ctx context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *memorySessions) Update(ctx context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memorySessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memorySessions) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// fakeRefresher never succeeds; handler tests use fresh tokens throughout.
type fakeRefresher struct{}

func (fakeRefresher) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	return domain.TokenPair{}, context.Canceled
}

// fakeProvider resolves any query mentioning one of its known track titles.
type fakeProvider struct {
	knownTracks []domain.Track
}

func (f *fakeProvider) Me(ctx context.Context, token string) (domain.User, error) {
	return domain.User{ID: "u1", Name: "Test User", Email: "test@example.com"}, nil
}

func (f *fakeProvider) TopArtists(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.Artist, error) {
	return nil, nil
}

func (f *fakeProvider) TopTracks(ctx context.Context, token string, tr domain.TimeRange, limit int) ([]domain.Track, error) {
	return nil, nil
}

func (f *fakeProvider) RecentlyPlayed(ctx context.Context, token string, limit int) ([]domain.PlayedTrack, error) {
	return nil, nil
}

func (f *fakeProvider) SavedTracks(ctx context.Context, token string, limit int) ([]domain.SavedTrack, error) {
	return nil, nil
}

func (f *fakeProvider) FollowedArtists(ctx context.Context, token string, limit int) ([]domain.Artist, error) {
	return nil, nil
}

func (f *fakeProvider) AudioFeatures(ctx context.Context, token string, trackIDs []string) ([]domain.AudioFeatures, error) {
	return nil, nil
}

func (f *fakeProvider) SearchTracks(ctx context.Context, token, query string, limit int) ([]domain.Track, error) {
	lowered := strings.ToLower(query)
	var results []domain.Track
	for _, t := range f.knownTracks {
		if strings.Contains(lowered, strings.ToLower(t.Title)) {
			results = append(results, t)
		}
	}
	return results, nil
}

func (f *fakeProvider) CreatePlaylist(ctx context.Context, token, userID, name, description string) (domain.Playlist, error) {
	return domain.Playlist{ID: "pl-1", Name: name, Description: description}, nil
}

func (f *fakeProvider) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	return nil
}

func (f *fakeProvider) FetchSnapshot(ctx context.Context, token string) (domain.ListeningSnapshot, error) {
	return domain.ListeningSnapshot{}, nil
}

type handlerFixture struct {
	handler *Handler
	repo    *memorySessions
}

func newFixture(t *testing.T, provider *fakeProvider, oauth *oauth2.Config) *handlerFixture {
	t.Helper()
	logger := log.New(io.Discard)
	repo := newMemorySessions()

	tokens := services.NewTokenStore(repo, fakeRefresher{}, logger)
	prompts := services.NewPromptEngine(nil, logger)
	resolver := services.NewResolver(provider, nil, logger)
	insights := services.NewInsightsGenerator(nil, logger)
	orchestrator := services.NewOrchestrator(provider, prompts, resolver, insights, logger)

	if oauth == nil {
		oauth = &oauth2.Config{ClientID: "cid", ClientSecret: "csecret"}
	}

	return &handlerFixture{
		handler: NewHandler(orchestrator, tokens, repo, provider, oauth, []byte("test-secret"), "test", logger),
		repo:    repo,
	}
}

// signIn seeds a session row and returns its cookie.
func (f *handlerFixture) signIn(t *testing.T, sess domain.Session) *http.Cookie {
	t.Helper()
	if err := f.repo.Create(context.Background(), sess); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	signed, err := f.handler.signSessionToken(sess.ID, time.Now())
	if err != nil {
		t.Fatalf("sign session token: %v", err)
	}
	return &http.Cookie{Name: sessionCookieName, Value: signed}
}

func freshSession(id string) domain.Session {
	return domain.Session{
		ID:          id,
		User:        domain.User{ID: "u1", Name: "Test User"},
		AccessToken: "access",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, &fakeProvider{}, nil)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGetSession(t *testing.T) {
	f := newFixture(t, &fakeProvider{}, nil)

	// Without a cookie.
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// With a valid session.
	cookie := f.signIn(t, freshSession("s1"))
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Test User") {
		t.Errorf("body %q missing user", body)
	}
	if strings.Contains(body, "access") {
		t.Errorf("body %q leaks the access token", body)
	}
}

func TestGeneratePlaylist_StatusMapping(t *testing.T) {
	provider := &fakeProvider{
		knownTracks: []domain.Track{
			{ID: "t1", URI: "spotify:track:t1", Title: "Happy", Artist: "Pharrell Williams"},
		},
	}

	tests := []struct {
		name       string
		provider   *fakeProvider
		session    *domain.Session
		body       string
		wantStatus int
		wantIn     string
	}{
		{
			name:       "no session",
			body:       `{"keywords": ["happy"]}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "session with auth error",
			session: &domain.Session{
				ID:          "broken",
				AccessToken: "x",
				ExpiresAt:   time.Now().Add(time.Hour),
				AuthError:   domain.AuthErrorRefreshFailed,
			},
			body:       `{"keywords": ["happy"]}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing keywords",
			session:    ptr(freshSession("s1")),
			body:       `{"keywords": []}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid body",
			session:    ptr(freshSession("s2")),
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "success",
			session:    ptr(freshSession("s3")),
			body:       `{"keywords": ["happy"]}`,
			wantStatus: http.StatusOK,
			wantIn:     `"trackCount":1`,
		},
		{
			name: "nothing resolves",
			// A provider with an empty catalog resolves no candidates at all.
			provider:   &fakeProvider{},
			session:    ptr(freshSession("s4")),
			body:       `{"keywords": ["zzz-absolutely-nothing"]}`,
			wantStatus: http.StatusNotFound,
			wantIn:     "no matching songs found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := provider
			if tt.provider != nil {
				p = tt.provider
			}
			f := newFixture(t, p, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/generate-playlist", strings.NewReader(tt.body))
			if tt.session != nil {
				req.AddCookie(f.signIn(t, *tt.session))
			}
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantIn != "" && !strings.Contains(rec.Body.String(), tt.wantIn) {
				t.Errorf("body %q missing %q", rec.Body, tt.wantIn)
			}
		})
	}
}

func TestGeneratePlaylist_ResponseShape(t *testing.T) {
	// The playlist object carries its id, name and tracks directly alongside
	// keywords and trackCount, with no extra nesting.
	provider := &fakeProvider{
		knownTracks: []domain.Track{
			{ID: "t1", URI: "spotify:track:t1", Title: "Happy", Artist: "Pharrell Williams"},
		},
	}
	f := newFixture(t, provider, nil)
	cookie := f.signIn(t, freshSession("s1"))

	req := httptest.NewRequest(http.MethodPost, "/api/generate-playlist", strings.NewReader(`{"keywords": ["happy"]}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var body struct {
		Success  bool `json:"success"`
		Playlist struct {
			ID         string         `json:"id"`
			Name       string         `json:"name"`
			Tracks     []domain.Track `json:"tracks"`
			Keywords   []string       `json:"keywords"`
			TrackCount int            `json:"trackCount"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success {
		t.Error("success = false")
	}
	if body.Playlist.ID != "pl-1" {
		t.Errorf("playlist.id = %q, want pl-1", body.Playlist.ID)
	}
	if !strings.HasPrefix(body.Playlist.Name, "NeuroTunes: ") {
		t.Errorf("playlist.name = %q, want NeuroTunes prefix", body.Playlist.Name)
	}
	if len(body.Playlist.Tracks) != 1 || body.Playlist.TrackCount != 1 {
		t.Errorf("playlist.tracks = %d entries, trackCount = %d, want 1 and 1",
			len(body.Playlist.Tracks), body.Playlist.TrackCount)
	}
	if len(body.Playlist.Keywords) != 1 || body.Playlist.Keywords[0] != "happy" {
		t.Errorf("playlist.keywords = %v, want [happy]", body.Playlist.Keywords)
	}

	var raw struct {
		Playlist map[string]json.RawMessage `json:"playlist"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode raw response: %v", err)
	}
	if _, nested := raw.Playlist["playlist"]; nested {
		t.Error("playlist object should not nest another playlist object")
	}
}

func TestGetPersonality_InsufficientData(t *testing.T) {
	// The fake provider's snapshot is empty, which fails the quality gate.
	f := newFixture(t, &fakeProvider{}, nil)
	cookie := f.signIn(t, freshSession("s1"))

	req := httptest.NewRequest(http.MethodGet, "/api/personality", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body)
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t, &fakeProvider{}, nil)
	cookie := f.signIn(t, freshSession("s1"))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, err := f.repo.GetByID(context.Background(), "s1"); err == nil {
		t.Error("session row should be deleted")
	}
}

func TestLogin_RedirectsWithState(t *testing.T) {
	oauth := &oauth2.Config{
		ClientID: "cid",
		Endpoint: oauth2.Endpoint{AuthURL: "https://auth.example/authorize"},
	}
	f := newFixture(t, &fakeProvider{}, oauth)

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "https://auth.example/authorize") {
		t.Errorf("location = %q", location)
	}
	if !strings.Contains(location, "state=") {
		t.Errorf("location %q missing state", location)
	}

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookieName {
			stateCookie = c
		}
	}
	if stateCookie == nil || stateCookie.Value == "" {
		t.Fatal("state cookie not set")
	}
	if !strings.Contains(location, stateCookie.Value) {
		t.Errorf("redirect state does not match cookie")
	}
}

func TestCallback_CreatesSession(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "exchanged-access",
			"refresh_token": "exchanged-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer tokenSrv.Close()

	oauth := &oauth2.Config{
		ClientID:     "cid",
		ClientSecret: "csecret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenSrv.URL},
	}
	f := newFixture(t, &fakeProvider{}, oauth)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=the-code&state=nonce", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "nonce"})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307: %s", rec.Code, rec.Body)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("session cookie not set")
	}

	// The cookie round-trips to the stored session.
	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("session lookup after callback = %d: %s", rec.Code, rec.Body)
	}
}

func TestCallback_StateMismatch(t *testing.T) {
	f := newFixture(t, &fakeProvider{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=evil", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "good"})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func ptr(s domain.Session) *domain.Session { return &s }
