package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

// fakeProvider implements ports.MusicProvider for service tests. Search
// resolves any query that mentions the title of one of its known tracks.
type fakeProvider struct {
	mu sync.Mutex

	knownTracks []domain.Track
	snapshot    domain.ListeningSnapshot
	snapshotErr error

	searchQueries   []string
	createdName     string
	createdDesc     string
	addedURIs       []string
	createPlaylists int
}

func (f *fakeProvider) Me(ctx context.Context, token string) (domain.User, error) {
	return domain.User{ID: "user-1", Name: "Test User"}, nil
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
	f.mu.Lock()
	f.searchQueries = append(f.searchQueries, query)
	f.mu.Unlock()

	lowered := strings.ToLower(query)
	var results []domain.Track
	for _, t := range f.knownTracks {
		if strings.Contains(lowered, strings.ToLower(t.Title)) {
			results = append(results, t)
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

func (f *fakeProvider) CreatePlaylist(ctx context.Context, token, userID, name, description string) (domain.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createPlaylists++
	f.createdName = name
	f.createdDesc = description
	return domain.Playlist{ID: "pl-1", Name: name, Description: description}, nil
}

func (f *fakeProvider) AddTracks(ctx context.Context, token, playlistID string, uris []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addedURIs = append(f.addedURIs, uris...)
	return nil
}

func (f *fakeProvider) FetchSnapshot(ctx context.Context, token string) (domain.ListeningSnapshot, error) {
	if f.snapshotErr != nil {
		return domain.ListeningSnapshot{}, f.snapshotErr
	}
	return f.snapshot, nil
}

// knownTrack builds a resolvable catalog entry for the fake provider.
func knownTrack(id, title, artist string) domain.Track {
	return domain.Track{
		ID:     id,
		URI:    "spotify:track:" + id,
		Title:  title,
		Artist: artist,
	}
}

// fakeCompleter implements ports.TextCompleter.
type fakeCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) GenerateText(ctx context.Context, req ports.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// memorySessions is an in-memory ports.SessionRepository.
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
	if _, ok := m.sessions[s.ID]; !ok {
		return domain.ErrNotFound
	}
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
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// fakeRefresher implements ports.TokenRefresher with a programmable outcome.
type fakeRefresher struct {
	mu    sync.Mutex
	pair  domain.TokenPair
	err   error
	delay time.Duration
	calls int
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return domain.TokenPair{}, f.err
	}
	return f.pair, nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// staticToken is a TokenSource that always hands out the same token.
type staticToken string

func (s staticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}
