package worker

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

type recordingRepo struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (r *recordingRepo) Create(ctx context.Context, s domain.Session) error { return nil }
func (r *recordingRepo) Update(ctx context.Context, s domain.Session) error { return nil }
func (r *recordingRepo) Delete(ctx context.Context, id string) error        { return nil }
func (r *recordingRepo) GetByID(ctx context.Context, id string) (domain.Session, error) {
	return domain.Session{}, domain.ErrNotFound
}

func (r *recordingRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, cutoff)
	return 1, nil
}

func (r *recordingRepo) pruneCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cutoffs)
}

func TestJanitor_PrunesOnInterval(t *testing.T) {
	repo := &recordingRepo{}
	j := NewJanitor(repo, 10*time.Millisecond, log.New(io.Discard))

	j.Start()
	time.Sleep(60 * time.Millisecond)
	j.Stop()

	count := repo.pruneCount()
	if count == 0 {
		t.Fatal("expected at least one prune")
	}

	// The cutoff trails now by the retention window.
	repo.mu.Lock()
	cutoff := repo.cutoffs[0]
	repo.mu.Unlock()
	if until := time.Until(cutoff); until > -defaultRetention+time.Minute {
		t.Errorf("cutoff %v is not retention behind now", cutoff)
	}

	// Stop is final: no prunes after it returns.
	time.Sleep(30 * time.Millisecond)
	if repo.pruneCount() != count {
		t.Error("janitor kept pruning after Stop")
	}
}
