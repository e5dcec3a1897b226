package ports

import (
	"context"
	"time"

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
)

// SessionRepository stores server-side sessions.
type SessionRepository interface {
	Create(ctx context.Context, s domain.Session) error
	GetByID(ctx context.Context, id string) (domain.Session, error)
	Update(ctx context.Context, s domain.Session) error
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes sessions whose tokens expired before the cutoff
	// and returns how many rows went away.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
