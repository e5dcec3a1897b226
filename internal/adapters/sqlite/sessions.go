// Package sqlite provides a SQLite-backed implementation of the session
// repository port.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/neurotunes/internal/core/domain"
	"github.com/ewilliams-labs/neurotunes/internal/core/ports"
)

// Adapter implements the session repository port for SQLite
type Adapter struct {
	db *sql.DB
}

var _ ports.SessionRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}

	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Create(ctx context.Context, s domain.Session) error {
	query := `
		INSERT INTO sessions (
			id, user_id, user_name, user_email, user_image,
			access_token, refresh_token, expires_at, auth_error,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := a.db.ExecContext(
		ctx,
		query,
		s.ID,
		s.User.ID,
		s.User.Name,
		s.User.Email,
		s.User.Image,
		s.AccessToken,
		s.RefreshToken,
		s.ExpiresAt.UTC(),
		string(s.AuthError),
		s.CreatedAt.UTC(),
		s.UpdatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Session, error) {
	query := `
		SELECT id, user_id, user_name, user_email, user_image,
			access_token, refresh_token, expires_at, auth_error,
			created_at, updated_at
		FROM sessions WHERE id = ?
	`
	row := a.db.QueryRowContext(ctx, query, id)

	var s domain.Session
	var authError string
	if err := row.Scan(
		&s.ID,
		&s.User.ID,
		&s.User.Name,
		&s.User.Email,
		&s.User.Image,
		&s.AccessToken,
		&s.RefreshToken,
		&s.ExpiresAt,
		&authError,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	s.AuthError = domain.AuthError(authError)

	return s, nil
}

func (a *Adapter) Update(ctx context.Context, s domain.Session) error {
	query := `
		UPDATE sessions
		SET access_token = ?, refresh_token = ?, expires_at = ?,
			auth_error = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := a.db.ExecContext(
		ctx,
		query,
		s.AccessToken,
		s.RefreshToken,
		s.ExpiresAt.UTC(),
		string(s.AuthError),
		s.UpdatedAt.UTC(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, id string) error {
	if _, err := a.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (a *Adapter) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := a.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return affected, nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_name TEXT,
		user_email TEXT,
		user_image TEXT,
		access_token TEXT NOT NULL,
		refresh_token TEXT,
		expires_at DATETIME NOT NULL,
		auth_error TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}
	return nil
}
