package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mannsakha/mannsakha/internal/apperror"
	"github.com/mannsakha/mannsakha/internal/model"
	"github.com/mannsakha/mannsakha/internal/repository"
)

// SessionStore implements repository.SessionRepository on SQLite.
type SessionStore struct {
	conn *sql.DB
}

var _ repository.SessionRepository = (*SessionStore)(nil)

// Create inserts a session row. The caller has already assigned the ID and
// expiry (the service owns session policy; the store just persists it).
func (s *SessionStore) Create(ctx context.Context, session *model.Session) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, email, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Email,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for user %s: %w", session.UserID, err)
	}
	return nil
}

// GetByID retrieves a session. Expired sessions are still returned - the
// caller decides what expiry means (and typically deletes them).
func (s *SessionStore) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, user_id, email, created_at, expires_at FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.UserID, &sess.Email, &sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}

	return &sess, nil
}

// Delete removes a session row. Deleting a session that no longer exists
// is not an error - logout must be idempotent.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}
	return nil
}

// DeleteExpired removes all sessions past their expiry.
func (s *SessionStore) DeleteExpired(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now())
	if err != nil {
		return fmt.Errorf("sqlite: deleting expired sessions: %w", err)
	}
	return nil
}
