// Package repository defines the persistence interfaces.
//
// Services depend on these interfaces, never on a concrete store. The
// sqlite subpackage provides the real implementation; tests use in-memory
// fakes.
package repository

import (
	"context"

	"github.com/mannsakha/mannsakha/internal/model"
)

// UserRepository persists User records.
//
// UNIQUENESS CONTRACT:
// Create must fail with apperror.ErrDuplicate when the email (or a non-empty
// google id) already exists. The store's own unique index is the correctness
// boundary here - callers may pre-check with GetByEmail as a UX shortcut,
// but under concurrent signups only the index is authoritative.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// LinkGoogleID attaches a Google subject id to an existing account
	// (federated login layered onto a local account with the same email).
	LinkGoogleID(ctx context.Context, userID, googleID string) error
}

// SessionRepository persists server-side sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes sessions past the given cutoff. Called lazily;
	// there is no background sweeper.
	DeleteExpired(ctx context.Context) error
}
