package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/mannsakha/mannsakha/internal/apperror"
	"github.com/mannsakha/mannsakha/internal/model"
	"github.com/mannsakha/mannsakha/internal/repository"
)

// UserStore implements repository.UserRepository on SQLite.
type UserStore struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserStore)(nil)

// Create inserts a new user record.
//
// The caller fills Name/Email/PasswordHash/GoogleID/Gender/DOB/Provider;
// this method assigns the ID and timestamps. A UNIQUE violation on email
// (or google_id) comes back as apperror.ErrDuplicate - that translation is
// the only place driver errors leak into the domain.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, google_id, gender, dob, provider, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		nullIfEmpty(user.PasswordHash),
		nullIfEmpty(user.GoogleID),
		user.Gender,
		user.DOB,
		user.Provider,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, apperror.DuplicateEmail())
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no such user exists.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email, including the password hash so the
// service layer can verify a login.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, email)
}

// LinkGoogleID attaches a Google subject id to an existing account. Used
// when a federated login matches a pre-existing local account by email.
func (s *UserStore) LinkGoogleID(ctx context.Context, userID, googleID string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET google_id = ?, provider = ?, updated_at = ? WHERE id = ?`,
		googleID, model.ProviderGoogle, time.Now(), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// The google id is already bound to another account.
			return fmt.Errorf("sqlite: linking google id to user %s: %w", userID, apperror.DuplicateEmail())
		}
		return fmt.Errorf("sqlite: linking google id to user %s: %w", userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: linking google id to user %s: %w", userID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", userID)
	}

	return nil
}

func (s *UserStore) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u            model.User
		passwordHash sql.NullString
		googleID     sql.NullString
	)

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, google_id, gender, dob, provider, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&passwordHash,
		&googleID,
		&u.Gender,
		&u.DOB,
		&u.Provider,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}

	u.PasswordHash = passwordHash.String
	u.GoogleID = googleID.String

	return &u, nil
}

// nullIfEmpty maps "" to SQL NULL so the partial UNIQUE semantics on
// google_id work (NULLs don't collide with each other).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The driver exposes the SQLite error text verbatim; matching on
// it keeps us independent of the driver's error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
