// Package model defines the data structures used throughout the application.
package model

import "time"

// Auth providers. A user record created by local signup has ProviderLocal;
// a record created (or later linked) via Google OAuth carries a GoogleID.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents a registered account.
//
// Exactly one authentication method is authoritative at a time: a local
// account has a bcrypt PasswordHash, a federated account has a GoogleID.
// Both can coexist only when a Google login was layered onto a pre-existing
// local account with the same email (the google_id gets linked, the
// password keeps working).
//
// WHY PasswordHash json:"-"?
// The hash must never appear in any API response - not even accidentally
// when a handler serialises the whole struct. Tagging it "-" makes the
// encoder skip it entirely.
//
// WHY GoogleID string (not *string)?
// Google subject ids are opaque strings. An empty string means "no Google
// account linked" - simpler than a nullable pointer, and the repository
// translates empty to NULL so the UNIQUE index ignores local-only users.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"` // globally unique
	PasswordHash string    `json:"-"         db:"password_hash"`
	GoogleID     string    `json:"-"         db:"google_id"`
	Gender       string    `json:"gender"    db:"gender"`
	DOB          string    `json:"dob"       db:"dob"` // YYYY-MM-DD, may be empty
	Provider     string    `json:"provider"  db:"provider"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
