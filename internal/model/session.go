package model

import "time"

// Session is the server-side proof of authentication.
//
// The client never sees the row itself - only a signed cookie whose subject
// is the session ID. The row is the authority: deleting it (logout) or
// letting it expire revokes access immediately, regardless of what cookies
// are still floating around in browsers.
type Session struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Email     string    `json:"email"     db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
