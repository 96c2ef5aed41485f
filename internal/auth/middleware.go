package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/mannsakha/mannsakha/internal/repository"
)

// SessionCookie is the name of the HttpOnly cookie that carries the signed
// session token.
const SessionCookie = "session"

// contextKey is an unexported type for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the identity we store in the request context.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller, as resolved by the middleware.
type Identity struct {
	SessionID string
	UserID    string
	Email     string
}

// RequireAuth enforces authentication on protected routes.
//
// It reads the session cookie, checks the signature (cheap, no store hit),
// then loads the session row - the authority. A missing row means the
// session was logged out or swept; an expired row is deleted on sight.
// Failures return 401 and stop the chain.
func RequireAuth(tokens *TokenService, sessions repository.SessionRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := resolveIdentity(r, tokens, sessions)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the caller's identity if a valid session cookie is
// present, but never blocks the request. Used on routes that serve both
// anonymous and authenticated clients (the chat endpoint).
func OptionalAuth(tokens *TokenService, sessions repository.SessionRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ident, err := resolveIdentity(r, tokens, sessions); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, ident))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the authenticated identity.
// Returns (zero, false) for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok && ident.UserID != ""
}

// resolveIdentity reads the cookie, validates the signature, and loads the
// session record. Shared by RequireAuth and OptionalAuth.
func resolveIdentity(r *http.Request, tokens *TokenService, sessions repository.SessionRepository) (Identity, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return Identity{}, err // http.ErrNoCookie - anonymous
	}

	sessionID, err := tokens.Validate(cookie.Value)
	if err != nil {
		return Identity{}, err
	}

	session, err := sessions.GetByID(r.Context(), sessionID)
	if err != nil {
		return Identity{}, err
	}

	if session.Expired(time.Now()) {
		// Lazy sweep: the row is dead, remove it while we're here.
		_ = sessions.Delete(r.Context(), session.ID)
		return Identity{}, http.ErrNoCookie
	}

	return Identity{
		SessionID: session.ID,
		UserID:    session.UserID,
		Email:     session.Email,
	}, nil
}
