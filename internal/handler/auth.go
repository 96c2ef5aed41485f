package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/mannsakha/mannsakha/internal/auth"
	"github.com/mannsakha/mannsakha/internal/service"
)

// Redirect targets the frontend navigates to after auth operations.
// The frontend itself is static and served elsewhere; the API only hands
// back (or redirects to) these routes.
const (
	landingRoute     = "/index.html"
	loginRoute       = "/login.html"
	oauthFailedRoute = "/login.html?error=oauth"
)

// AuthHandler exposes the authentication endpoints.
//
//	POST /api/signup                 → create a local account (no session)
//	POST /api/login                  → verify credentials, set session cookie
//	POST /api/logout                 → destroy the session, clear the cookie
//	GET  /api/me                     → current user profile (protected)
//	GET  /auth/google                → redirect to Google's consent page
//	GET  /api/auth/google/callback   → complete the OAuth flow
type AuthHandler struct {
	svc        *service.AuthService
	google     *auth.GoogleProvider
	sessionTTL time.Duration
	validate   *AppValidator
	logger     *slog.Logger
}

// NewAuthHandler creates an AuthHandler. google may be nil when no OAuth
// client is configured; the Google routes then respond 404 (they are only
// registered when the provider exists - see server.go).
func NewAuthHandler(
	svc *service.AuthService,
	google *auth.GoogleProvider,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		svc:        svc,
		google:     google,
		sessionTTL: sessionTTL,
		validate:   NewAppValidator(),
		logger:     logger,
	}
}

// SignupRequest is the POST /api/signup body.
type SignupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	Gender   string `json:"gender"   validate:"required"`
	DOB      string `json:"dob"      validate:"required"`
	Provider string `json:"provider" validate:"omitempty,oneof=local google"`
}

// LoginRequest is the POST /api/login body.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleSignup creates a local account.
//
// HTTP: POST /api/signup
// 201 {message,userId,redirect} on success; 400 on validation failure or
// duplicate email. Signup never sets a cookie - the redirect points at the
// login page.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	if err := h.validate.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.svc.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Gender:   req.Gender,
		DOB:      req.DOB,
		Provider: req.Provider,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "Signup successful",
		"userId":   user.ID,
		"redirect": loginRoute,
	})
}

// HandleLogin verifies credentials and establishes a session.
//
// HTTP: POST /api/login
// 200 {message,redirect} with the session cookie set; 400 with one generic
// message for every credential failure.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid request body",
		})
		return
	}

	if err := h.validate.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Login successful",
		"redirect": landingRoute,
	})
}

// HandleLogout destroys the server-side session and clears the cookie.
//
// HTTP: POST /api/logout
// POST, not GET: logout changes state, and GET would be prefetchable.
// Works without a valid session too - clearing an already-dead cookie is
// fine.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if ident, ok := auth.IdentityFromContext(r.Context()); ok {
		if err := h.svc.Logout(r.Context(), ident.SessionID); err != nil {
			h.logger.Error("logout: deleting session failed",
				slog.String("sessionID", ident.SessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	h.clearSessionCookie(w)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but be safe.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), ident.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleGoogleLogin redirects the browser to Google's consent page.
//
// HTTP: GET /auth/google
//
// The random state lands in a short-lived HttpOnly cookie; the callback
// verifies it to prove the flow started here (CSRF protection).
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth login flow.
//
// HTTP: GET /api/auth/google/callback?code=xxx&state=yyy
//
// Every failure redirects to the failure route rather than rendering an
// error - the browser is mid-navigation here, not making an API call.
// No user record is created unless the identity assertion fully verified.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state missing or mismatched")
		http.Redirect(w, r, oauthFailedRoute, http.StatusSeeOther)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, oauthFailedRoute, http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, oauthFailedRoute, http.StatusSeeOther)
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, oauthFailedRoute, http.StatusSeeOther)
		return
	}

	result, err := h.svc.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		h.logger.Error("google callback: login failed", slog.String("error", err.Error()))
		http.Redirect(w, r, oauthFailedRoute, http.StatusSeeOther)
		return
	}

	h.setSessionCookie(w, result.Token)
	http.Redirect(w, r, landingRoute, http.StatusSeeOther)
}

// setSessionCookie stores the signed session token in an HttpOnly cookie.
// HttpOnly keeps it away from page scripts; SameSite=Lax keeps it off
// cross-site POSTs. Secure should be enabled behind HTTPS.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
