package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannsakha/mannsakha/internal/auth"
	"github.com/mannsakha/mannsakha/internal/model"
	"github.com/mannsakha/mannsakha/internal/repository/sqlite"
	"github.com/mannsakha/mannsakha/internal/service"
)

// newAuthTestRouter wires the auth surface end to end: in-memory SQLite,
// real services, real middleware, chi routing. Only the network and the
// OAuth exchange are absent.
func newAuthTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)

	svc := service.NewAuthService(db.Users(), db.Sessions(), passwords, tokens, time.Hour, logger)
	h := NewAuthHandler(svc, nil, time.Hour, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/signup", h.HandleSignup)
		r.Post("/login", h.HandleLogin)
		r.With(auth.OptionalAuth(tokens, db.Sessions())).Post("/logout", h.HandleLogout)
		r.With(auth.RequireAuth(tokens, db.Sessions())).Get("/me", h.HandleMe)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

const signupBody = `{
	"name": "Ann",
	"email": "ann@example.com",
	"password": "secret123",
	"gender": "Female",
	"dob": "1990-01-01"
}`

func TestSignup_Success(t *testing.T) {
	router := newAuthTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", signupBody)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Signup successful", resp["message"])
	assert.NotEmpty(t, resp["userId"])
	assert.Equal(t, "/login.html", resp["redirect"])

	// Signup never logs the user in.
	assert.Empty(t, rec.Result().Cookies())
}

func TestSignup_DuplicateEmail(t *testing.T) {
	router := newAuthTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/signup", signupBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same email, different everything else - still rejected.
	rec = doJSON(t, router, http.MethodPost, "/api/signup", `{
		"name": "Other",
		"email": "ann@example.com",
		"password": "different",
		"gender": "Male",
		"dob": "1985-05-05"
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate_email", resp.Error)
}

func TestSignup_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"a@b.com","password":"p","gender":"F","dob":"1990-01-01"}`},
		{"missing email", `{"name":"A","password":"p","gender":"F","dob":"1990-01-01"}`},
		{"malformed email", `{"name":"A","email":"not-an-email","password":"p","gender":"F","dob":"1990-01-01"}`},
		{"missing password", `{"name":"A","email":"a@b.com","gender":"F","dob":"1990-01-01"}`},
		{"missing gender", `{"name":"A","email":"a@b.com","password":"p","dob":"1990-01-01"}`},
		{"missing dob", `{"name":"A","email":"a@b.com","password":"p","gender":"F"}`},
		{"malformed JSON", `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthTestRouter(t)

			rec := doJSON(t, router, http.MethodPost, "/api/signup", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "validation_error", resp.Error)
		})
	}
}

func TestLogin_SuccessSetsCookie(t *testing.T) {
	router := newAuthTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/signup", signupBody)

	rec := doJSON(t, router, http.MethodPost, "/api/login",
		`{"email":"ann@example.com","password":"secret123"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Login successful", resp["message"])
	assert.Equal(t, "/index.html", resp["redirect"])

	cookie := sessionCookie(t, rec)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly, "session cookie must be HttpOnly")
}

func TestLogin_FailuresShareOneMessage(t *testing.T) {
	router := newAuthTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/signup", signupBody)

	wrongPassword := doJSON(t, router, http.MethodPost, "/api/login",
		`{"email":"ann@example.com","password":"wrong"}`)
	unknownEmail := doJSON(t, router, http.MethodPost, "/api/login",
		`{"email":"nobody@example.com","password":"secret123"}`)

	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)

	// Identical bodies - the response must not reveal whether the email
	// exists.
	assert.JSONEq(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Empty(t, wrongPassword.Result().Cookies())
}

func TestMe_WithSession(t *testing.T) {
	router := newAuthTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/signup", signupBody)
	login := doJSON(t, router, http.MethodPost, "/api/login",
		`{"email":"ann@example.com","password":"secret123"}`)
	cookie := sessionCookie(t, login)

	rec := doJSON(t, router, http.MethodGet, "/api/me", "", cookie)

	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann", user.Name)

	// Secrets never serialize.
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "$2")
}

func TestMe_WithoutSession(t *testing.T) {
	router := newAuthTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/me", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe_WithGarbageCookie(t *testing.T) {
	router := newAuthTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/me", "",
		&http.Cookie{Name: auth.SessionCookie, Value: "not-a-token"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	router := newAuthTestRouter(t)
	doJSON(t, router, http.MethodPost, "/api/signup", signupBody)
	login := doJSON(t, router, http.MethodPost, "/api/login",
		`{"email":"ann@example.com","password":"secret123"}`)
	cookie := sessionCookie(t, login)

	rec := doJSON(t, router, http.MethodPost, "/api/logout", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// The cookie is cleared in the response...
	cleared := sessionCookie(t, rec)
	assert.Less(t, cleared.MaxAge, 0)

	// ...and the server-side session is gone, so the old token is dead even
	// if the client kept it.
	rec = doJSON(t, router, http.MethodGet, "/api/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_WithoutSessionStillSucceeds(t *testing.T) {
	router := newAuthTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/logout", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
