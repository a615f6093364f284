package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/claims"
	"github.com/dukerupert/berrybridge/internal/database"
	"github.com/dukerupert/berrybridge/internal/feed"
	"github.com/dukerupert/berrybridge/internal/middleware"
	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/status"
	"github.com/dukerupert/berrybridge/internal/store"
)

const testSecret = "handler-test-secret"

var student = model.User{ID: "11", Name: "Asha", Role: model.RoleStudent, Verified: true}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestFeed wires a feed service against a fake campus backend.
func newTestFeed(t *testing.T, h http.Handler) (*feed.Service, *backend.Negotiator) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	client := backend.NewClient(backend.Config{
		BaseURL:     srv.URL,
		Timeout:     2 * time.Second,
		Rate:        1000,
		Burst:       1000,
		BackoffBase: time.Millisecond,
	}, testLogger())
	neg := backend.NewNegotiator(store.NewCapabilityStore(db), testLogger())
	return feed.NewService(client, neg, store.NewSnapshotStore(db), nil, testLogger()), neg
}

func asUser(r *http.Request, u model.User) *http.Request {
	return r.WithContext(claims.WithUser(r.Context(), u, "caller-token"))
}

func signToken(t *testing.T, mc jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

type fakeAuthBackend struct {
	pair      model.TokenPair
	err       error
	lastLogin model.LoginRequest
	lastReg   model.RegisterRequest
}

func (f *fakeAuthBackend) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	f.lastLogin = req
	return f.pair, f.err
}

func (f *fakeAuthBackend) Register(ctx context.Context, req model.RegisterRequest) (model.TokenPair, error) {
	f.lastReg = req
	return f.pair, f.err
}

func (f *fakeAuthBackend) Logout(ctx context.Context) error { return f.err }

func (f *fakeAuthBackend) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	return f.pair, f.err
}

func TestLoginReturnsVerifiedUser(t *testing.T) {
	tok := signToken(t, jwt.MapClaims{
		"id":   7,
		"name": "Ravi",
		"role": "faculty",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	fb := &fakeAuthBackend{pair: model.TokenPair{AccessToken: tok, RefreshToken: "r1"}}
	h := NewAuthHandler(fb, middleware.NewAuthenticator(testSecret), testLogger())

	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":" ravi@college.edu ","password":"pw"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	decodeBody(t, rec, &resp)
	if resp.User.ID != "7" || resp.User.Role != model.RoleFaculty || !resp.User.Verified {
		t.Errorf("unexpected user: %+v", resp.User)
	}
	if resp.RefreshToken != "r1" {
		t.Errorf("expected refresh token r1, got %q", resp.RefreshToken)
	}
	if fb.lastLogin.Email != "ravi@college.edu" {
		t.Errorf("expected trimmed email, got %q", fb.lastLogin.Email)
	}
}

func TestLoginValidation(t *testing.T) {
	h := NewAuthHandler(&fakeAuthBackend{}, middleware.NewAuthenticator(""), testLogger())

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"missing password", `{"email":"a@b.edu"}`},
		{"bad email", `{"email":"nope","password":"pw"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestLoginBackendRejection(t *testing.T) {
	fb := &fakeAuthBackend{err: &backend.APIError{StatusCode: 401, Method: "POST", Path: "/api/auth/login", Message: "wrong password"}}
	h := NewAuthHandler(fb, middleware.NewAuthenticator(""), testLogger())

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"a@b.edu","password":"pw"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "wrong password" {
		t.Errorf("expected backend message, got %q", body["error"])
	}
}

func TestLoginUnverifiableToken(t *testing.T) {
	fb := &fakeAuthBackend{pair: model.TokenPair{AccessToken: "not.a.jwt"}}
	h := NewAuthHandler(fb, middleware.NewAuthenticator(testSecret), testLogger())

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(`{"email":"a@b.edu","password":"pw"}`)))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	fb := &fakeAuthBackend{pair: model.TokenPair{AccessToken: "a.b"}}
	h := NewAuthHandler(fb, middleware.NewAuthenticator(""), testLogger())

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"name":"Asha","email":"asha@college.edu","password":"longenough"}`)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if fb.lastReg.Role != "student" {
		t.Errorf("expected student role, got %q", fb.lastReg.Role)
	}
	var resp sessionResponse
	decodeBody(t, rec, &resp)
	if resp.User.Name != "Student" {
		t.Errorf("expected default student for malformed token, got %+v", resp.User)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	h := NewAuthHandler(&fakeAuthBackend{}, middleware.NewAuthenticator(""), testLogger())
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest("POST", "/api/auth/register",
		strings.NewReader(`{"name":"Eve","email":"eve@college.edu","password":"longenough","role":"admin"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	h := NewAuthHandler(&fakeAuthBackend{}, middleware.NewAuthenticator(""), testLogger())

	rec := httptest.NewRecorder()
	h.Me(rec, asUser(httptest.NewRequest("GET", "/api/me", nil), student))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var u model.User
	decodeBody(t, rec, &u)
	if u.ID != "11" {
		t.Errorf("expected caller, got %+v", u)
	}

	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest("GET", "/api/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{feed.ErrUnknownKind, 400},
		{feed.ErrInvalidDecision, 400},
		{fmt.Errorf("%w: 5 < 60", feed.ErrInsufficientBerries), 422},
		{feed.ErrRewardUnavailable, 409},
		{status.ErrInvalidTransition, 409},
		{&backend.APIError{StatusCode: 401}, 401},
		{&backend.APIError{StatusCode: 403}, 403},
		{&backend.APIError{StatusCode: 404}, 404},
		{&backend.APIError{StatusCode: 409}, 409},
		{&backend.APIError{StatusCode: 422}, 422},
		{&backend.APIError{StatusCode: 503}, 502},
		{backend.ErrNoEndpoint, 502},
		{errors.New("dial tcp: refused"), 502},
		{context.DeadlineExceeded, 504},
		{fmt.Errorf("GET /api/bounties: %w", backend.ErrThrottled), 503},
		{fmt.Errorf("GET /api/bounties: %w", backend.ErrTooLarge), 502},
	}
	for _, tt := range tests {
		if got := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
