package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/berrybridge/internal/claims"
	"github.com/dukerupert/berrybridge/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:     srv.URL + "/",
		Timeout:     2 * time.Second,
		Rate:        1000,
		Burst:       1000,
		Retries:     2,
		BackoffBase: time.Millisecond,
	}, testLogger())
}

func TestClientAttachesCallerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`[]`))
	}))

	ctx := claims.WithUser(context.Background(), model.User{ID: "1"}, "caller-token")
	if _, err := c.ListBounties(ctx); err != nil {
		t.Fatalf("ListBounties: %v", err)
	}
	if gotAuth != "Bearer caller-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if _, err := uuid.Parse(gotRequestID); err != nil {
		t.Errorf("X-Request-ID = %q, want a uuid", gotRequestID)
	}
}

func TestClientWithTokenOverridesCaller(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))

	ctx := claims.WithUser(context.Background(), model.User{}, "caller-token")
	ctx = WithToken(ctx, "service-token")
	c.ListRewards(ctx)
	if gotAuth != "Bearer service-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestClientNoTokenNoHeader(t *testing.T) {
	var hadAuth bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.Write([]byte(`[]`))
	}))
	c.ListBadges(context.Background())
	if hadAuth {
		t.Error("expected no Authorization header without a token")
	}
}

func TestListBountiesEnvelopes(t *testing.T) {
	bodies := map[string]string{
		"bare":     `[{"id":1,"name":"A"},{"id":2,"name":"B"}]`,
		"data":     `{"data":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`,
		"bounties": `{"success":true,"bounties":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}`,
		"nested":   `{"data":{"bounties":[{"id":1,"name":"A"},{"id":2,"name":"B"}]}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/bounties" {
					t.Errorf("path = %q", r.URL.Path)
				}
				w.Write([]byte(body))
			}))
			list, err := c.ListBounties(context.Background())
			if err != nil {
				t.Fatalf("ListBounties: %v", err)
			}
			if len(list) != 2 || list[1].Name != "B" {
				t.Errorf("unexpected list: %+v", list)
			}
		})
	}
}

func TestListUnrecognizedPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	}))
	if _, err := c.ListRewards(context.Background()); !errors.Is(err, ErrBadPayload) {
		t.Errorf("expected ErrBadPayload, got %v", err)
	}
}

func TestGetBountyObjectEnvelope(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bounties/9" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"id":9,"name":"Hack Night","alloted_points":40}}`))
	}))
	b, err := c.GetBounty(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetBounty: %v", err)
	}
	if b.ID != 9 || b.AllotedPoints != 40 {
		t.Errorf("unexpected bounty: %+v", b)
	}
}

func TestAPIErrorSentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
	}

	for _, tt := range tests {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"message":"nope"}`))
		}))
		_, err := c.GetReward(context.Background(), 1)
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "nope" {
			t.Errorf("status %d: expected APIError with message, got %v", tt.status, err)
		}
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":1}]`))
	}))

	list, err := c.ListNotifications(context.Background())
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len = %d, want 1", len(list))
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.ListBadges(context.Background())
	if StatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("expected 503 error, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 1 + 2 retries", calls.Load())
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	c.ListBadges(context.Background())
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if _, err := c.ClaimReward(context.Background(), 3); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestOversizedResponseIsAnError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("["))
		w.Write(bytes.Repeat([]byte(" "), maxBodyBytes))
		w.Write([]byte("]"))
	}))

	_, err := c.ListBounties(context.Background())
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if errors.Is(err, ErrBadPayload) {
		t.Error("oversized body must not look like an unrecognized payload")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestBodyAtLimitIsAccepted(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("["))
		w.Write(bytes.Repeat([]byte(" "), maxBodyBytes-2))
		w.Write([]byte("]"))
	}))

	if _, err := c.ListBounties(context.Background()); err != nil {
		t.Fatalf("ListBounties: %v", err)
	}
}

func TestThrottledWaitIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:     srv.URL,
		Timeout:     2 * time.Second,
		Rate:        0.001,
		Burst:       1,
		Retries:     5,
		BackoffBase: time.Millisecond,
	}, testLogger())

	if _, err := c.ListBadges(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	_, err := c.ListBadges(ctx)
	if !errors.Is(err, ErrThrottled) {
		t.Fatalf("expected ErrThrottled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("throttled call took %v, want an immediate failure", time.Since(start))
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestCreateBountySendsJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) == "" {
			t.Error("expected request body")
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":12,"name":"Quiz"}`))
	}))

	b, err := c.CreateBounty(context.Background(), model.BackendBountyRequest{Name: "Quiz"})
	if err != nil {
		t.Fatalf("CreateBounty: %v", err)
	}
	if b.ID != 12 {
		t.Errorf("ID = %d, want 12", b.ID)
	}
}

func TestEmptyObjectBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	b, err := c.UpdateBounty(context.Background(), 1, model.BackendBountyRequest{})
	if err != nil {
		t.Fatalf("UpdateBounty: %v", err)
	}
	if b != nil {
		t.Errorf("expected nil bounty for empty body, got %+v", b)
	}
}

func TestLoginTokenShapes(t *testing.T) {
	bodies := []string{
		`{"access_token":"a1","refresh_token":"r1"}`,
		`{"token":"a1","refreshToken":"r1"}`,
		`{"data":{"accessToken":"a1","refresh_token":"r1"}}`,
	}
	for _, body := range bodies {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/auth/login" {
				t.Errorf("path = %q", r.URL.Path)
			}
			w.Write([]byte(body))
		}))
		pair, err := c.Login(context.Background(), model.LoginRequest{Email: "a@b.edu", Password: "pw"})
		if err != nil {
			t.Fatalf("Login(%s): %v", body, err)
		}
		if pair.AccessToken != "a1" || pair.RefreshToken != "r1" {
			t.Errorf("Login(%s) = %+v", body, pair)
		}
	}
}

func TestLoginWithoutToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	if _, err := c.Login(context.Background(), model.LoginRequest{}); !errors.Is(err, ErrBadPayload) {
		t.Errorf("expected ErrBadPayload, got %v", err)
	}
}

func TestRefreshKeepsRefreshToken(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"new"}`))
	}))
	pair, err := c.Refresh(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.AccessToken != "new" || pair.RefreshToken != "old-refresh" {
		t.Errorf("unexpected pair: %+v", pair)
	}
}
