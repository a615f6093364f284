package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/category"
	"github.com/dukerupert/berrybridge/internal/database"
	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/status"
	"github.com/dukerupert/berrybridge/internal/store"
	"github.com/dukerupert/berrybridge/internal/websocket"
)

type recordingHub struct {
	mu        sync.Mutex
	broadcast []websocket.Message
	direct    map[string][]websocket.Message
}

func newRecordingHub() *recordingHub {
	return &recordingHub{direct: make(map[string][]websocket.Message)}
}

func (h *recordingHub) Broadcast(msg websocket.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast = append(h.broadcast, msg)
}

func (h *recordingHub) SendToUser(userID string, msg websocket.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.direct[userID] = append(h.direct[userID], msg)
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, m := range h.broadcast {
		out = append(out, m.Type)
	}
	return out
}

func (h *recordingHub) sentTo(userID string) []websocket.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]websocket.Message(nil), h.direct[userID]...)
}

type testEnv struct {
	svc       *Service
	snapshots *store.SnapshotStore
	hub       *recordingHub
	client    *backend.Client
	neg       *backend.Negotiator
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, h http.Handler) *testEnv {
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
	snapshots := store.NewSnapshotStore(db)
	hub := newRecordingHub()

	return &testEnv{
		svc:       NewService(client, neg, snapshots, hub, testLogger()),
		snapshots: snapshots,
		hub:       hub,
		client:    client,
		neg:       neg,
	}
}

var student = model.User{ID: "11", Name: "Asha", Role: model.RoleStudent, Verified: true}

func TestEventsAllConverts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bounties", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":1,"name":"Relay","type":"Athletics","alloted_points":30},{"id":2,"name":"Mystery","type":"unknown_xyz"}]}`))
	})
	env := newTestEnv(t, mux)

	got, err := env.svc.Events(context.Background(), student, KindAll)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if got.Stale {
		t.Error("fresh listing should not be stale")
	}
	if len(got.Items) != 2 {
		t.Fatalf("len = %d, want 2", len(got.Items))
	}
	if got.Items[0].Category != category.Sports {
		t.Errorf("category = %q, want sports", got.Items[0].Category)
	}
	if got.Items[1].Category != category.Academic || got.Items[1].CategoryKnown {
		t.Errorf("unknown type should fall back to academic, got %+v", got.Items[1])
	}

	snap, err := env.snapshots.Get("events.all")
	if err != nil || snap == nil {
		t.Fatalf("expected snapshot, got %v, %v", snap, err)
	}
	if snap.ItemCount != 2 {
		t.Errorf("ItemCount = %d, want 2", snap.ItemCount)
	}
}

func TestEventsServesStaleSnapshot(t *testing.T) {
	var down atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/reward", func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":5,"name":"Mug","berries_required":20,"is_active":true}]`))
	})
	env := newTestEnv(t, mux)

	if _, err := env.svc.Rewards(context.Background()); err != nil {
		t.Fatalf("first Rewards: %v", err)
	}

	down.Store(true)
	got, err := env.svc.Rewards(context.Background())
	if err != nil {
		t.Fatalf("Rewards during outage: %v", err)
	}
	if !got.Stale {
		t.Error("expected stale listing")
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Mug" {
		t.Errorf("unexpected items: %+v", got.Items)
	}
	if got.FetchedAt.IsZero() {
		t.Error("expected snapshot time")
	}
}

func TestOutageWithoutSnapshotIsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /badges", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	env := newTestEnv(t, mux)

	if _, err := env.svc.Badges(context.Background()); backend.StatusCode(err) != http.StatusInternalServerError {
		t.Errorf("expected 500 error, got %v", err)
	}
}

func TestUnauthorizedIsNotMaskedBySnapshot(t *testing.T) {
	var denied atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /badges", func(w http.ResponseWriter, r *http.Request) {
		if denied.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[]`))
	})
	env := newTestEnv(t, mux)
	env.svc.Badges(context.Background())

	denied.Store(true)
	if _, err := env.svc.Badges(context.Background()); !errors.Is(err, backend.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEventsRegisteredComputesStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bounties/registered", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"scheduled_date":"2026-01-01T10:00:00Z"},{"id":2,"scheduled_date":"2026-12-01"}]`))
	})
	env := newTestEnv(t, mux)
	env.svc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }

	got, err := env.svc.Events(context.Background(), student, KindRegistered)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if got.Items[0].Status != status.RegistrationCompleted {
		t.Errorf("past event status = %q, want completed", got.Items[0].Status)
	}
	if got.Items[1].Status != status.RegistrationRegistered {
		t.Errorf("future event status = %q, want registered", got.Items[1].Status)
	}
	if snap, _ := env.snapshots.Get("events.registered:11"); snap == nil {
		t.Error("expected per-user snapshot")
	}
}

func TestUnverifiedUserGetsNoPerUserSnapshot(t *testing.T) {
	var down atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bounties/registered", func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":1,"name":"Private","scheduled_date":"2099-01-01"}]`))
	})
	env := newTestEnv(t, mux)

	if _, err := env.svc.Events(context.Background(), student, KindRegistered); err != nil {
		t.Fatalf("verified fetch: %v", err)
	}

	down.Store(true)
	impostor := model.User{ID: student.ID, Role: model.RoleStudent}
	got, err := env.svc.Events(context.Background(), impostor, KindRegistered)
	if err == nil {
		t.Fatalf("unverified caller was served a snapshot: %+v", got)
	}
	if backend.StatusCode(err) != http.StatusBadGateway {
		t.Errorf("expected the backend error, got %v", err)
	}

	down.Store(false)
	env.snapshots.Delete("events.registered:11")
	if _, err := env.svc.Events(context.Background(), impostor, KindRegistered); err != nil {
		t.Fatalf("unverified fetch: %v", err)
	}
	if snap, _ := env.snapshots.Get("events.registered:11"); snap != nil {
		t.Error("unverified fetch should not write a per-user snapshot")
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"", "all", "upcoming", "registered", "completed"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		}
	}
	if _, err := ParseKind("past"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestCreateEventDerivesBerries(t *testing.T) {
	var gotBerries atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/bounties", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"alloted_berries":7`) {
			t.Errorf("unexpected body: %s", body)
		} else {
			gotBerries.Store(7)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":77,"name":"Debate","type":"cultural","alloted_points":75,"alloted_berries":7}`))
	})
	env := newTestEnv(t, mux)

	e, err := env.svc.CreateEvent(context.Background(), model.Event{
		Title:    "Debate",
		Category: category.Cultural,
		Points:   75,
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if e.ID != "77" || gotBerries.Load() != 7 {
		t.Errorf("unexpected event %+v", e)
	}
	if types := env.hub.types(); len(types) != 1 || types[0] != "event_created" {
		t.Errorf("broadcasts = %v", types)
	}
}

func TestRegisterForEventTwiceIsInvalid(t *testing.T) {
	var registered atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bounties/registered", func(w http.ResponseWriter, r *http.Request) {
		if registered.Load() > 0 {
			w.Write([]byte(`[{"id":4,"scheduled_date":"2099-01-01"}]`))
			return
		}
		w.Write([]byte(`[]`))
	})
	mux.HandleFunc("POST /api/bounties/4/register", func(w http.ResponseWriter, r *http.Request) {
		registered.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	env := newTestEnv(t, mux)

	if err := env.svc.RegisterForEvent(context.Background(), student, 4); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if msgs := env.hub.sentTo("11"); len(msgs) != 1 || msgs[0].Type != "event_registered" {
		t.Errorf("direct messages = %+v", msgs)
	}

	err := env.svc.RegisterForEvent(context.Background(), student, 4)
	if !errors.Is(err, status.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if registered.Load() != 1 {
		t.Errorf("backend register called %d times, want 1", registered.Load())
	}
}
