package feed

import (
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/store"
	"github.com/dukerupert/berrybridge/internal/websocket"
)

var (
	ErrInsufficientBerries = errors.New("insufficient berries")
	ErrRewardUnavailable   = errors.New("reward unavailable")
	ErrUnknownKind         = errors.New("unknown event kind")
	ErrInvalidDecision     = errors.New("review decision must be approved or rejected")
)

// Broadcaster pushes live-feed messages to connected clients.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
	SendToUser(userID string, msg websocket.Message)
}

// Service turns backend records into frontend lists, keeping the last good
// copy of each list and announcing changes on the live feed.
type Service struct {
	backend    *backend.Client
	negotiator *backend.Negotiator
	snapshots  *store.SnapshotStore
	hub        Broadcaster
	logger     *slog.Logger
	now        func() time.Time
	claimLocks *keyedMutex
}

// NewService creates a feed service. snapshots and hub may be nil.
func NewService(client *backend.Client, negotiator *backend.Negotiator, snapshots *store.SnapshotStore, hub Broadcaster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend:    client,
		negotiator: negotiator,
		snapshots:  snapshots,
		hub:        hub,
		logger:     logger.With("component", "feed"),
		now:        time.Now,
		claimLocks: newKeyedMutex(),
	}
}

func (s *Service) broadcast(msg websocket.Message) {
	if s.hub != nil {
		s.hub.Broadcast(msg)
	}
}

func (s *Service) sendToUser(userID string, msg websocket.Message) {
	if s.hub != nil {
		s.hub.SendToUser(userID, msg)
	}
}
