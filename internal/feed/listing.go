package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/model"
)

// Listing is a list answer that may have been served from the last good
// snapshot because the backend was unavailable.
type Listing[T any] struct {
	Items     []T       `json:"items"`
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetched_at"`
}

// staleEligible reports whether a failed fetch may be answered from a
// snapshot. Authorization and client errors are never masked.
func staleEligible(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, backend.ErrNoEndpoint) || errors.Is(err, backend.ErrBadPayload) {
		return true
	}
	code := backend.StatusCode(err)
	return code == 0 || code == http.StatusTooManyRequests || code >= 500
}

// load fetches a list and records it as the snapshot for key. When the
// fetch fails with an outage-like error the last snapshot is returned
// marked stale; without a snapshot the error is returned. An empty key
// disables snapshots for the call.
func load[T any](s *Service, key string, fetch func() ([]T, error)) (Listing[T], error) {
	items, err := fetch()
	if err == nil {
		if items == nil {
			items = []T{}
		}
		if key != "" {
			s.saveSnapshot(key, items, len(items))
		}
		return Listing[T]{Items: items, FetchedAt: s.now().UTC()}, nil
	}

	if key == "" || !staleEligible(err) || s.snapshots == nil {
		return Listing[T]{}, err
	}

	snap, serr := s.snapshots.Get(key)
	if serr != nil {
		s.logger.Error("failed to read snapshot", "key", key, "error", serr)
		return Listing[T]{}, err
	}
	if snap == nil {
		return Listing[T]{}, err
	}

	var cached []T
	if jerr := json.Unmarshal(snap.Payload, &cached); jerr != nil {
		s.logger.Error("failed to decode snapshot", "key", key, "error", jerr)
		return Listing[T]{}, err
	}
	if cached == nil {
		cached = []T{}
	}

	s.logger.Warn("backend unavailable, serving snapshot",
		"key", key, "fetched_at", snap.FetchedAt, "error", err)
	return Listing[T]{Items: cached, Stale: true, FetchedAt: snap.FetchedAt}, nil
}

func (s *Service) saveSnapshot(key string, items any, count int) {
	if s.snapshots == nil {
		return
	}
	payload, err := json.Marshal(items)
	if err != nil {
		s.logger.Error("failed to encode snapshot", "key", key, "error", err)
		return
	}
	if err := s.snapshots.Save(key, payload, count); err != nil {
		s.logger.Error("failed to save snapshot", "key", key, "error", err)
	}
}

func (s *Service) dropSnapshot(key string) {
	if s.snapshots == nil || key == "" {
		return
	}
	if err := s.snapshots.Delete(key); err != nil {
		s.logger.Warn("failed to drop snapshot", "key", key, "error", err)
	}
}

// userKey scopes a snapshot key to one user. Identities read from an
// unchecked token get no key: their ID is caller-supplied.
func userKey(prefix string, user model.User) string {
	if !user.Verified || user.ID == "" {
		return ""
	}
	return studentKey(prefix, user.ID)
}

func studentKey(prefix, userID string) string {
	return prefix + ":" + userID
}
