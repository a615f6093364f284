package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dukerupert/berrybridge/internal/model"
)

// Capability names a list shape whose backend route has moved between
// deployments.
type Capability string

const (
	CapabilityUpcoming   Capability = "events.upcoming"
	CapabilityRegistered Capability = "events.registered"
	CapabilityCompleted  Capability = "events.completed"
)

// DefaultCandidates lists the known routes per capability, most current first.
func DefaultCandidates() map[Capability][]string {
	return map[Capability][]string{
		CapabilityUpcoming: {
			"/api/bounties/upcoming",
			"/api/bounties?status=upcoming",
			"/api/events/upcoming",
		},
		CapabilityRegistered: {
			"/api/bounties/registered",
			"/api/bounties?registered=true",
			"/api/events/registered",
		},
		CapabilityCompleted: {
			"/api/bounties/completed",
			"/api/bounties?status=completed",
			"/api/events/completed",
		},
	}
}

// CapabilityStore persists negotiated routes across restarts.
type CapabilityStore interface {
	Get(name string) (string, error)
	Set(name, path string) error
	Delete(name string) error
}

// CapabilityInfo describes one capability for diagnostics.
type CapabilityInfo struct {
	Name       Capability `json:"name"`
	Path       string     `json:"path"`
	Candidates []string   `json:"candidates"`
}

// Negotiator discovers which candidate route serves each capability and
// remembers the winner. A candidate is live when it answers 2xx with a
// list, even an empty one. 400, 404, 405, 422 and unrecognized payloads
// move on to the next candidate; any other failure stops negotiation.
type Negotiator struct {
	mu         sync.RWMutex
	candidates map[Capability][]string
	resolved   map[Capability]string
	store      CapabilityStore
	logger     *slog.Logger
}

// NewNegotiator creates a negotiator over DefaultCandidates. store may be nil.
func NewNegotiator(store CapabilityStore, logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Negotiator{
		candidates: DefaultCandidates(),
		resolved:   make(map[Capability]string),
		store:      store,
		logger:     logger.With("component", "negotiator"),
	}
}

// SetCandidates replaces the candidate list for a capability and forgets any winner.
func (n *Negotiator) SetCandidates(capability Capability, paths []string) {
	n.mu.Lock()
	n.candidates[capability] = append([]string(nil), paths...)
	n.mu.Unlock()
	n.Forget(capability)
}

// Forget drops the remembered route for a capability.
func (n *Negotiator) Forget(capability Capability) {
	n.mu.Lock()
	delete(n.resolved, capability)
	n.mu.Unlock()

	if n.store != nil {
		if err := n.store.Delete(string(capability)); err != nil {
			n.logger.Warn("failed to forget capability", "capability", capability, "error", err)
		}
	}
}

// Capabilities reports every capability with its remembered route, if any.
func (n *Negotiator) Capabilities() []CapabilityInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()

	infos := make([]CapabilityInfo, 0, len(n.candidates))
	for name, paths := range n.candidates {
		infos = append(infos, CapabilityInfo{
			Name:       name,
			Path:       n.resolved[name],
			Candidates: append([]string(nil), paths...),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Bounties fetches the bounty list for a capability, negotiating the route
// if none is remembered. A remembered route that stops being served is
// forgotten and negotiation runs once more.
func (n *Negotiator) Bounties(ctx context.Context, c *Client, capability Capability) ([]model.BackendBounty, error) {
	if path := n.lookup(capability); path != "" {
		list, err := fetchBountyList(ctx, c, path)
		if err == nil {
			return list, nil
		}
		if !notServed(err) {
			return nil, fmt.Errorf("%s via %s: %w", capability, path, err)
		}
		n.logger.Info("remembered endpoint no longer served, renegotiating",
			"capability", capability, "path", path, "error", err)
		n.Forget(capability)
	}
	return n.negotiate(ctx, c, capability)
}

func (n *Negotiator) negotiate(ctx context.Context, c *Client, capability Capability) ([]model.BackendBounty, error) {
	n.mu.RLock()
	candidates := append([]string(nil), n.candidates[capability]...)
	n.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for %s: no candidates", ErrNoEndpoint, capability)
	}

	var attempts []error
	for _, path := range candidates {
		list, err := fetchBountyList(ctx, c, path)
		if err == nil {
			n.remember(capability, path)
			return list, nil
		}
		if !notServed(err) {
			return nil, fmt.Errorf("negotiate %s via %s: %w", capability, path, err)
		}
		n.logger.Debug("candidate not served", "capability", capability, "path", path, "error", err)
		attempts = append(attempts, fmt.Errorf("%s: %w", path, err))
	}

	errs := append([]error{fmt.Errorf("%w for %s", ErrNoEndpoint, capability)}, attempts...)
	return nil, errors.Join(errs...)
}

func (n *Negotiator) lookup(capability Capability) string {
	n.mu.RLock()
	path, ok := n.resolved[capability]
	n.mu.RUnlock()
	if ok {
		return path
	}
	if n.store == nil {
		return ""
	}

	path, err := n.store.Get(string(capability))
	if err != nil {
		n.logger.Warn("failed to load capability", "capability", capability, "error", err)
		return ""
	}
	if path != "" {
		n.mu.Lock()
		n.resolved[capability] = path
		n.mu.Unlock()
	}
	return path
}

func (n *Negotiator) remember(capability Capability, path string) {
	n.mu.Lock()
	n.resolved[capability] = path
	n.mu.Unlock()

	n.logger.Info("negotiated endpoint", "capability", capability, "path", path)
	if n.store != nil {
		if err := n.store.Set(string(capability), path); err != nil {
			n.logger.Warn("failed to persist capability", "capability", capability, "error", err)
		}
	}
}

// notServed reports whether err means the route does not serve this shape.
// Auth failures, throttling, 5xx and cancellation are not in this set.
func notServed(err error) bool {
	return routeRejected(err) || errors.Is(err, ErrBadPayload)
}

func fetchBountyList(ctx context.Context, c *Client, path string) ([]model.BackendBounty, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return decodeList[model.BackendBounty](body, "bounties", "events")
}
