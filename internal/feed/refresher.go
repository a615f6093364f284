package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/claims"
	"github.com/dukerupert/berrybridge/internal/convert"
	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/store"
	"github.com/dukerupert/berrybridge/internal/websocket"
)

const serviceAccount = "service"

// RefresherConfig holds the service account used to keep the public
// upcoming-events list warm.
type RefresherConfig struct {
	Email       string
	Password    string
	Interval    time.Duration
	SnapshotTTL time.Duration
}

// RefresherStatus reports the outcome of the last refresh.
type RefresherStatus struct {
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
	Items     int       `json:"items"`
}

// Refresher periodically fetches upcoming events with the service account
// and stores them as the shared snapshot.
type Refresher struct {
	mu         sync.RWMutex
	cfg        RefresherConfig
	backend    *backend.Client
	negotiator *backend.Negotiator
	snapshots  *store.SnapshotStore
	creds      *store.CredentialStore
	hub        Broadcaster
	logger     *slog.Logger

	tokens  *store.Credentials
	digest  string
	status  RefresherStatus
	stopCh  chan struct{}
	stopped chan struct{}
}

func NewRefresher(cfg RefresherConfig, client *backend.Client, negotiator *backend.Negotiator, snapshots *store.SnapshotStore, creds *store.CredentialStore, hub Broadcaster, logger *slog.Logger) *Refresher {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.SnapshotTTL == 0 {
		cfg.SnapshotTTL = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		cfg:        cfg,
		backend:    client,
		negotiator: negotiator,
		snapshots:  snapshots,
		creds:      creds,
		hub:        hub,
		logger:     logger.With("component", "refresher"),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Refresh fetches upcoming events once. A rejected token is renewed and
// the fetch retried a single time.
func (r *Refresher) Refresh(ctx context.Context) error {
	err := r.refresh(ctx)

	r.mu.Lock()
	r.status.LastRun = time.Now()
	r.status.LastError = ""
	if err != nil {
		r.status.LastError = err.Error()
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("refresh failed", "error", err)
	}
	return err
}

func (r *Refresher) refresh(ctx context.Context) error {
	tok, err := r.token(ctx)
	if err != nil {
		return err
	}

	list, err := r.negotiator.Bounties(backend.WithToken(ctx, tok), r.backend, backend.CapabilityUpcoming)
	if errors.Is(err, backend.ErrUnauthorized) {
		r.logger.Info("service token rejected, renewing")
		if tok, err = r.renew(ctx); err != nil {
			return err
		}
		list, err = r.negotiator.Bounties(backend.WithToken(ctx, tok), r.backend, backend.CapabilityUpcoming)
	}
	if err != nil {
		return fmt.Errorf("fetch upcoming: %w", err)
	}

	events := convert.BountiesToEvents(list, r.logger)
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	sum := sha256.Sum256(payload)
	digest := hex.EncodeToString(sum[:])

	if r.snapshots != nil {
		if err := r.snapshots.Save(UpcomingKey, payload, len(events)); err != nil {
			return err
		}
		if n, err := r.snapshots.DeleteOlderThan(r.cfg.SnapshotTTL); err != nil {
			r.logger.Warn("failed to prune snapshots", "error", err)
		} else if n > 0 {
			r.logger.Debug("pruned snapshots", "count", n)
		}
	}

	r.mu.Lock()
	changed := r.digest != "" && r.digest != digest
	r.digest = digest
	r.status.Items = len(events)
	r.mu.Unlock()

	if changed && r.hub != nil {
		r.hub.Broadcast(websocket.NewMessage("catalog", "refreshed", "", map[string]any{"count": len(events)}))
	}
	return nil
}

// token returns the cached service token, loading persisted credentials or
// logging in as needed.
func (r *Refresher) token(ctx context.Context) (string, error) {
	r.mu.RLock()
	tokens := r.tokens
	r.mu.RUnlock()

	if tokens == nil && r.creds != nil {
		loaded, err := r.creds.Load(serviceAccount)
		if err != nil && !errors.Is(err, store.ErrNoPassphrase) {
			r.logger.Warn("failed to load service credentials", "error", err)
		}
		tokens = loaded
	}

	if tokens != nil {
		if tokens.ExpiresAt.IsZero() || time.Until(tokens.ExpiresAt) > time.Minute {
			r.setTokens(tokens)
			return tokens.AccessToken, nil
		}
		r.setTokens(tokens)
		return r.renew(ctx)
	}
	return r.login(ctx)
}

// renew exchanges the refresh token, falling back to a fresh login.
func (r *Refresher) renew(ctx context.Context) (string, error) {
	r.mu.RLock()
	tokens := r.tokens
	r.mu.RUnlock()

	if tokens != nil && tokens.RefreshToken != "" {
		pair, err := r.backend.Refresh(ctx, tokens.RefreshToken)
		if err == nil {
			return r.keep(pair), nil
		}
		r.logger.Info("token refresh failed, logging in", "error", err)
	}
	return r.login(ctx)
}

func (r *Refresher) login(ctx context.Context) (string, error) {
	pair, err := r.backend.Login(ctx, model.LoginRequest{Email: r.cfg.Email, Password: r.cfg.Password})
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			r.forget()
		}
		return "", fmt.Errorf("service login: %w", err)
	}
	r.logger.Info("service account logged in", "email", r.cfg.Email)
	return r.keep(pair), nil
}

func (r *Refresher) keep(pair model.TokenPair) string {
	creds := &store.Credentials{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if exp, ok := claims.ExpiresAt(pair.AccessToken); ok {
		creds.ExpiresAt = exp
	}
	r.setTokens(creds)

	if r.creds != nil {
		if err := r.creds.Save(serviceAccount, *creds); err != nil {
			if errors.Is(err, store.ErrNoPassphrase) {
				r.logger.Debug("credentials kept in memory only")
			} else {
				r.logger.Warn("failed to persist service credentials", "error", err)
			}
		}
	}
	return creds.AccessToken
}

// forget drops cached and persisted credentials.
func (r *Refresher) forget() {
	r.setTokens(nil)
	if r.creds != nil {
		if err := r.creds.Clear(serviceAccount); err != nil {
			r.logger.Warn("failed to clear service credentials", "error", err)
		}
	}
}

func (r *Refresher) setTokens(c *store.Credentials) {
	r.mu.Lock()
	r.tokens = c
	r.mu.Unlock()
}

func (r *Refresher) Status() RefresherStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Start runs an initial refresh and then refreshes on every interval.
func (r *Refresher) Start(ctx context.Context) {
	r.Refresh(ctx)

	go func() {
		defer close(r.stopped)
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.Refresh(ctx)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the background refresh goroutine.
func (r *Refresher) Stop() {
	close(r.stopCh)
	<-r.stopped
}
