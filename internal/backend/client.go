package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/dukerupert/berrybridge/internal/claims"
)

const maxBodyBytes = 4 << 20

// Config holds campus backend connection settings.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	Rate        float64 // requests per second
	Burst       int
	Retries     uint64
	BackoffBase time.Duration
}

// Client talks to the campus backend REST API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retries     uint64
	backoffBase time.Duration
	logger      *slog.Logger
}

// NewClient creates a backend client. Zero config values get defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Rate == 0 {
		cfg.Rate = 20
	}
	if cfg.Burst == 0 {
		cfg.Burst = 40
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		retries:     cfg.Retries,
		backoffBase: cfg.BackoffBase,
		logger:      logger.With("component", "backend"),
	}
}

type tokenKey struct{}

// WithToken makes requests on ctx authenticate with tok instead of the caller's token.
func WithToken(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, tokenKey{}, tok)
}

func tokenFrom(ctx context.Context) string {
	if tok, ok := ctx.Value(tokenKey{}).(string); ok && tok != "" {
		return tok
	}
	return claims.Token(ctx)
}

// get issues a GET, retrying transport failures, 429 and 5xx with backoff.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	b := retry.WithMaxRetries(c.retries, retry.NewExponential(c.backoffBase))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		data, err := c.roundTrip(ctx, http.MethodGet, path, nil)
		if err != nil {
			if retryable(err) {
				c.logger.Debug("retrying backend request", "path", path, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// send issues a non-idempotent request exactly once.
func (c *Client) send(ctx context.Context, method, path string, in any) ([]byte, error) {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}
	return c.roundTrip(ctx, method, path, payload)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("rate limit wait: %w", ctxErr)
		}
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrThrottled, err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := tokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%s %s: %w (over %d bytes)", method, path, ErrTooLarge, maxBodyBytes)
	}

	c.logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    errorMessage(body),
		}
	}
	return body, nil
}
