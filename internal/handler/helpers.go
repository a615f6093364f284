package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/claims"
	"github.com/dukerupert/berrybridge/internal/feed"
	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/status"
)

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON body into v and runs its validation rules.
func decode(w http.ResponseWriter, r *http.Request, v validation.Validatable) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if err := v.Validate(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
			return false
		}
		writeMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func currentUser(r *http.Request) model.User {
	if u, ok := claims.FromContext(r.Context()); ok {
		return u
	}
	return claims.DefaultStudent()
}

// errorStatus maps a service or backend error onto the response status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, backend.ErrThrottled):
		return http.StatusServiceUnavailable
	case errors.Is(err, feed.ErrUnknownKind), errors.Is(err, feed.ErrInvalidDecision):
		return http.StatusBadRequest
	case errors.Is(err, feed.ErrInsufficientBerries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, feed.ErrRewardUnavailable), errors.Is(err, status.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrConflict):
		return http.StatusConflict
	}
	if code := backend.StatusCode(err); code == http.StatusBadRequest || code == http.StatusUnprocessableEntity {
		return code
	}
	return http.StatusBadGateway
}

// writeError logs err and writes it with its mapped status. Upstream
// failures are reported with action rather than the raw backend message.
func writeError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		logger.Error("failed to "+action, "error", err)
		writeMessage(w, code, "failed to "+action)
		return
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		writeMessage(w, code, apiErr.Message)
		return
	}
	writeMessage(w, code, err.Error())
}
