package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/feed"
	"github.com/dukerupert/berrybridge/internal/store"
)

// Negotiation exposes the negotiated backend routes.
type Negotiation interface {
	Capabilities() []backend.CapabilityInfo
	Forget(capability backend.Capability)
}

// RouteHistory lists the routes persisted by earlier negotiations.
type RouteHistory interface {
	List() ([]store.Capability, error)
}

type AdminHandler struct {
	feed       *feed.Service
	negotiator Negotiation
	routes     RouteHistory
	logger     *slog.Logger
}

// NewAdminHandler creates the admin handler. routes may be nil.
func NewAdminHandler(svc *feed.Service, n Negotiation, routes RouteHistory, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{feed: svc, negotiator: n, routes: routes, logger: logger.With("handler", "admin")}
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.Users(r.Context())
	if err != nil {
		writeError(w, h.logger, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Capabilities reports the live negotiation state and the persisted routes.
func (h *AdminHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"items": h.negotiator.Capabilities()}
	if h.routes != nil {
		persisted, err := h.routes.List()
		if err != nil {
			h.logger.Error("failed to list persisted capabilities", "error", err)
			writeMessage(w, http.StatusInternalServerError, "failed to list capabilities")
			return
		}
		if persisted == nil {
			persisted = []store.Capability{}
		}
		resp["persisted"] = persisted
	}
	writeJSON(w, http.StatusOK, resp)
}

// ForgetCapability drops a remembered route so the next fetch renegotiates.
func (h *AdminHandler) ForgetCapability(w http.ResponseWriter, r *http.Request) {
	name := backend.Capability(r.PathValue("name"))
	for _, c := range h.negotiator.Capabilities() {
		if c.Name == name {
			h.negotiator.Forget(name)
			h.logger.Info("capability forgotten", "capability", name)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "unknown capability")
}
