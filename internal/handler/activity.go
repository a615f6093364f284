package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dukerupert/berrybridge/internal/convert"
	"github.com/dukerupert/berrybridge/internal/feed"
	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/status"
)

// maxQuoteBerries bounds /api/berries/quote.
const maxQuoteBerries = 10_000_000

type ActivityHandler struct {
	feed   *feed.Service
	logger *slog.Logger
}

func NewActivityHandler(svc *feed.Service, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{feed: svc, logger: logger.With("handler", "activity")}
}

type achievementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Points      int    `json:"points"`
	ProofURL    string `json:"proofUrl"`
}

func (r achievementRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 4000)),
		validation.Field(&r.Points, validation.Min(0)),
		validation.Field(&r.ProofURL, is.URL),
	)
}

type reviewRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (r reviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required,
			validation.In(string(status.ApprovalApproved), string(status.ApprovalRejected))),
		validation.Field(&r.Note, validation.Length(0, 1000)),
	)
}

func (h *ActivityHandler) Points(w http.ResponseWriter, r *http.Request) {
	summary, err := h.feed.Points(r.Context())
	if err != nil {
		writeError(w, h.logger, "get points", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *ActivityHandler) PointsHistory(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.PointsHistory(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.logger, "get points history", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

type quoteResponse struct {
	Berries int         `json:"berries"`
	Cost    model.Money `json:"cost"`
}

// Quote prices a purchase of ?berries=N.
func (h *ActivityHandler) Quote(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("berries"))
	if err != nil || n < 1 || n > maxQuoteBerries {
		writeMessage(w, http.StatusBadRequest, "berries must be a whole number between 1 and "+strconv.Itoa(maxQuoteBerries))
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Berries: n, Cost: convert.PurchaseCost(n)})
}

func (h *ActivityHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.Achievements(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.logger, "list achievements", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ActivityHandler) PendingAchievements(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.PendingAchievements(r.Context())
	if err != nil {
		writeError(w, h.logger, "list pending achievements", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ActivityHandler) SubmitAchievement(w http.ResponseWriter, r *http.Request) {
	var req achievementRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.feed.SubmitAchievement(r.Context(), currentUser(r), model.BackendAchievementRequest{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		Points:      req.Points,
		ProofURL:    req.ProofURL,
	})
	if err != nil {
		writeError(w, h.logger, "submit achievement", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *ActivityHandler) ReviewAchievement(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req reviewRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := h.feed.ReviewAchievement(r.Context(), currentUser(r), id, status.Approval(req.Status), req.Note)
	if err != nil {
		writeError(w, h.logger, "review achievement", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ActivityHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.Notifications(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.logger, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ActivityHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.feed.MarkNotificationRead(r.Context(), currentUser(r), id); err != nil {
		writeError(w, h.logger, "mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivityHandler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.feed.MarkAllNotificationsRead(r.Context(), currentUser(r)); err != nil {
		writeError(w, h.logger, "mark notifications read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivityHandler) Badges(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.Badges(r.Context())
	if err != nil {
		writeError(w, h.logger, "list badges", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ActivityHandler) MyBadges(w http.ResponseWriter, r *http.Request) {
	listing, err := h.feed.UserBadges(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.logger, "list badges", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}
