package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dukerupert/berrybridge/internal/category"
	"github.com/dukerupert/berrybridge/internal/feed"
	"github.com/dukerupert/berrybridge/internal/model"
)

type EventHandler struct {
	feed   *feed.Service
	logger *slog.Logger
}

func NewEventHandler(svc *feed.Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{feed: svc, logger: logger.With("handler", "event")}
}

type eventRequest struct {
	Title                string `json:"title"`
	Description          string `json:"description"`
	Category             string `json:"category"`
	ImageURL             string `json:"imageUrl"`
	Points               int    `json:"points"`
	Date                 string `json:"date"`
	RegistrationDeadline string `json:"registrationDeadline"`
	Venue                string `json:"venue"`
	Capacity             int    `json:"capacity"`
	IsActive             *bool  `json:"isActive"`
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func dateRule(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return errors.New("must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

func knownCategory(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !category.Normalize(s).Known {
		return errors.New("must be academic, cultural, volunteer or sports")
	}
	return nil
}

func (r eventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 4000)),
		validation.Field(&r.Category, validation.Required, validation.By(knownCategory)),
		validation.Field(&r.ImageURL, is.URL),
		validation.Field(&r.Points, validation.Min(0)),
		validation.Field(&r.Date, validation.Required, validation.By(dateRule)),
		validation.Field(&r.RegistrationDeadline, validation.By(dateRule)),
		validation.Field(&r.Capacity, validation.Min(0)),
	)
}

func (r eventRequest) event() model.Event {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	c := category.Normalize(r.Category)
	return model.Event{
		Title:                strings.TrimSpace(r.Title),
		Description:          r.Description,
		Category:             c.Category,
		CategoryRaw:          r.Category,
		CategoryKnown:        c.Known,
		ImageURL:             r.ImageURL,
		Points:               r.Points,
		Date:                 r.Date,
		RegistrationDeadline: r.RegistrationDeadline,
		Venue:                r.Venue,
		Capacity:             r.Capacity,
		IsActive:             active,
	}
}

// List answers events of the kind named by ?kind= (all when absent).
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, err := feed.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	listing, err := h.feed.Events(r.Context(), currentUser(r), kind)
	if err != nil {
		writeError(w, h.logger, "list events", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	event, err := h.feed.Event(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "get event", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decode(w, r, &req) {
		return
	}
	event, err := h.feed.CreateEvent(r.Context(), req.event())
	if err != nil {
		writeError(w, h.logger, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req eventRequest
	if !decode(w, r, &req) {
		return
	}
	event, err := h.feed.UpdateEvent(r.Context(), id, req.event())
	if err != nil {
		writeError(w, h.logger, "update event", err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.feed.DeleteEvent(r.Context(), id); err != nil {
		writeError(w, h.logger, "delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.feed.RegisterForEvent(r.Context(), currentUser(r), id); err != nil {
		writeError(w, h.logger, "register for event", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}
