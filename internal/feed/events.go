package feed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/convert"
	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/status"
	"github.com/dukerupert/berrybridge/internal/websocket"
)

// EventKind selects which event list to fetch.
type EventKind string

const (
	KindAll        EventKind = "all"
	KindUpcoming   EventKind = "upcoming"
	KindRegistered EventKind = "registered"
	KindCompleted  EventKind = "completed"
)

// UpcomingKey is the snapshot key of the shared upcoming-events list.
const UpcomingKey = "events.upcoming"

// ParseKind reads an event kind; empty means all.
func ParseKind(s string) (EventKind, error) {
	switch EventKind(s) {
	case "", KindAll:
		return KindAll, nil
	case KindUpcoming, KindRegistered, KindCompleted:
		return EventKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseScheduled reads a backend date; unreadable dates yield the zero time.
func parseScheduled(s string) time.Time {
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Events lists events of the given kind for user.
func (s *Service) Events(ctx context.Context, user model.User, kind EventKind) (Listing[model.Event], error) {
	switch kind {
	case KindAll, "":
		return load(s, "events.all", func() ([]model.Event, error) {
			list, err := s.backend.ListBounties(ctx)
			if err != nil {
				return nil, err
			}
			return convert.BountiesToEvents(list, s.logger), nil
		})
	case KindUpcoming:
		return load(s, UpcomingKey, func() ([]model.Event, error) {
			list, err := s.backend.UpcomingBounties(ctx, s.negotiator)
			if err != nil {
				return nil, err
			}
			return convert.BountiesToEvents(list, s.logger), nil
		})
	case KindRegistered:
		return load(s, userKey("events.registered", user), func() ([]model.Event, error) {
			list, err := s.backend.RegisteredBounties(ctx, s.negotiator)
			if err != nil {
				return nil, err
			}
			return s.withRegistration(convert.BountiesToEvents(list, s.logger)), nil
		})
	case KindCompleted:
		return load(s, userKey("events.completed", user), func() ([]model.Event, error) {
			list, err := s.backend.CompletedBounties(ctx, s.negotiator)
			if err != nil {
				return nil, err
			}
			events := convert.BountiesToEvents(list, s.logger)
			for i := range events {
				events[i].Status = status.RegistrationCompleted
			}
			return events, nil
		})
	}
	return Listing[model.Event]{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// withRegistration marks registered events, completing those already held.
func (s *Service) withRegistration(events []model.Event) []model.Event {
	now := s.now()
	for i := range events {
		events[i].Status = status.ComputeRegistration(true, parseScheduled(events[i].RegistrationDeadline), now)
	}
	return events
}

func (s *Service) Event(ctx context.Context, id int64) (model.Event, error) {
	b, err := s.backend.GetBounty(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if b == nil {
		return model.Event{}, backend.ErrNotFound
	}
	return convert.BountyToEvent(*b, s.logger), nil
}

// CreateEvent publishes a new event. Berries are derived from points.
func (s *Service) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	req := convert.EventToBounty(e)
	created, err := s.backend.CreateBounty(ctx, req)
	if err != nil {
		return model.Event{}, err
	}

	result := s.eventFromWrite(created, req, "")
	s.dropEventSnapshots()
	s.broadcast(websocket.NewMessage("event", "created", result.ID, map[string]any{"category": result.Category}))
	return result, nil
}

func (s *Service) UpdateEvent(ctx context.Context, id int64, e model.Event) (model.Event, error) {
	req := convert.EventToBounty(e)
	updated, err := s.backend.UpdateBounty(ctx, id, req)
	if err != nil {
		return model.Event{}, err
	}

	result := s.eventFromWrite(updated, req, strconv.FormatInt(id, 10))
	s.dropEventSnapshots()
	s.broadcast(websocket.NewMessage("event", "updated", result.ID, nil))
	return result, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.backend.DeleteBounty(ctx, id); err != nil {
		return err
	}
	s.dropEventSnapshots()
	s.broadcast(websocket.NewMessage("event", "deleted", strconv.FormatInt(id, 10), nil))
	return nil
}

// RegisterForEvent signs user up for an event. Registering twice, or for an
// event the user already completed, is an invalid transition.
func (s *Service) RegisterForEvent(ctx context.Context, user model.User, id int64) error {
	current := status.RegistrationUpcoming
	registered, err := s.Events(ctx, user, KindRegistered)
	if err != nil {
		s.logger.Debug("registration lookup failed, assuming upcoming", "event_id", id, "error", err)
	}
	want := strconv.FormatInt(id, 10)
	for _, e := range registered.Items {
		if e.ID == want {
			current = e.Status
			break
		}
	}
	if err := status.TransitionRegistration(current, status.RegistrationRegistered); err != nil {
		return err
	}

	if err := s.backend.RegisterForBounty(ctx, id); err != nil {
		if errors.Is(err, backend.ErrConflict) {
			return fmt.Errorf("%w: %v", status.ErrInvalidTransition, err)
		}
		return err
	}

	s.dropSnapshot(userKey("events.registered", user))
	s.sendToUser(user.ID, websocket.NewMessage("event", "registered", want, nil))
	return nil
}

// eventFromWrite converts the backend's answer to a write. Backends that
// answer with an empty body get the request echoed back.
func (s *Service) eventFromWrite(b *model.BackendBounty, req model.BackendBountyRequest, id string) model.Event {
	if b != nil {
		return convert.BountyToEvent(*b, s.logger)
	}
	e := convert.BountyToEvent(model.BackendBounty{
		Name:           req.Name,
		Description:    req.Description,
		Type:           req.Type,
		ImgURL:         req.ImgURL,
		AllotedPoints:  req.AllotedPoints,
		AllotedBerries: req.AllotedBerries,
		ScheduledDate:  req.ScheduledDate,
		Venue:          req.Venue,
		Capacity:       req.Capacity,
		IsActive:       req.IsActive,
	}, s.logger)
	e.ID = id
	return e
}

func (s *Service) dropEventSnapshots() {
	s.dropSnapshot("events.all")
	s.dropSnapshot(UpcomingKey)
}
