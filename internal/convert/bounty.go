package convert

import (
	"log/slog"
	"strconv"

	"github.com/dukerupert/berrybridge/internal/category"
	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/status"
)

// BountyToEvent converts a backend bounty into the frontend event shape.
// Unknown bounty types are shown as academic and logged.
func BountyToEvent(b model.BackendBounty, logger *slog.Logger) model.Event {
	cat := category.Normalize(b.Type)
	if !cat.Known && logger != nil {
		logger.Warn("unknown bounty type, defaulting category",
			"bounty_id", b.ID, "type", b.Type, "category", cat.Category)
	}

	return model.Event{
		ID:                   strconv.FormatInt(b.ID, 10),
		Title:                b.Name,
		Description:          b.Description,
		Category:             cat.Category,
		CategoryRaw:          cat.Raw,
		CategoryKnown:        cat.Known,
		ImageURL:             b.ImgURL,
		Points:               b.AllotedPoints,
		Berries:              b.AllotedBerries,
		Date:                 b.ScheduledDate,
		RegistrationDeadline: b.ScheduledDate,
		Venue:                b.Venue,
		Capacity:             b.Capacity,
		CurrentParticipants:  0,
		IsActive:             b.IsActive,
		Status:               status.RegistrationUpcoming,
		CreatedBy:            formatOptionalID(b.CreatedBy),
	}
}

// BountiesToEvents converts a list of bounties, preserving order.
func BountiesToEvents(bounties []model.BackendBounty, logger *slog.Logger) []model.Event {
	events := make([]model.Event, 0, len(bounties))
	for _, b := range bounties {
		events = append(events, BountyToEvent(b, logger))
	}
	return events
}

// EventToBounty builds the backend write shape for an event. Berries are
// always recomputed from points.
func EventToBounty(e model.Event) model.BackendBountyRequest {
	cat := e.Category
	if !category.Valid(cat) {
		cat = category.Normalize(string(cat)).Category
	}

	deadline := e.RegistrationDeadline
	if deadline == "" {
		deadline = e.Date
	}

	return model.BackendBountyRequest{
		Name:           e.Title,
		Description:    e.Description,
		Type:           string(cat),
		ImgURL:         e.ImageURL,
		AllotedPoints:  e.Points,
		AllotedBerries: BerriesForPoints(e.Points),
		ScheduledDate:  deadline,
		Venue:          e.Venue,
		Capacity:       e.Capacity,
		IsActive:       e.IsActive,
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return formatID(*id)
}
