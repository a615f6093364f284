package model

import (
	"github.com/dukerupert/berrybridge/internal/category"
	"github.com/dukerupert/berrybridge/internal/status"
)

// Event is the frontend shape of a bounty.
type Event struct {
	ID                   string              `json:"id"`
	Title                string              `json:"title"`
	Description          string              `json:"description"`
	Category             category.Category   `json:"category"`
	CategoryRaw          string              `json:"categoryRaw"`
	CategoryKnown        bool                `json:"categoryKnown"`
	ImageURL             string              `json:"imageUrl"`
	Points               int                 `json:"points"`
	Berries              int                 `json:"berries"`
	Date                 string              `json:"date"`
	RegistrationDeadline string              `json:"registrationDeadline"`
	Venue                string              `json:"venue"`
	Capacity             int                 `json:"capacity"`
	CurrentParticipants  int                 `json:"currentParticipants"`
	IsActive             bool                `json:"isActive"`
	Status               status.Registration `json:"status"`
	CreatedBy            string              `json:"createdBy,omitempty"`
}
