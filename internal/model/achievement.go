package model

import "github.com/dukerupert/berrybridge/internal/status"

type Achievement struct {
	ID          string          `json:"id"`
	StudentID   string          `json:"studentId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Points      int             `json:"points"`
	ProofURL    string          `json:"proofUrl"`
	Status      status.Approval `json:"status"`
	SubmittedAt string          `json:"submittedAt"`
	ReviewedBy  string          `json:"reviewedBy,omitempty"`
	ReviewNote  string          `json:"reviewNote,omitempty"`
}
