package model

type PointsSummary struct {
	UserID      string        `json:"userId"`
	TotalPoints int           `json:"totalPoints"`
	Berries     int           `json:"berries"`
	History     []PointsEntry `json:"history"`
}

type PointsEntry struct {
	ID        string `json:"id"`
	Points    int    `json:"points"`
	Berries   int    `json:"berries"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"createdAt"`
}

// Money is a rupee amount held in paise.
type Money struct {
	Paise  int64  `json:"paise"`
	Rupees string `json:"rupees"`
}
