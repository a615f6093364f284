package model

// RewardCategory is the only category the reward catalog displays.
const RewardCategory = "merchandise"

type Reward struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	PointsCost  int    `json:"pointsCost"`
	Category    string `json:"category"`
	CategoryRaw string `json:"categoryRaw"`
	Stock       *int   `json:"stock"`
	Available   bool   `json:"available"`
}

type ClaimedReward struct {
	ID        string  `json:"id"`
	RewardID  string  `json:"rewardId"`
	Reward    *Reward `json:"reward,omitempty"`
	ClaimedAt string  `json:"claimedAt"`
	Status    string  `json:"status"`
}
