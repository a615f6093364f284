package model

import "encoding/json"

// Wire shapes exchanged with the campus backend. Field names follow the
// backend's snake_case JSON.

type BackendBounty struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Type           string `json:"type"`
	ImgURL         string `json:"img_url"`
	AllotedPoints  int    `json:"alloted_points"`
	AllotedBerries int    `json:"alloted_berries"`
	ScheduledDate  string `json:"scheduled_date"`
	Venue          string `json:"venue"`
	Capacity       int    `json:"capacity"`
	IsActive       bool   `json:"is_active"`
	CreatedBy      *int64 `json:"created_by"`
	ModifiedBy     *int64 `json:"modified_by"`
}

// BackendBountyRequest is the body for creating or updating a bounty.
type BackendBountyRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Type           string `json:"type"`
	ImgURL         string `json:"img_url"`
	AllotedPoints  int    `json:"alloted_points"`
	AllotedBerries int    `json:"alloted_berries"`
	ScheduledDate  string `json:"scheduled_date"`
	Venue          string `json:"venue"`
	Capacity       int    `json:"capacity"`
	IsActive       bool   `json:"is_active"`
}

type BackendReward struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	ImgURL          string `json:"img_url"`
	BerriesRequired int    `json:"berries_required"`
	Category        string `json:"category"`
	Stock           *int   `json:"stock"`
	IsActive        bool   `json:"is_active"`
	CreatedBy       *int64 `json:"created_by"`
}

type BackendRewardRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	ImgURL          string `json:"img_url"`
	BerriesRequired int    `json:"berries_required"`
	Category        string `json:"category"`
	Stock           *int   `json:"stock,omitempty"`
	IsActive        bool   `json:"is_active"`
}

type BackendClaim struct {
	ID        int64          `json:"id"`
	RewardID  int64          `json:"reward_id"`
	UserID    int64          `json:"user_id"`
	ClaimedAt string         `json:"claimed_at"`
	Status    string         `json:"status"`
	Reward    *BackendReward `json:"reward"`
}

type BackendAchievement struct {
	ID          int64           `json:"id"`
	StudentID   int64           `json:"student_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Points      int             `json:"points"`
	ProofURL    string          `json:"proof_url"`
	Status      json.RawMessage `json:"status"`
	CreatedAt   string          `json:"created_at"`
	ReviewedBy  *int64          `json:"reviewed_by"`
	ReviewNote  string          `json:"review_note"`
}

type BackendAchievementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Points      int    `json:"points"`
	ProofURL    string `json:"proof_url"`
}

type BackendReviewRequest struct {
	Status     string `json:"status"`
	ReviewNote string `json:"review_note,omitempty"`
}

type BackendNotification struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type BackendBadge struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconURL     string `json:"icon_url"`
	EarnedAt    string `json:"earned_at"`
}

type BackendPoints struct {
	UserID      int64 `json:"user_id"`
	TotalPoints int   `json:"total_points"`
	Berries     int   `json:"berries"`
}

type BackendPointsEntry struct {
	ID        int64  `json:"id"`
	Points    int    `json:"points"`
	Berries   int    `json:"berries"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

type BackendUser struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Department  string `json:"department"`
	Year        string `json:"year"`
	QRCode      string `json:"qr_code"`
	Subject     string `json:"subject"`
	CollegeName string `json:"college_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Department  string `json:"department,omitempty"`
	Year        string `json:"year,omitempty"`
	Subject     string `json:"subject,omitempty"`
	CollegeName string `json:"college_name,omitempty"`
}

// TokenPair is what the backend returns from login, register and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
