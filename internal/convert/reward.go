package convert

import "github.com/dukerupert/berrybridge/internal/model"

// RewardFromBackend converts a catalog reward. The displayed category is
// always merchandise; the backend value is kept in CategoryRaw.
func RewardFromBackend(r model.BackendReward) model.Reward {
	available := r.IsActive && (r.Stock == nil || *r.Stock > 0)
	return model.Reward{
		ID:          formatID(r.ID),
		Name:        r.Name,
		Description: r.Description,
		ImageURL:    r.ImgURL,
		PointsCost:  r.BerriesRequired,
		Category:    model.RewardCategory,
		CategoryRaw: r.Category,
		Stock:       r.Stock,
		Available:   available,
	}
}

func RewardsFromBackend(rewards []model.BackendReward) []model.Reward {
	out := make([]model.Reward, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, RewardFromBackend(r))
	}
	return out
}

// RewardToBackend builds the backend write shape for a reward.
func RewardToBackend(r model.Reward) model.BackendRewardRequest {
	cat := r.CategoryRaw
	if cat == "" {
		cat = model.RewardCategory
	}
	return model.BackendRewardRequest{
		Name:            r.Name,
		Description:     r.Description,
		ImgURL:          r.ImageURL,
		BerriesRequired: r.PointsCost,
		Category:        cat,
		Stock:           r.Stock,
		IsActive:        r.Available,
	}
}

func ClaimFromBackend(c model.BackendClaim) model.ClaimedReward {
	claim := model.ClaimedReward{
		ID:        formatID(c.ID),
		RewardID:  formatID(c.RewardID),
		ClaimedAt: c.ClaimedAt,
		Status:    c.Status,
	}
	if claim.Status == "" {
		claim.Status = "claimed"
	}
	if c.Reward != nil {
		r := RewardFromBackend(*c.Reward)
		claim.Reward = &r
		if c.RewardID == 0 {
			claim.RewardID = r.ID
		}
	}
	return claim
}

func ClaimsFromBackend(claims []model.BackendClaim) []model.ClaimedReward {
	out := make([]model.ClaimedReward, 0, len(claims))
	for _, c := range claims {
		out = append(out, ClaimFromBackend(c))
	}
	return out
}
