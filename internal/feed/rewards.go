package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/convert"
	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/websocket"
)

const rewardsKey = "rewards"

func (s *Service) Rewards(ctx context.Context) (Listing[model.Reward], error) {
	return load(s, rewardsKey, func() ([]model.Reward, error) {
		list, err := s.backend.ListRewards(ctx)
		if err != nil {
			return nil, err
		}
		return convert.RewardsFromBackend(list), nil
	})
}

func (s *Service) ClaimedRewards(ctx context.Context, user model.User) (Listing[model.ClaimedReward], error) {
	return load(s, userKey("rewards.claimed", user), func() ([]model.ClaimedReward, error) {
		list, err := s.backend.ListClaimedRewards(ctx)
		if err != nil {
			return nil, err
		}
		return convert.ClaimsFromBackend(list), nil
	})
}

// ClaimReward spends the user's berries on a reward. Claims by the same
// user are serialized so a balance cannot be spent twice.
func (s *Service) ClaimReward(ctx context.Context, user model.User, rewardID int64) (model.ClaimedReward, error) {
	unlock := s.claimLocks.Lock(user.ID)
	defer unlock()

	br, err := s.backend.GetReward(ctx, rewardID)
	if err != nil {
		return model.ClaimedReward{}, err
	}
	if br == nil {
		return model.ClaimedReward{}, backend.ErrNotFound
	}
	reward := convert.RewardFromBackend(*br)
	if !reward.Available {
		return model.ClaimedReward{}, fmt.Errorf("%w: %s", ErrRewardUnavailable, reward.Name)
	}

	points, err := s.backend.GetPoints(ctx)
	if err != nil {
		return model.ClaimedReward{}, fmt.Errorf("get balance: %w", err)
	}
	balance := 0
	if points != nil {
		balance = points.Berries
	}
	if balance < reward.PointsCost {
		return model.ClaimedReward{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBerries, balance, reward.PointsCost)
	}

	bc, err := s.backend.ClaimReward(ctx, rewardID)
	if err != nil {
		return model.ClaimedReward{}, err
	}

	var claim model.ClaimedReward
	if bc != nil {
		claim = convert.ClaimFromBackend(*bc)
	} else {
		claim = model.ClaimedReward{
			RewardID:  reward.ID,
			ClaimedAt: s.now().UTC().Format(time.RFC3339),
			Status:    "claimed",
		}
	}
	if claim.Reward == nil {
		claim.Reward = &reward
	}

	s.logger.Info("reward claimed", "user_id", user.ID, "reward_id", rewardID, "berries", reward.PointsCost)
	s.dropSnapshot(userKey("rewards.claimed", user))
	s.dropSnapshot(rewardsKey)
	s.sendToUser(user.ID, websocket.NewMessage("reward", "claimed", reward.ID, map[string]any{
		"berries_spent": reward.PointsCost,
		"balance":       balance - reward.PointsCost,
	}))
	return claim, nil
}

func (s *Service) CreateReward(ctx context.Context, r model.Reward) (model.Reward, error) {
	created, err := s.backend.CreateReward(ctx, convert.RewardToBackend(r))
	if err != nil {
		return model.Reward{}, err
	}
	result := r
	if created != nil {
		result = convert.RewardFromBackend(*created)
	} else {
		result.Category = model.RewardCategory
	}
	s.dropSnapshot(rewardsKey)
	s.broadcast(websocket.NewMessage("reward", "created", result.ID, nil))
	return result, nil
}

func (s *Service) UpdateReward(ctx context.Context, id int64, r model.Reward) (model.Reward, error) {
	updated, err := s.backend.UpdateReward(ctx, id, convert.RewardToBackend(r))
	if err != nil {
		return model.Reward{}, err
	}
	result := r
	if updated != nil {
		result = convert.RewardFromBackend(*updated)
	} else {
		result.ID = strconv.FormatInt(id, 10)
		result.Category = model.RewardCategory
	}
	s.dropSnapshot(rewardsKey)
	s.broadcast(websocket.NewMessage("reward", "updated", result.ID, nil))
	return result, nil
}

func (s *Service) DeleteReward(ctx context.Context, id int64) error {
	if err := s.backend.DeleteReward(ctx, id); err != nil {
		return err
	}
	s.dropSnapshot(rewardsKey)
	s.broadcast(websocket.NewMessage("reward", "deleted", strconv.FormatInt(id, 10), nil))
	return nil
}
