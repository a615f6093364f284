package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dukerupert/berrybridge/internal/model"
)

func rewardPath(id int64) string {
	return fmt.Sprintf("/api/reward/%d", id)
}

func (c *Client) ListRewards(ctx context.Context) ([]model.BackendReward, error) {
	body, err := c.get(ctx, "/api/reward")
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	return decodeList[model.BackendReward](body, "rewards")
}

func (c *Client) GetReward(ctx context.Context, id int64) (*model.BackendReward, error) {
	body, err := c.get(ctx, rewardPath(id))
	if err != nil {
		return nil, fmt.Errorf("get reward %d: %w", id, err)
	}
	return decodeObject[model.BackendReward](body, "reward")
}

func (c *Client) CreateReward(ctx context.Context, req model.BackendRewardRequest) (*model.BackendReward, error) {
	body, err := c.send(ctx, http.MethodPost, "/api/reward", req)
	if err != nil {
		return nil, fmt.Errorf("create reward: %w", err)
	}
	return decodeObject[model.BackendReward](body, "reward")
}

func (c *Client) UpdateReward(ctx context.Context, id int64, req model.BackendRewardRequest) (*model.BackendReward, error) {
	body, err := c.send(ctx, http.MethodPut, rewardPath(id), req)
	if err != nil {
		return nil, fmt.Errorf("update reward %d: %w", id, err)
	}
	return decodeObject[model.BackendReward](body, "reward")
}

func (c *Client) DeleteReward(ctx context.Context, id int64) error {
	if _, err := c.send(ctx, http.MethodDelete, rewardPath(id), nil); err != nil {
		return fmt.Errorf("delete reward %d: %w", id, err)
	}
	return nil
}

func (c *Client) ClaimReward(ctx context.Context, id int64) (*model.BackendClaim, error) {
	body, err := c.send(ctx, http.MethodPost, rewardPath(id)+"/claim", nil)
	if err != nil {
		return nil, fmt.Errorf("claim reward %d: %w", id, err)
	}
	return decodeObject[model.BackendClaim](body, "claim")
}

func (c *Client) ListClaimedRewards(ctx context.Context) ([]model.BackendClaim, error) {
	body, err := c.get(ctx, "/api/reward/claimed")
	if err != nil {
		return nil, fmt.Errorf("list claimed rewards: %w", err)
	}
	return decodeList[model.BackendClaim](body, "claims", "rewards")
}
