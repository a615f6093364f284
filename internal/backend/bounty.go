package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dukerupert/berrybridge/internal/model"
)

func bountyPath(id int64) string {
	return fmt.Sprintf("/api/bounties/%d", id)
}

func (c *Client) ListBounties(ctx context.Context) ([]model.BackendBounty, error) {
	body, err := c.get(ctx, "/api/bounties")
	if err != nil {
		return nil, fmt.Errorf("list bounties: %w", err)
	}
	return decodeList[model.BackendBounty](body, "bounties")
}

func (c *Client) GetBounty(ctx context.Context, id int64) (*model.BackendBounty, error) {
	body, err := c.get(ctx, bountyPath(id))
	if err != nil {
		return nil, fmt.Errorf("get bounty %d: %w", id, err)
	}
	return decodeObject[model.BackendBounty](body, "bounty")
}

func (c *Client) CreateBounty(ctx context.Context, req model.BackendBountyRequest) (*model.BackendBounty, error) {
	body, err := c.send(ctx, http.MethodPost, "/api/bounties", req)
	if err != nil {
		return nil, fmt.Errorf("create bounty: %w", err)
	}
	return decodeObject[model.BackendBounty](body, "bounty")
}

func (c *Client) UpdateBounty(ctx context.Context, id int64, req model.BackendBountyRequest) (*model.BackendBounty, error) {
	body, err := c.send(ctx, http.MethodPut, bountyPath(id), req)
	if err != nil {
		return nil, fmt.Errorf("update bounty %d: %w", id, err)
	}
	return decodeObject[model.BackendBounty](body, "bounty")
}

func (c *Client) DeleteBounty(ctx context.Context, id int64) error {
	if _, err := c.send(ctx, http.MethodDelete, bountyPath(id), nil); err != nil {
		return fmt.Errorf("delete bounty %d: %w", id, err)
	}
	return nil
}

// RegisterForBounty signs the caller up for a bounty.
func (c *Client) RegisterForBounty(ctx context.Context, id int64) error {
	if _, err := c.send(ctx, http.MethodPost, bountyPath(id)+"/register", nil); err != nil {
		return fmt.Errorf("register for bounty %d: %w", id, err)
	}
	return nil
}

// UpcomingBounties lists bounties the caller can still register for.
func (c *Client) UpcomingBounties(ctx context.Context, n *Negotiator) ([]model.BackendBounty, error) {
	return n.Bounties(ctx, c, CapabilityUpcoming)
}

func (c *Client) RegisteredBounties(ctx context.Context, n *Negotiator) ([]model.BackendBounty, error) {
	return n.Bounties(ctx, c, CapabilityRegistered)
}

func (c *Client) CompletedBounties(ctx context.Context, n *Negotiator) ([]model.BackendBounty, error) {
	return n.Bounties(ctx, c, CapabilityCompleted)
}
