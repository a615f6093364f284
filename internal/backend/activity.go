package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dukerupert/berrybridge/internal/model"
)

func (c *Client) GetPoints(ctx context.Context) (*model.BackendPoints, error) {
	body, err := c.get(ctx, "/points/balance")
	if err != nil {
		return nil, fmt.Errorf("get points: %w", err)
	}
	return decodeObject[model.BackendPoints](body, "points")
}

func (c *Client) GetPointsHistory(ctx context.Context) ([]model.BackendPointsEntry, error) {
	body, err := c.get(ctx, "/points/history")
	if err != nil {
		return nil, fmt.Errorf("get points history: %w", err)
	}
	return decodeList[model.BackendPointsEntry](body, "history")
}

func (c *Client) ListNotifications(ctx context.Context) ([]model.BackendNotification, error) {
	body, err := c.get(ctx, "/notifications")
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return decodeList[model.BackendNotification](body, "notifications")
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	if _, err := c.send(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), nil); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if _, err := c.send(ctx, http.MethodPut, "/notifications/read-all", nil); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (c *Client) ListBadges(ctx context.Context) ([]model.BackendBadge, error) {
	body, err := c.get(ctx, "/badges")
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return decodeList[model.BackendBadge](body, "badges")
}

// ListUserBadges lists badges the caller has earned.
func (c *Client) ListUserBadges(ctx context.Context) ([]model.BackendBadge, error) {
	body, err := c.get(ctx, "/badges/me")
	if err != nil {
		return nil, fmt.Errorf("list user badges: %w", err)
	}
	return decodeList[model.BackendBadge](body, "badges")
}

func (c *Client) ListAchievements(ctx context.Context) ([]model.BackendAchievement, error) {
	body, err := c.get(ctx, "/achievements")
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return decodeList[model.BackendAchievement](body, "achievements")
}

func (c *Client) ListPendingAchievements(ctx context.Context) ([]model.BackendAchievement, error) {
	body, err := c.get(ctx, "/achievements/pending")
	if err != nil {
		return nil, fmt.Errorf("list pending achievements: %w", err)
	}
	return decodeList[model.BackendAchievement](body, "achievements")
}

func (c *Client) GetAchievement(ctx context.Context, id int64) (*model.BackendAchievement, error) {
	body, err := c.get(ctx, fmt.Sprintf("/achievements/%d", id))
	if err != nil {
		return nil, fmt.Errorf("get achievement %d: %w", id, err)
	}
	return decodeObject[model.BackendAchievement](body, "achievement")
}

func (c *Client) SubmitAchievement(ctx context.Context, req model.BackendAchievementRequest) (*model.BackendAchievement, error) {
	body, err := c.send(ctx, http.MethodPost, "/achievements", req)
	if err != nil {
		return nil, fmt.Errorf("submit achievement: %w", err)
	}
	return decodeObject[model.BackendAchievement](body, "achievement")
}

func (c *Client) ReviewAchievement(ctx context.Context, id int64, req model.BackendReviewRequest) (*model.BackendAchievement, error) {
	body, err := c.send(ctx, http.MethodPut, fmt.Sprintf("/achievements/%d/review", id), req)
	if err != nil {
		return nil, fmt.Errorf("review achievement %d: %w", id, err)
	}
	return decodeObject[model.BackendAchievement](body, "achievement")
}
