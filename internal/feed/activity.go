package feed

import (
	"context"
	"strconv"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/convert"
	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/status"
	"github.com/dukerupert/berrybridge/internal/websocket"
)

const pendingKey = "achievements.pending"

// Points returns the caller's balance together with its history.
func (s *Service) Points(ctx context.Context) (model.PointsSummary, error) {
	p, err := s.backend.GetPoints(ctx)
	if err != nil {
		return model.PointsSummary{}, err
	}
	history, err := s.backend.GetPointsHistory(ctx)
	if err != nil {
		return model.PointsSummary{}, err
	}
	if p == nil {
		p = &model.BackendPoints{}
	}
	return convert.PointsFromBackend(*p, history), nil
}

func (s *Service) PointsHistory(ctx context.Context, user model.User) (Listing[model.PointsEntry], error) {
	return load(s, userKey("points.history", user), func() ([]model.PointsEntry, error) {
		history, err := s.backend.GetPointsHistory(ctx)
		if err != nil {
			return nil, err
		}
		return convert.PointsFromBackend(model.BackendPoints{}, history).History, nil
	})
}

func (s *Service) Notifications(ctx context.Context, user model.User) (Listing[model.Notification], error) {
	return load(s, userKey("notifications", user), func() ([]model.Notification, error) {
		list, err := s.backend.ListNotifications(ctx)
		if err != nil {
			return nil, err
		}
		return convert.NotificationsFromBackend(list), nil
	})
}

func (s *Service) MarkNotificationRead(ctx context.Context, user model.User, id int64) error {
	if err := s.backend.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	s.dropSnapshot(userKey("notifications", user))
	return nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, user model.User) error {
	if err := s.backend.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	s.dropSnapshot(userKey("notifications", user))
	return nil
}

func (s *Service) Badges(ctx context.Context) (Listing[model.Badge], error) {
	return load(s, "badges", func() ([]model.Badge, error) {
		list, err := s.backend.ListBadges(ctx)
		if err != nil {
			return nil, err
		}
		return convert.BadgesFromBackend(list), nil
	})
}

func (s *Service) UserBadges(ctx context.Context, user model.User) (Listing[model.Badge], error) {
	return load(s, userKey("badges", user), func() ([]model.Badge, error) {
		list, err := s.backend.ListUserBadges(ctx)
		if err != nil {
			return nil, err
		}
		return convert.BadgesFromBackend(list), nil
	})
}

func (s *Service) Users(ctx context.Context) (Listing[model.User], error) {
	return load(s, "users", func() ([]model.User, error) {
		list, err := s.backend.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		return convert.UsersFromBackend(list), nil
	})
}

func (s *Service) Achievements(ctx context.Context, user model.User) (Listing[model.Achievement], error) {
	return load(s, userKey("achievements", user), func() ([]model.Achievement, error) {
		list, err := s.backend.ListAchievements(ctx)
		if err != nil {
			return nil, err
		}
		return convert.AchievementsFromBackend(list, s.logger), nil
	})
}

func (s *Service) PendingAchievements(ctx context.Context) (Listing[model.Achievement], error) {
	return load(s, pendingKey, func() ([]model.Achievement, error) {
		list, err := s.backend.ListPendingAchievements(ctx)
		if err != nil {
			return nil, err
		}
		return convert.AchievementsFromBackend(list, s.logger), nil
	})
}

func (s *Service) SubmitAchievement(ctx context.Context, user model.User, req model.BackendAchievementRequest) (model.Achievement, error) {
	created, err := s.backend.SubmitAchievement(ctx, req)
	if err != nil {
		return model.Achievement{}, err
	}

	var a model.Achievement
	if created != nil {
		a = convert.AchievementFromBackend(*created, s.logger)
	} else {
		a = model.Achievement{
			StudentID:   user.ID,
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Points:      req.Points,
			ProofURL:    req.ProofURL,
			Status:      status.ApprovalPending,
		}
	}

	s.dropSnapshot(userKey("achievements", user))
	s.dropSnapshot(pendingKey)
	s.broadcast(websocket.NewMessage("achievement", "submitted", a.ID, nil))
	return a, nil
}

// ReviewAchievement approves or rejects a pending achievement. Decisions on
// an already reviewed achievement are refused before reaching the backend.
func (s *Service) ReviewAchievement(ctx context.Context, reviewer model.User, id int64, decision status.Approval, note string) (model.Achievement, error) {
	if !decision.Terminal() {
		return model.Achievement{}, ErrInvalidDecision
	}

	current, err := s.backend.GetAchievement(ctx, id)
	if err != nil {
		return model.Achievement{}, err
	}
	if current == nil {
		return model.Achievement{}, backend.ErrNotFound
	}
	before := convert.AchievementFromBackend(*current, s.logger)
	if err := status.TransitionApproval(before.Status, decision); err != nil {
		return model.Achievement{}, err
	}

	updated, err := s.backend.ReviewAchievement(ctx, id, model.BackendReviewRequest{
		Status:     string(decision),
		ReviewNote: note,
	})
	if err != nil {
		return model.Achievement{}, err
	}

	after := before
	if updated != nil {
		after = convert.AchievementFromBackend(*updated, s.logger)
	}
	// Some backends echo the old record; the decision was accepted.
	if after.Status != decision {
		after.Status = decision
		after.ReviewNote = note
		after.ReviewedBy = reviewer.ID
	}

	s.logger.Info("achievement reviewed", "achievement_id", id, "decision", decision, "reviewer_id", reviewer.ID)
	s.dropSnapshot(pendingKey)
	s.dropSnapshot(studentKey("achievements", after.StudentID))
	s.sendToUser(after.StudentID, websocket.NewMessage("achievement", "reviewed", after.ID, map[string]any{
		"status": after.Status,
	}))
	s.broadcast(websocket.NewMessage("achievement", string(decision), strconv.FormatInt(id, 10), nil))
	return after, nil
}
