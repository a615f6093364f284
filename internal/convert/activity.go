package convert

import (
	"log/slog"

	"github.com/dukerupert/berrybridge/internal/model"
	"github.com/dukerupert/berrybridge/internal/status"
)

// AchievementFromBackend converts a submitted achievement. An unreadable
// status is logged and shown as pending.
func AchievementFromBackend(a model.BackendAchievement, logger *slog.Logger) model.Achievement {
	st, err := status.ParseAchievementStatus(string(a.Status))
	if err != nil {
		if logger != nil {
			logger.Warn("unreadable achievement status", "achievement_id", a.ID, "status", string(a.Status), "error", err)
		}
		st = status.ApprovalPending
	}

	return model.Achievement{
		ID:          formatID(a.ID),
		StudentID:   formatID(a.StudentID),
		Title:       a.Title,
		Description: a.Description,
		Category:    a.Category,
		Points:      a.Points,
		ProofURL:    a.ProofURL,
		Status:      st,
		SubmittedAt: a.CreatedAt,
		ReviewedBy:  formatOptionalID(a.ReviewedBy),
		ReviewNote:  a.ReviewNote,
	}
}

func AchievementsFromBackend(list []model.BackendAchievement, logger *slog.Logger) []model.Achievement {
	out := make([]model.Achievement, 0, len(list))
	for _, a := range list {
		out = append(out, AchievementFromBackend(a, logger))
	}
	return out
}

func NotificationFromBackend(n model.BackendNotification) model.Notification {
	return model.Notification{
		ID:        formatID(n.ID),
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

func NotificationsFromBackend(list []model.BackendNotification) []model.Notification {
	out := make([]model.Notification, 0, len(list))
	for _, n := range list {
		out = append(out, NotificationFromBackend(n))
	}
	return out
}

func BadgeFromBackend(b model.BackendBadge) model.Badge {
	return model.Badge{
		ID:          formatID(b.ID),
		Name:        b.Name,
		Description: b.Description,
		IconURL:     b.IconURL,
		EarnedAt:    b.EarnedAt,
	}
}

func BadgesFromBackend(list []model.BackendBadge) []model.Badge {
	out := make([]model.Badge, 0, len(list))
	for _, b := range list {
		out = append(out, BadgeFromBackend(b))
	}
	return out
}

// PointsFromBackend merges the balance and its history into one summary.
func PointsFromBackend(p model.BackendPoints, history []model.BackendPointsEntry) model.PointsSummary {
	summary := model.PointsSummary{
		UserID:      formatID(p.UserID),
		TotalPoints: p.TotalPoints,
		Berries:     p.Berries,
		History:     make([]model.PointsEntry, 0, len(history)),
	}
	for _, h := range history {
		summary.History = append(summary.History, model.PointsEntry{
			ID:        formatID(h.ID),
			Points:    h.Points,
			Berries:   h.Berries,
			Reason:    h.Reason,
			CreatedAt: h.CreatedAt,
		})
	}
	return summary
}

func UserFromBackend(u model.BackendUser) model.User {
	role := model.Role(u.Role)
	if !role.Valid() {
		role = model.RoleStudent
	}
	return model.User{
		ID:          formatID(u.ID),
		Email:       u.Email,
		Name:        u.Name,
		Role:        role,
		Department:  u.Department,
		Year:        u.Year,
		QRCode:      u.QRCode,
		Subject:     u.Subject,
		CollegeName: u.CollegeName,
	}
}

func UsersFromBackend(list []model.BackendUser) []model.User {
	out := make([]model.User, 0, len(list))
	for _, u := range list {
		out = append(out, UserFromBackend(u))
	}
	return out
}
