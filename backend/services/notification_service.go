package services

import (
	"context"
	"fmt"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationService writes milestone notifications and serves the
// per-user read surface.
type NotificationService struct {
	db  *gorm.DB
	log *utils.Logger
	now func() time.Time
}

func NewNotificationService(db *gorm.DB, log *utils.Logger) *NotificationService {
	return &NotificationService{db: db, log: log.With("service", "notifications"), now: time.Now}
}

// Emit stores the notifications one by one. Failures are logged and never
// returned: a notification is never worth failing the caller's request.
func (s *NotificationService) Emit(ctx context.Context, notifications ...models.Notification) {
	for i := range notifications {
		n := notifications[i]
		if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
			s.log.Warn("notification write failed", "user_id", n.UserID, "type", n.Type, "error", err)
		}
	}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uint, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, utils.ErrInternal(err)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, utils.ErrInternal(err)
	}
	return notifications, total, nil
}

// MarkRead flags one of userID's notifications as read. Marking an already
// read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, notificationID).Error; err != nil {
		return nil, utils.NotFoundOr(err, "Notification not found")
	}
	if n.UserID != userID {
		return nil, utils.ErrForbidden("Notification belongs to another user")
	}
	if n.IsRead {
		return &n, nil
	}

	readAt := s.now().UTC()
	err := s.db.WithContext(ctx).Model(&n).Updates(map[string]interface{}{
		"is_read": true,
		"read_at": readAt,
	}).Error
	if err != nil {
		return nil, utils.ErrInternal(err)
	}
	n.IsRead = true
	n.ReadAt = &readAt
	return &n, nil
}

// progressSnapshot is the part of a User that milestone notifications compare.
type progressSnapshot struct {
	TotalXP int
	Level   int
	Rank    string
}

func snapshotOf(u *models.User) progressSnapshot {
	return progressSnapshot{TotalXP: u.TotalXP, Level: u.Level, Rank: u.Rank}
}

// milestoneNotifications builds the xp_earned notice plus level_up and
// rank_up when they changed between before and after.
func milestoneNotifications(userID uint, before, after progressSnapshot, xpGained int, source string) []models.Notification {
	out := []models.Notification{{
		UserID:  userID,
		Type:    models.NotificationXPEarned,
		Message: fmt.Sprintf("You earned %d XP from %s", xpGained, source),
		Data: datatypes.JSONMap{
			"xp":      xpGained,
			"totalXP": after.TotalXP,
			"source":  source,
		},
	}}

	if after.Level > before.Level {
		out = append(out, models.Notification{
			UserID:  userID,
			Type:    models.NotificationLevelUp,
			Message: fmt.Sprintf("Level up! You reached level %d", after.Level),
			Data: datatypes.JSONMap{
				"oldLevel": before.Level,
				"newLevel": after.Level,
			},
		})
	}

	if after.Rank != before.Rank {
		out = append(out, models.Notification{
			UserID:  userID,
			Type:    models.NotificationRankUp,
			Message: fmt.Sprintf("Your rank is now %s", after.Rank),
			Data: datatypes.JSONMap{
				"oldRank": before.Rank,
				"newRank": after.Rank,
			},
		})
	}
	return out
}

func streakNotification(userID uint, change StreakChange, streak int) (models.Notification, bool) {
	switch change {
	case StreakStarted:
		return models.Notification{
			UserID:  userID,
			Type:    models.NotificationStreakStart,
			Message: "You started a study streak!",
			Data:    datatypes.JSONMap{"streak": streak},
		}, true
	case StreakExtended:
		return models.Notification{
			UserID:  userID,
			Type:    models.NotificationStreakUpdate,
			Message: fmt.Sprintf("Study streak: %d days in a row", streak),
			Data:    datatypes.JSONMap{"streak": streak},
		}, true
	default:
		return models.Notification{}, false
	}
}
