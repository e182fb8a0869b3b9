package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationXPEarned     = "xp_earned"
	NotificationLevelUp      = "level_up"
	NotificationRankUp       = "rank_up"
	NotificationStreakStart  = "streak_start"
	NotificationStreakUpdate = "streak_update"
)

type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"index:idx_notification_user_read,priority:1;not null" json:"userId"`
	Type      string            `gorm:"size:32;not null" json:"type"`
	Message   string            `gorm:"not null" json:"message"`
	Data      datatypes.JSONMap `json:"data"`
	IsRead    bool              `gorm:"index:idx_notification_user_read,priority:2;not null;default:false" json:"isRead"`
	ReadAt    *time.Time        `json:"readAt"`
	CreatedAt time.Time         `json:"createdAt"`
}
