package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 通知種別
const (
	NotificationTypeVideoCreated     = "video_created"
	NotificationTypeStepReady        = "step_ready"
	NotificationTypeStepOverdue      = "step_overdue"
	NotificationTypeFeedbackResolved = "feedback_resolved"
)

// Notification エンジンが作るお知らせ。ユーザーは is_read を立てるだけ
type Notification struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserId    string    `gorm:"type:varchar(64);index" json:"userId"`
	VideoId   string    `json:"videoId,omitempty"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	SentAt    time.Time `json:"sentAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func CreateNotification(db *gorm.DB, n *Notification) error {
	if n.UserId == "" || n.Type == "" || n.Title == "" {
		return fmt.Errorf("user, type and title are required: %w", ErrInvalidInput)
	}
	now := time.Now()
	if n.SentAt.IsZero() {
		n.SentAt = now
	}
	n.CreatedAt = now
	return db.Create(n).Error
}

// MarkNotificationRead 冪等。二度呼んでもエラーにしない
func MarkNotificationRead(db *gorm.DB, id string) error {
	res := db.Model(&Notification{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&Notification{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("notification %s: %w", id, ErrNotFound)
		}
	}
	return nil
}

func ListNotificationsByUser(db *gorm.DB, userID string, unreadOnly bool) ([]Notification, error) {
	var notifications []Notification
	q := db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if err := q.Order("sent_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}
