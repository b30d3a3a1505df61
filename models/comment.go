package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Comment フィードバック項目ごとの追記専用スレッド。編集・削除は無い
type Comment struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FeedbackItemId string    `gorm:"type:varchar(64);index" json:"feedbackItemId"`
	UserId         string    `json:"userId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Comment) TableName() string {
	return "comments"
}

func CreateComment(db *gorm.DB, c *Comment) error {
	if c.UserId == "" || c.Content == "" {
		return fmt.Errorf("author and content are required: %w", ErrInvalidInput)
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	return db.Create(c).Error
}
