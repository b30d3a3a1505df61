package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	FeedbackTypeGeneral      = "general"
	FeedbackTypeTimeSpecific = "time_specific"
)

// FeedbackItem 工程に付くフィードバック。time_range は time_specific のときだけ意味を持つ
// （中身は不透明テキストとして扱う）
type FeedbackItem struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	StepId      string    `gorm:"type:varchar(64);index" json:"stepId"`
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	TimeRange   string    `json:"timeRange"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Comments []Comment `gorm:"foreignKey:FeedbackItemId" json:"comments,omitempty"`
}

func (FeedbackItem) TableName() string {
	return "feedback_items"
}

func CreateFeedbackItem(db *gorm.DB, f *FeedbackItem) error {
	if f.Content == "" {
		return fmt.Errorf("feedback content is required: %w", ErrInvalidInput)
	}
	switch f.Type {
	case FeedbackTypeGeneral:
		if f.TimeRange != "" {
			return fmt.Errorf("time_range only allowed for time_specific feedback: %w", ErrInvalidInput)
		}
	case FeedbackTypeTimeSpecific:
		if f.TimeRange == "" {
			return fmt.Errorf("time_range is required for time_specific feedback: %w", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("unknown feedback type %q: %w", f.Type, ErrInvalidInput)
	}
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	return db.Create(f).Error
}

func GetFeedbackItemByID(db *gorm.DB, id string) (*FeedbackItem, error) {
	var f FeedbackItem
	if err := db.First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("feedback %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &f, nil
}

// ListFeedbackByStepID コメントスレッド込みで古い順
func ListFeedbackByStepID(db *gorm.DB, stepID string) ([]FeedbackItem, error) {
	var items []FeedbackItem
	err := db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).Where("step_id = ?", stepID).Order("created_at ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
