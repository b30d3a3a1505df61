package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 工程ステータス
const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusReview     = "review"
	StepStatusCompleted  = "completed"
	StepStatusBlocked    = "blocked"
)

// ProductionStep 動画一本の制作工程。step_order が動画内で順序を決める
type ProductionStep struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	VideoId     string     `gorm:"type:varchar(64);index" json:"videoId"`
	StepType    string     `json:"stepType"`
	StepOrder   int        `json:"stepOrder"`
	DueDate     *time.Time `json:"dueDate"`
	CompletedAt *time.Time `json:"completedAt"`
	Url         string     `json:"url"`
	Notes       string     `json:"notes"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (ProductionStep) TableName() string {
	return "production_steps"
}

func GetStepByID(db *gorm.DB, id string) (*ProductionStep, error) {
	var s ProductionStep
	if err := db.First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("step %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &s, nil
}

// GetStepsByVideoID step_order 昇順
func GetStepsByVideoID(db *gorm.DB, videoID string) ([]ProductionStep, error) {
	var steps []ProductionStep
	if err := db.Where("video_id = ?", videoID).Order("step_order ASC").Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

// CountUnresolvedFeedback 工程に残る未解決フィードバック数
func CountUnresolvedFeedback(db *gorm.DB, stepID string) (int64, error) {
	var n int64
	err := db.Model(&FeedbackItem{}).
		Where("step_id = ? AND is_completed = ?", stepID, false).
		Count(&n).Error
	return n, err
}

// ListOverdueSteps 期限超過かつ未完了（pending / in_progress）の工程。
// 状態は変えない。通知側が拾う
func ListOverdueSteps(db *gorm.DB, now time.Time) ([]ProductionStep, error) {
	var steps []ProductionStep
	err := db.Where("due_date IS NOT NULL AND due_date < ? AND status IN (?, ?)",
		now, StepStatusPending, StepStatusInProgress).
		Order("due_date ASC").Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}
