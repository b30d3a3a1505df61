package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// 動画ステータス
const (
	VideoStatusDraft      = "draft"
	VideoStatusInProgress = "in_progress"
	VideoStatusReview     = "review"
	VideoStatusCompleted  = "completed"
)

type Video struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId    string     `gorm:"type:varchar(64);index" json:"projectId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ThumbnailUrl string     `json:"thumbnailUrl"`
	PublishDate  *time.Time `json:"publishDate"`
	Status       string     `json:"status"`
	// CurrentStep 未完了の現工程の step_type。全工程完了で nil
	CurrentStep *string   `json:"currentStep"`
	AssignedTo  string    `json:"assignedTo"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Video) TableName() string {
	return "videos"
}

func GetVideoByID(db *gorm.DB, id string) (*Video, error) {
	var v Video
	if err := db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &v, nil
}

func ListVideosByProjectID(db *gorm.DB, projectID string) ([]Video, error) {
	var videos []Video
	if err := db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

func UpdateVideoThumbnail(db *gorm.DB, id, url string) error {
	res := db.Model(&Video{}).Where("id = ?", id).
		Updates(map[string]interface{}{"thumbnail_url": url, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return nil
}
