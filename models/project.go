package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StepNameList プロジェクトの既定工程列（工程名の順序付きリスト）。JSON カラムに保存する
type StepNameList []string

func (l StepNameList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StepNameList) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported column type for StepNameList: %T", value)
}

type Project struct {
	ID                      string       `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name                    string       `json:"name"`
	ClientName              string       `json:"clientName"`
	Description             string       `json:"description"`
	DefaultScheduleTemplate StepNameList `gorm:"type:json" json:"defaultScheduleTemplate"`
	CreatedBy               string       `json:"createdBy"`
	CreatedAt               time.Time    `json:"createdAt"`
	UpdatedAt               time.Time    `json:"updatedAt"`
}

func (Project) TableName() string {
	return "projects"
}

func CreateProject(db *gorm.DB, p *Project) error {
	if p.Name == "" {
		return fmt.Errorf("project name is required: %w", ErrInvalidInput)
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return db.Create(p).Error
}

// ListProjects 新しい順
func ListProjects(db *gorm.DB) ([]Project, error) {
	var projects []Project
	if err := db.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func GetProjectByID(db *gorm.DB, id string) (*Project, error) {
	var p Project
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProjectByID 空でない項目のみ更新する
func UpdateProjectByID(db *gorm.DB, id, name, clientName, description string, template StepNameList) error {
	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if clientName != "" {
		updates["client_name"] = clientName
	}
	if description != "" {
		updates["description"] = description
	}
	if template != nil {
		updates["default_schedule_template"] = template
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	res := db.Model(&Project{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}
