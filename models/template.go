package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type TemplateStep struct {
	StepType  string `json:"step_type"`
	StepOrder int    `json:"step_order"`
}

// TemplateSteps テンプレートの工程定義列。JSON カラムに保存する
type TemplateSteps []TemplateStep

func (s TemplateSteps) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *TemplateSteps) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("unsupported column type for TemplateSteps: %T", value)
}

// ScheduleTemplate 工程テンプレート。project_id が空ならグローバル
type ScheduleTemplate struct {
	ID        string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId string        `json:"projectId"`
	Name      string        `json:"name"`
	Steps     TemplateSteps `gorm:"type:json" json:"steps"`
	IsDefault bool          `json:"isDefault"`
	CreatedBy string        `json:"createdBy"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (ScheduleTemplate) TableName() string {
	return "schedule_templates"
}

// ValidateTemplateSteps 空テンプレートは InvalidInput、step_order 重複は InvalidTemplate
func ValidateTemplateSteps(steps TemplateSteps) error {
	if len(steps) == 0 {
		return fmt.Errorf("template has no steps: %w", ErrInvalidInput)
	}
	seen := map[int]bool{}
	for _, s := range steps {
		if s.StepType == "" {
			return fmt.Errorf("template step without step_type: %w", ErrInvalidTemplate)
		}
		if seen[s.StepOrder] {
			return fmt.Errorf("duplicate step_order %d: %w", s.StepOrder, ErrInvalidTemplate)
		}
		seen[s.StepOrder] = true
	}
	return nil
}

// CreateTemplate 既定フラグ付きならスコープ内の既存既定を外す（スコープごとに既定は一つ）
func CreateTemplate(db *gorm.DB, t *ScheduleTemplate) error {
	if t.Name == "" {
		return fmt.Errorf("template name is required: %w", ErrInvalidInput)
	}
	if err := ValidateTemplateSteps(t.Steps); err != nil {
		return err
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	return db.Transaction(func(tx *gorm.DB) error {
		if t.IsDefault {
			if err := tx.Model(&ScheduleTemplate{}).
				Where("project_id = ? AND is_default = ?", t.ProjectId, true).
				Updates(map[string]interface{}{"is_default": false, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		return tx.Create(t).Error
	})
}

func GetTemplateByID(db *gorm.DB, id string) (*ScheduleTemplate, error) {
	var t ScheduleTemplate
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &t, nil
}

// ListTemplates プロジェクト用テンプレートとグローバルテンプレートを返す
func ListTemplates(db *gorm.DB, projectID string) ([]ScheduleTemplate, error) {
	var templates []ScheduleTemplate
	q := db.Order("created_at DESC")
	if projectID != "" {
		q = q.Where("project_id = ? OR project_id = ''", projectID)
	} else {
		q = q.Where("project_id = ''")
	}
	if err := q.Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}
