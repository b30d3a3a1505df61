package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarUrl string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// EnsureUserProfile 冪等なプロフィール upsert。
// 認証コールバックの副作用ではなく明示的な API として呼ぶこと。
// 名前が未指定ならメールのローカル部をフォールバックにする。
func EnsureUserProfile(db *gorm.DB, id, email, name string) (*User, error) {
	if id == "" || email == "" {
		return nil, fmt.Errorf("id and email are required: %w", ErrInvalidInput)
	}
	var u User
	err := db.First(&u, "id = ?", id).Error
	if err == nil {
		if name != "" && name != u.Name {
			if err := db.Model(&u).Updates(map[string]interface{}{"name": name, "updated_at": time.Now()}).Error; err != nil {
				return nil, err
			}
			u.Name = name
		}
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if name == "" {
		name = email
		if i := strings.Index(email, "@"); i > 0 {
			name = email[:i]
		}
	}
	now := time.Now()
	u = User{ID: id, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
