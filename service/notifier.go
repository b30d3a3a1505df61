package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"VideoTracker-server/config"
	"VideoTracker-server/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const (
	TypeDeliverNotification = "notification:deliver"
)

type NotificationPayload struct {
	UserID  string    `json:"user_id"`
	VideoID string    `json:"video_id,omitempty"`
	Type    string    `json:"type"`
	Title   string    `json:"title"`
	Message string    `json:"message,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Notifier 通知の発火。ワークフロー遷移のトランザクション外で呼ばれ、
// 失敗しても遷移を巻き戻さない（ベストエフォート）
type Notifier interface {
	Notify(userID, videoID, ntype, title, message string)
}

var QueueClient *asynq.Client

// InitQueue 初期化
func InitQueue() {
	QueueClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})
}

// QueueNotifier asynq 経由で通知行の書き込みを依頼する。本番経路
type QueueNotifier struct{}

func (QueueNotifier) Notify(userID, videoID, ntype, title, message string) {
	if userID == "" {
		return
	}
	payload, err := json.Marshal(NotificationPayload{
		UserID:  userID,
		VideoID: videoID,
		Type:    ntype,
		Title:   title,
		Message: message,
		SentAt:  time.Now(),
	})
	if err != nil {
		log.Printf("通知ペイロードの生成失敗: %v", err)
		return
	}
	task := asynq.NewTask(TypeDeliverNotification, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Retention(24*time.Hour),
	)
	info, err := QueueClient.Enqueue(task)
	if err != nil {
		// 通知は副作用。キュー投入の失敗はログに残して握りつぶす
		log.Printf("通知のキュー投入失敗 (user=%s type=%s): %v", userID, ntype, err)
		return
	}
	log.Printf("[Queue] Notification Enqueued: ID=%s, user=%s, type=%s", info.ID, userID, ntype)
}

// DirectNotifier 同期で通知行を書く。テストおよび Redis 無し構成用
type DirectNotifier struct {
	DB *gorm.DB
}

func (d DirectNotifier) Notify(userID, videoID, ntype, title, message string) {
	if userID == "" {
		return
	}
	if err := writeNotification(d.DB, NotificationPayload{
		UserID:  userID,
		VideoID: videoID,
		Type:    ntype,
		Title:   title,
		Message: message,
		SentAt:  time.Now(),
	}); err != nil {
		log.Printf("通知の書き込み失敗 (user=%s type=%s): %v", userID, ntype, err)
	}
}

func writeNotification(db *gorm.DB, p NotificationPayload) error {
	return models.CreateNotification(db, &models.Notification{
		ID:      uuid.NewString(),
		UserId:  p.UserID,
		VideoId: p.VideoID,
		Type:    p.Type,
		Title:   p.Title,
		Message: p.Message,
		IsRead:  false,
		SentAt:  p.SentAt,
	})
}

// NotificationConsumer asynq サーバーで通知タスクを消費して DB に書く
type NotificationConsumer struct {
	DB *gorm.DB
}

// StartConsumer 消費者を起動する
func (c *NotificationConsumer) StartConsumer(concurrency int) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.Redis.Addr,
			Password: config.AppConfig.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeliverNotification, c.HandleDeliverNotification)

	log.Printf("Starting Notification Consumer with concurrency %d...", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("could not run notification consumer: %v", err)
		}
	}()
}

func (c *NotificationConsumer) HandleDeliverNotification(ctx context.Context, t *asynq.Task) error {
	var payload NotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if err := writeNotification(c.DB, payload); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	log.Printf("Notification delivered: user=%s type=%s", payload.UserID, payload.Type)
	return nil
}
