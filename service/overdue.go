package service

import (
	"fmt"
	"log"
	"sync"
	"time"

	"VideoTracker-server/models"

	"gorm.io/gorm"
)

// OverdueScanner 期限超過の工程を定期的に引き当てて担当者へ通知する。
// プル型のスキャンであり、工程の状態は一切変えない
type OverdueScanner struct {
	DB       *gorm.DB
	Notifier Notifier

	mu       sync.Mutex
	notified map[string]bool
}

func NewOverdueScanner(db *gorm.DB, notifier Notifier) *OverdueScanner {
	return &OverdueScanner{DB: db, Notifier: notifier, notified: make(map[string]bool)}
}

// Start interval ごとにスキャンするゴルーチンを起動する
func (s *OverdueScanner) Start(interval time.Duration) {
	log.Printf("Starting Overdue Scanner (interval %v)...", interval)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := s.ScanOnce(time.Now()); err != nil {
				log.Printf("期限超過スキャン失敗: %v", err)
			} else if n > 0 {
				log.Printf("期限超過の工程 %d 件を通知", n)
			}
		}
	}()
}

// ScanOnce 一回分のスキャン。通知した件数を返す。
// 同一工程への再通知はプロセス内で抑止する
func (s *OverdueScanner) ScanOnce(now time.Time) (int, error) {
	steps, err := models.ListOverdueSteps(s.DB, now)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, step := range steps {
		s.mu.Lock()
		seen := s.notified[step.ID]
		if !seen {
			s.notified[step.ID] = true
		}
		s.mu.Unlock()
		if seen {
			continue
		}
		video, err := models.GetVideoByID(s.DB, step.VideoId)
		if err != nil {
			log.Printf("期限超過工程 %s の動画取得失敗: %v", step.ID, err)
			continue
		}
		if video.AssignedTo == "" {
			continue
		}
		s.Notifier.Notify(video.AssignedTo, video.ID, models.NotificationTypeStepOverdue,
			fmt.Sprintf("工程「%s」が期限を過ぎています", step.StepType),
			fmt.Sprintf("「%s」の工程「%s」の期限は %s でした", video.Title, step.StepType, step.DueDate.Format("2006-01-02")))
		count++
	}
	return count, nil
}
