package service

import (
	"testing"
	"time"

	"VideoTracker-server/models"
)

func TestOverdueScanNotifiesWithoutChangingStatus(t *testing.T) {
	e := newTestEngine(t)
	video, steps := createTestVideo(t, e, []string{"構成", "撮影"})

	// 最初の工程に過去の期限を付ける
	due := time.Now().Add(-48 * time.Hour)
	if err := e.DB.Model(&steps[0]).Update("due_date", due).Error; err != nil {
		t.Fatalf("set due_date: %v", err)
	}

	scanner := NewOverdueScanner(e.DB, DirectNotifier{DB: e.DB})
	n, err := scanner.ScanOnce(time.Now())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 overdue notification, got %d", n)
	}

	// 工程の状態は変わらない
	got, _ := models.GetStepByID(e.DB, steps[0].ID)
	if got.Status != models.StepStatusInProgress {
		t.Errorf("step status = %s, want in_progress", got.Status)
	}

	ns, _ := models.ListNotificationsByUser(e.DB, "editor", true)
	found := false
	for _, notif := range ns {
		if notif.Type == models.NotificationTypeStepOverdue && notif.VideoId == video.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected a step_overdue notification for the assignee")
	}

	// 同じ工程は二度通知しない
	n, err = scanner.ScanOnce(time.Now())
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 notifications on rescan, got %d", n)
	}
}

func TestOverdueScanSkipsCompletedSteps(t *testing.T) {
	e := newTestEngine(t)
	video, steps := createTestVideo(t, e, []string{"構成", "撮影"})

	due := time.Now().Add(-time.Hour)
	if err := e.DB.Model(&steps[0]).Update("due_date", due).Error; err != nil {
		t.Fatalf("set due_date: %v", err)
	}
	transition(t, e, video.ID, steps[0].ID, models.StepStatusReview)
	transition(t, e, video.ID, steps[0].ID, models.StepStatusCompleted)

	overdue, err := models.ListOverdueSteps(e.DB, time.Now())
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(overdue) != 0 {
		t.Errorf("completed step reported overdue: %+v", overdue)
	}
}
