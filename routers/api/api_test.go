package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"VideoTracker-server/models"
	"VideoTracker-server/service"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	Engine = service.NewWorkflowEngine(db, service.DirectNotifier{DB: db})

	r := gin.New()
	v1 := r.Group("/v1/api")
	{
		v1.POST("/users/ensure", EnsureUser)
		v1.POST("/projects", CreateProject)
		v1.GET("/projects", ListProjects)
		v1.GET("/projects/:project_id", GetProject)
		v1.POST("/projects/:project_id/videos", CreateVideo)
		v1.GET("/videos/:video_id", GetVideo)
		v1.POST("/videos/:video_id/steps/:step_id/transition", TransitionStep)
		v1.POST("/steps/:step_id/feedback", AddFeedback)
		v1.POST("/feedback/:feedback_id/resolve", ResolveFeedback)
		v1.GET("/notifications", ListNotifications)
		v1.POST("/notifications/:notification_id/read", MarkNotificationRead)
	}
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, user string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := map[string]json.RawMessage{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestCreateProjectRejectsEmptyName(t *testing.T) {
	r, _ := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/v1/api/projects", "owner", gin.H{"client_name": "A社"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestProjectVideoLifecycle(t *testing.T) {
	r, db := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/v1/api/projects", "owner", gin.H{
		"name":     "A社YouTubeチャンネル",
		"template": []string{"構成", "撮影"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create project: %d %s", w.Code, w.Body.String())
	}
	var project models.Project
	if err := json.Unmarshal(resp["project"], &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}

	w, resp = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+project.ID+"/videos", "owner", gin.H{
		"title":       "第1回 サービス紹介",
		"assigned_to": "editor",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create video: %d %s", w.Code, w.Body.String())
	}
	var video models.Video
	var steps []models.ProductionStep
	if err := json.Unmarshal(resp["video"], &video); err != nil {
		t.Fatalf("decode video: %v", err)
	}
	if err := json.Unmarshal(resp["steps"], &steps); err != nil {
		t.Fatalf("decode steps: %v", err)
	}
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}

	// 逐次ゲート違反は 409
	w, _ = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/v1/api/videos/%s/steps/%s/transition", video.ID, steps[1].ID),
		"owner", gin.H{"target": "in_progress"})
	if w.Code != http.StatusConflict {
		t.Fatalf("gate violation: status = %d, want 409", w.Code)
	}

	// 正常系: step0 を review → completed、カスケードで step1 が動く
	w, _ = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/v1/api/videos/%s/steps/%s/transition", video.ID, steps[0].ID),
		"editor", gin.H{"target": "review", "url": "https://example.com/v1.mp4"})
	if w.Code != http.StatusOK {
		t.Fatalf("to review: %d %s", w.Code, w.Body.String())
	}
	w, resp = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/v1/api/videos/%s/steps/%s/transition", video.ID, steps[0].ID),
		"owner", gin.H{"target": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("to completed: %d %s", w.Code, w.Body.String())
	}
	var after models.Video
	if err := json.Unmarshal(resp["video"], &after); err != nil {
		t.Fatalf("decode video: %v", err)
	}
	if after.CurrentStep == nil || *after.CurrentStep != "撮影" {
		t.Errorf("current_step = %v, want 撮影", after.CurrentStep)
	}

	// 担当者に step_ready 通知が入っている
	ns, err := models.ListNotificationsByUser(db, "editor", true)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	var ready *models.Notification
	for i := range ns {
		if ns[i].Type == models.NotificationTypeStepReady {
			ready = &ns[i]
		}
	}
	if ready == nil {
		t.Fatal("expected step_ready notification")
	}

	// 既読化は冪等
	for i := 0; i < 2; i++ {
		w, _ = doJSON(t, r, http.MethodPost, "/v1/api/notifications/"+ready.ID+"/read", "editor", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("mark read #%d: %d", i+1, w.Code)
		}
	}
}

func TestFeedbackBlocksCompletionOverHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	_, resp := doJSON(t, r, http.MethodPost, "/v1/api/projects", "owner", gin.H{
		"name": "B社案件", "template": []string{"編集"},
	})
	var project models.Project
	if err := json.Unmarshal(resp["project"], &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	_, resp = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+project.ID+"/videos", "owner", gin.H{
		"title": "第2回",
	})
	var video models.Video
	var steps []models.ProductionStep
	if err := json.Unmarshal(resp["video"], &video); err != nil {
		t.Fatalf("decode video: %v", err)
	}
	if err := json.Unmarshal(resp["steps"], &steps); err != nil {
		t.Fatalf("decode steps: %v", err)
	}

	doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/v1/api/videos/%s/steps/%s/transition", video.ID, steps[0].ID),
		"owner", gin.H{"target": "review"})

	w, resp := doJSON(t, r, http.MethodPost, "/v1/api/steps/"+steps[0].ID+"/feedback", "owner", gin.H{
		"type": "general", "content": "音量を上げて",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add feedback: %d %s", w.Code, w.Body.String())
	}
	var item models.FeedbackItem
	if err := json.Unmarshal(resp["feedback"], &item); err != nil {
		t.Fatalf("decode feedback: %v", err)
	}

	// 未解決フィードバックがあるので完了は 409、工程は blocked に落ちる
	w, resp = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/v1/api/videos/%s/steps/%s/transition", video.ID, steps[0].ID),
		"owner", gin.H{"target": "completed"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var blocked models.ProductionStep
	if err := json.Unmarshal(resp["step"], &blocked); err != nil {
		t.Fatalf("decode step: %v", err)
	}
	if blocked.Status != models.StepStatusBlocked {
		t.Errorf("step status = %s, want blocked", blocked.Status)
	}

	// 解決後は完了できる
	w, _ = doJSON(t, r, http.MethodPost, "/v1/api/feedback/"+item.ID+"/resolve", "owner", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("resolve: %d %s", w.Code, w.Body.String())
	}
	w, _ = doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/v1/api/videos/%s/steps/%s/transition", video.ID, steps[0].ID),
		"owner", gin.H{"target": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("complete after resolve: %d %s", w.Code, w.Body.String())
	}
}

func TestTransitionForbiddenForStranger(t *testing.T) {
	r, _ := newTestRouter(t)
	_, resp := doJSON(t, r, http.MethodPost, "/v1/api/projects", "owner", gin.H{
		"name": "C社案件", "template": []string{"構成"},
	})
	var project models.Project
	if err := json.Unmarshal(resp["project"], &project); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	_, resp = doJSON(t, r, http.MethodPost, "/v1/api/projects/"+project.ID+"/videos", "owner", gin.H{"title": "第3回"})
	var video models.Video
	var steps []models.ProductionStep
	if err := json.Unmarshal(resp["video"], &video); err != nil {
		t.Fatalf("decode video: %v", err)
	}
	if err := json.Unmarshal(resp["steps"], &steps); err != nil {
		t.Fatalf("decode steps: %v", err)
	}

	w, _ := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/v1/api/videos/%s/steps/%s/transition", video.ID, steps[0].ID),
		"stranger", gin.H{"target": "review"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestEnsureUserEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	for i := 0; i < 2; i++ {
		w, resp := doJSON(t, r, http.MethodPost, "/v1/api/users/ensure", "u1", gin.H{
			"email": "suzuki@example.com",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("ensure #%d: %d %s", i+1, w.Code, w.Body.String())
		}
		var user models.User
		if err := json.Unmarshal(resp["user"], &user); err != nil {
			t.Fatalf("decode user: %v", err)
		}
		if user.ID != "u1" || user.Name != "suzuki" {
			t.Errorf("user = %+v", user)
		}
	}
}
