package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"VideoTracker-server/config"
	"VideoTracker-server/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 動画ごとの直列化ロック。逐次ゲートとカスケードは複数行を
// 読んでから書くため、同一動画への遷移要求は並行させない
var videoLockRegistry = struct {
	sync.Mutex
	m map[string]*sync.Mutex
}{
	m: make(map[string]*sync.Mutex),
}

func lockVideo(videoID string) func() {
	videoLockRegistry.Lock()
	mu, ok := videoLockRegistry.m[videoID]
	if !ok {
		mu = &sync.Mutex{}
		videoLockRegistry.m[videoID] = mu
	}
	videoLockRegistry.Unlock()
	mu.Lock()
	return mu.Unlock
}

// WorkflowEngine 動画と制作工程のステートマシンを駆動する
type WorkflowEngine struct {
	DB       *gorm.DB
	Notifier Notifier
}

func NewWorkflowEngine(db *gorm.DB, notifier Notifier) *WorkflowEngine {
	return &WorkflowEngine{DB: db, Notifier: notifier}
}

type CreateVideoInput struct {
	ProjectID   string
	Title       string
	Description string
	PublishDate *time.Time
	AssignedTo  string
	TemplateID  string
	Actor       string
}

// CreateVideo 動画を作り、テンプレートから工程列を実体化する。
// 実体化後の工程列は不変。テンプレートを後から並べ替えても既存動画には波及しない
func (e *WorkflowEngine) CreateVideo(in CreateVideoInput) (*models.Video, []models.ProductionStep, error) {
	if in.Title == "" {
		return nil, nil, fmt.Errorf("video title is required: %w", models.ErrInvalidInput)
	}
	if in.Actor == "" {
		return nil, nil, fmt.Errorf("actor is required: %w", models.ErrInvalidInput)
	}
	project, err := models.GetProjectByID(e.DB, in.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	steps, err := e.resolveTemplateSteps(project, in.TemplateID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	firstType := steps[0].StepType
	video := &models.Video{
		ID:          uuid.NewString(),
		ProjectId:   project.ID,
		Title:       in.Title,
		Description: in.Description,
		PublishDate: in.PublishDate,
		Status:      models.VideoStatusDraft,
		CurrentStep: &firstType,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   in.Actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rows := make([]models.ProductionStep, len(steps))
	for i, s := range steps {
		status := models.StepStatusPending
		if i == 0 {
			status = models.StepStatusInProgress
		}
		rows[i] = models.ProductionStep{
			ID:        uuid.NewString(),
			VideoId:   video.ID,
			StepType:  s.StepType,
			StepOrder: i,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	// 動画と工程は一括で書く。途中で失敗したら何も残さない
	err = e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(video).Error; err != nil {
			return err
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, nil, err
	}

	if video.AssignedTo != "" {
		e.Notifier.Notify(video.AssignedTo, video.ID, models.NotificationTypeVideoCreated,
			"新しい動画が割り当てられました",
			fmt.Sprintf("「%s」の制作が開始されました。最初の工程は「%s」です", video.Title, firstType))
	}
	return video, rows, nil
}

// resolveTemplateSteps 明示テンプレート → プロジェクト既定 → 設定のフォールバック列
func (e *WorkflowEngine) resolveTemplateSteps(project *models.Project, templateID string) (models.TemplateSteps, error) {
	var steps models.TemplateSteps
	switch {
	case templateID != "":
		t, err := models.GetTemplateByID(e.DB, templateID)
		if err != nil {
			return nil, err
		}
		if t.ProjectId != "" && t.ProjectId != project.ID {
			return nil, fmt.Errorf("template %s belongs to another project: %w", t.ID, models.ErrInvalidInput)
		}
		steps = t.Steps
	case len(project.DefaultScheduleTemplate) > 0:
		for i, name := range project.DefaultScheduleTemplate {
			steps = append(steps, models.TemplateStep{StepType: name, StepOrder: i})
		}
	default:
		for i, name := range config.DefaultStepTypes() {
			steps = append(steps, models.TemplateStep{StepType: name, StepOrder: i})
		}
	}
	if err := models.ValidateTemplateSteps(steps); err != nil {
		return nil, err
	}
	sorted := make(models.TemplateSteps, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StepOrder < sorted[j].StepOrder })
	return sorted, nil
}

// TransitionStep 工程のステートマシン本体。
//
//	pending → in_progress   下位の全工程が completed のときだけ（逐次ゲート）
//	in_progress → review    無条件（成果物 URL / メモを添付できる）
//	review → completed      未解決フィードバックが無いときだけ。最終工程なら動画を完了、
//	                        それ以外は次工程を自動で in_progress にする（カスケード）
//	blocked → review        未解決フィードバックが解消済みのときだけ
//	completed               終端
func (e *WorkflowEngine) TransitionStep(videoID, stepID, target, url, notes, actor string) (*models.ProductionStep, error) {
	unlock := lockVideo(videoID)
	defer unlock()

	video, err := models.GetVideoByID(e.DB, videoID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(video, actor); err != nil {
		return nil, err
	}
	step, err := models.GetStepByID(e.DB, stepID)
	if err != nil {
		return nil, err
	}
	if step.VideoId != videoID {
		return nil, fmt.Errorf("step %s does not belong to video %s: %w", stepID, videoID, models.ErrNotFound)
	}
	if step.Status == models.StepStatusCompleted {
		return nil, fmt.Errorf("step %s is already completed: %w", stepID, models.ErrOutOfOrderTransition)
	}

	switch target {
	case models.StepStatusInProgress:
		return e.activateStep(video, step)
	case models.StepStatusReview:
		return e.submitForReview(step, url, notes)
	case models.StepStatusCompleted:
		return e.completeStep(video, step, url, notes)
	default:
		return nil, fmt.Errorf("unsupported target status %q: %w", target, models.ErrInvalidInput)
	}
}

func (e *WorkflowEngine) authorize(video *models.Video, actor string) error {
	if actor == "" {
		return fmt.Errorf("actor is required: %w", models.ErrInvalidInput)
	}
	if actor == video.AssignedTo || actor == video.CreatedBy {
		return nil
	}
	project, err := models.GetProjectByID(e.DB, video.ProjectId)
	if err == nil && actor == project.CreatedBy {
		return nil
	}
	return fmt.Errorf("user %s may not modify video %s: %w", actor, video.ID, models.ErrNotAllowed)
}

func (e *WorkflowEngine) activateStep(video *models.Video, step *models.ProductionStep) (*models.ProductionStep, error) {
	if step.Status != models.StepStatusPending {
		return nil, fmt.Errorf("cannot start step from %s: %w", step.Status, models.ErrInvalidInput)
	}
	steps, err := models.GetStepsByVideoID(e.DB, video.ID)
	if err != nil {
		return nil, err
	}
	for _, s := range steps {
		if s.StepOrder < step.StepOrder && s.Status != models.StepStatusCompleted {
			return nil, fmt.Errorf("step %d is not completed yet: %w", s.StepOrder, models.ErrOutOfOrderTransition)
		}
	}
	now := time.Now()
	err = e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(step).Updates(map[string]interface{}{
			"status": models.StepStatusInProgress, "updated_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(video).Updates(map[string]interface{}{
			"status": models.VideoStatusInProgress, "current_step": step.StepType, "updated_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	step.Status = models.StepStatusInProgress
	return step, nil
}

func (e *WorkflowEngine) submitForReview(step *models.ProductionStep, url, notes string) (*models.ProductionStep, error) {
	switch step.Status {
	case models.StepStatusInProgress:
		// 成果物の提出。無条件で review へ
	case models.StepStatusBlocked:
		n, err := models.CountUnresolvedFeedback(e.DB, step.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, fmt.Errorf("%d feedback item(s) still open on step %s: %w", n, step.ID, models.ErrUnresolvedFeedback)
		}
	default:
		return nil, fmt.Errorf("cannot submit step for review from %s: %w", step.Status, models.ErrInvalidInput)
	}
	updates := map[string]interface{}{
		"status": models.StepStatusReview, "updated_at": time.Now(),
	}
	if url != "" {
		updates["url"] = url
	}
	if notes != "" {
		updates["notes"] = notes
	}
	if err := e.DB.Model(step).Updates(updates).Error; err != nil {
		return nil, err
	}
	step.Status = models.StepStatusReview
	if url != "" {
		step.Url = url
	}
	if notes != "" {
		step.Notes = notes
	}
	return step, nil
}

func (e *WorkflowEngine) completeStep(video *models.Video, step *models.ProductionStep, url, notes string) (*models.ProductionStep, error) {
	if step.Status != models.StepStatusReview {
		return nil, fmt.Errorf("cannot complete step from %s: %w", step.Status, models.ErrInvalidInput)
	}
	unresolved, err := models.CountUnresolvedFeedback(e.DB, step.ID)
	if err != nil {
		return nil, err
	}
	if unresolved > 0 {
		// 未解決のまま完了しようとした工程は blocked に落とす。この書き込みは残す
		if err := e.DB.Model(step).Updates(map[string]interface{}{
			"status": models.StepStatusBlocked, "updated_at": time.Now(),
		}).Error; err != nil {
			return nil, err
		}
		step.Status = models.StepStatusBlocked
		return step, fmt.Errorf("%d feedback item(s) still open on step %s: %w", unresolved, step.ID, models.ErrUnresolvedFeedback)
	}

	steps, err := models.GetStepsByVideoID(e.DB, video.ID)
	if err != nil {
		return nil, err
	}
	var next *models.ProductionStep
	for i := range steps {
		if steps[i].StepOrder > step.StepOrder {
			next = &steps[i]
			break
		}
	}

	now := time.Now()
	err = e.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status": models.StepStatusCompleted, "completed_at": now, "updated_at": now,
		}
		if url != "" {
			updates["url"] = url
		}
		if notes != "" {
			updates["notes"] = notes
		}
		if err := tx.Model(step).Updates(updates).Error; err != nil {
			return err
		}
		if next == nil {
			// 最終工程。動画を完了し current_step を空にする
			return tx.Model(video).Updates(map[string]interface{}{
				"status": models.VideoStatusCompleted, "current_step": nil, "updated_at": now,
			}).Error
		}
		// カスケード: 次工程を自動で in_progress にする
		if err := tx.Model(next).Updates(map[string]interface{}{
			"status": models.StepStatusInProgress, "updated_at": now,
		}).Error; err != nil {
			return err
		}
		return tx.Model(video).Updates(map[string]interface{}{
			"status": models.VideoStatusInProgress, "current_step": next.StepType, "updated_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	step.Status = models.StepStatusCompleted
	step.CompletedAt = &now
	if next != nil && video.AssignedTo != "" {
		e.Notifier.Notify(video.AssignedTo, video.ID, models.NotificationTypeStepReady,
			fmt.Sprintf("工程「%s」を開始できます", next.StepType),
			fmt.Sprintf("「%s」の工程「%s」が完了しました", video.Title, step.StepType))
	}
	return step, nil
}

// GetVideoDetail 動画と工程列（step_order 昇順）
func (e *WorkflowEngine) GetVideoDetail(videoID string) (*models.Video, []models.ProductionStep, error) {
	video, err := models.GetVideoByID(e.DB, videoID)
	if err != nil {
		return nil, nil, err
	}
	steps, err := models.GetStepsByVideoID(e.DB, videoID)
	if err != nil {
		return nil, nil, err
	}
	return video, steps, nil
}

// AddFeedback 工程にフィードバックを付ける
func (e *WorkflowEngine) AddFeedback(stepID, ftype, content, timeRange, actor string) (*models.FeedbackItem, error) {
	if actor == "" {
		return nil, fmt.Errorf("actor is required: %w", models.ErrInvalidInput)
	}
	if _, err := models.GetStepByID(e.DB, stepID); err != nil {
		return nil, err
	}
	item := &models.FeedbackItem{
		ID:        uuid.NewString(),
		StepId:    stepID,
		Type:      ftype,
		Content:   content,
		TimeRange: timeRange,
		CreatedBy: actor,
	}
	if err := models.CreateFeedbackItem(e.DB, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ResolveFeedback 解決済みにする（冪等）。blocked の工程から最後の未解決が消えたら
// review に戻し、担当者へ通知する
func (e *WorkflowEngine) ResolveFeedback(feedbackID, actor string) (*models.FeedbackItem, error) {
	item, err := models.GetFeedbackItemByID(e.DB, feedbackID)
	if err != nil {
		return nil, err
	}
	step, err := models.GetStepByID(e.DB, item.StepId)
	if err != nil {
		return nil, err
	}

	unlock := lockVideo(step.VideoId)
	defer unlock()

	// ロック取得後に読み直す。工程状態はロック下でしか動かない
	step, err = models.GetStepByID(e.DB, item.StepId)
	if err != nil {
		return nil, err
	}
	video, err := models.GetVideoByID(e.DB, step.VideoId)
	if err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, fmt.Errorf("actor is required: %w", models.ErrInvalidInput)
	}
	if actor != item.CreatedBy {
		if err := e.authorize(video, actor); err != nil {
			return nil, err
		}
	}

	if !item.IsCompleted {
		if err := e.DB.Model(item).Updates(map[string]interface{}{
			"is_completed": true, "updated_at": time.Now(),
		}).Error; err != nil {
			return nil, err
		}
		item.IsCompleted = true
	}

	if step.Status == models.StepStatusBlocked {
		remaining, err := models.CountUnresolvedFeedback(e.DB, step.ID)
		if err != nil {
			return nil, err
		}
		if remaining == 0 {
			if err := e.DB.Model(step).Updates(map[string]interface{}{
				"status": models.StepStatusReview, "updated_at": time.Now(),
			}).Error; err != nil {
				return nil, err
			}
			if video.AssignedTo != "" {
				e.Notifier.Notify(video.AssignedTo, video.ID, models.NotificationTypeFeedbackResolved,
					"フィードバックが解決されました",
					fmt.Sprintf("「%s」の工程「%s」を再レビューできます", video.Title, step.StepType))
			}
		}
	}
	return item, nil
}

// AddComment フィードバックへの追記コメント
func (e *WorkflowEngine) AddComment(feedbackID, authorID, content string) (*models.Comment, error) {
	if _, err := models.GetFeedbackItemByID(e.DB, feedbackID); err != nil {
		return nil, err
	}
	c := &models.Comment{
		ID:             uuid.NewString(),
		FeedbackItemId: feedbackID,
		UserId:         authorID,
		Content:        content,
	}
	if err := models.CreateComment(e.DB, c); err != nil {
		return nil, err
	}
	return c, nil
}
