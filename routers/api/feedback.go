package api

import (
	"net/http"

	"VideoTracker-server/models"

	"github.com/gin-gonic/gin"
)

// 工程へのフィードバック追加。time_specific のときだけ time_range 必須
func AddFeedback(c *gin.Context) {
	stepID := c.Param("step_id")
	var req struct {
		Type      string `json:"type"`
		Content   string `json:"content"`
		TimeRange string `json:"time_range"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := Engine.AddFeedback(stepID, req.Type, req.Content, req.TimeRange, actorID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": item})
}

// 工程のフィードバック一覧（コメントスレッド込み）
func ListFeedback(c *gin.Context) {
	stepID := c.Param("step_id")
	if _, err := models.GetStepByID(Engine.DB, stepID); err != nil {
		abortWithError(c, err)
		return
	}
	items, err := models.ListFeedbackByStepID(Engine.DB, stepID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"feedback": items,
		"total":    len(items),
	})
}

// フィードバック解決（冪等）。blocked の工程が解除されることがある
func ResolveFeedback(c *gin.Context) {
	feedbackID := c.Param("feedback_id")
	item, err := Engine.ResolveFeedback(feedbackID, actorID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": item})
}

// コメント追記
func AddComment(c *gin.Context) {
	feedbackID := c.Param("feedback_id")
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	comment, err := Engine.AddComment(feedbackID, actorID(c), req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}
