package api

import (
	"net/http"
	"time"

	"VideoTracker-server/models"

	"github.com/gin-gonic/gin"
)

// 工程の状態遷移。target は in_progress / review / completed のいずれか
func TransitionStep(c *gin.Context) {
	videoID := c.Param("video_id")
	stepID := c.Param("step_id")
	var req struct {
		Target string `json:"target"`
		Url    string `json:"url"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	step, err := Engine.TransitionStep(videoID, stepID, req.Target, req.Url, req.Notes, actorID(c))
	if err != nil {
		// blocked へ落ちた工程は本文にも載せる
		if step != nil {
			c.JSON(statusFromErr(err), gin.H{"error": err.Error(), "step": step})
			return
		}
		abortWithError(c, err)
		return
	}

	video, steps, err := Engine.GetVideoDetail(videoID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"step":  step,
		"video": video,
		"steps": steps,
	})
}

// 期限超過の工程一覧。状態は変えず報告だけする
func ListOverdueSteps(c *gin.Context) {
	steps, err := models.ListOverdueSteps(Engine.DB, time.Now())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"steps": steps,
		"total": len(steps),
	})
}
