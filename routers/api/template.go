package api

import (
	"net/http"

	"VideoTracker-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// テンプレート作成。is_default ならスコープ内の既定を置き換える
func CreateTemplate(c *gin.Context) {
	var req struct {
		ProjectID string               `json:"project_id"`
		Name      string               `json:"name"`
		Steps     models.TemplateSteps `json:"steps"`
		IsDefault bool                 `json:"is_default"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t := models.ScheduleTemplate{
		ID:        uuid.NewString(),
		ProjectId: req.ProjectID,
		Name:      req.Name,
		Steps:     req.Steps,
		IsDefault: req.IsDefault,
		CreatedBy: actorID(c),
	}
	if err := models.CreateTemplate(Engine.DB, &t); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": t})
}

// テンプレート一覧。project_id クエリでプロジェクト用 + グローバルを返す
func ListTemplates(c *gin.Context) {
	templates, err := models.ListTemplates(Engine.DB, c.Query("project_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"templates": templates,
		"total":     len(templates),
	})
}
