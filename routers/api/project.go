package api

import (
	"net/http"

	"VideoTracker-server/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// プロジェクト作成
func CreateProject(c *gin.Context) {
	var req struct {
		Name        string   `json:"name"`
		ClientName  string   `json:"client_name"`
		Description string   `json:"description"`
		Template    []string `json:"template"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := models.Project{
		ID:                      uuid.NewString(),
		Name:                    req.Name,
		ClientName:              req.ClientName,
		Description:             req.Description,
		DefaultScheduleTemplate: models.StepNameList(req.Template),
		CreatedBy:               actorID(c),
	}
	if err := models.CreateProject(Engine.DB, &project); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// プロジェクト一覧（新しい順）
func ListProjects(c *gin.Context) {
	projects, err := models.ListProjects(Engine.DB)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"total":    len(projects),
	})
}

// プロジェクト詳細（動画一覧込み）
func GetProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := models.GetProjectByID(Engine.DB, projectID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	videos, err := models.ListVideosByProjectID(Engine.DB, projectID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project": project,
		"videos":  videos,
	})
}

// プロジェクト更新（空でない項目のみ）
func UpdateProject(c *gin.Context) {
	projectID := c.Param("project_id")
	var req struct {
		Name        string   `json:"name"`
		ClientName  string   `json:"client_name"`
		Description string   `json:"description"`
		Template    []string `json:"template"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.UpdateProjectByID(Engine.DB, projectID, req.Name, req.ClientName, req.Description, models.StepNameList(req.Template)); err != nil {
		abortWithError(c, err)
		return
	}
	project, err := models.GetProjectByID(Engine.DB, projectID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}
