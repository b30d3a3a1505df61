package api

import (
	"net/http"

	"VideoTracker-server/models"

	"github.com/gin-gonic/gin"
)

// プロフィールの冪等 upsert
func EnsureUser(c *gin.Context) {
	var req struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = actorID(c)
	}
	user, err := models.EnsureUserProfile(Engine.DB, req.ID, req.Email, req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
