package api

import (
	"net/http"

	"VideoTracker-server/models"

	"github.com/gin-gonic/gin"
)

// 自分宛ての通知一覧。?unread=true で未読のみ
func ListNotifications(c *gin.Context) {
	userID := actorID(c)
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID ヘッダが必要です"})
		return
	}
	notifications, err := models.ListNotificationsByUser(Engine.DB, userID, c.Query("unread") == "true")
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         len(notifications),
	})
}

// 既読にする（冪等）
func MarkNotificationRead(c *gin.Context) {
	id := c.Param("notification_id")
	if err := models.MarkNotificationRead(Engine.DB, id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notification_id": id,
		"is_read":         true,
	})
}
