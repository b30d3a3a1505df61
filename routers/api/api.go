package api

import (
	"errors"
	"net/http"

	"VideoTracker-server/models"
	"VideoTracker-server/service"

	"github.com/gin-gonic/gin"
)

// Engine ルーター初期化時に差し込まれるワークフローエンジン
var Engine *service.WorkflowEngine

// actorID 認証基盤が付ける不透明なユーザー ID。中身は検証しない
func actorID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

// statusFromErr ドメインエラーを HTTP ステータスに写す
func statusFromErr(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidTemplate),
		errors.Is(err, models.ErrOutOfOrderTransition),
		errors.Is(err, models.ErrUnresolvedFeedback):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(statusFromErr(err), gin.H{"error": err.Error()})
}
