package routers

import (
	"VideoTracker-server/routers/api"
	"VideoTracker-server/service"

	"github.com/gin-gonic/gin"
)

func InitRouter(engine *service.WorkflowEngine) *gin.Engine {
	api.Engine = engine

	r := gin.Default()
	v1 := r.Group("/v1/api")
	{
		v1.POST("/users/ensure", api.EnsureUser)

		v1.POST("/projects", api.CreateProject)
		v1.GET("/projects", api.ListProjects)
		v1.GET("/projects/:project_id", api.GetProject)
		v1.PUT("/projects/:project_id", api.UpdateProject)

		v1.POST("/templates", api.CreateTemplate)
		v1.GET("/templates", api.ListTemplates)

		v1.POST("/projects/:project_id/videos", api.CreateVideo)
		v1.GET("/projects/:project_id/videos", api.ListVideos)
		v1.GET("/videos/:video_id", api.GetVideo)
		v1.POST("/videos/:video_id/thumbnail", api.UploadVideoThumbnail)
		v1.POST("/videos/:video_id/steps/:step_id/transition", api.TransitionStep)
		v1.GET("/steps/overdue", api.ListOverdueSteps)

		v1.POST("/steps/:step_id/feedback", api.AddFeedback)
		v1.GET("/steps/:step_id/feedback", api.ListFeedback)
		v1.POST("/feedback/:feedback_id/resolve", api.ResolveFeedback)
		v1.POST("/feedback/:feedback_id/comments", api.AddComment)

		v1.GET("/notifications", api.ListNotifications)
		v1.POST("/notifications/:notification_id/read", api.MarkNotificationRead)
	}
	r.GET("/videos/:video_id/wss", api.VideoProgressWebSocket)
	return r
}
