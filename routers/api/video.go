package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"VideoTracker-server/models"
	"VideoTracker-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 動画作成。テンプレートから工程列を実体化する
func CreateVideo(c *gin.Context) {
	projectID := c.Param("project_id")
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		PublishDate string `json:"publish_date"`
		AssignedTo  string `json:"assigned_to"`
		TemplateID  string `json:"template_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var publishDate *time.Time
	if req.PublishDate != "" {
		t, err := time.Parse("2006-01-02", req.PublishDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "publish_date は YYYY-MM-DD 形式で指定してください"})
			return
		}
		publishDate = &t
	}

	video, steps, err := Engine.CreateVideo(service.CreateVideoInput{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		PublishDate: publishDate,
		AssignedTo:  req.AssignedTo,
		TemplateID:  req.TemplateID,
		Actor:       actorID(c),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"video": video,
		"steps": steps,
	})
}

// プロジェクト内の動画一覧
func ListVideos(c *gin.Context) {
	projectID := c.Param("project_id")
	videos, err := models.ListVideosByProjectID(Engine.DB, projectID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"videos":     videos,
		"project_id": projectID,
		"total":      len(videos),
	})
}

// 動画詳細（工程列込み）
func GetVideo(c *gin.Context) {
	videoID := c.Param("video_id")
	video, steps, err := Engine.GetVideoDetail(videoID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"video": video,
		"steps": steps,
	})
}

// サムネイルを MinIO に上げて動画に紐付ける
func UploadVideoThumbnail(c *gin.Context) {
	videoID := c.Param("video_id")
	if _, err := models.GetVideoByID(Engine.DB, videoID); err != nil {
		abortWithError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file フィールドが必要です: " + err.Error()})
		return
	}
	defer file.Close()

	objectName := fmt.Sprintf("thumbnails/%s/%s", videoID, filepath.Base(header.Filename))
	url, err := service.UploadThumbnail(file, objectName, header.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "アップロード失敗: " + err.Error()})
		return
	}
	if err := models.UpdateVideoThumbnail(Engine.DB, videoID, url); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"video_id":      videoID,
		"thumbnail_url": url,
	})
}

type videoProgress struct {
	Video *models.Video           `json:"video"`
	Steps []models.ProductionStep `json:"steps"`
}

// 動画進捗 WebSocket。DB を 1 秒間隔でポーリングし、変化があれば push する。
// 動画が completed になったら最終状態を送って閉じる
func VideoProgressWebSocket(c *gin.Context) {
	videoID := c.Param("video_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "WebSocket アップグレード失敗"})
		return
	}
	defer conn.Close()

	video, steps, err := Engine.GetVideoDetail(videoID)
	if err != nil {
		conn.WriteJSON(map[string]interface{}{"error": "video not found: " + err.Error()})
		return
	}
	_ = conn.WriteJSON(videoProgress{Video: video, Steps: steps})

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prev := progressFingerprint(video, steps)
	for range ticker.C {
		video, steps, err = Engine.GetVideoDetail(videoID)
		if err != nil {
			continue
		}
		cur := progressFingerprint(video, steps)
		if cur != prev {
			if err := conn.WriteJSON(videoProgress{Video: video, Steps: steps}); err != nil {
				break
			}
			prev = cur
		}
		if video.Status == models.VideoStatusCompleted {
			_ = conn.WriteJSON(videoProgress{Video: video, Steps: steps})
			break
		}
	}
}

func progressFingerprint(video *models.Video, steps []models.ProductionStep) string {
	cur := ""
	if video.CurrentStep != nil {
		cur = *video.CurrentStep
	}
	fp := video.Status + "|" + cur
	for _, s := range steps {
		fp += "|" + s.Status
	}
	return fp
}
