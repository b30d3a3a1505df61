package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"path/filepath"
	"time"

	"VideoTracker-server/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var MinioClient *minio.Client

// InitMinIO main.go から呼ぶ
func InitMinIO() {
	cfg := config.AppConfig.MinIO
	var err error
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatalf("MinIO 初期化失敗: %v", err)
	}
	log.Println("MinIO 接続成功")
}

// UploadThumbnail サムネイル画像を MinIO に上げて参照 URL を返す。
// objectName 例: "thumbnails/<video_id>/cover.png"
func UploadThumbnail(reader io.Reader, objectName string, size int64) (string, error) {
	ctx := context.Background()
	cfg := config.AppConfig.MinIO
	bucketName := cfg.Bucket

	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return "", fmt.Errorf("bucket の確認失敗: %w", err)
	}
	if !exists {
		if err := MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("bucket の作成失敗: %w", err)
		}
		log.Printf("Bucket '%s' を作成", bucketName)
	}

	contentType := "application/octet-stream"
	switch filepath.Ext(objectName) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	}

	_, err = MinioClient.PutObject(ctx, bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("MinIO へのアップロード失敗: %w", err)
	}

	// 配信ドメインが設定されていればそのまま公開 URL を組む
	if cfg.Domain != "" {
		return fmt.Sprintf("%s/%s/%s", cfg.Domain, bucketName, objectName), nil
	}

	expiry := time.Hour * 72
	presignedURL, err := MinioClient.PresignedGetObject(ctx, bucketName, objectName, expiry, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("署名付き URL の生成失敗: %w", err)
	}

	log.Printf("サムネイルをアップロード: %s", objectName)
	return presignedURL.String(), nil
}
