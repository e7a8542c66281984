// Package storage 提供了与对象存储服务（MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"doc-insight-go/internal/config"
	"doc-insight-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client 封装 MinIO 客户端与目标存储桶。
type Client struct {
	minioClient *minio.Client
	bucketName  string
}

// NewClient 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}

	ctx := context.Background()
	exists, err := mc.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := mc.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
	}

	log.Info("MinIO 客户端初始化成功")
	return &Client{minioClient: mc, bucketName: cfg.BucketName}, nil
}

// ObjectKey 按 <tenantId>/<documentId> 约定生成对象键。
func ObjectKey(tenantID, documentID string) string {
	return fmt.Sprintf("%s/%s", tenantID, documentID)
}

// PresignedUploadURL 生成对象的预签名上传（PUT）链接。
func (c *Client) PresignedUploadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	presignedURL, err := c.minioClient.PresignedPutObject(ctx, c.bucketName, objectKey, expiry)
	if err != nil {
		return "", fmt.Errorf("生成预签名上传链接失败: %w", err)
	}
	return presignedURL.String(), nil
}

// PresignedDownloadURL 生成对象的预签名下载（GET）链接。
func (c *Client) PresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	presignedURL, err := c.minioClient.PresignedGetObject(ctx, c.bucketName, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("生成预签名下载链接失败: %w", err)
	}
	return presignedURL.String(), nil
}

// DeleteObject 按对象键删除文件。
func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	if err := c.minioClient.RemoveObject(ctx, c.bucketName, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("从 MinIO 删除对象失败: %w", err)
	}
	return nil
}
