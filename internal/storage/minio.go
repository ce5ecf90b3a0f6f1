package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"ai-interviewer-go/internal/config"
)

// MinIO 面试报告归档的对象存储客户端
type MinIO struct {
	client        *minio.Client
	reportsBucket string
	logger        *log.Logger
}

// NewMinIO 创建MinIO客户端，确保报告桶存在并配置过期规则
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("MinIO endpoint不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:        client,
		reportsBucket: cfg.ReportsBucket,
		logger:        logger,
	}

	if err := m.ensureBucketExists(cfg.ReportsBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保报告存储桶存在失败: %w", err)
	}

	if cfg.ReportExpireDays > 0 {
		if err := m.setupBucketLifecycle(context.Background(), cfg.ReportsBucket, "expire-interview-reports", cfg.ReportExpireDays); err != nil {
			// 生命周期规则失败不阻塞启动
			logger.Printf("[MinIO] Warning: Failed to set up lifecycle rules: %v", err)
		}
	}

	return m, nil
}

// ensureBucketExists 不存在则创建存储桶
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在失败: %w", bucketName, err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Printf("[MinIO] Created bucket: %s", bucketName)
	return nil
}

// setupBucketLifecycle 为存储桶设置对象过期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	if err := m.client.SetBucketLifecycle(ctx, bucketName, cfg); err != nil {
		return fmt.Errorf("设置存储桶 %s 生命周期失败: %w", bucketName, err)
	}
	m.logger.Printf("[MinIO] Lifecycle rule set for bucket %s: %d days", bucketName, expiryDays)
	return nil
}

// ArchiveReport 归档面试报告JSON，返回对象路径
func (m *MinIO) ArchiveReport(ctx context.Context, sessionID string, reportJSON []byte) (string, error) {
	objectName := fmt.Sprintf("reports/%s.json", sessionID)

	_, err := m.client.PutObject(ctx, m.reportsBucket, objectName,
		bytes.NewReader(reportJSON), int64(len(reportJSON)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("归档面试报告 %s 失败: %w", sessionID, err)
	}

	m.logger.Printf("[MinIO] Archived report for session %s to %s/%s", sessionID, m.reportsBucket, objectName)
	return fmt.Sprintf("%s/%s", m.reportsBucket, objectName), nil
}

// GetReport 读取已归档的面试报告JSON
func (m *MinIO) GetReport(ctx context.Context, sessionID string) ([]byte, error) {
	objectName := fmt.Sprintf("reports/%s.json", sessionID)

	obj, err := m.client.GetObject(ctx, m.reportsBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("读取归档报告 %s 失败: %w", sessionID, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取归档报告 %s 内容失败: %w", sessionID, err)
	}
	return data, nil
}
