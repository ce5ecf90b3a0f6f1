package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"ai-interviewer-go/internal/config"
	"ai-interviewer-go/internal/constants"
)

// ErrNotFound 键不存在。包装底层的 redis.Nil 以便上层做抽象判断。
var ErrNotFound = redis.Nil

// Redis 包装go-redis客户端
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		// 连接生命周期
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 挂载OpenTelemetry追踪钩子
	if err := redisotel.InstrumentTracing(client); err != nil {
		log.Printf("警告: 挂载Redis追踪钩子失败: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接Redis失败 (%s): %w", cfg.Address, err)
	}

	log.Printf("成功连接到Redis: %s", cfg.Address)
	return &Redis{Client: client, config: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// TranscriptTTL 转写记录的过期时间，未配置时返回0（不过期）
func (r *Redis) TranscriptTTL() time.Duration {
	if r.config.TranscriptExpireDays <= 0 {
		return 0
	}
	return time.Duration(r.config.TranscriptExpireDays) * 24 * time.Hour
}

// SetSessionState 缓存会话的对外可见状态（ACTIVE/CONCLUDING/ENDED等）
func (r *Redis) SetSessionState(ctx context.Context, sessionID, state string, ttl time.Duration) error {
	key := fmt.Sprintf(constants.KeyInterviewSessionState, sessionID)
	if err := r.Client.Set(ctx, key, state, ttl).Err(); err != nil {
		return fmt.Errorf("写入会话状态缓存失败: %w", err)
	}
	return nil
}

// GetSessionState 读取会话状态缓存，键不存在时返回 ErrNotFound
func (r *Redis) GetSessionState(ctx context.Context, sessionID string) (string, error) {
	key := fmt.Sprintf(constants.KeyInterviewSessionState, sessionID)
	state, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("读取会话状态缓存失败: %w", err)
	}
	return state, nil
}
