package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-interviewer-go/internal/constants"
)

// RedisStore 是 Store 的 Redis 实现。
// 每个会话一个 List，记录以 JSON 形式 RPUSH，可选 TTL。
type RedisStore struct {
	redisClient *redis.Client
	ttl         time.Duration // 为0时不过期
}

// NewRedisStore 创建一个新的 RedisStore 实例。
// redisClient: 已连接并配置好的 go-redis 客户端。
// ttl: 转写记录的可选过期时间，为0则不过期。
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{
		redisClient: redisClient,
		ttl:         ttl,
	}, nil
}

// buildKey 为给定的 sessionID 构建 Redis 键
func (rs *RedisStore) buildKey(sessionID string) string {
	return fmt.Sprintf(constants.KeyInterviewTranscript, sessionID)
}

// Append 实现 Store 接口
func (rs *RedisStore) Append(ctx context.Context, sessionID string, entry Entry) error {
	key := rs.buildKey(sessionID)

	serialized, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript entry for session %s: %w", sessionID, err)
	}

	// TxPipeline 保证 RPUSH 与 TTL 刷新的原子性
	pipe := rs.redisClient.TxPipeline()
	pipe.RPush(ctx, key, serialized)
	if rs.ttl > 0 {
		pipe.Expire(ctx, key, rs.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append transcript entry to redis for session %s: %w", sessionID, err)
	}
	return nil
}

// All 实现 Store 接口
func (rs *RedisStore) All(ctx context.Context, sessionID string) ([]Entry, error) {
	key := rs.buildKey(sessionID)

	serialized, err := rs.redisClient.LRange(ctx, key, 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return []Entry{}, nil // 键不存在，等同于空历史
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript from redis for session %s: %w", sessionID, err)
	}

	entries := make([]Entry, 0, len(serialized))
	for _, s := range serialized {
		var entry Entry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript entry for session %s: %w. Corrupted data: %s", sessionID, err, s)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

var _ Store = (*RedisStore)(nil)
