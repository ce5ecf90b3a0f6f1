package transcript

import (
	"context"
	"sync"
)

// Store 定义了转写记录存储的接口：按会话追加、按会话读取。
// 未知会话等同于空历史，不是错误。
type Store interface {
	// Append 按到达顺序追加一条记录
	Append(ctx context.Context, sessionID string, entry Entry) error

	// All 返回指定会话的全部记录，保持插入顺序
	All(ctx context.Context, sessionID string) ([]Entry, error)
}

// InMemoryStore 是 Store 的内存实现。
// 非持久化，用于测试和单进程部署。
type InMemoryStore struct {
	mu sync.RWMutex
	// entries 的键是 sessionID，值是该会话的记录列表
	entries map[string][]Entry
}

// NewInMemoryStore 创建一个新的 InMemoryStore 实例。
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string][]Entry),
	}
}

// Append 实现 Store 接口
func (s *InMemoryStore) Append(ctx context.Context, sessionID string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sessionID] = append(s.entries[sessionID], entry)
	return nil
}

// All 实现 Store 接口
func (s *InMemoryStore) All(ctx context.Context, sessionID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.entries[sessionID]
	if !ok {
		return []Entry{}, nil
	}
	// 返回副本，防止调用方修改内部切片
	cpy := make([]Entry, len(entries))
	copy(cpy, entries)
	return cpy, nil
}

var _ Store = (*InMemoryStore)(nil)
