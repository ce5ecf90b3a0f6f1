package agent

import (
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// ChatMemory 定义了对话历史存储的接口
type ChatMemory interface {
	// GetHistory 获取指定会话ID的对话历史。
	// 会话不存在时返回空切片和 nil 错误。
	GetHistory(sessionId string) ([]*schema.Message, error)

	// AddMessage 向指定会话的对话历史追加一条消息。
	AddMessage(sessionId string, message *schema.Message) error

	// AddMessages 批量追加多条消息。
	AddMessages(sessionId string, messages []*schema.Message) error

	// ClearHistory 清除指定会话的全部对话历史。
	// 会话不存在时静默成功。
	ClearHistory(sessionId string) error
}

// InMemoryChatMemory 是 ChatMemory 的内存实现。
// 非持久化，面试会话的生命周期与进程一致时够用。
type InMemoryChatMemory struct {
	mu sync.RWMutex
	// histories 的键是 sessionId，值是该会话的消息列表
	histories map[string][]*schema.Message
}

// NewInMemoryChatMemory 创建一个新的 InMemoryChatMemory 实例。
func NewInMemoryChatMemory() *InMemoryChatMemory {
	return &InMemoryChatMemory{
		histories: make(map[string][]*schema.Message),
	}
}

// GetHistory 实现 ChatMemory 接口
func (m *InMemoryChatMemory) GetHistory(sessionId string) ([]*schema.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history, ok := m.histories[sessionId]
	if !ok {
		return []*schema.Message{}, nil
	}
	// 返回副本，防止调用方修改内部切片。消息指针本身在追加后不再被修改。
	cpy := make([]*schema.Message, len(history))
	copy(cpy, history)
	return cpy, nil
}

// AddMessage 实现 ChatMemory 接口
func (m *InMemoryChatMemory) AddMessage(sessionId string, message *schema.Message) error {
	if message == nil {
		return fmt.Errorf("cannot add nil message to chat history for session %s", sessionId)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.histories[sessionId] = append(m.histories[sessionId], message)
	return nil
}

// AddMessages 实现 ChatMemory 接口
func (m *InMemoryChatMemory) AddMessages(sessionId string, messages []*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}
	for _, msg := range messages {
		if msg == nil {
			return fmt.Errorf("cannot add nil message in a batch to chat history for session %s", sessionId)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.histories[sessionId] = append(m.histories[sessionId], messages...)
	return nil
}

// ClearHistory 实现 ChatMemory 接口
func (m *InMemoryChatMemory) ClearHistory(sessionId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.histories, sessionId)
	return nil
}
