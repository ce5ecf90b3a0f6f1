package session

import (
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"

	"ai-interviewer-go/internal/agent"
	"ai-interviewer-go/internal/llm"
	"ai-interviewer-go/internal/logger"
)

// ErrSessionNotFound 未知会话ID。唯一会透传给调用方的业务错误。
var ErrSessionNotFound = errors.New("session not found")

// Session 一场完整的面试交互。
// 与其面试代理和转写记录一同创建、一同销毁，1:1 对应。
type Session struct {
	ID              string
	JobTitle        string
	CompanyName     string
	JobDescription  string
	DurationMinutes int
	CreatedAt       time.Time
	Completed       bool

	Agent *agent.InterviewAgent

	// mu 串行化本会话上的生成调用：任一时刻每个会话至多一个生成请求在途，
	// 不同会话完全并行
	mu sync.Mutex
}

// Lock 获取本会话的串行化锁
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock 释放本会话的串行化锁
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// CreateConfig 创建会话所需的岗位上下文
type CreateConfig struct {
	JobTitle        string
	CompanyName     string
	JobDescription  string
	DurationMinutes int
}

// Registry 会话注册表：会话ID到存活面试代理的唯一事实来源。
// 同一个ID绝不会产生两个不同的代理实例。
// 显式对象而非进程级单例，便于测试隔离和进程内多实例。
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	chatModel  model.BaseChatModel
	structured llm.StructuredGenerator
	memory     agent.ChatMemory
}

// NewRegistry 创建一个新的会话注册表。
// chatModel/structured 注入给每个新建代理；memory 为 nil 时各代理各自用内存历史。
func NewRegistry(chatModel model.BaseChatModel, structured llm.StructuredGenerator, memory agent.ChatMemory) *Registry {
	return &Registry{
		sessions:   make(map[string]*Session),
		chatModel:  chatModel,
		structured: structured,
		memory:     memory,
	}
}

// Create 生成新会话：分配唯一ID、实例化面试代理、登记创建时间。
// 注册表写入在互斥锁下完成。
func (r *Registry) Create(cfg CreateConfig) *Session {
	id := uuid.New().String()

	ag := agent.NewInterviewAgent(agent.Config{
		SessionID:       id,
		JobTitle:        cfg.JobTitle,
		CompanyName:     cfg.CompanyName,
		JobDescription:  cfg.JobDescription,
		DurationMinutes: cfg.DurationMinutes,
	}, r.chatModel, r.structured, r.memory)

	sess := &Session{
		ID:              id,
		JobTitle:        cfg.JobTitle,
		CompanyName:     cfg.CompanyName,
		JobDescription:  cfg.JobDescription,
		DurationMinutes: cfg.DurationMinutes,
		CreatedAt:       time.Now().UTC(),
		Agent:           ag,
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	logger.Info().Str("session_id", id).Str("job_title", cfg.JobTitle).Int("duration_minutes", cfg.DurationMinutes).Msg("创建面试会话")
	return sess
}

// Get 按ID查找会话，不存在时返回 ErrSessionNotFound
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Count 当前注册的会话数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
