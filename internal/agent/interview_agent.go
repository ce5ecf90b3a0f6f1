package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ai-interviewer-go/internal/constants"
	"ai-interviewer-go/internal/llm"
	"ai-interviewer-go/internal/logger"
)

// State 表示面试代理的当前状态
type State int

const (
	StateCreated State = iota
	StateActive
	StateConcluding
	StateEnded
)

// String 方法使得 State 可以被打印
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateActive:
		return "ACTIVE"
	case StateConcluding:
		return "CONCLUDING"
	case StateEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// MaxQuestionsFor 根据面试时长计算问题数上限。
// 按每个问答回合约3分钟估算，夹在 [3, 10] 区间内。
func MaxQuestionsFor(durationMinutes int) int {
	n := durationMinutes / constants.MinutesPerQuestion
	if n < constants.MinQuestions {
		return constants.MinQuestions
	}
	if n > constants.MaxQuestions {
		return constants.MaxQuestions
	}
	return n
}

// InterviewAgent 是有状态的对话驱动器：决定问多少问题、何时收尾，
// 文本生成委托给外部的语言生成服务（model.BaseChatModel）。
// 并发约束由上层的会话锁保证，本类型自身不做同步。
type InterviewAgent struct {
	sessionID      string
	jobTitle       string
	companyName    string
	jobDescription string
	duration       int

	questionCount int
	maxQuestions  int
	state         State

	chatModel  model.BaseChatModel
	structured llm.StructuredGenerator
	memory     ChatMemory
}

// Config 创建 InterviewAgent 所需的岗位上下文
type Config struct {
	SessionID       string
	JobTitle        string
	CompanyName     string // 为空时使用 "a company"
	JobDescription  string
	DurationMinutes int
}

// NewInterviewAgent 创建一个新的面试代理。
// structured 为 nil 时总结阶段直接走默认值。memory 为 nil 时使用内存实现。
func NewInterviewAgent(cfg Config, chatModel model.BaseChatModel, structured llm.StructuredGenerator, memory ChatMemory) *InterviewAgent {
	companyName := cfg.CompanyName
	if companyName == "" {
		companyName = "a company"
	}
	if memory == nil {
		memory = NewInMemoryChatMemory()
	}

	return &InterviewAgent{
		sessionID:      cfg.SessionID,
		jobTitle:       cfg.JobTitle,
		companyName:    companyName,
		jobDescription: cfg.JobDescription,
		duration:       cfg.DurationMinutes,
		maxQuestions:   MaxQuestionsFor(cfg.DurationMinutes),
		state:          StateCreated,
		chatModel:      chatModel,
		structured:     structured,
		memory:         memory,
	}
}

// Initialize 生成开场白和第一个问题。
// 生成失败时返回固定的兜底开场白，面试照常开始；计数器无论如何置为1。
func (ia *InterviewAgent) Initialize(ctx context.Context) string {
	systemPrompt := buildSystemPrompt(ia.jobTitle, ia.companyName, ia.jobDescription, ia.maxQuestions)
	opening := buildOpeningInstruction(ia.jobTitle, ia.companyName)

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(opening),
	}

	initialMessage := FallbackGreeting
	resp, err := ia.chatModel.Generate(ctx, messages)
	if err != nil {
		logger.Warn().Err(err).Str("session_id", ia.sessionID).Msg("面试开场生成失败，使用兜底开场白")
	} else {
		initialMessage = strings.TrimSpace(resp.Content)
	}

	if addErr := ia.memory.AddMessages(ia.sessionID, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(opening),
		schema.AssistantMessage(initialMessage, nil),
	}); addErr != nil {
		logger.Error().Err(addErr).Str("session_id", ia.sessionID).Msg("写入开场对话历史失败")
	}

	ia.questionCount = 1
	ia.state = StateActive
	return initialMessage
}

// ProcessResponse 处理候选人的回答并生成下一个问题或收尾。
// 候选人文本追加进历史；发给模型的轮次指令是瞬时的，不入历史。
// 生成失败返回固定的过渡语，计数器照常+1，对话绝不卡死。
func (ia *InterviewAgent) ProcessResponse(ctx context.Context, responseText string) string {
	if ia.state == StateEnded {
		// 会话结束后代理冻结，不再推进状态
		return FallbackFollowUp
	}

	if err := ia.memory.AddMessage(ia.sessionID, schema.UserMessage(responseText)); err != nil {
		logger.Error().Err(err).Str("session_id", ia.sessionID).Msg("写入候选人回答到对话历史失败")
	}

	concluding := ia.questionCount >= ia.maxQuestions
	instruction := followUpInstruction
	if concluding {
		instruction = concludingInstruction
	}

	history, err := ia.memory.GetHistory(ia.sessionID)
	if err != nil {
		logger.Error().Err(err).Str("session_id", ia.sessionID).Msg("读取对话历史失败")
		history = []*schema.Message{}
	}
	messages := append(history, schema.UserMessage(instruction))

	agentResponse := FallbackFollowUp
	resp, genErr := ia.chatModel.Generate(ctx, messages)
	if genErr != nil {
		logger.Warn().Err(genErr).Str("session_id", ia.sessionID).Int("question_count", ia.questionCount).Msg("追问生成失败，使用兜底过渡语")
	} else {
		agentResponse = strings.TrimSpace(resp.Content)
	}

	if addErr := ia.memory.AddMessage(ia.sessionID, schema.AssistantMessage(agentResponse, nil)); addErr != nil {
		logger.Error().Err(addErr).Str("session_id", ia.sessionID).Msg("写入面试官回复到对话历史失败")
	}

	// 计数器单调递增，封顶在 maxQuestions+1（收尾轮）
	if ia.questionCount <= ia.maxQuestions {
		ia.questionCount++
	}
	if concluding {
		ia.state = StateConcluding
	} else {
		ia.state = StateActive
	}
	return agentResponse
}

// Summarize 生成面试总结与评估。
// 历史序列化为纯文本后发起一次结构化生成请求，要求返回
// summary/evaluation/feedback 三个键；生成或解析失败时返回最小默认值，
// 会话总是以某个结果收束，绝不以错误收束。调用后代理冻结。
func (ia *InterviewAgent) Summarize(ctx context.Context) (map[string]any, map[string]any, string) {
	defer func() { ia.state = StateEnded }()

	summary, evaluation, feedback, err := ia.trySummarize(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("session_id", ia.sessionID).Msg("面试总结生成失败，使用默认总结")
		return map[string]any{"key_points": []any{"Interview completed"}},
			map[string]any{"overall_impression": 5},
			DefaultFeedback
	}
	return summary, evaluation, feedback
}

func (ia *InterviewAgent) trySummarize(ctx context.Context) (map[string]any, map[string]any, string, error) {
	if ia.structured == nil {
		return nil, nil, "", fmt.Errorf("未配置结构化生成服务")
	}

	history, err := ia.memory.GetHistory(ia.sessionID)
	if err != nil {
		return nil, nil, "", fmt.Errorf("读取对话历史失败: %w", err)
	}

	// 只序列化 user/assistant 轮次，系统指令不进入总结材料
	var parts []string
	for _, msg := range history {
		if msg.Role != schema.User && msg.Role != schema.Assistant {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", strings.ToUpper(string(msg.Role)), msg.Content))
	}
	conversationText := strings.Join(parts, "\n\n")

	messages := []*schema.Message{
		schema.SystemMessage(summaryAnalystPrompt),
		schema.UserMessage(buildSummaryPrompt(ia.jobTitle, conversationText)),
	}

	result, err := ia.structured.GenerateStructured(ctx, messages)
	if err != nil {
		return nil, nil, "", err
	}

	summary := asMap(result["summary"])
	evaluation := asMap(result["evaluation"])
	feedback, _ := result["feedback"].(string)
	return summary, evaluation, feedback, nil
}

// asMap 把结构化输出里的一个值安全地取成map，类型不符时返回空map
func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// QuestionCount 当前已提问数
func (ia *InterviewAgent) QuestionCount() int {
	return ia.questionCount
}

// MaxQuestions 本场面试的问题数上限
func (ia *InterviewAgent) MaxQuestions() int {
	return ia.maxQuestions
}

// State 当前状态
func (ia *InterviewAgent) State() State {
	return ia.state
}

// JobTitle 岗位名称
func (ia *InterviewAgent) JobTitle() string {
	return ia.jobTitle
}

// History 返回当前对话历史的副本
func (ia *InterviewAgent) History() ([]*schema.Message, error) {
	return ia.memory.GetHistory(ia.sessionID)
}
