package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interviewer-go/internal/llm"
)

func newTestAgent(t *testing.T, mock *llm.MockChatClient, durationMinutes int) *InterviewAgent {
	t.Helper()
	return NewInterviewAgent(Config{
		SessionID:       "test-session",
		JobTitle:        "Backend Engineer",
		CompanyName:     "Acme",
		DurationMinutes: durationMinutes,
	}, mock, mock, NewInMemoryChatMemory())
}

func TestMaxQuestionsFor(t *testing.T) {
	cases := []struct {
		duration int
		want     int
	}{
		{1, 3},
		{6, 3},
		{9, 3},
		{15, 5},
		{30, 10},
		{100, 10},
		{0, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, MaxQuestionsFor(c.duration), "duration=%d", c.duration)
	}
}

func TestInitializeSuccess(t *testing.T) {
	mock := llm.NewMockChatClient("Hi, I'm your interviewer. Tell me about yourself.", nil)
	ag := newTestAgent(t, mock, 15)

	msg := ag.Initialize(context.Background())

	assert.Equal(t, "Hi, I'm your interviewer. Tell me about yourself.", msg)
	assert.Equal(t, 1, ag.QuestionCount())
	assert.Equal(t, StateActive, ag.State())

	// 开场调用应包含系统提示与开场指令
	received := mock.GetReceivedMessages()
	require.Len(t, received, 2)
	assert.Contains(t, received[0].Content, "Backend Engineer")
	assert.Contains(t, received[1].Content, "Start the interview")

	// 历史应有 system/user/assistant 三条
	history, err := ag.History()
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestInitializeFallbackOnError(t *testing.T) {
	mock := llm.NewMockChatClient("", errors.New("llm unavailable"))
	ag := newTestAgent(t, mock, 15)

	msg := ag.Initialize(context.Background())

	assert.Equal(t, FallbackGreeting, msg)
	// 兜底路径计数器同样置1，面试照常开始
	assert.Equal(t, 1, ag.QuestionCount())
	assert.Equal(t, StateActive, ag.State())
}

func TestProcessResponseIncrementsCounter(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome. First question?"},
		{Content: "Follow-up one?"},
		{Content: "Follow-up two?"},
	})
	ag := newTestAgent(t, mock, 15) // max = 5

	ag.Initialize(context.Background())
	require.Equal(t, 1, ag.QuestionCount())

	ag.ProcessResponse(context.Background(), "I have five years of experience.")
	assert.Equal(t, 2, ag.QuestionCount())

	ag.ProcessResponse(context.Background(), "Mostly Go and distributed systems.")
	assert.Equal(t, 3, ag.QuestionCount())
}

func TestProcessResponseFallbackStillIncrements(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome. First question?"},
		{Error: errors.New("transient failure")},
	})
	ag := newTestAgent(t, mock, 15)

	ag.Initialize(context.Background())
	msg := ag.ProcessResponse(context.Background(), "Some answer.")

	assert.Equal(t, FallbackFollowUp, msg)
	assert.Equal(t, 2, ag.QuestionCount())
}

func TestConcludingInstructionAtMaxQuestions(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome. Q1?"},
		{Content: "Q2?"},
		{Content: "Q3?"},
		{Content: "Final question, and thank you!"},
	})
	ag := newTestAgent(t, mock, 9) // max = 3

	ag.Initialize(context.Background())
	ag.ProcessResponse(context.Background(), "answer one")
	ag.ProcessResponse(context.Background(), "answer two")
	require.Equal(t, 3, ag.QuestionCount())

	// 计数器已到上限，下一轮必须是收尾指令
	ag.ProcessResponse(context.Background(), "answer three")

	received := mock.GetReceivedMessages()
	require.NotEmpty(t, received)
	lastInstruction := received[len(received)-1]
	assert.Equal(t, concludingInstruction, lastInstruction.Content)
	assert.Equal(t, StateConcluding, ag.State())
	assert.Equal(t, 4, ag.QuestionCount()) // max+1，收尾轮
}

func TestFollowUpInstructionBeforeMax(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome. Q1?"},
		{Content: "Q2?"},
	})
	ag := newTestAgent(t, mock, 9)

	ag.Initialize(context.Background())
	ag.ProcessResponse(context.Background(), "answer one")

	received := mock.GetReceivedMessages()
	lastInstruction := received[len(received)-1]
	assert.Equal(t, followUpInstruction, lastInstruction.Content)
}

func TestSummarizeSuccess(t *testing.T) {
	summaryJSON := `{"summary":{"key_points":["solid Go experience"]},"evaluation":{"technical_skills":8,"overall_impression":7},"feedback":"Well done."}`
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome. Q1?"},
		{Content: summaryJSON},
	})
	ag := newTestAgent(t, mock, 9)

	ag.Initialize(context.Background())
	summary, evaluation, feedback := ag.Summarize(context.Background())

	assert.Equal(t, []any{"solid Go experience"}, summary["key_points"])
	assert.Equal(t, float64(8), evaluation["technical_skills"])
	assert.Equal(t, "Well done.", feedback)
	assert.Equal(t, StateEnded, ag.State())
}

func TestSummarizeExcludesSystemPrompt(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome. Q1?"},
		{Content: `{"summary":{},"evaluation":{},"feedback":""}`},
	})
	ag := newTestAgent(t, mock, 9)

	ag.Initialize(context.Background())
	ag.Summarize(context.Background())

	// 总结请求里的对话材料不应包含系统提示文本
	received := mock.GetReceivedMessages()
	summaryPrompt := received[len(received)-1]
	assert.Contains(t, summaryPrompt.Content, "INTERVIEW TRANSCRIPT")
	assert.False(t, strings.Contains(summaryPrompt.Content, "DO NOT mention that you're an AI"))
}

func TestSummarizeFallbackOnFailure(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome. Q1?"},
		{Error: errors.New("structured generation failed")},
	})
	ag := newTestAgent(t, mock, 9)

	ag.Initialize(context.Background())
	summary, evaluation, feedback := ag.Summarize(context.Background())

	assert.Equal(t, map[string]any{"key_points": []any{"Interview completed"}}, summary)
	assert.Equal(t, map[string]any{"overall_impression": 5}, evaluation)
	assert.Equal(t, DefaultFeedback, feedback)
	assert.Equal(t, StateEnded, ag.State())
}

func TestSummarizeFallbackOnUnparseableOutput(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome. Q1?"},
		{Content: "this is not json"},
	})
	ag := newTestAgent(t, mock, 9)

	ag.Initialize(context.Background())
	_, evaluation, feedback := ag.Summarize(context.Background())

	assert.Equal(t, map[string]any{"overall_impression": 5}, evaluation)
	assert.Equal(t, DefaultFeedback, feedback)
}

func TestAgentFrozenAfterSummarize(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome. Q1?"},
		{Content: `{"summary":{},"evaluation":{},"feedback":"ok"}`},
	})
	ag := newTestAgent(t, mock, 9)

	ag.Initialize(context.Background())
	ag.Summarize(context.Background())
	require.Equal(t, StateEnded, ag.State())

	countBefore := ag.QuestionCount()
	msg := ag.ProcessResponse(context.Background(), "late answer")

	assert.Equal(t, FallbackFollowUp, msg)
	assert.Equal(t, countBefore, ag.QuestionCount())
	assert.Equal(t, StateEnded, ag.State())
}

func TestDefaultCompanyName(t *testing.T) {
	mock := llm.NewMockChatClient("Welcome.", nil)
	ag := NewInterviewAgent(Config{
		SessionID:       "s",
		JobTitle:        "Data Analyst",
		DurationMinutes: 15,
	}, mock, mock, nil)

	ag.Initialize(context.Background())

	received := mock.GetReceivedMessages()
	require.Len(t, received, 2)
	assert.Contains(t, received[0].Content, "at a company")
}
