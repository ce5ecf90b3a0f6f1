package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interviewer-go/internal/agent"
	"ai-interviewer-go/internal/api/handler"
	"ai-interviewer-go/internal/api/router"
	"ai-interviewer-go/internal/config"
	"ai-interviewer-go/internal/interview"
	"ai-interviewer-go/internal/llm"
	"ai-interviewer-go/internal/session"
	"ai-interviewer-go/internal/speech"
	"ai-interviewer-go/internal/transcript"
	"ai-interviewer-go/internal/types"
)

// newSpeechTestEngine 带脚本化转写器的测试路由
func newSpeechTestEngine(mock *llm.MockChatClient, transcriber speech.Transcriber) (*server.Hertz, *interview.Service) {
	registry := session.NewRegistry(mock, mock, agent.NewInMemoryChatMemory())
	svc := interview.NewService(registry, transcript.NewInMemoryStore(), nil, config.InterviewConfig{
		DefaultDurationMinutes: 15,
	})

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h,
		handler.NewInterviewHandler(svc),
		handler.NewTranscriptHandler(svc),
		handler.NewSpeechHandler(svc, transcriber),
	)
	return h, svc
}

func postAudio(t *testing.T, h *server.Hertz, path string, audio []byte) *ut.ResponseRecorder {
	t.Helper()
	buf := bytes.NewBuffer(audio)
	return ut.PerformRequest(h.Engine, "POST", path,
		&ut.Body{Body: buf, Len: buf.Len()},
		ut.Header{Key: "Content-Type", Value: "application/octet-stream"})
}

func TestHandleAudioDrivesConversation(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome! Q1?"},
		{Content: "Q2?"},
	})
	// 一个音频块产出中间结果+最终结果：只有最终结果触发生成
	transcriber := speech.NewScriptedTranscriber([]speech.Event{
		{Text: "I worked at", IsFinal: false},
		{Text: "I worked at a fintech startup.", IsFinal: true},
	})
	h, svc := newSpeechTestEngine(mock, transcriber)

	start := postJSON(t, h, "/api/v1/interview/start", types.StartInterviewRequest{JobTitle: "Backend Engineer"})
	require.Equal(t, 200, start.Code)
	var started types.StartInterviewResponse
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	resp := postAudio(t, h, "/api/v1/interview/"+started.SessionID+"/audio", []byte("pcm-bytes"))

	require.Equal(t, 200, resp.Code)
	var body struct {
		Messages []types.AgentMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1) // 中间结果不产生消息
	assert.Equal(t, "Q2?", body.Messages[0].Text)

	// 两个转写事件都进了流水：开场白 + 中间结果 + 最终结果 + 追问
	entries, err := svc.Transcript(context.Background(), started.SessionID)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.False(t, entries[1].IsFinal)
	assert.True(t, entries[2].IsFinal)
}

func TestHandleAudioUnknownSession(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	transcriber := speech.NewScriptedTranscriber([]speech.Event{
		{Text: "hello", IsFinal: true},
	})
	h, _ := newSpeechTestEngine(mock, transcriber)

	resp := postAudio(t, h, "/api/v1/interview/no-such-session/audio", []byte("pcm"))

	assert.Equal(t, 404, resp.Code)
}

func TestHandleAudioEmptyBody(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	transcriber := speech.NewScriptedTranscriber(nil)
	h, _ := newSpeechTestEngine(mock, transcriber)

	resp := postAudio(t, h, "/api/v1/interview/any/audio", nil)

	assert.Equal(t, 400, resp.Code)
}
