package handler_test

import (
	"bytes"
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
	"ai-interviewer-go/internal/transcript"
	"ai-interviewer-go/internal/types"
)

// newTestEngine 组装一套纯内存的完整路由（无外部存储、无语音转写）
func newTestEngine(mock *llm.MockChatClient) *server.Hertz {
	registry := session.NewRegistry(mock, mock, agent.NewInMemoryChatMemory())
	svc := interview.NewService(registry, transcript.NewInMemoryStore(), nil, config.InterviewConfig{
		DefaultDurationMinutes: 15,
	})

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h,
		handler.NewInterviewHandler(svc),
		handler.NewTranscriptHandler(svc),
		handler.NewSpeechHandler(svc, nil),
	)
	return h
}

func postJSON(t *testing.T, h *server.Hertz, path string, payload any) *ut.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	buf := bytes.NewBuffer(body)
	return ut.PerformRequest(h.Engine, "POST", path,
		&ut.Body{Body: buf, Len: buf.Len()},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func getJSON(t *testing.T, h *server.Hertz, path string) *ut.ResponseRecorder {
	t.Helper()
	return ut.PerformRequest(h.Engine, "GET", path, nil)
}

func TestHandleStartSuccess(t *testing.T) {
	mock := llm.NewMockChatClient("Welcome! First question?", nil)
	h := newTestEngine(mock)

	resp := postJSON(t, h, "/api/v1/interview/start", types.StartInterviewRequest{
		JobTitle:        "Backend Engineer",
		CompanyName:     "Acme",
		DurationMinutes: 9,
	})

	require.Equal(t, 200, resp.Code)
	var body types.StartInterviewResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.NotEmpty(t, body.SessionID)
	assert.Equal(t, "Welcome! First question?", body.Message)
}

func TestHandleStartMissingJobTitle(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	resp := postJSON(t, h, "/api/v1/interview/start", map[string]any{"company_name": "Acme"})

	assert.Equal(t, 400, resp.Code)
}

func TestHandleRespondUnknownSession(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	resp := postJSON(t, h, "/api/v1/interview/does-not-exist/respond", types.CandidateResponseRequest{
		Text:    "hello",
		IsFinal: true,
	})

	require.Equal(t, 404, resp.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Interview session not found", body["error"])
}

func TestHandleRespondInterimAck(t *testing.T) {
	mock := llm.NewMockChatClient("Welcome!", nil)
	h := newTestEngine(mock)

	start := postJSON(t, h, "/api/v1/interview/start", types.StartInterviewRequest{JobTitle: "QA"})
	require.Equal(t, 200, start.Code)
	var started types.StartInterviewResponse
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	resp := postJSON(t, h, "/api/v1/interview/"+started.SessionID+"/respond", types.CandidateResponseRequest{
		Text:    "partial transcri",
		IsFinal: false,
	})

	require.Equal(t, 200, resp.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "received", body["status"])
}

func TestHandleRespondFinalReturnsMessage(t *testing.T) {
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome! Q1?"},
		{Content: "Q2?"},
	})
	h := newTestEngine(mock)

	start := postJSON(t, h, "/api/v1/interview/start", types.StartInterviewRequest{JobTitle: "QA"})
	var started types.StartInterviewResponse
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	resp := postJSON(t, h, "/api/v1/interview/"+started.SessionID+"/respond", types.CandidateResponseRequest{
		Text:    "my answer",
		IsFinal: true,
	})

	require.Equal(t, 200, resp.Code)
	var msg types.AgentMessage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &msg))
	assert.Equal(t, "Q2?", msg.Text)
	assert.Equal(t, "text", msg.Type)
}

func TestHandleEndUnknownSession(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	resp := postJSON(t, h, "/api/v1/interview/does-not-exist/end", map[string]any{})

	assert.Equal(t, 404, resp.Code)
}

func TestHandleEndReturnsSummary(t *testing.T) {
	summaryJSON := `{"summary":{"key_points":["ok"]},"evaluation":{"overall_impression":7},"feedback":"Nice."}`
	mock := llm.NewMockChatClientSequential([]llm.MockResponse{
		{Content: "Welcome! Q1?"},
		{Content: summaryJSON},
	})
	h := newTestEngine(mock)

	start := postJSON(t, h, "/api/v1/interview/start", types.StartInterviewRequest{JobTitle: "PM"})
	var started types.StartInterviewResponse
	require.NoError(t, json.Unmarshal(start.Body.Bytes(), &started))

	resp := postJSON(t, h, "/api/v1/interview/"+started.SessionID+"/end", map[string]any{})

	require.Equal(t, 200, resp.Code)
	var summary types.InterviewSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
	assert.Equal(t, started.SessionID, summary.SessionID)
	assert.Equal(t, "PM", summary.JobTitle)
	assert.Equal(t, "Nice.", summary.Feedback)
	assert.NotEmpty(t, summary.Transcript)
}

func TestHandleAudioUnavailableWithoutTranscriber(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	buf := bytes.NewBufferString("fake-audio-bytes")
	resp := ut.PerformRequest(h.Engine, "POST", "/api/v1/interview/any/audio",
		&ut.Body{Body: buf, Len: buf.Len()},
		ut.Header{Key: "Content-Type", Value: "application/octet-stream"})

	require.Equal(t, 503, resp.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "Speech transcription service unavailable", body["error"])
}

func TestHealthEndpoint(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)

	require.Equal(t, 200, resp.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}
