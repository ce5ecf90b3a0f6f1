package handler_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interviewer-go/internal/llm"
	"ai-interviewer-go/internal/types"
)

func TestHandleSaveTranscript(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	resp := postJSON(t, h, "/api/v1/transcript/external-session/save", types.SaveTranscriptRequest{
		Text:    "reported segment",
		Speaker: "candidate",
	})

	require.Equal(t, 201, resp.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Transcript saved", body["message"])
}

func TestHandleSaveTranscriptMissingFields(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	cases := []map[string]string{
		{"speaker": "candidate"},         // 缺 text
		{"text": "something"},            // 缺 speaker
		{"text": "", "speaker": ""},      // 全空
	}
	for _, payload := range cases {
		resp := postJSON(t, h, "/api/v1/transcript/s/save", payload)
		require.Equal(t, 400, resp.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "Missing required fields: text and speaker", body["error"])
	}
}

func TestHandleGetTranscript(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	save := postJSON(t, h, "/api/v1/transcript/s1/save", types.SaveTranscriptRequest{
		Text:    "first",
		Speaker: "ai",
	})
	require.Equal(t, 201, save.Code)
	save = postJSON(t, h, "/api/v1/transcript/s1/save", types.SaveTranscriptRequest{
		Text:    "second",
		Speaker: "candidate",
	})
	require.Equal(t, 201, save.Code)

	resp := getJSON(t, h, "/api/v1/transcript/s1")

	require.Equal(t, 200, resp.Code)
	var entries []types.TranscriptEntryDTO
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Text)
	assert.Equal(t, "candidate", entries[1].Speaker)
}

func TestHandleGetTranscriptUnknownSessionIsEmptyArray(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	resp := getJSON(t, h, "/api/v1/transcript/never-seen")

	require.Equal(t, 200, resp.Code)
	assert.Equal(t, "[]", string(resp.Body.Bytes()))
}

func TestHandleConsolidatedTranscript(t *testing.T) {
	mock := llm.NewMockChatClient("x", nil)
	h := newTestEngine(mock)

	postJSON(t, h, "/api/v1/transcript/s2/save", types.SaveTranscriptRequest{
		Text: "What is your experience?", Speaker: "ai", Timestamp: "2025-06-01T10:00:00Z",
	})
	postJSON(t, h, "/api/v1/transcript/s2/save", types.SaveTranscriptRequest{
		Text: "Five years of Go.", Speaker: "candidate", Timestamp: "2025-06-01T10:00:10Z",
	})
	postJSON(t, h, "/api/v1/transcript/s2/save", types.SaveTranscriptRequest{
		Text: "Mostly backend services.", Speaker: "candidate", Timestamp: "2025-06-01T10:00:20Z",
	})

	resp := getJSON(t, h, "/api/v1/transcript/s2/consolidated")

	require.Equal(t, 200, resp.Code)
	var view types.ConsolidatedTranscript
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &view))
	require.Len(t, view.AnswersByQuestion, 1)
	assert.Equal(t, "What is your experience?", view.AnswersByQuestion[0].Question)
	assert.Equal(t, "Five years of Go. Mostly backend services.", view.AnswersByQuestion[0].Answer)
	assert.Equal(t, "Mostly backend services.", view.FinalAnswer)
	assert.Len(t, view.RawSegments, 2)
}
