package handler

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"ai-interviewer-go/internal/interview"
	"ai-interviewer-go/internal/session"
	"ai-interviewer-go/internal/speech"
	"ai-interviewer-go/internal/types"
)

// SpeechHandler 负责语音输入：把音频交给转写服务，
// 转写事件按序喂给对话流程（中间结果只记录，最终结果触发生成）。
type SpeechHandler struct {
	svc         *interview.Service
	transcriber speech.Transcriber // nil 表示转写服务不可用，接口降级为503
	logger      *log.Logger
}

// NewSpeechHandler 创建一个新的 SpeechHandler 实例
func NewSpeechHandler(svc *interview.Service, transcriber speech.Transcriber) *SpeechHandler {
	return &SpeechHandler{
		svc:         svc,
		transcriber: transcriber,
		logger:      log.New(os.Stdout, "[SpeechHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleAudio 接收一段音频并驱动转写与对话。
// POST /api/v1/interview/:session_id/audio
func (h *SpeechHandler) HandleAudio(ctx context.Context, c *app.RequestContext) {
	if h.transcriber == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "Speech transcription service unavailable"})
		return
	}

	sessionID := c.Param("session_id")

	audioData, err := c.Body()
	if err != nil || len(audioData) == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "音频数据不能为空"})
		return
	}

	audio := make(chan []byte, 1)
	audio <- audioData
	close(audio)

	events, err := h.transcriber.Start(ctx, audio)
	if err != nil {
		h.logger.Printf("启动转写失败 (session: %s): %v", sessionID, err)
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "Speech transcription service unavailable"})
		return
	}

	// 转写事件按产生顺序逐个喂给对话流程
	var messages []*types.AgentMessage
	for event := range events {
		msg, err := h.svc.Respond(ctx, sessionID, event.Text, event.IsFinal)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				c.JSON(consts.StatusNotFound, utils.H{"error": "Interview session not found"})
				return
			}
			h.logger.Printf("处理转写事件失败 (session: %s): %v", sessionID, err)
			c.JSON(consts.StatusInternalServerError, utils.H{"error": "处理转写事件失败"})
			return
		}
		if msg != nil {
			messages = append(messages, msg)
		}
	}

	c.JSON(consts.StatusOK, utils.H{"messages": messages})
}
