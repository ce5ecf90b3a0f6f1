package handler

import (
	"context"
	"log"
	"os"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"ai-interviewer-go/internal/interview"
	"ai-interviewer-go/internal/types"
)

// TranscriptHandler 负责转写记录的读写请求
type TranscriptHandler struct {
	svc    *interview.Service
	logger *log.Logger
}

// NewTranscriptHandler 创建一个新的 TranscriptHandler 实例
func NewTranscriptHandler(svc *interview.Service) *TranscriptHandler {
	return &TranscriptHandler{
		svc:    svc,
		logger: log.New(os.Stdout, "[TranscriptHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleSave 外部转写服务上报一条转写记录。
// POST /api/v1/transcript/:session_id/save
func (h *TranscriptHandler) HandleSave(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	var req types.SaveTranscriptRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}
	if req.Text == "" || req.Speaker == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "Missing required fields: text and speaker"})
		return
	}

	if err := h.svc.SaveTranscript(ctx, sessionID, req); err != nil {
		h.logger.Printf("保存转写记录失败 (session: %s): %v", sessionID, err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "保存转写记录失败"})
		return
	}

	c.JSON(consts.StatusCreated, utils.H{"status": "success", "message": "Transcript saved"})
}

// HandleGet 返回会话的全部转写记录，按插入顺序。
// GET /api/v1/transcript/:session_id
func (h *TranscriptHandler) HandleGet(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	entries, err := h.svc.Transcript(ctx, sessionID)
	if err != nil {
		h.logger.Printf("读取转写记录失败 (session: %s): %v", sessionID, err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "读取转写记录失败"})
		return
	}

	c.JSON(consts.StatusOK, entries)
}

// HandleConsolidated 返回按问题聚合后的转写视图。
// GET /api/v1/transcript/:session_id/consolidated
func (h *TranscriptHandler) HandleConsolidated(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	view, err := h.svc.ConsolidatedTranscript(ctx, sessionID)
	if err != nil {
		h.logger.Printf("聚合转写记录失败 (session: %s): %v", sessionID, err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "聚合转写记录失败"})
		return
	}

	c.JSON(consts.StatusOK, view)
}
