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
	"ai-interviewer-go/internal/types"
)

// InterviewHandler 负责处理面试生命周期相关的请求
type InterviewHandler struct {
	svc    *interview.Service
	logger *log.Logger
}

// NewInterviewHandler 创建一个新的 InterviewHandler 实例
func NewInterviewHandler(svc *interview.Service) *InterviewHandler {
	return &InterviewHandler{
		svc:    svc,
		logger: log.New(os.Stdout, "[InterviewHandler] ", log.LstdFlags|log.Lshortfile),
	}
}

// HandleStart 开始一场新面试。
// POST /api/v1/interview/start
func (h *InterviewHandler) HandleStart(ctx context.Context, c *app.RequestContext) {
	var req types.StartInterviewRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}
	if req.JobTitle == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "job_title 不能为空"})
		return
	}

	resp, err := h.svc.Start(ctx, req)
	if err != nil {
		h.logger.Printf("开始面试失败: %v", err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "开始面试失败"})
		return
	}

	c.JSON(consts.StatusOK, resp)
}

// HandleRespond 接收候选人的一次回答。
// 中间转写结果只确认收到；最终结果返回面试官的下一条消息。
// POST /api/v1/interview/:session_id/respond
func (h *InterviewHandler) HandleRespond(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	var req types.CandidateResponseRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败: " + err.Error()})
		return
	}

	msg, err := h.svc.Respond(ctx, sessionID, req.Text, req.IsFinal)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(consts.StatusNotFound, utils.H{"error": "Interview session not found"})
			return
		}
		h.logger.Printf("处理候选人回答失败 (session: %s): %v", sessionID, err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "处理回答失败"})
		return
	}

	if msg == nil {
		c.JSON(consts.StatusOK, utils.H{"status": "received"})
		return
	}
	c.JSON(consts.StatusOK, msg)
}

// HandleEnd 结束面试并返回完整报告。
// POST /api/v1/interview/:session_id/end
func (h *InterviewHandler) HandleEnd(ctx context.Context, c *app.RequestContext) {
	sessionID := c.Param("session_id")

	summary, err := h.svc.End(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(consts.StatusNotFound, utils.H{"error": "Interview session not found"})
			return
		}
		h.logger.Printf("结束面试失败 (session: %s): %v", sessionID, err)
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "结束面试失败"})
		return
	}

	c.JSON(consts.StatusOK, summary)
}
