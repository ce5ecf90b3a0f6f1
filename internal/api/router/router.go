package router

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"ai-interviewer-go/internal/api/handler"
	"ai-interviewer-go/internal/constants"
	"ai-interviewer-go/internal/logger"
)

// accessLog 简单的请求日志中间件
func accessLog() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		logger.Info().
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz,
	interviewHandler *handler.InterviewHandler,
	transcriptHandler *handler.TranscriptHandler,
	speechHandler *handler.SpeechHandler,
) {
	h.Use(accessLog())

	// 欢迎页
	h.GET("/", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"message": "Welcome to the " + constants.ServiceName + " API"})
	})

	api := h.Group("/api/v1")

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	// 面试生命周期
	iv := api.Group("/interview")
	iv.POST("/start", interviewHandler.HandleStart)
	iv.POST("/:session_id/respond", interviewHandler.HandleRespond)
	iv.POST("/:session_id/end", interviewHandler.HandleEnd)
	iv.POST("/:session_id/audio", speechHandler.HandleAudio)

	// 转写记录
	tr := api.Group("/transcript")
	tr.POST("/:session_id/save", transcriptHandler.HandleSave)
	tr.GET("/:session_id", transcriptHandler.HandleGet)
	tr.GET("/:session_id/consolidated", transcriptHandler.HandleConsolidated)
}
