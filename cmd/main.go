package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"

	"ai-interviewer-go/internal/agent"
	"ai-interviewer-go/internal/api/handler"
	"ai-interviewer-go/internal/api/router"
	"ai-interviewer-go/internal/config"
	"ai-interviewer-go/internal/interview"
	"ai-interviewer-go/internal/llm"
	appLogger "ai-interviewer-go/internal/logger"
	"ai-interviewer-go/internal/outbox"
	"ai-interviewer-go/internal/session"
	"ai-interviewer-go/internal/speech"
	"ai-interviewer-go/internal/storage"
	"ai-interviewer-go/internal/transcript"
	"ai-interviewer-go/pkg/ratelimit"
)

func main() {
	var configPath string
	var sampleConfigPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.StringVar(&sampleConfigPath, "sample-config", "", "Write a sample config file to the given path and exit")
	pflag.Parse()

	if sampleConfigPath != "" {
		if err := config.CreateSampleConfig(sampleConfigPath); err != nil {
			log.Fatalf("生成示例配置失败: %v", err)
		}
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(&cfg.Logger)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 初始化LLM客户端。凭证缺失时回退到Mock客户端，服务仍可启动（开发/演示模式）。
	var chatModel model.BaseChatModel
	var structured llm.StructuredGenerator

	openaiModel, err := llm.NewOpenAIChatModel(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.APIURL,
		cfg.OpenAI.Temperature,
		time.Duration(cfg.OpenAI.TimeoutSecs)*time.Second,
	)
	if err != nil {
		glog.Warnf("初始化OpenAI客户端失败: %v，回退到Mock客户端", err)
		mock := llm.NewMockChatClient(agent.FallbackGreeting, nil)
		chatModel = mock
		structured = mock
	} else if cfg.OpenAI.QPM > 0 {
		limited := ratelimit.NewRateLimitedChatModel(openaiModel, cfg.OpenAI.QPM)
		chatModel = limited
		structured = limited
		glog.Infof("LLM限流已启用: %d QPM", cfg.OpenAI.QPM)
	} else {
		chatModel = openaiModel
		structured = openaiModel
	}

	// 转写存储：Redis可用时持久化，否则退回内存实现
	var transcriptStore transcript.Store
	if storageManager.Redis != nil {
		redisStore, err := transcript.NewRedisStore(storageManager.Redis.Client, storageManager.Redis.TranscriptTTL())
		if err != nil {
			glog.Warnf("初始化Redis转写存储失败: %v，使用内存存储", err)
			transcriptStore = transcript.NewInMemoryStore()
		} else {
			transcriptStore = redisStore
			glog.Info("转写记录使用Redis存储")
		}
	} else {
		transcriptStore = transcript.NewInMemoryStore()
		glog.Info("转写记录使用内存存储")
	}

	registry := session.NewRegistry(chatModel, structured, agent.NewInMemoryChatMemory())
	svc := interview.NewService(registry, transcriptStore, storageManager, cfg.Interview)

	// 语音转写：不可用只在启动时报一次，语音接口降级为503
	transcriber, err := speech.NewTranscriber(&cfg.Speech)
	if err != nil {
		speech.LogUnavailable(err)
		transcriber = nil
	}

	// 发件箱中继：需要MySQL和RabbitMQ都就绪
	var messageRelay *outbox.MessageRelay
	if storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		relayLogger := log.New(appLogger.Logger, "[MessageRelay] ", log.LstdFlags|log.Lshortfile)
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ, relayLogger)
		messageRelay.Start()
		glog.Info("消息中继服务已启动")
	}

	interviewHandler := handler.NewInterviewHandler(svc)
	transcriptHandler := handler.NewTranscriptHandler(svc)
	speechHandler := handler.NewSpeechHandler(svc, transcriber)

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)

	router.RegisterRoutes(h, interviewHandler, transcriptHandler, speechHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化zerolog并桥接Hertz的hlog
func initLogger(cfg *config.LoggerConfig) {
	appLogger.Init(appLogger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
	})

	hertzCompatibleLogger := hertzadapter.From(appLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	if cfg.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}
