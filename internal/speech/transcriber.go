package speech

import (
	"context"
	"fmt"
	"os"

	"ai-interviewer-go/internal/config"
	"ai-interviewer-go/internal/logger"
)

// Event 转写服务产出的一个文本事件。
// IsFinal=false 的中间结果只用于展示和记录，不触发对话生成。
type Event struct {
	Text    string
	IsFinal bool
}

// Transcriber 语音转写服务的抽象契约。
// 核心对话流程只消费它产出的文本事件序列，不关心音频缓冲和编解码。
type Transcriber interface {
	// Start 消费音频块流，返回转写事件流。
	// 事件通道在音频通道关闭且全部结果产出后关闭。
	Start(ctx context.Context, audio <-chan []byte) (<-chan Event, error)
}

// NewTranscriber 按配置创建转写器。
// 服务不可用（未启用或模型缺失）只在启动时报一次错，
// 上层据此让语音接口降级为503，其余接口不受影响。
func NewTranscriber(cfg *config.SpeechConfig) (Transcriber, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("语音转写未启用")
	}
	if cfg.ModelDir == "" {
		return nil, fmt.Errorf("未配置语音识别模型目录")
	}
	if _, err := os.Stat(cfg.ModelDir); err != nil {
		return nil, fmt.Errorf("语音识别模型目录不可用 (%s): %w", cfg.ModelDir, err)
	}

	// 离线识别引擎的接入点。当前构建不内嵌识别引擎，
	// 部署时通过外部转写服务走 /transcript/:session_id/save 上报。
	return nil, fmt.Errorf("当前构建未内嵌语音识别引擎，请使用外部转写服务")
}

// ScriptedTranscriber 按预设脚本产出事件的转写器。
// 用于测试和演示：每收到一个音频块，产出脚本中的下一个事件。
type ScriptedTranscriber struct {
	Script []Event
}

// NewScriptedTranscriber 创建一个脚本化转写器
func NewScriptedTranscriber(script []Event) *ScriptedTranscriber {
	return &ScriptedTranscriber{Script: script}
}

// Start 实现 Transcriber 接口
func (st *ScriptedTranscriber) Start(ctx context.Context, audio <-chan []byte) (<-chan Event, error) {
	events := make(chan Event)

	go func() {
		defer close(events)
		idx := 0
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-audio:
				if !ok {
					// 音频流结束，把剩余脚本一次性吐出
					for ; idx < len(st.Script); idx++ {
						select {
						case events <- st.Script[idx]:
						case <-ctx.Done():
							return
						}
					}
					return
				}
				if idx >= len(st.Script) {
					continue
				}
				select {
				case events <- st.Script[idx]:
					idx++
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

var _ Transcriber = (*ScriptedTranscriber)(nil)

// LogUnavailable 统一的启动期不可用日志，只记一次
func LogUnavailable(err error) {
	logger.Warn().Err(err).Msg("语音转写服务不可用，语音接口将返回503")
}
