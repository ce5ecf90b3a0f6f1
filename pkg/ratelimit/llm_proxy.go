package ratelimit

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// structuredGenerator 与 llm.StructuredGenerator 结构一致，
// 本地声明以避免包依赖倒置
type structuredGenerator interface {
	GenerateStructured(ctx context.Context, messages []*schema.Message) (map[string]any, error)
}

// RateLimitedChatModel 对LLM模型的调用进行限流的代理。
// 只做限流不做重试：生成失败由上层用兜底文案处理，重试反而会拖慢对话节奏。
type RateLimitedChatModel struct {
	original    model.BaseChatModel
	rateLimiter *TokenBucket
}

// NewRateLimitedChatModel 创建一个新的限流LLM模型代理
func NewRateLimitedChatModel(original model.BaseChatModel, qpm int) *RateLimitedChatModel {
	return &RateLimitedChatModel{
		original:    original,
		rateLimiter: NewTokenBucket(qpm, qpm/2), // 容量设为QPM的一半，允许一定的突发流量
	}
}

// Generate 代理Generate方法，调用前先取令牌
func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Generate(ctx, messages, options...)
}

// Stream 代理Stream方法
func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Stream(ctx, messages, options...)
}

// GenerateStructured 代理结构化生成，同样走限流。
// 底层模型不支持结构化生成时返回错误，由调用方兜底。
func (rl *RateLimitedChatModel) GenerateStructured(ctx context.Context, messages []*schema.Message) (map[string]any, error) {
	sg, ok := rl.original.(structuredGenerator)
	if !ok {
		return nil, fmt.Errorf("底层模型不支持结构化生成")
	}
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return sg.GenerateStructured(ctx, messages)
}

var _ model.BaseChatModel = (*RateLimitedChatModel)(nil)
