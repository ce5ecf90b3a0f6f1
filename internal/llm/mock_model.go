package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse 定义了 MockChatClient 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatClient 是一个用于测试的 model.BaseChatModel 的模拟实现。
// 同时实现 StructuredGenerator：结构化调用复用同一条响应序列，
// 内容按JSON解析，解析失败即返回错误（与真实客户端行为一致）。
type MockChatClient struct {
	// For single, repeatable response
	ExpectedResponse string
	ExpectedError    error

	// For sequential, different responses
	SequentialResponses []MockResponse
	ResponseIndex       int
	IsSequential        bool

	ReceivedMessages []*schema.Message
}

// NewMockChatClient 创建一个返回固定响应的 MockChatClient
func NewMockChatClient(expectedResponse string, expectedError error) *MockChatClient {
	return &MockChatClient{
		ExpectedResponse: expectedResponse,
		ExpectedError:    expectedError,
		IsSequential:     false,
		ReceivedMessages: make([]*schema.Message, 0),
	}
}

// NewMockChatClientSequential 创建一个按顺序返回不同响应的 MockChatClient
func NewMockChatClientSequential(responses []MockResponse) *MockChatClient {
	if len(responses) == 0 {
		// 为了避免panic，如果responses为空，则返回一个总是报错的客户端
		log.Println("[MockChatClient] Warning: NewMockChatClientSequential called with empty responses. Mock will always error.")
		return &MockChatClient{
			IsSequential:        true,
			SequentialResponses: []MockResponse{{Error: errors.New("mock client has no responses configured")}},
			ReceivedMessages:    make([]*schema.Message, 0),
		}
	}
	return &MockChatClient{
		SequentialResponses: responses,
		IsSequential:        true,
		ReceivedMessages:    make([]*schema.Message, 0),
	}
}

// Generate 模拟 LLM 的 Generate 方法
func (m *MockChatClient) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	content, err := m.next(input)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(content, nil), nil
}

// Stream 模拟 LLM 的 Stream 方法
func (m *MockChatClient) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	log.Printf("[MockChatClient] Received Stream request. Streaming not implemented in mock.")
	// 即使不支持stream，也记录一下收到的消息
	currentReceived := make([]*schema.Message, len(input))
	copy(currentReceived, input)
	m.ReceivedMessages = append(m.ReceivedMessages, currentReceived...)
	return nil, fmt.Errorf("streaming not implemented in MockChatClient")
}

// GenerateStructured 模拟结构化生成：取下一条响应内容按JSON解析
func (m *MockChatClient) GenerateStructured(ctx context.Context, input []*schema.Message) (map[string]any, error) {
	content, err := m.next(input)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("解析结构化输出失败: %w。原始内容: %s", err, content)
	}
	return result, nil
}

// next 记录收到的消息并返回下一条预设响应
func (m *MockChatClient) next(input []*schema.Message) (string, error) {
	log.Printf("[MockChatClient] Received request with %d messages:", len(input))
	currentReceived := make([]*schema.Message, len(input))
	copy(currentReceived, input)
	m.ReceivedMessages = append(m.ReceivedMessages, currentReceived...) // 记录所有调用收到的消息

	for i, msg := range input {
		log.Printf("  Message %d: Role=%s, Content='%s'", i+1, msg.Role, msg.Content)
	}

	if m.IsSequential {
		if m.ResponseIndex >= len(m.SequentialResponses) {
			log.Println("[MockChatClient] Error: No more sequential responses available.")
			return "", errors.New("mock client has run out of sequential responses")
		}
		resp := m.SequentialResponses[m.ResponseIndex]
		m.ResponseIndex++

		if resp.Error != nil {
			log.Printf("[MockChatClient] Sequential response %d: Returning predefined error: %v", m.ResponseIndex, resp.Error)
			return "", resp.Error
		}
		log.Printf("[MockChatClient] Sequential response %d: Returning: Content='%s'", m.ResponseIndex, resp.Content)
		return resp.Content, nil
	}

	// Legacy single response behavior
	if m.ExpectedError != nil {
		log.Printf("[MockChatClient] Single response: Returning predefined error: %v", m.ExpectedError)
		return "", m.ExpectedError
	}
	log.Printf("[MockChatClient] Single response: Returning predefined response: '%s'", m.ExpectedResponse)
	return m.ExpectedResponse, nil
}

// GetReceivedMessages 返回所有调用中累积的已接收消息
func (m *MockChatClient) GetReceivedMessages() []*schema.Message {
	return m.ReceivedMessages
}

var _ model.BaseChatModel = (*MockChatClient)(nil)
var _ StructuredGenerator = (*MockChatClient)(nil)
