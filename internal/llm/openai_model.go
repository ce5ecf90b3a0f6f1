package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	defaultOpenAIAPIURL = "https://api.openai.com/v1/chat/completions"
	defaultModelName    = "gpt-4o"
)

// StructuredGenerator 结构化生成服务：要求模型返回一个JSON对象并解析。
// 解析失败与生成失败等价，由调用方负责兜底。
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, messages []*schema.Message) (map[string]any, error)
}

// --- OpenAI Chat Completions 请求/响应结构 ---

type openAIResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

type openAIChatCompletionRequest struct {
	Model          string                `json:"model"`
	Messages       []*schema.Message     `json:"messages"` // eino schema.Message 的 role/content 与API兼容
	Temperature    float64               `json:"temperature,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type openAIChatChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAICompletionResponse struct {
	Id      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
}

// OpenAIChatModel 实现 model.BaseChatModel 接口，
// 对接OpenAI兼容的chat completions接口（OpenAI本身或任何兼容网关）。
type OpenAIChatModel struct {
	apiKey      string
	modelName   string
	apiURL      string
	temperature float64
	httpClient  *http.Client
}

// NewOpenAIChatModel 创建一个新的 OpenAIChatModel 实例。
func NewOpenAIChatModel(apiKey string, modelName string, apiURL string, temperature float64, timeout time.Duration) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	mn := modelName
	if strings.TrimSpace(mn) == "" {
		mn = defaultModelName
	}

	url := apiURL
	if strings.TrimSpace(url) == "" {
		url = defaultOpenAIAPIURL
	}

	if temperature <= 0 {
		temperature = 0.7
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	log.Printf("使用OpenAI兼容 LLM 客户端，API URL: %s, 模型: %s", url, mn)

	return &OpenAIChatModel{
		apiKey:      apiKey,
		modelName:   mn,
		apiURL:      url,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// Generate 实现 model.BaseChatModel 接口
func (om *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	for _, opt := range options {
		_ = opt // 当前实现不消费通用选项
	}
	return om.complete(ctx, messages, nil)
}

// Stream 实现 model.BaseChatModel 接口 (placeholder)
func (om *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("OpenAIChatModel 的 Stream 方法未实现")
}

// GenerateStructured 实现 StructuredGenerator 接口：
// 请求模型以 json_object 格式返回，并将内容解析为map。
func (om *OpenAIChatModel) GenerateStructured(ctx context.Context, messages []*schema.Message) (map[string]any, error) {
	msg, err := om.complete(ctx, messages, &openAIResponseFormat{Type: "json_object"})
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(msg.Content), &result); err != nil {
		return nil, fmt.Errorf("解析结构化输出失败: %w。原始内容: %s", err, msg.Content)
	}
	return result, nil
}

// complete 发送一次chat completions请求并返回第一条choice。
func (om *OpenAIChatModel) complete(ctx context.Context, messages []*schema.Message, format *openAIResponseFormat) (*schema.Message, error) {
	reqPayload := openAIChatCompletionRequest{
		Model:          om.modelName,
		Messages:       messages,
		Temperature:    om.temperature,
		ResponseFormat: format,
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, om.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+om.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := om.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 请求失败，状态 %s: %s", httpResp.Status, string(bodyBytes))
	}

	var openAIResp openAICompletionResponse
	if err := json.Unmarshal(bodyBytes, &openAIResp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w。响应体: %s", err, string(bodyBytes))
	}

	if len(openAIResp.Choices) == 0 {
		return nil, fmt.Errorf("从 API 收到空选项: %s", string(bodyBytes))
	}

	apiMessage := openAIResp.Choices[0].Message
	responseContent := ""
	if apiMessage.Content != nil {
		responseContent = strings.TrimSpace(*apiMessage.Content)
	}

	resultMessage := &schema.Message{
		Role:    schema.RoleType(apiMessage.Role),
		Content: responseContent,
	}
	if resultMessage.Role == "" {
		resultMessage.Role = schema.Assistant
	}

	return resultMessage, nil
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)
var _ StructuredGenerator = (*OpenAIChatModel)(nil)
