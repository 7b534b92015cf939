package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"persona-chat-server/internal/config"
)

// DefaultTimeout 单次生成调用的默认超时时间
// 生成调用是整个回合中唯一的高延迟操作，必须有上界
const DefaultTimeout = 30 * time.Second

// OpenAIClient 兼容 OpenAI Chat Completions 协议的生成模型客户端
type OpenAIClient struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

// NewOpenAIClient 创建 OpenAIClient 实例
// 参数:
//   - cfg: 应用配置（包含 API Key、模型名称等）
//
// 返回:
//   - *OpenAIClient: 客户端实例
func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	timeout := cfg.AI.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAIClient{
		apiKey:    cfg.AI.APIKey,
		baseURL:   strings.TrimSuffix(cfg.AI.BaseURL, "/"),
		model:     cfg.AI.Model,
		maxTokens: cfg.AI.MaxTokens,
		client: &http.Client{
			Timeout: timeout, // 设置超时
		},
	}
}

// chatCompletionRequest Chat Completions API 请求结构
type chatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// chatCompletionResponse Chat Completions API 响应结构
type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate 调用生成模型得到回复文本
// 超时、网络错误、非 200 状态码、响应缺少回复字段都作为错误返回
// 参数:
//   - ctx: 上下文，取消后请求中止
//   - messages: 按顺序排列的消息列表
//
// 返回:
//   - string: 生成的回复文本
//   - error: 调用失败的原因
func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	// 1. 构造请求 Body
	reqBody := chatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	// 2. 发送 HTTP 请求
	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call AI service: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	// 3. 解析响应
	var chatResp chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse AI response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("AI service error: %s - %s", chatResp.Error.Type, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return chatResp.Choices[0].Message.Content, nil
}
