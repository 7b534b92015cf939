// Package llm 提供生成模型的访问接口
// 上层只依赖 Generator 接口，不关心具体厂商的 API 形状
package llm

import (
	"context"
	"errors"
)

// Message 一条发给生成模型的消息
// Role 为 system / user / assistant 之一
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator 生成模型的能力接口
// 输入按顺序排列的消息列表，输出生成的回复文本
// 超时和重试策略由调用方控制，实现方只负责单次调用
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// 生成模型相关错误
var (
	ErrMissingAPIKey = errors.New("AI service not configured (missing API Key)") // 未配置 API Key
	ErrEmptyResponse = errors.New("AI returned no content")                      // 响应中没有回复内容
)
