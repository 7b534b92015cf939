// Package service 提供业务逻辑层的实现
package service

import (
	"persona-chat-server/internal/llm"
	"persona-chat-server/internal/model"
)

// BuildContext 组装发给生成模型的上下文
// 纯函数，没有任何 I/O，输入都是调用方已经取好的数据
//
// 输出顺序固定：
//  1. 人格指令（非空时）作为 system 消息
//  2. 历史消息，保留各自存储时的角色
//  3. 本回合的用户消息，永远是最后一条
//
// 新的用户消息由调用方直接传入而不是从存储读回，
// 即使此时它已经被持久化——组装器因此不依赖存储的读写一致性
// 参数:
//   - directive: 人格指令，可以为空
//   - history: 最近的历史消息（按时间正序）
//   - userMessage: 本回合的用户消息
//
// 返回:
//   - []llm.Message: 按顺序排列的上下文消息
func BuildContext(directive string, history []model.Message, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)

	// 指令为空时不输出 system 消息，绝不发送空内容的 system 条目
	if directive != "" {
		messages = append(messages, llm.Message{
			Role:    model.MessageRoleSystem,
			Content: directive,
		})
	}

	for _, m := range history {
		messages = append(messages, llm.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	messages = append(messages, llm.Message{
		Role:    model.MessageRoleUser,
		Content: userMessage,
	})

	return messages
}
