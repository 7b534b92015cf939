// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// MessageRole 消息角色常量
const (
	MessageRoleUser      = "user"      // 用户消息
	MessageRoleAssistant = "assistant" // AI 助手响应
	MessageRoleSystem    = "system"    // 系统消息（人格指令）
)

// DefaultSessionID 默认会话标识
// 客户端未指定 session_id 时使用
const DefaultSessionID = "default"

// Message 消息模型
// 对应数据库表 messages
// 存储会话中的每一条消息
type Message struct {
	// ID 消息唯一标识，自增主键
	// 在整个表范围内严格递增，按 ID 排序等价于按插入顺序排序
	ID int64 `gorm:"primaryKey" json:"id"`

	// SessionID 所属会话标识
	// 会话没有独立的表，SessionID 相同的消息集合即构成一个会话
	SessionID string `gorm:"size:128;index;not null" json:"session_id"`

	// Role 消息角色
	// user: 用户发送的消息
	// assistant: AI 助手的响应
	// system: 系统消息
	Role string `gorm:"size:20;not null" json:"role"`

	// Content 消息内容
	// 使用 TEXT 类型存储，允许为空字符串
	Content string `gorm:"type:text" json:"content"`

	// CreatedAt 消息创建时间，插入时由存储层填充
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "messages"
}
