// Package repository 提供数据访问层的实现
package repository

import (
	"context"

	"gorm.io/gorm"
	"persona-chat-server/internal/model"
)

// DefaultHistoryLimit 上下文窗口的默认消息数量
const DefaultHistoryLimit = 10

// MessageRepository 消息数据访问层
// 负责消息相关的所有数据库操作
// 消息只增不改不删，ID 顺序即时间顺序
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 插入新消息
// 插入成功后 message.ID 和 message.CreatedAt 被自动填充
// 写入在返回前已落盘，不做任何缓冲
// 参数:
//   - ctx: 上下文
//   - message: 消息对象
//
// 返回:
//   - error: 数据库错误
func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetBySessionID 获取会话的全部消息
// 按 ID 正序排列（最早的在前），不分页
// 会话不存在时返回空切片而不是错误
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话标识
//
// 返回:
//   - []model.Message: 消息列表
//   - error: 数据库错误
func (r *MessageRepository) GetBySessionID(ctx context.Context, sessionID string) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&messages).Error
	return messages, err
}

// GetLatestBySessionID 获取会话的最新 N 条消息
// 用于构建发给模型的上下文窗口
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话标识
//   - limit: 要获取的消息数量，必须为正数
//
// 返回:
//   - []model.Message: 消息列表（按 ID 正序）
//   - error: 数据库错误
func (r *MessageRepository) GetLatestBySessionID(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	return r.GetLatestBefore(ctx, sessionID, 0, limit)
}

// GetLatestBefore 获取会话中 ID 小于 beforeID 的最新 N 条消息
// beforeID 为 0 时不限制上界
// 聊天回合先写入用户消息再取窗口，用 beforeID 排除刚写入的那条，
// 避免它在上下文里出现两次
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话标识
//   - beforeID: ID 上界（不含），0 表示无上界
//   - limit: 要获取的消息数量，必须为正数
//
// 返回:
//   - []model.Message: 消息列表（按 ID 正序）
//   - error: 数据库错误
func (r *MessageRepository) GetLatestBefore(ctx context.Context, sessionID string, beforeID int64, limit int) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	// 子查询：先按 ID 倒序取最新的 N 条
	// 然后外层查询再按 ID 正序排列
	// 这样可以得到最新的 N 条消息，且顺序正确
	subQuery := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit)
	if beforeID > 0 {
		subQuery = subQuery.Where("id < ?", beforeID)
	}

	err := r.db.WithContext(ctx).
		Table("(?) as t", subQuery).
		Order("id ASC").
		Find(&messages).Error

	return messages, err
}

// CountBySessionID 统计会话的消息数量
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话标识
//
// 返回:
//   - int64: 消息数量
//   - error: 数据库错误
func (r *MessageRepository) CountBySessionID(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count, err
}
