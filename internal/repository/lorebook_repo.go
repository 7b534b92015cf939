// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"persona-chat-server/internal/model"
)

// LorebookRepository 全局指令数据访问层
// lorebook 表每个 Key 至多一行
type LorebookRepository struct {
	db *gorm.DB
}

// NewLorebookRepository 创建 LorebookRepository 实例
func NewLorebookRepository(db *gorm.DB) *LorebookRepository {
	return &LorebookRepository{db: db}
}

// Set 写入指令，upsert 语义
// Key 已存在时覆盖 Value，不存在时插入新行
// 相同参数重复调用是幂等的
// 参数:
//   - ctx: 上下文
//   - key: 指令名称
//   - value: 指令内容
//
// 返回:
//   - error: 数据库错误
func (r *LorebookRepository) Set(ctx context.Context, key, value string) error {
	entry := model.LorebookEntry{Key: key, Value: value}
	// ON CONFLICT(key) DO UPDATE SET value = excluded.value
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&entry).Error
}

// Get 读取指令内容
// Key 从未被设置时返回空字符串而不是错误，未设置是正常状态
// 参数:
//   - ctx: 上下文
//   - key: 指令名称
//
// 返回:
//   - string: 指令内容，未设置时为 ""
//   - error: 数据库错误
func (r *LorebookRepository) Get(ctx context.Context, key string) (string, error) {
	var entry model.LorebookEntry
	err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return entry.Value, nil
}
