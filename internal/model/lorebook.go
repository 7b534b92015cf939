// Package model 定义了与数据库表对应的数据结构
package model

// LorebookKeyPersonality 人格指令在 lorebook 表中的 Key
// 当前核心只使用这一个 Key
const LorebookKeyPersonality = "personality"

// LorebookEntry 全局指令条目
// 对应数据库表 lorebook
// 每个 Key 至多一行，set 操作是 upsert 而不是追加
type LorebookEntry struct {
	// ID 条目唯一标识，自增主键
	ID int64 `gorm:"primaryKey" json:"id"`

	// Key 指令名称，全表唯一
	Key string `gorm:"size:128;uniqueIndex;not null" json:"key"`

	// Value 指令内容
	Value string `gorm:"type:text" json:"value"`
}

// TableName 指定表名
func (LorebookEntry) TableName() string {
	return "lorebook"
}
