package repository

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"persona-chat-server/internal/model"
)

// openTestDB 打开一个测试用的临时 SQLite 数据库并完成迁移
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	// WAL 和 busy_timeout 允许多个连接并发访问
	db, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(&model.Message{}, &model.LorebookEntry{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return db
}
