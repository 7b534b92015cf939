package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"persona-chat-server/internal/llm"
	"persona-chat-server/internal/model"
	"persona-chat-server/internal/repository"
)

// openTestDB 打开一个测试用的临时 SQLite 数据库并完成迁移
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	// WAL 和 busy_timeout 允许多个 goroutine 并发写入
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

// scriptedGenerator 测试用的生成模型
// 返回固定回复或固定错误，并记录每次收到的上下文
type scriptedGenerator struct {
	mu       sync.Mutex
	reply    string
	err      error
	received [][]llm.Message
}

func (g *scriptedGenerator) Generate(_ context.Context, messages []llm.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	// 保存副本，调用方可能复用切片
	copied := make([]llm.Message, len(messages))
	copy(copied, messages)
	g.received = append(g.received, copied)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *scriptedGenerator) lastContext(t *testing.T) []llm.Message {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.received) == 0 {
		t.Fatalf("generator was never invoked")
	}
	return g.received[len(g.received)-1]
}

// newTestChatService 组装一个基于临时数据库的 ChatService
func newTestChatService(t *testing.T, gen llm.Generator, historyLimit int) (*ChatService, *LorebookService, *repository.MessageRepository) {
	t.Helper()

	db := openTestDB(t)
	messageRepo := repository.NewMessageRepository(db)
	lorebookRepo := repository.NewLorebookRepository(db)
	lorebookService := NewLorebookService(lorebookRepo, nil)
	chatService := NewChatService(messageRepo, lorebookService, gen, nil, historyLimit)
	return chatService, lorebookService, messageRepo
}
