package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"persona-chat-server/internal/llm"
	"persona-chat-server/internal/model"
	"persona-chat-server/internal/repository"
	"persona-chat-server/internal/service"
)

// fakeGenerator 测试用的生成模型
type fakeGenerator struct {
	reply string
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, _ []llm.Message) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// newTestRouter 组装一个基于临时数据库的完整路由
func newTestRouter(t *testing.T, gen llm.Generator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&model.Message{}, &model.LorebookEntry{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	messageRepo := repository.NewMessageRepository(db)
	lorebookRepo := repository.NewLorebookRepository(db)
	lorebookService := service.NewLorebookService(lorebookRepo, nil)
	chatService := service.NewChatService(messageRepo, lorebookService, gen, nil, 10)
	h := NewChatHandler(chatService, lorebookService)

	router := gin.New()
	router.POST("/set_personality", h.SetPersonality)
	router.GET("/get_personality", h.GetPersonality)
	router.POST("/chat", h.Chat)
	router.GET("/history", h.History)
	return router
}

// doJSON 发送请求并解析 JSON 响应
func doJSON(t *testing.T, router *gin.Engine, method, target, body string) (int, map[string]json.RawMessage) {
	t.Helper()

	var reqBody *strings.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	} else {
		reqBody = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reqBody)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	result := make(map[string]json.RawMessage)
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not a JSON object: %v (body %q)", err, w.Body.String())
	}
	return w.Code, result
}

func TestChatHandler_SetAndGetPersonality(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "ok"})

	code, body := doJSON(t, router, "POST", "/set_personality", `{"personality": "Be terse."}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if string(body["ok"]) != "true" {
		t.Errorf(`expected {"ok": true}, got %v`, body)
	}

	code, body = doJSON(t, router, "GET", "/get_personality", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var personality string
	if err := json.Unmarshal(body["personality"], &personality); err != nil {
		t.Fatalf("missing personality field: %v", err)
	}
	if personality != "Be terse." {
		t.Errorf("expected %q, got %q", "Be terse.", personality)
	}
}

func TestChatHandler_GetPersonalityUnset(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "ok"})

	code, body := doJSON(t, router, "GET", "/get_personality", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var personality string
	if err := json.Unmarshal(body["personality"], &personality); err != nil {
		t.Fatalf("missing personality field: %v", err)
	}
	if personality != "" {
		t.Errorf("expected empty personality, got %q", personality)
	}
}

func TestChatHandler_SetPersonalityMissingFieldIsEmpty(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "ok"})

	// 字段缺省按空字符串处理，而不是报错
	code, body := doJSON(t, router, "POST", "/set_personality", `{}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", code, body)
	}
}

func TestChatHandler_ChatReturnsReply(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "hello from ai"})

	code, body := doJSON(t, router, "POST", "/chat", `{"session_id": "s1", "message": "hi"}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", code, body)
	}
	var reply string
	if err := json.Unmarshal(body["reply"], &reply); err != nil {
		t.Fatalf("missing reply field: %v", err)
	}
	if reply != "hello from ai" {
		t.Errorf("expected %q, got %q", "hello from ai", reply)
	}
}

func TestChatHandler_ChatEmptyMessageRejected(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "unused"})

	code, _ := doJSON(t, router, "POST", "/chat", `{"session_id": "s1", "message": "  "}`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", code)
	}
}

func TestChatHandler_ChatProviderFailure(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{err: errors.New("boom")})

	code, _ := doJSON(t, router, "POST", "/chat", `{"message": "hi"}`)
	if code != http.StatusBadGateway {
		t.Errorf("expected 502 for provider failure, got %d", code)
	}

	// 失败的回合不丢用户输入
	code, body := doJSON(t, router, "GET", "/history", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var messages []MessageResponse
	if err := json.Unmarshal(body["messages"], &messages); err != nil {
		t.Fatalf("missing messages field: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != model.MessageRoleUser {
		t.Errorf("expected exactly the persisted user message, got %+v", messages)
	}
}

func TestChatHandler_HistoryDefaultSession(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "pong"})

	// 不带 session_id 的 chat 和 history 应落在同一个默认会话
	if code, _ := doJSON(t, router, "POST", "/chat", `{"message": "ping"}`); code != http.StatusOK {
		t.Fatalf("chat failed with %d", code)
	}

	code, body := doJSON(t, router, "GET", "/history", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var messages []MessageResponse
	if err := json.Unmarshal(body["messages"], &messages); err != nil {
		t.Fatalf("missing messages field: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Content != "ping" || messages[1].Content != "pong" {
		t.Errorf("unexpected history: %+v", messages)
	}
}

func TestChatHandler_HistoryEmptySession(t *testing.T) {
	router := newTestRouter(t, &fakeGenerator{reply: "ok"})

	code, body := doJSON(t, router, "GET", "/history?session_id=ghost", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200 for empty session, got %d", code)
	}
	var messages []MessageResponse
	if err := json.Unmarshal(body["messages"], &messages); err != nil {
		t.Fatalf("missing messages field: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected empty list, got %+v", messages)
	}
}
