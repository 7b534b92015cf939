// Package service 提供业务逻辑层的实现
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"persona-chat-server/internal/cache"
	"persona-chat-server/internal/llm"
	"persona-chat-server/internal/model"
	"persona-chat-server/internal/repository"
)

// 聊天服务相关错误
var (
	ErrEmptyMessage = errors.New("消息内容不能为空") // 消息去除空白后为空
)

// StorageError 存储层失败
// 对当前回合致命，但进程继续服务其他请求
type StorageError struct {
	Op  string // 失败的操作
	Err error  // 底层错误
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ProviderError 生成模型调用失败
// 失败时用户消息保持已持久化状态，不会丢失
type ProviderError struct {
	Err error // 底层错误
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ChatService 聊天服务
// 编排一个完整的聊天回合：
// 持久化用户消息 -> 读取指令和历史 -> 组装上下文 -> 调用生成模型 -> 持久化回复
type ChatService struct {
	messageRepo  *repository.MessageRepository // 消息数据访问层
	lorebook     *LorebookService              // 全局指令服务
	generator    llm.Generator                 // 生成模型
	cache        *cache.RedisCache             // Redis 缓存，可以为 nil
	historyLimit int                           // 上下文窗口的历史消息数量
	locks        *sessionLocks                 // 会话锁表
}

// NewChatService 创建 ChatService 实例
// cache 传 nil 表示不使用缓存
// historyLimit 不为正数时使用默认值
func NewChatService(
	messageRepo *repository.MessageRepository,
	lorebook *LorebookService,
	generator llm.Generator,
	cache *cache.RedisCache,
	historyLimit int,
) *ChatService {
	if historyLimit <= 0 {
		historyLimit = repository.DefaultHistoryLimit
	}
	return &ChatService{
		messageRepo:  messageRepo,
		lorebook:     lorebook,
		generator:    generator,
		cache:        cache,
		historyLimit: historyLimit,
		locks:        newSessionLocks(),
	}
}

// HandleTurn 处理一个聊天回合
// 同一会话的回合串行执行，保证消息 ID 的单调性和窗口的确定性；
// 不同会话的回合并行互不阻塞
//
// 失败语义:
//   - 消息为空: 返回 ErrEmptyMessage，什么都不写入
//   - 用户消息写入失败: 返回 StorageError，回合中止
//   - 生成调用失败或超时: 返回 ProviderError，已写入的用户消息保留
//   - 回复写入失败: 回复仍然返回给调用方，失败只记录告警
//     （牺牲严格的写入保证，换取用户可见的响应性）
//
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话标识，空字符串使用默认会话
//   - message: 用户消息
//
// 返回:
//   - string: 助手回复
//   - error: 回合失败的原因
func (s *ChatService) HandleTurn(ctx context.Context, sessionID, message string) (string, error) {
	if sessionID == "" {
		sessionID = model.DefaultSessionID
	}
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	// 锁定整个回合而不只是写入：
	// 只串行化写入仍然会让两个并发回合互相读到对方的半成品窗口
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	// 1. 持久化用户消息
	// 这一步必须在任何生成调用之前成功，失败则整个回合中止
	userMsg := &model.Message{
		SessionID: sessionID,
		Role:      model.MessageRoleUser,
		Content:   message,
	}
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return "", &StorageError{Op: "append user message", Err: err}
	}

	// 用户消息落库之后缓存的窗口就是旧的了
	// 本回合内读它没问题（窗口本来就要排除新消息），
	// 但任何退出路径都必须让它失效，除非成功路径已经重建过
	windowSynced := false
	defer func() {
		if !windowSynced {
			s.invalidateWindow(ctx, sessionID)
		}
	}()

	// 2. 读取人格指令
	personality, err := s.lorebook.GetPersonality(ctx)
	if err != nil {
		return "", &StorageError{Op: "read personality", Err: err}
	}

	// 3. 读取历史窗口
	// 以刚写入的消息 ID 为上界，窗口里只有本回合之前的消息，
	// 新消息由组装器直接追加，不从存储读回
	history, err := s.recentWindow(ctx, sessionID, userMsg.ID)
	if err != nil {
		return "", &StorageError{Op: "read history", Err: err}
	}

	// 4. 组装上下文并调用生成模型
	// 超时由 Generator 的 HTTP 客户端和 ctx 共同约束
	messages := BuildContext(personality, history, message)
	reply, err := s.generator.Generate(ctx, messages)
	if err != nil {
		// 用户消息保持已持久化状态：拿不到回复的回合不丢输入
		return "", &ProviderError{Err: err}
	}

	// 5. 持久化助手回复
	assistantMsg := &model.Message{
		SessionID: sessionID,
		Role:      model.MessageRoleAssistant,
		Content:   reply,
	}
	if err := s.messageRepo.Create(ctx, assistantMsg); err != nil {
		// 回复已经生成，返回给调用方，写入失败降级为告警
		log.Printf("[WARN] failed to persist assistant reply for session %s: %v", sessionID, err)
		return reply, nil
	}

	// 6. 刷新会话窗口缓存
	if s.refreshWindow(ctx, sessionID) {
		windowSynced = true
	}

	return reply, nil
}

// History 获取会话的全部历史消息
// 按时间正序，无窗口限制
// 会话不存在时返回空切片
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话标识，空字符串使用默认会话
//
// 返回:
//   - []model.Message: 消息列表
//   - error: 存储错误
func (s *ChatService) History(ctx context.Context, sessionID string) ([]model.Message, error) {
	if sessionID == "" {
		sessionID = model.DefaultSessionID
	}
	messages, err := s.messageRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, &StorageError{Op: "read history", Err: err}
	}
	return messages, nil
}

// recentWindow 获取会话中 ID 小于 beforeID 的最近历史窗口
// 缓存命中时直接使用缓存（会话锁保证缓存内容先于本回合的写入），
// 未命中回源数据库
func (s *ChatService) recentWindow(ctx context.Context, sessionID string, beforeID int64) ([]model.Message, error) {
	if s.cache != nil {
		window, hit, err := s.cache.GetRecentWindow(ctx, sessionID)
		if err != nil {
			log.Printf("[WARN] window cache read failed for session %s: %v", sessionID, err)
		} else if hit {
			// 窗口缓存按追加失效，命中的内容一定早于 beforeID，
			// 这里只按数量裁剪
			if len(window) > s.historyLimit {
				window = window[len(window)-s.historyLimit:]
			}
			return window, nil
		}
	}
	return s.messageRepo.GetLatestBefore(ctx, sessionID, beforeID, s.historyLimit)
}

// refreshWindow 回合结束后重建会话窗口缓存
// 重建成功返回 true，失败返回 false，由调用方负责失效
func (s *ChatService) refreshWindow(ctx context.Context, sessionID string) bool {
	if s.cache == nil {
		// 没有缓存就没有需要同步的状态
		return true
	}
	window, err := s.messageRepo.GetLatestBySessionID(ctx, sessionID, s.historyLimit)
	if err != nil {
		return false
	}
	if err := s.cache.SetRecentWindow(ctx, sessionID, window); err != nil {
		log.Printf("[WARN] failed to refresh window cache for session %s: %v", sessionID, err)
		return false
	}
	return true
}

// invalidateWindow 失效会话窗口缓存
func (s *ChatService) invalidateWindow(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRecentWindow(ctx, sessionID); err != nil {
		log.Printf("[WARN] failed to invalidate window cache for session %s: %v", sessionID, err)
	}
}
