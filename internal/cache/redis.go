// Package cache 提供 Redis 缓存操作的封装
// 缓存人格指令和会话的最近消息窗口，减少每个回合的数据库读取
// 缓存永远不是数据的权威来源，未命中或出错时调用方回退到数据库
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"persona-chat-server/internal/config"
	"persona-chat-server/internal/model"
)

// 缓存 Key 的过期时间
const (
	// personalityTTL 人格指令缓存过期时间
	// 写入时主动失效，TTL 只是兜底
	personalityTTL = 24 * time.Hour

	// historyTTL 会话窗口缓存过期时间
	// 不活跃的会话窗口自动过期回收
	historyTTL = 1 * time.Hour
)

// RedisCache 封装 Redis 客户端，提供业务相关的缓存操作
type RedisCache struct {
	client *redis.Client // Redis 客户端实例
}

// NewRedisCache 创建 RedisCache 实例
// 参数:
//   - cfg: 应用配置（包含 Redis 连接信息）
//
// 返回:
//   - *RedisCache: 缓存实例
//   - error: 连接错误
func NewRedisCache(cfg *config.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close 关闭 Redis 连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping 检查 Redis 连接
// 参数:
//   - ctx: 上下文
//
// 返回:
//   - error: 如果连接失败返回错误
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ==================== 人格指令缓存 ====================

// lorebookKey 指令缓存的 Key
func lorebookKey(key string) string {
	return fmt.Sprintf("lorebook:%s", key)
}

// SetLorebookValue 缓存指令内容
// 指令被更新时调用，覆盖旧值
// 空字符串也是合法的缓存值（指令未设置是正常状态）
// 参数:
//   - ctx: 上下文
//   - key: 指令名称
//   - value: 指令内容
//
// 返回:
//   - error: Redis 操作错误
func (c *RedisCache) SetLorebookValue(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, lorebookKey(key), value, personalityTTL).Err()
}

// GetLorebookValue 读取缓存的指令内容
// 参数:
//   - ctx: 上下文
//   - key: 指令名称
//
// 返回:
//   - string: 指令内容
//   - bool: 是否命中缓存
//   - error: Redis 操作错误
func (c *RedisCache) GetLorebookValue(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, lorebookKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil // 未命中
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// DeleteLorebookValue 失效指令缓存
// 参数:
//   - ctx: 上下文
//   - key: 指令名称
//
// 返回:
//   - error: Redis 操作错误
func (c *RedisCache) DeleteLorebookValue(ctx context.Context, key string) error {
	return c.client.Del(ctx, lorebookKey(key)).Err()
}

// ==================== 会话窗口缓存 ====================
// 以 JSON 序列化整个窗口，追加消息时整体失效
// 窗口很小（默认 10 条），整体读写比维护列表结构简单

// historyKey 会话窗口缓存的 Key
func historyKey(sessionID string) string {
	return fmt.Sprintf("session:%s:window", sessionID)
}

// SetRecentWindow 缓存会话的最近消息窗口
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话标识
//   - messages: 窗口内的消息（按 ID 正序）
//
// 返回:
//   - error: Redis 操作错误
func (c *RedisCache) SetRecentWindow(ctx context.Context, sessionID string, messages []model.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, historyKey(sessionID), data, historyTTL).Err()
}

// GetRecentWindow 读取缓存的会话窗口
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话标识
//
// 返回:
//   - []model.Message: 窗口内的消息
//   - bool: 是否命中缓存
//   - error: Redis 操作错误
func (c *RedisCache) GetRecentWindow(ctx context.Context, sessionID string) ([]model.Message, bool, error) {
	data, err := c.client.Get(ctx, historyKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil // 未命中
	}
	if err != nil {
		return nil, false, err
	}

	var messages []model.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		// 缓存内容损坏按未命中处理，调用方会回源重建
		return nil, false, nil
	}
	return messages, true, nil
}

// InvalidateRecentWindow 失效会话窗口缓存
// 会话追加新消息后调用
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话标识
//
// 返回:
//   - error: Redis 操作错误
func (c *RedisCache) InvalidateRecentWindow(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, historyKey(sessionID)).Err()
}
