// Package service 提供业务逻辑层的实现
package service

import (
	"context"
	"log"

	"persona-chat-server/internal/cache"
	"persona-chat-server/internal/model"
	"persona-chat-server/internal/repository"
)

// LorebookService 全局指令服务
// 维护进程级共享的人格指令
// 指令是弱一致的共享状态：回合进行中发生的 set 可能被该回合观察到也可能观察不到，
// 以最后写入为准，不做跨回合加锁
type LorebookService struct {
	lorebookRepo *repository.LorebookRepository // 指令数据访问层
	cache        *cache.RedisCache              // Redis 缓存，可以为 nil
}

// NewLorebookService 创建 LorebookService 实例
// cache 传 nil 表示不使用缓存，所有读写直达数据库
func NewLorebookService(lorebookRepo *repository.LorebookRepository, cache *cache.RedisCache) *LorebookService {
	return &LorebookService{
		lorebookRepo: lorebookRepo,
		cache:        cache,
	}
}

// SetPersonality 设置人格指令
// upsert 语义，重复设置相同内容是幂等的
// 参数:
//   - ctx: 上下文
//   - value: 指令内容，空字符串合法
//
// 返回:
//   - error: 存储错误
func (s *LorebookService) SetPersonality(ctx context.Context, value string) error {
	if err := s.lorebookRepo.Set(ctx, model.LorebookKeyPersonality, value); err != nil {
		return err
	}

	// 数据库写入成功后更新缓存
	// 缓存失败不影响结果，下次读取回源即可
	if s.cache != nil {
		if err := s.cache.SetLorebookValue(ctx, model.LorebookKeyPersonality, value); err != nil {
			log.Printf("[WARN] failed to cache personality: %v", err)
			// 写入失败时尝试失效，避免读到旧值
			if err := s.cache.DeleteLorebookValue(ctx, model.LorebookKeyPersonality); err != nil {
				log.Printf("[WARN] failed to invalidate personality cache: %v", err)
			}
		}
	}

	return nil
}

// GetPersonality 读取人格指令
// 指令从未被设置时返回空字符串，不是错误
// 参数:
//   - ctx: 上下文
//
// 返回:
//   - string: 指令内容，未设置时为 ""
//   - error: 存储错误
func (s *LorebookService) GetPersonality(ctx context.Context) (string, error) {
	// 先查缓存
	if s.cache != nil {
		value, hit, err := s.cache.GetLorebookValue(ctx, model.LorebookKeyPersonality)
		if err != nil {
			log.Printf("[WARN] personality cache read failed: %v", err)
		} else if hit {
			return value, nil
		}
	}

	value, err := s.lorebookRepo.Get(ctx, model.LorebookKeyPersonality)
	if err != nil {
		return "", err
	}

	// 回填缓存
	if s.cache != nil {
		if err := s.cache.SetLorebookValue(ctx, model.LorebookKeyPersonality, value); err != nil {
			log.Printf("[WARN] failed to cache personality: %v", err)
		}
	}

	return value, nil
}
