// Package service 提供业务逻辑层的实现
package service

import (
	"sync"
)

// sessionLocks 会话锁表
// 为每个会话维护一把互斥锁，同一会话的回合串行执行，
// 不同会话之间互不阻塞
//
// 锁只增不减：会话数量等于锁数量，每把锁只占几十字节，
// 留存/清理本身不在核心范围内，不做回收
type sessionLocks struct {
	mu    sync.Mutex             // 保护 locks 表本身
	locks map[string]*sync.Mutex // 会话标识 -> 会话锁
}

// newSessionLocks 创建会话锁表
func newSessionLocks() *sessionLocks {
	return &sessionLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// get 获取指定会话的锁，不存在时创建
func (s *sessionLocks) get(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	return lock
}

// Lock 锁定指定会话，返回解锁函数
func (s *sessionLocks) Lock(sessionID string) func() {
	lock := s.get(sessionID)
	lock.Lock()
	return lock.Unlock
}
