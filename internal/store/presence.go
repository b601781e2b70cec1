package store

import (
	"Hermes/internal/pkg/consts"
	"sort"
	"sync"
)

// PresenceTracker 在线成员集合，仅由实时通道的 presence 事件驱动。
// 状态只服务于展示，不持久化，连接断开后随会话重建。
type PresenceTracker struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{online: make(map[string]struct{})}
}

// Apply 应用一条在线状态事件，未知状态忽略
func (s *PresenceTracker) Apply(userID, status string) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch status {
	case consts.PresenceOnline:
		s.online[userID] = struct{}{}
	case consts.PresenceOffline:
		delete(s.online, userID)
	}
}

func (s *PresenceTracker) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.online[userID]
	return ok
}

// Snapshot 在线成员 ID 列表（排序后）
func (s *PresenceTracker) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]string, 0, len(s.online))
	for id := range s.online {
		res = append(res, id)
	}
	sort.Strings(res)
	return res
}

// Reset 连接关闭时清空在线集合
func (s *PresenceTracker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = make(map[string]struct{})
}
