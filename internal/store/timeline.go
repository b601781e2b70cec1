package store

import (
	"Hermes/internal/model"
	"sort"
	"sync"
)

// Timeline 当前选中会话的消息时间线，始终按 CreatedAt 升序。
// 非选中会话的推送只更新会话摘要，不落时间线，避免内存无限增长。
// 两个生产者（发送管线的响应回调、实时通道的推送）在这里汇合，
// 去重规则见 MergeInbound。
type Timeline struct {
	mu       sync.RWMutex
	convID   string
	messages []*model.Message
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Reset 切换会话时用历史消息重建时间线
func (s *Timeline) Reset(convID string, msgs []*model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]*model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m != nil {
			sorted = append(sorted, m)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	s.convID = convID
	s.messages = sorted
}

// ConversationID 当前时间线归属的会话
func (s *Timeline) ConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.convID
}

// Messages 返回时间线快照
func (s *Timeline) Messages() []*model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*model.Message, len(s.messages))
	copy(res, s.messages)
	return res
}

func (s *Timeline) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// AppendPending 插入本地待确认消息
func (s *Timeline) AppendPending(m *model.Message) {
	if m == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Pending = true
	s.insertSortedLocked(m)
}

// ConfirmPending 用服务端确认的消息替换临时条目。
// 临时条目无条件删除；确认条目若已被推送事件抢先合入则不重复插入。
// 请求在途期间用户可能切换了会话，归属不符的确认消息不落时间线，
// 只走会话摘要更新。
func (s *Timeline) ConfirmPending(tempID string, confirmed *model.Message) {
	if confirmed == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if confirmed.ConversationID != "" && s.convID != "" && confirmed.ConversationID != s.convID {
		return
	}
	s.removeByIDLocked(tempID)
	if confirmed.ID != "" && s.containsIDLocked(confirmed.ID) {
		return
	}
	confirmed.Pending = false
	s.insertSortedLocked(confirmed)
}

// DropPending 发送失败时移除临时条目
func (s *Timeline) DropPending(tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeByIDLocked(tempID)
}

// MergeInbound 合并实时通道推来的已确认消息。
// 去重顺序：同 ID 已存在 → 幂等忽略；相同关联 ID 的待确认条目 → 精确替换；
// 否则按 (发送者, 文本) 兜底匹配并移除最多一条待确认条目（多端场景没有关联 ID）。
func (s *Timeline) MergeInbound(m *model.Message) bool {
	if m == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ConversationID != "" && s.convID != "" && m.ConversationID != s.convID {
		return false
	}
	if m.ID != "" && s.containsIDLocked(m.ID) {
		return false
	}

	removed := false
	if m.CorrelationID != "" {
		removed = s.removePendingLocked(func(p *model.Message) bool {
			return p.CorrelationID == m.CorrelationID
		})
	}
	if !removed {
		s.removePendingLocked(func(p *model.Message) bool {
			return p.SenderID == m.SenderID && p.Text == m.Text
		})
	}

	m.Pending = false
	s.insertSortedLocked(m)
	return true
}

// PendingCount 待确认条目数
func (s *Timeline) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, m := range s.messages {
		if m.Pending {
			count++
		}
	}
	return count
}

func (s *Timeline) insertSortedLocked(m *model.Message) {
	idx := sort.Search(len(s.messages), func(i int) bool {
		return s.messages[i].CreatedAt.After(m.CreatedAt)
	})
	s.messages = append(s.messages, nil)
	copy(s.messages[idx+1:], s.messages[idx:])
	s.messages[idx] = m
}

func (s *Timeline) containsIDLocked(id string) bool {
	for _, m := range s.messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

func (s *Timeline) removeByIDLocked(id string) bool {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return true
		}
	}
	return false
}

// removePendingLocked 移除第一条命中的待确认消息，最多一条
func (s *Timeline) removePendingLocked(match func(*model.Message) bool) bool {
	for i, m := range s.messages {
		if m.Pending && match(m) {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return true
		}
	}
	return false
}
