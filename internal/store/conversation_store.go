package store

import (
	"Hermes/internal/model"
	log "log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"golang.org/x/sync/singleflight"
)

// ConversationStore 持有当前用户可见的全部会话，负责排序、未读数与选中态。
// 每次可变操作都会向外发布聚合未读数，导航栏角标无需感知会话逻辑。
type ConversationStore struct {
	mu       sync.RWMutex
	selfID   string
	items    []*model.Conversation // UpdatedAt 降序
	index    map[string]*model.Conversation
	activeID string

	onUnread    func(int64)
	reloadGroup singleflight.Group
	reloadFn    func()
}

func NewConversationStore(selfID string) *ConversationStore {
	return &ConversationStore{
		selfID: selfID,
		index:  make(map[string]*model.Conversation),
	}
}

// SetReloadFunc 注入整表重载入口（收到未知会话的事件时触发）
func (s *ConversationStore) SetReloadFunc(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadFn = fn
}

// OnUnreadChange 注册聚合未读数回调
func (s *ConversationStore) OnUnreadChange(fn func(int64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUnread = fn
}

// Replace 用历史接口返回的全量列表替换本地集合。
// 排序按 UpdatedAt 降序；原选中会话仍存在则保留，否则选最近一条。
func (s *ConversationStore) Replace(list []*model.Conversation) {
	s.mu.Lock()

	filtered := make([]*model.Conversation, 0, len(list))
	for _, c := range list {
		if c == nil || c.ID == "" {
			continue
		}
		// 防御性过滤：不包含当前用户的会话一律不可见
		if !c.HasParticipant(s.selfID) {
			log.Warn("会话不包含当前用户，已过滤", "convID", c.ID)
			continue
		}
		filtered = append(filtered, c)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
	})

	s.items = filtered
	s.index = make(map[string]*model.Conversation, len(filtered))
	for _, c := range filtered {
		s.index[c.ID] = c
	}

	if _, ok := s.index[s.activeID]; !ok {
		if len(filtered) > 0 {
			s.activeID = filtered[0].ID
		} else {
			s.activeID = ""
		}
	}

	s.mu.Unlock()
	s.publishUnread()
}

// UpsertFromEvent 根据推送事件更新会话摘要与未读数。
// 选中会话的未读数保持为 0；未知会话不凭空捏造成员数据，改走整表重载。
func (s *ConversationStore) UpsertFromEvent(convID string, preview *model.MessagePreview) {
	if convID == "" {
		return
	}
	s.mu.Lock()
	conv, ok := s.index[convID]
	if !ok {
		s.mu.Unlock()
		s.scheduleReload()
		return
	}

	conv.LastMessage = preview
	if preview != nil && !preview.CreatedAt.IsZero() {
		conv.UpdatedAt = preview.CreatedAt
	} else {
		conv.UpdatedAt = time.Now()
	}
	if s.activeID != convID {
		conv.UnreadCount++
	}
	s.moveToFrontLocked(conv)

	s.mu.Unlock()
	s.publishUnread()
}

// TouchPreview 发送成功后的摘要与时间刷新，不改动未读数
func (s *ConversationStore) TouchPreview(convID string, preview *model.MessagePreview) {
	s.mu.Lock()
	conv, ok := s.index[convID]
	if !ok {
		s.mu.Unlock()
		return
	}
	conv.LastMessage = preview
	if preview != nil && !preview.CreatedAt.IsZero() {
		conv.UpdatedAt = preview.CreatedAt
	} else {
		conv.UpdatedAt = time.Now()
	}
	s.moveToFrontLocked(conv)
	s.mu.Unlock()
	s.publishUnread()
}

// Select 设置当前选中的会话并清零其未读数
func (s *ConversationStore) Select(convID string) bool {
	s.mu.Lock()
	conv, ok := s.index[convID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.activeID = convID
	conv.UnreadCount = 0
	s.mu.Unlock()
	s.publishUnread()
	return true
}

// ActiveID 当前选中的会话 ID
func (s *ConversationStore) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active 当前选中会话的快照
func (s *ConversationStore) Active() *model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.index[s.activeID]
	if !ok {
		return nil
	}
	return snapshot(conv)
}

// Get 按 ID 取会话快照
func (s *ConversationStore) Get(convID string) (*model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.index[convID]
	if !ok {
		return nil, false
	}
	return snapshot(conv), true
}

// List 当前排序下的会话快照列表
func (s *ConversationStore) List() []*model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*model.Conversation, 0, len(s.items))
	for _, c := range s.items {
		res = append(res, snapshot(c))
	}
	return res
}

// TotalUnread 聚合未读数
func (s *ConversationStore) TotalUnread() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalUnreadLocked()
}

func (s *ConversationStore) totalUnreadLocked() int64 {
	var total int64
	for _, c := range s.items {
		total += c.UnreadCount
	}
	return total
}

func (s *ConversationStore) moveToFrontLocked(conv *model.Conversation) {
	for i, c := range s.items {
		if c.ID == conv.ID {
			copy(s.items[1:i+1], s.items[:i])
			s.items[0] = conv
			return
		}
	}
}

// scheduleReload 异步触发整表重载，singleflight 合并并发触发
func (s *ConversationStore) scheduleReload() {
	s.mu.RLock()
	fn := s.reloadFn
	s.mu.RUnlock()
	if fn == nil {
		return
	}
	go func() {
		_, _, _ = s.reloadGroup.Do("conversations", func() (interface{}, error) {
			fn()
			return nil, nil
		})
	}()
}

func (s *ConversationStore) publishUnread() {
	s.mu.RLock()
	fn := s.onUnread
	total := s.totalUnreadLocked()
	s.mu.RUnlock()
	if fn != nil {
		fn(total)
	}
}

func snapshot(conv *model.Conversation) *model.Conversation {
	cp := &model.Conversation{}
	if err := copier.CopyWithOption(cp, conv, copier.Option{DeepCopy: true}); err != nil {
		log.Warn("会话快照拷贝失败", "convID", conv.ID, "err", err)
		return conv
	}
	return cp
}
