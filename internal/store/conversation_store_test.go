package store

import (
	"Hermes/internal/model"
	"sync"
	"testing"
	"time"
)

func conv(id string, updatedAt time.Time, participantIDs ...string) *model.Conversation {
	participants := make([]*model.Participant, 0, len(participantIDs))
	for _, pid := range participantIDs {
		participants = append(participants, &model.Participant{ID: pid})
	}
	return &model.Conversation{
		ID:           id,
		Kind:         "DIRECT",
		Participants: participants,
		UpdatedAt:    updatedAt,
	}
}

func TestReplace_SelfExclusion(t *testing.T) {
	// 不包含当前用户的会话一律不可见
	s := NewConversationStore("me")
	base := time.Now()
	s.Replace([]*model.Conversation{
		conv("c1", base, "me", "u2"),
		conv("c2", base, "u2", "u3"),
	})

	list := s.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 visible conversation, got %d", len(list))
	}
	if list[0].ID != "c1" {
		t.Errorf("expected c1, got %s", list[0].ID)
	}
}

func TestReplace_SortAndSelection(t *testing.T) {
	s := NewConversationStore("me")
	base := time.Now()
	s.Replace([]*model.Conversation{
		conv("old", base.Add(-time.Hour), "me", "u2"),
		conv("new", base, "me", "u3"),
	})

	// 列表按 UpdatedAt 降序，默认选中最近一条
	list := s.List()
	if list[0].ID != "new" || list[1].ID != "old" {
		t.Errorf("expected order [new old], got [%s %s]", list[0].ID, list[1].ID)
	}
	if s.ActiveID() != "new" {
		t.Errorf("expected active new, got %s", s.ActiveID())
	}

	// 再次全量替换时已有选中态保留
	if !s.Select("old") {
		t.Fatal("select old failed")
	}
	s.Replace([]*model.Conversation{
		conv("old", base.Add(-time.Hour), "me", "u2"),
		conv("new", base, "me", "u3"),
	})
	if s.ActiveID() != "old" {
		t.Errorf("expected selection preserved as old, got %s", s.ActiveID())
	}

	// 选中会话消失后回落到最近一条
	s.Replace([]*model.Conversation{
		conv("new", base, "me", "u3"),
	})
	if s.ActiveID() != "new" {
		t.Errorf("expected selection to fall back to new, got %s", s.ActiveID())
	}
}

func TestUpsertFromEvent_InactiveConversation(t *testing.T) {
	// 非选中会话收到推送：未读 +1、时间刷新、移到队首
	s := NewConversationStore("me")
	base := time.Now()
	s.Replace([]*model.Conversation{
		conv("c1", base, "me", "u2"),
		conv("c2", base.Add(-time.Hour), "me", "u3"),
	})
	if s.ActiveID() != "c1" {
		t.Fatalf("expected c1 active, got %s", s.ActiveID())
	}

	eventAt := base.Add(time.Minute)
	s.UpsertFromEvent("c2", &model.MessagePreview{
		MessageID: "m1", Text: "hi", SenderID: "u3", CreatedAt: eventAt,
	})

	c2, ok := s.Get("c2")
	if !ok {
		t.Fatal("c2 missing")
	}
	if c2.UnreadCount != 1 {
		t.Errorf("expected unread 1, got %d", c2.UnreadCount)
	}
	if !c2.UpdatedAt.Equal(eventAt) {
		t.Errorf("expected UpdatedAt %v, got %v", eventAt, c2.UpdatedAt)
	}
	if list := s.List(); list[0].ID != "c2" {
		t.Errorf("expected c2 at position 0, got %s", list[0].ID)
	}
}

func TestUpsertFromEvent_ActiveConversationStaysRead(t *testing.T) {
	// 选中会话收到推送：未读数保持为 0
	s := NewConversationStore("me")
	s.Replace([]*model.Conversation{conv("c1", time.Now(), "me", "u2")})

	s.UpsertFromEvent("c1", &model.MessagePreview{MessageID: "m1", CreatedAt: time.Now()})

	c1, _ := s.Get("c1")
	if c1.UnreadCount != 0 {
		t.Errorf("expected unread 0 for active conversation, got %d", c1.UnreadCount)
	}
}

func TestUpsertFromEvent_UnknownConversationSchedulesReload(t *testing.T) {
	// 未知会话不凭空捏造记录，而是触发整表重载
	s := NewConversationStore("me")

	var wg sync.WaitGroup
	wg.Add(1)
	reloaded := false
	s.SetReloadFunc(func() {
		reloaded = true
		wg.Done()
	})

	s.UpsertFromEvent("ghost", &model.MessagePreview{MessageID: "m1"})
	wg.Wait()

	if !reloaded {
		t.Error("expected reload to be scheduled")
	}
	if _, ok := s.Get("ghost"); ok {
		t.Error("unknown conversation must not be fabricated")
	}
}

func TestSelect_UnreadResetLaw(t *testing.T) {
	// 无论此前未读数是多少，选中后必然归零
	s := NewConversationStore("me")
	s.Replace([]*model.Conversation{
		conv("c1", time.Now(), "me", "u2"),
		conv("c2", time.Now().Add(-time.Minute), "me", "u3"),
	})
	for i := 0; i < 5; i++ {
		s.UpsertFromEvent("c2", &model.MessagePreview{MessageID: "m", CreatedAt: time.Now()})
	}
	if c2, _ := s.Get("c2"); c2.UnreadCount != 5 {
		t.Fatalf("setup failed, unread=%d", c2.UnreadCount)
	}

	if !s.Select("c2") {
		t.Fatal("select failed")
	}
	if c2, _ := s.Get("c2"); c2.UnreadCount != 0 {
		t.Errorf("expected unread 0 after select, got %d", c2.UnreadCount)
	}
}

func TestUnreadSignal(t *testing.T) {
	// 每次可变操作发布聚合未读数
	s := NewConversationStore("me")
	var last int64 = -1
	s.OnUnreadChange(func(total int64) { last = total })

	s.Replace([]*model.Conversation{
		conv("c1", time.Now(), "me", "u2"),
		conv("c2", time.Now().Add(-time.Minute), "me", "u3"),
	})
	if last != 0 {
		t.Errorf("expected total 0 after replace, got %d", last)
	}

	s.UpsertFromEvent("c2", &model.MessagePreview{MessageID: "m1", CreatedAt: time.Now()})
	s.UpsertFromEvent("c2", &model.MessagePreview{MessageID: "m2", CreatedAt: time.Now()})
	if last != 2 {
		t.Errorf("expected total 2, got %d", last)
	}

	s.Select("c2")
	if last != 0 {
		t.Errorf("expected total 0 after select, got %d", last)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	// List 返回的是快照，调用方修改不影响存储内部状态
	s := NewConversationStore("me")
	s.Replace([]*model.Conversation{conv("c1", time.Now(), "me", "u2")})

	list := s.List()
	list[0].UnreadCount = 99
	list[0].Participants[0].ID = "hacked"

	c1, _ := s.Get("c1")
	if c1.UnreadCount != 0 {
		t.Errorf("expected internal unread 0, got %d", c1.UnreadCount)
	}
	if c1.Participants[0].ID != "me" {
		t.Errorf("expected internal participant untouched, got %s", c1.Participants[0].ID)
	}
}
