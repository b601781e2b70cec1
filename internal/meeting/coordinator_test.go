package meeting

import (
	"Hermes/internal/client/config"
	"Hermes/internal/dto"
	"Hermes/internal/model"
	"Hermes/internal/pkg/consts"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// fakeSender 记录公告发送，支持注入失败
type fakeSender struct {
	sent []string
	fail bool
}

func (s *fakeSender) SendTo(ctx context.Context, convID string, text string, attachments []*dto.LocalAttachment) (*model.Message, error) {
	if s.fail {
		return nil, errors.New("network down")
	}
	s.sent = append(s.sent, text)
	return &model.Message{ID: "m", ConversationID: convID, Text: text}, nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *Store, *fakeSender) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "meetings.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sender := &fakeSender{}
	coord := NewCoordinator(store, sender, &config.MeetingConfig{
		TTLHours: 2,
		RoomBase: "https://meet.example.com/room",
	})
	return coord, store, sender
}

func TestStart_NewMeeting(t *testing.T) {
	coord, _, sender := newTestCoordinator(t)
	ctx := context.Background()

	sess, err := coord.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !strings.HasPrefix(sess.URL, "https://meet.example.com/room/") {
		t.Errorf("unexpected room url: %s", sess.URL)
	}
	if !sess.LinkPosted {
		t.Error("expected LinkPosted after successful announcements")
	}

	// 入会链接在前，开始公告在后
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 announcements, got %d", len(sender.sent))
	}
	if !strings.HasPrefix(sender.sent[0], consts.MeetingJoinPrefix) {
		t.Errorf("expected join link first, got %q", sender.sent[0])
	}
	if sender.sent[1] != consts.MeetingStartedText {
		t.Errorf("expected started announcement, got %q", sender.sent[1])
	}

	if !coord.Active("c1") {
		t.Error("expected meeting active after Start")
	}
}

func TestStart_ReuseActiveMeeting(t *testing.T) {
	// 场景：会议进行中再次开启，复用同一房间且不重发公告
	coord, _, sender := newTestCoordinator(t)
	ctx := context.Background()

	first, err := coord.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	second, err := coord.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if first.URL != second.URL {
		t.Errorf("expected same room url, got %s vs %s", first.URL, second.URL)
	}
	if len(sender.sent) != 2 {
		t.Errorf("reuse must not repost announcements, got %d sends", len(sender.sent))
	}
}

func TestStart_DeterministicRoom(t *testing.T) {
	// 同一会话 ID 跨存储实例也派生出同一房间
	coordA, _, _ := newTestCoordinator(t)
	coordB, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	a, _ := coordA.Start(ctx, "c1")
	b, _ := coordB.Start(ctx, "c1")
	if a.URL != b.URL {
		t.Errorf("expected deterministic room url, got %s vs %s", a.URL, b.URL)
	}

	other, _ := coordA.Start(ctx, "c2")
	if other.URL == a.URL {
		t.Error("different conversations must get different rooms")
	}
}

func TestStart_AnnouncementFailureKeepsRecord(t *testing.T) {
	// 公告发送失败不丢会议记录，重入会复用同一房间
	coord, store, sender := newTestCoordinator(t)
	ctx := context.Background()

	sender.fail = true
	sess, err := coord.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if sess.LinkPosted {
		t.Error("LinkPosted must stay false when announcements fail")
	}

	stored, err := store.Get("c1")
	if err != nil || stored == nil {
		t.Fatalf("expected persisted record, got %v / %v", stored, err)
	}

	sender.fail = false
	again, err := coord.Start(ctx, "c1")
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	if again.URL != sess.URL {
		t.Errorf("expected same room after retry, got %s vs %s", again.URL, sess.URL)
	}
}

func TestEnd(t *testing.T) {
	coord, _, sender := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := coord.Start(ctx, "c1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := coord.End(ctx, "c1"); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	if sender.sent[len(sender.sent)-1] != consts.MeetingEndedText {
		t.Errorf("expected ended announcement, got %q", sender.sent[len(sender.sent)-1])
	}
	if coord.Active("c1") {
		t.Error("expected meeting inactive after End")
	}
}

func TestEnd_NoActiveMeeting(t *testing.T) {
	// 场景：没有进行中的会议时结束是静默空操作
	coord, _, sender := newTestCoordinator(t)

	if err := coord.End(context.Background(), "c1"); err != nil {
		t.Fatalf("End on idle conversation must not fail: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no announcements, got %d", len(sender.sent))
	}
}

func TestStore_Expiry(t *testing.T) {
	// 过期记录在读取时被清理
	_, store, _ := newTestCoordinator(t)

	expired := &model.MeetingSession{
		ConversationID: "c1",
		URL:            "https://meet.example.com/room/x",
		ExpiresAt:      time.Now().Add(-time.Minute),
	}
	if err := store.Put(expired); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("c1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired record purged, got %+v", got)
	}
}

func TestStore_Roundtrip(t *testing.T) {
	_, store, _ := newTestCoordinator(t)

	sess := &model.MeetingSession{
		ConversationID: "c1",
		URL:            "https://meet.example.com/room/x",
		LinkPosted:     true,
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	if err := store.Put(sess); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("c1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.URL != sess.URL || !got.LinkPosted {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	if err := store.Delete("c1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, _ := store.Get("c1"); got != nil {
		t.Error("expected record gone after Delete")
	}
}
