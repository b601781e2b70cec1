package meeting

import (
	"Hermes/internal/client/config"
	"Hermes/internal/dto"
	"Hermes/internal/model"
	"Hermes/internal/pkg/consts"
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender 会议公告消息的发送入口，由聊天核心实现
type Sender interface {
	SendTo(ctx context.Context, convID string, text string, attachments []*dto.LocalAttachment) (*model.Message, error)
}

// Coordinator 会议会话协调器，每个会话的状态机：NONE → ACTIVE → NONE。
// 房间标识由会话 ID 确定性派生，同一会话内重复开会必然落到同一房间；
// 公告消息走普通发送管线，发送失败不阻塞会议流程。
type Coordinator struct {
	store    *Store
	sender   Sender
	roomBase string
	ttl      time.Duration
}

func NewCoordinator(store *Store, sender Sender, cfg *config.MeetingConfig) *Coordinator {
	ttl := time.Duration(cfg.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Coordinator{
		store:    store,
		sender:   sender,
		roomBase: strings.TrimRight(cfg.RoomBase, "/"),
		ttl:      ttl,
	}
}

// Start 开启（或复用）会议。
// 存在未过期记录时直接复用其房间地址且不重发公告；
// 否则新建记录并依次发送入会链接与开始公告。
func (s *Coordinator) Start(ctx context.Context, convID string) (*model.MeetingSession, error) {
	sess, err := s.store.Get(convID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		log.Info("复用进行中的会议", "convID", convID, "url", sess.URL)
		return sess, nil
	}

	sess = &model.MeetingSession{
		ConversationID: convID,
		URL:            s.roomURL(convID),
		LinkPosted:     false,
		ExpiresAt:      time.Now().Add(s.ttl),
	}
	// 先落库再发公告：公告失败时记录仍然在，重入会复用同一房间
	if err := s.store.Put(sess); err != nil {
		return nil, err
	}

	if _, err := s.sender.SendTo(ctx, convID, consts.MeetingJoinPrefix+sess.URL, nil); err != nil {
		log.Warn("会议链接公告发送失败", "convID", convID, "err", err)
		return sess, nil
	}
	if _, err := s.sender.SendTo(ctx, convID, consts.MeetingStartedText, nil); err != nil {
		log.Warn("会议开始公告发送失败", "convID", convID, "err", err)
		return sess, nil
	}

	sess.LinkPosted = true
	if err := s.store.Put(sess); err != nil {
		log.Warn("更新会议记录失败", "convID", convID, "err", err)
	}
	return sess, nil
}

// End 结束会议：存在记录时发送结束公告并删除记录，不存在时静默返回
func (s *Coordinator) End(ctx context.Context, convID string) error {
	sess, err := s.store.Get(convID)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	if _, err := s.sender.SendTo(ctx, convID, consts.MeetingEndedText, nil); err != nil {
		log.Warn("会议结束公告发送失败", "convID", convID, "err", err)
	}
	return s.store.Delete(convID)
}

// Active 查询某会话是否有进行中的会议
func (s *Coordinator) Active(convID string) bool {
	sess, err := s.store.Get(convID)
	if err != nil {
		log.Warn("查询会议记录失败", "convID", convID, "err", err)
		return false
	}
	return sess != nil
}

// roomURL 由会话 ID 确定性派生房间地址，各端各自计算也能得到同一房间
func (s *Coordinator) roomURL(convID string) string {
	room := uuid.NewSHA1(uuid.NameSpaceURL, []byte("meeting:"+convID))
	return fmt.Sprintf("%s/%s", s.roomBase, room.String())
}
