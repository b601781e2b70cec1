package service

import (
	"Hermes/internal/dto"
	"Hermes/internal/model"
	"Hermes/internal/normalize"
	"Hermes/internal/pkg/consts"
	"Hermes/internal/pkg/logger"
	"Hermes/internal/pkg/util"
	"Hermes/internal/realtime"
	"Hermes/internal/store"
	"Hermes/internal/transport"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ChatService 聊天核心门面：持有会话存储、时间线与在线状态，
// 以单一派发循环消费实时事件。时间线的两个生产者（发送管线的响应、
// 实时通道的推送）都经由本服务落库，竞态由时间线的去重规则消解。
type ChatService interface {
	Run(ctx context.Context) error
	LoadConversations(ctx context.Context) error
	SelectConversation(ctx context.Context, convID string) error
	SendMessage(ctx context.Context, text string, attachments []*dto.LocalAttachment) (*model.Message, error)
	SendTo(ctx context.Context, convID string, text string, attachments []*dto.LocalAttachment) (*model.Message, error)
	CreateDirect(ctx context.Context, targetUserID string) (string, error)
	CreateGroup(ctx context.Context, title string, memberIDs []string) (string, error)

	Conversations() []*model.Conversation
	ActiveConversation() *model.Conversation
	Timeline() []*model.Message
	TotalUnread() int64
	OnUnreadChange(fn func(int64))
	IsOnline(userID string) bool
	OnlineUsers() []string
	SelfID() string
}

type chatServiceImpl struct {
	selfID   string
	api      *transport.Client
	session  *realtime.Session
	convs    *store.ConversationStore
	timeline *store.Timeline
	presence *store.PresenceTracker
}

func NewChatService(
	selfID string,
	api *transport.Client,
	session *realtime.Session,
	convs *store.ConversationStore,
	timeline *store.Timeline,
	presence *store.PresenceTracker,
) ChatService {
	s := &chatServiceImpl{
		selfID:   selfID,
		api:      api,
		session:  session,
		convs:    convs,
		timeline: timeline,
		presence: presence,
	}

	// 未知会话的首条消息触发整表重载，不凭空捏造会话记录
	convs.SetReloadFunc(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.LoadConversations(ctx); err != nil {
			log.Warn("会话整表重载失败", "err", err)
		}
	})

	return s
}

// Run 单一派发循环：所有实时事件串行进入各存储，直到 ctx 取消或通道关闭
func (s *chatServiceImpl) Run(ctx context.Context) error {
	defer s.presence.Reset()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.session.Events():
			if !ok {
				return nil
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *chatServiceImpl) handleEvent(ctx context.Context, ev realtime.Event) {
	switch e := ev.(type) {
	case realtime.MessageEvent:
		msg := normalize.Message(e.Envelope)
		if msg.ConversationID == "" {
			msg.ConversationID = e.ConversationID
		}
		s.applyInbound(msg)
	case realtime.PresenceEvent:
		s.presence.Apply(e.UserID, e.Status)
	case realtime.ResyncEvent:
		if err := s.LoadConversations(ctx); err != nil {
			log.Warn("重连后同步会话失败", "err", err)
		}
	}
}

// applyInbound 实时消息合并：选中会话进时间线，其余只改会话摘要
func (s *chatServiceImpl) applyInbound(msg *model.Message) {
	if msg.ConversationID == "" {
		log.Warn("推送消息缺少会话标识，已丢弃", "msgID", msg.ID)
		return
	}
	if s.timeline.ConversationID() == msg.ConversationID {
		s.timeline.MergeInbound(msg)
	}
	s.convs.UpsertFromEvent(msg.ConversationID, normalize.Preview(msg))
}

// LoadConversations 全量拉取并替换会话列表。
// 替换后若选中会话的时间线尚未加载（首次加载或选中迁移），顺带补齐。
func (s *chatServiceImpl) LoadConversations(ctx context.Context) error {
	ctx = logger.WithTraceID(ctx)
	envs, err := s.api.GetConversations(ctx)
	if err != nil {
		return errors.Wrap(err, "拉取会话列表")
	}

	list := make([]*model.Conversation, 0, len(envs))
	for _, e := range envs {
		list = append(list, normalize.Conversation(e))
	}
	s.convs.Replace(list)

	if id := s.convs.ActiveID(); id != "" && s.timeline.ConversationID() != id {
		if err := s.loadTimeline(ctx, id); err != nil {
			log.WarnContext(ctx, "加载选中会话时间线失败", "convID", id, "err", err)
		}
	}
	return nil
}

// SelectConversation 切换选中会话：重载时间线并清零未读数
func (s *chatServiceImpl) SelectConversation(ctx context.Context, convID string) error {
	ctx = logger.WithTraceID(ctx)
	if _, ok := s.convs.Get(convID); !ok {
		return ErrConversationNotFound
	}
	if err := s.loadTimeline(ctx, convID); err != nil {
		return err
	}
	if !s.convs.Select(convID) {
		return ErrConversationNotFound
	}
	return nil
}

func (s *chatServiceImpl) loadTimeline(ctx context.Context, convID string) error {
	envs, err := s.api.GetMessages(ctx, convID)
	if err != nil {
		return errors.Wrap(err, "拉取历史消息")
	}
	msgs := make([]*model.Message, 0, len(envs))
	for _, e := range envs {
		m := normalize.Message(e)
		if m.ConversationID == "" {
			m.ConversationID = convID
		}
		msgs = append(msgs, m)
	}
	s.timeline.Reset(convID, msgs)
	return nil
}

// SendMessage 向当前选中会话发送消息
func (s *chatServiceImpl) SendMessage(ctx context.Context, text string, attachments []*dto.LocalAttachment) (*model.Message, error) {
	convID := s.convs.ActiveID()
	if convID == "" {
		return nil, ErrNoActiveConversation
	}
	return s.SendTo(ctx, convID, text, attachments)
}

// SendTo 发送管线：先落一条待确认消息，请求成功后原位替换，失败则移除。
// 每次发送携带客户端生成的关联 ID，推送回流的自发消息靠它精确去重。
func (s *chatServiceImpl) SendTo(ctx context.Context, convID string, text string, attachments []*dto.LocalAttachment) (*model.Message, error) {
	ctx = logger.WithTraceID(ctx)
	if text == "" && len(attachments) == 0 {
		return nil, ErrEmptyMessage
	}
	if len(attachments) > consts.MaxSendAttachments {
		return nil, ErrTooManyAttachments
	}

	req := &dto.SendMessageReq{
		ConversationID: convID,
		Text:           text,
		Attachments:    attachments,
		CorrelationID:  uuid.NewString(),
	}
	if err := util.ValidateDTO(req); err != nil {
		log.WarnContext(ctx, "发送请求校验失败", "convID", convID, "err", err)
		return nil, ErrParamInvalid
	}

	pending := &model.Message{
		ID:             consts.TempIDPrefix + uuid.NewString(),
		ConversationID: convID,
		SenderID:       s.selfID,
		Text:           text,
		Attachments:    localAttachments(attachments),
		CreatedAt:      time.Now(),
		Pending:        true,
		CorrelationID:  req.CorrelationID,
	}
	onActive := s.timeline.ConversationID() == convID
	if onActive {
		s.timeline.AppendPending(pending)
	}

	env, err := s.api.SendMessage(ctx, req)
	if err != nil {
		// 失败即移除待确认条目，不自动重试，由调用方向用户提示
		if onActive {
			s.timeline.DropPending(pending.ID)
		}
		log.WarnContext(ctx, "消息发送失败", "convID", convID, "err", err)
		return nil, ErrSendFailed
	}

	confirmed := normalize.Message(env)
	if confirmed.ConversationID == "" {
		confirmed.ConversationID = convID
	}
	if confirmed.SenderID == "" {
		confirmed.SenderID = s.selfID
	}
	if confirmed.CorrelationID == "" {
		confirmed.CorrelationID = req.CorrelationID
	}
	if onActive {
		s.timeline.ConfirmPending(pending.ID, confirmed)
	}
	s.convs.TouchPreview(convID, normalize.Preview(confirmed))

	return confirmed, nil
}

// CreateDirect 创建单聊后刷新会话列表
func (s *chatServiceImpl) CreateDirect(ctx context.Context, targetUserID string) (string, error) {
	if targetUserID == "" {
		return "", ErrParamInvalid
	}
	ctx = logger.WithTraceID(ctx)
	id, err := s.api.CreateDirect(ctx, targetUserID)
	if err != nil {
		return "", errors.Wrap(err, "创建单聊")
	}
	if err := s.LoadConversations(ctx); err != nil {
		log.WarnContext(ctx, "创建单聊后刷新会话列表失败", "err", err)
	}
	return id, nil
}

// CreateGroup 创建群聊后刷新会话列表
func (s *chatServiceImpl) CreateGroup(ctx context.Context, title string, memberIDs []string) (string, error) {
	if title == "" || len(memberIDs) == 0 {
		return "", ErrParamInvalid
	}
	ctx = logger.WithTraceID(ctx)
	id, err := s.api.CreateGroup(ctx, title, memberIDs)
	if err != nil {
		return "", errors.Wrap(err, "创建群聊")
	}
	if err := s.LoadConversations(ctx); err != nil {
		log.WarnContext(ctx, "创建群聊后刷新会话列表失败", "err", err)
	}
	return id, nil
}

func (s *chatServiceImpl) Conversations() []*model.Conversation {
	return s.convs.List()
}

func (s *chatServiceImpl) ActiveConversation() *model.Conversation {
	return s.convs.Active()
}

func (s *chatServiceImpl) Timeline() []*model.Message {
	return s.timeline.Messages()
}

func (s *chatServiceImpl) TotalUnread() int64 {
	return s.convs.TotalUnread()
}

func (s *chatServiceImpl) OnUnreadChange(fn func(int64)) {
	s.convs.OnUnreadChange(fn)
}

func (s *chatServiceImpl) IsOnline(userID string) bool {
	return s.presence.IsOnline(userID)
}

func (s *chatServiceImpl) OnlineUsers() []string {
	return s.presence.Snapshot()
}

func (s *chatServiceImpl) SelfID() string {
	return s.selfID
}

// localAttachments 待上传附件的本地占位（尚无服务端标识与地址）
func localAttachments(attachments []*dto.LocalAttachment) []*model.Attachment {
	res := make([]*model.Attachment, 0, len(attachments))
	for _, a := range attachments {
		if a == nil {
			continue
		}
		typ := a.Type
		if typ != consts.AttachmentTypeImage {
			typ = consts.AttachmentTypeFile
		}
		res = append(res, &model.Attachment{
			FileName: a.FileName,
			Type:     typ,
		})
	}
	return res
}
