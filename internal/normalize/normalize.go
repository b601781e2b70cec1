package normalize

import (
	"Hermes/internal/dto"
	"Hermes/internal/model"
	"Hermes/internal/pkg/consts"
	"Hermes/internal/pkg/util"
	"time"
)

// 本包把服务端载荷兜底成内部结构：字段缺失填默认值、坏附件直接丢弃、
// 完全不可解析的输入降级为空记录。渲染层绝不因为服务端 schema 漂移而崩溃。

// Message 把消息载荷兜底成内部消息记录
func Message(env *dto.MessageEnvelope) *model.Message {
	m := &model.Message{Attachments: []*model.Attachment{}}
	if env == nil {
		m.CreatedAt = time.Now()
		return m
	}

	m.ID = firstNonEmpty(env.ID, env.IDAlt)
	m.ConversationID = firstNonEmpty(env.ConversationID, env.ConversationIDAlt)
	m.SenderID = firstNonEmpty(env.SenderID, env.SenderIDAlt)
	m.Text = firstNonEmpty(env.Text, env.Content)
	m.Links = util.ExtractLinks(m.Text)
	m.CreatedAt = parseTime(env.CreatedAt, env.CreatedAtAlt)
	m.ReadByAll = env.ReadByAll || env.ReadByAllAlt
	m.CorrelationID = firstNonEmpty(env.CorrelationID, env.CorrelationIDAlt)

	for _, a := range env.Attachments {
		// 既没有标识也没有地址的附件无法展示，直接过滤
		if a == nil || (a.ID == "" && a.URL == "") {
			continue
		}
		typ := a.Type
		if typ != consts.AttachmentTypeImage {
			typ = consts.AttachmentTypeFile
		}
		m.Attachments = append(m.Attachments, &model.Attachment{
			ID:       a.ID,
			URL:      a.URL,
			FileName: firstNonEmpty(a.FileName, a.FileNameAlt),
			Type:     typ,
		})
	}
	return m
}

// Conversation 把会话载荷兜底成内部会话记录
func Conversation(env *dto.ConversationEnvelope) *model.Conversation {
	c := &model.Conversation{
		Kind:         consts.ConversationKindDirect,
		Participants: []*model.Participant{},
	}
	if env == nil {
		c.UpdatedAt = time.Now()
		return c
	}

	c.ID = firstNonEmpty(env.ID, env.IDAlt)
	c.Kind = parseKind(firstNonEmpty(env.Kind, env.Type))
	c.Title = firstNonEmpty(env.Title, env.Name)

	seen := make(map[string]struct{})
	members := env.Participants
	if len(members) == 0 {
		members = env.Members
	}
	for _, p := range members {
		if p == nil {
			continue
		}
		id := firstNonEmpty(p.ID, p.UserID)
		if id == "" {
			continue
		}
		// 成员在同一会话内去重
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		c.Participants = append(c.Participants, &model.Participant{
			ID:     id,
			Name:   displayName(p),
			Avatar: p.Avatar,
		})
	}

	if last := env.LastMessage; last != nil {
		c.LastMessage = Preview(Message(last))
	} else if last := env.LastMessageAlt; last != nil {
		c.LastMessage = Preview(Message(last))
	}

	c.UnreadCount = env.UnreadCount
	if c.UnreadCount == 0 {
		c.UnreadCount = env.UnreadCountAlt
	}
	if c.UnreadCount < 0 {
		c.UnreadCount = 0
	}

	c.UpdatedAt = parseTime(env.UpdatedAt, env.UpdatedAtAlt)
	return c
}

// Preview 生成会话列表用的消息摘要，文本按字符截断，纯附件消息渲染占位符
func Preview(m *model.Message) *model.MessagePreview {
	if m == nil {
		return nil
	}
	p := m.Preview()
	p.Text = util.PreviewText(m, consts.PreviewMaxRunes)
	return p
}

func parseKind(raw string) string {
	switch raw {
	case "GROUP", "group", "2":
		return consts.ConversationKindGroup
	default:
		return consts.ConversationKindDirect
	}
}

func displayName(p *dto.ParticipantEnvelope) string {
	if p.Name != "" {
		return p.Name
	}
	if p.FirstName != "" || p.LastName != "" {
		if p.FirstName == "" {
			return p.LastName
		}
		if p.LastName == "" {
			return p.FirstName
		}
		return p.FirstName + " " + p.LastName
	}
	return p.Username
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseTime 兼容 RFC3339 字符串与秒/毫秒时间戳，全部失败时取当前时间
func parseTime(values ...interface{}) time.Time {
	for _, v := range values {
		switch t := v.(type) {
		case string:
			if t == "" {
				continue
			}
			if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
				return parsed
			}
			if parsed, err := time.Parse(time.RFC3339, t); err == nil {
				return parsed
			}
			if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
				return parsed
			}
		case float64:
			if t <= 0 {
				continue
			}
			// 毫秒时间戳的数量级远大于秒
			if t > 1e12 {
				return time.UnixMilli(int64(t))
			}
			return time.Unix(int64(t), 0)
		case int64:
			if t <= 0 {
				continue
			}
			if t > 1e12 {
				return time.UnixMilli(t)
			}
			return time.Unix(t, 0)
		}
	}
	return time.Now()
}
