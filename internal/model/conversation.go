package model

import (
	"Hermes/internal/pkg/consts"
	"time"
)

// Conversation 会话记录（客户端内存态）
type Conversation struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"` // DIRECT-单聊, GROUP-群聊
	Title        string          `json:"title"`
	Participants []*Participant  `json:"participants"`
	LastMessage  *MessagePreview `json:"lastMessage,omitempty"`
	UnreadCount  int64           `json:"unreadCount"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Participant 会话成员（展示字段为服务端下发的缓存值）
type Participant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// MessagePreview 会话列表的最后一条消息摘要，列表页无需加载完整时间线
type MessagePreview struct {
	MessageID       string    `json:"messageId"`
	Text            string    `json:"text"`
	SenderID        string    `json:"senderId"`
	AttachmentCount int       `json:"attachmentCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// HasParticipant 判断用户是否是会话成员
func (s *Conversation) HasParticipant(userID string) bool {
	for _, p := range s.Participants {
		if p != nil && p.ID == userID {
			return true
		}
	}
	return false
}

// DisplayTitle 渲染标题：群聊用 Title，单聊取对方成员的展示名
func (s *Conversation) DisplayTitle(selfID string) string {
	if s.Kind == consts.ConversationKindGroup || s.Title != "" {
		return s.Title
	}
	for _, p := range s.Participants {
		if p != nil && p.ID != selfID {
			return p.Name
		}
	}
	return ""
}
