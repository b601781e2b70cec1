package dto

import "github.com/goccy/go-json"

// 服务端载荷的宽松结构。REST 历史接口与实时通道是两个独立的生产者，
// 字段命名并不一致，这里把已知的变体都收下来，取值由 normalize 统一兜底。

// AttachmentEnvelope 附件载荷
type AttachmentEnvelope struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	FileNameAlt string `json:"fileName"`
	Type        string `json:"type"`
}

// MessageEnvelope 消息载荷
type MessageEnvelope struct {
	ID                string                `json:"id"`
	IDAlt             string                `json:"_id"`
	ConversationID    string                `json:"conversation_id"`
	ConversationIDAlt string                `json:"conversationId"`
	SenderID          string                `json:"sender_id"`
	SenderIDAlt       string                `json:"senderId"`
	Text              string                `json:"text"`
	Content           string                `json:"content"`
	Attachments       []*AttachmentEnvelope `json:"attachments"`
	CreatedAt         interface{}           `json:"created_at"` // RFC3339 字符串或毫秒时间戳
	CreatedAtAlt      interface{}           `json:"createdAt"`
	ReadByAll         bool                  `json:"read_by_all"`
	ReadByAllAlt      bool                  `json:"readByAll"`
	CorrelationID     string                `json:"correlation_id"`
	CorrelationIDAlt  string                `json:"correlationId"`
}

// ParticipantEnvelope 会话成员载荷
type ParticipantEnvelope struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// ConversationEnvelope 会话载荷
type ConversationEnvelope struct {
	ID              string                 `json:"id"`
	IDAlt           string                 `json:"_id"`
	Kind            string                 `json:"kind"`
	Type            string                 `json:"type"`
	Title           string                 `json:"title"`
	Name            string                 `json:"name"`
	Participants    []*ParticipantEnvelope `json:"participants"`
	Members         []*ParticipantEnvelope `json:"members"`
	LastMessage     *MessageEnvelope       `json:"last_message"`
	LastMessageAlt  *MessageEnvelope       `json:"lastMessage"`
	UnreadCount     int64                  `json:"unread_count"`
	UnreadCountAlt  int64                  `json:"unreadCount"`
	UpdatedAt       interface{}            `json:"updated_at"`
	UpdatedAtAlt    interface{}            `json:"updatedAt"`
}

// EventEnvelope 实时通道事件载荷
type EventEnvelope struct {
	Type           string           `json:"type"`
	ConversationID string           `json:"conversation_id"`
	Message        *MessageEnvelope `json:"message"`
	UserID         string           `json:"user_id"`
	Status         string           `json:"status"`
}

// Response 服务端统一响应包装
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}
