package model

import "time"

// Message 消息记录。Pending 为 true 表示本地已展示但尚未被服务端确认，
// 确认或失败后该状态条目会被发送管线替换或移除。
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	Text           string        `json:"text"`
	Links          []string      `json:"links,omitempty"` // 正文中提取的链接，供渲染层高亮
	Attachments    []*Attachment `json:"attachments"`
	CreatedAt      time.Time     `json:"createdAt"`
	Pending        bool          `json:"pending"`
	CorrelationID  string        `json:"correlationId,omitempty"`
	ReadByAll      bool          `json:"readByAll"` // 只信服务端数据，本地不推断
}

// Attachment 附件：核心只持有标识与访问地址，文件内容由外部存储负责
type Attachment struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	FileName string `json:"fileName,omitempty"`
	Type     string `json:"type"` // image, file
}

// Preview 生成会话列表用的消息摘要
func (s *Message) Preview() *MessagePreview {
	return &MessagePreview{
		MessageID:       s.ID,
		Text:            s.Text,
		SenderID:        s.SenderID,
		AttachmentCount: len(s.Attachments),
		CreatedAt:       s.CreatedAt,
	}
}
