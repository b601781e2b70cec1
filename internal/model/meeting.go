package model

import "time"

// MeetingSession 会议会话记录（客户端本地持久化，按会话 ID 索引）
type MeetingSession struct {
	ConversationID string    `json:"conversationId"`
	URL            string    `json:"url"`
	LinkPosted     bool      `json:"linkPosted"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// Expired 判断记录是否已过期
func (s *MeetingSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
