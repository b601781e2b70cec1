package realtime

import "Hermes/internal/dto"

// Event 实时通道的类型化事件，经有界队列交给单一派发循环消费
type Event interface {
	isEvent()
}

// MessageEvent 新消息推送
type MessageEvent struct {
	ConversationID string
	Envelope       *dto.MessageEnvelope
}

// PresenceEvent 成员在线状态变更
type PresenceEvent struct {
	UserID string
	Status string
}

// ResyncEvent 连接（重）建立后投递一次，消费方应重拉会话列表补齐断连期间的数据
type ResyncEvent struct{}

func (MessageEvent) isEvent()  {}
func (PresenceEvent) isEvent() {}
func (ResyncEvent) isEvent()   {}
