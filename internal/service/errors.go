package service

import (
	"errors"
)

var (
	ErrParamInvalid         = errors.New("参数错误")
	ErrEmptyMessage         = errors.New("消息内容不能为空")
	ErrTooManyAttachments   = errors.New("附件数量超过限制")
	ErrNoActiveConversation = errors.New("当前没有选中的会话")
	ErrConversationNotFound = errors.New("会话不存在")
	ErrSendFailed           = errors.New("消息发送失败，请稍后重试")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)
