package dto

// LocalAttachment 待上传附件（文件内容驻留内存，随 multipart 请求上行）
type LocalAttachment struct {
	FileName string `validate:"required"`
	Type     string
	Data     []byte
}

// SendMessageReq 发送消息请求：文本与附件至少有其一，附件最多 5 个
type SendMessageReq struct {
	ConversationID string             `validate:"required"`
	Text           string             `validate:"required_without=Attachments"`
	Attachments    []*LocalAttachment `validate:"max=5,dive"`
	CorrelationID  string             `validate:"required"`
}

// CreateDirectReq 创建单聊请求
type CreateDirectReq struct {
	TargetUserID string `json:"target_user_id"`
}

// CreateGroupReq 创建群聊请求
type CreateGroupReq struct {
	Title     string   `json:"title"`
	MemberIDs []string `json:"member_ids"`
}

// CreateConversationResp 创建会话响应
type CreateConversationResp struct {
	ID string `json:"id"`
}
