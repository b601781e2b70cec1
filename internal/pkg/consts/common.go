package consts

const (
	ConversationKindDirect = "DIRECT"
	ConversationKindGroup  = "GROUP"
)

const (
	AttachmentTypeImage = "image"
	AttachmentTypeFile  = "file"
)

const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

const (
	EventTypeMessage  = "message"
	EventTypePresence = "presence"
)

const (
	MaxSendAttachments = 5
	TempIDPrefix       = "tmp-"
	PreviewMaxRunes    = 40
)
