package consts

const (
	MeetingJoinPrefix  = "加入会议: "
	MeetingStartedText = "会议已开始"
	MeetingEndedText   = "会议已结束"
)
