package wire

import (
	"Hermes/internal/client/config"
	"Hermes/internal/job"
	"Hermes/internal/meeting"
	"Hermes/internal/pkg/cron"
	"Hermes/internal/pkg/security"
	"Hermes/internal/realtime"
	"Hermes/internal/service"
	"Hermes/internal/store"
	"Hermes/internal/transport"
	log "log/slog"
)

// ApplicationContainer 封装了客户端核心运行所需的所有顶级组件
type ApplicationContainer struct {
	Chat         service.ChatService
	Session      *realtime.Session
	Meetings     *meeting.Coordinator
	MeetingStore *meeting.Store
	CronMgr      *cron.Manager
}

func BuildApplication(cfg *config.Config) (*ApplicationContainer, error) {
	// 当前用户标识取自访问令牌的声明，令牌不可解析时回退到配置项
	selfID, err := security.ParseUserID(cfg.Auth.Token)
	if err != nil {
		if cfg.Auth.UserID == "" {
			return nil, err
		}
		log.Warn("访问令牌解析失败，使用配置中的用户标识", "err", err)
		selfID = cfg.Auth.UserID
	}

	api := transport.NewClient(&cfg.Server, cfg.Auth.Token)
	session := realtime.NewSession(&cfg.Realtime, cfg.Auth.Token)

	convs := store.NewConversationStore(selfID)
	timeline := store.NewTimeline()
	presence := store.NewPresenceTracker()

	chat := service.NewChatService(selfID, api, session, convs, timeline, presence)

	meetingStore, err := meeting.NewStore(cfg.Meeting.StorePath)
	if err != nil {
		return nil, err
	}
	coordinator := meeting.NewCoordinator(meetingStore, chat, &cfg.Meeting)

	cronMgr := cron.NewCronManager(job.NewMeetingCleanJob(meetingStore))

	return &ApplicationContainer{
		Chat:         chat,
		Session:      session,
		Meetings:     coordinator,
		MeetingStore: meetingStore,
		CronMgr:      cronMgr,
	}, nil
}
