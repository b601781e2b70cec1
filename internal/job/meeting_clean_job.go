package job

import (
	"Hermes/internal/meeting"
	log "log/slog"
)

// MeetingCleanJob 定期清扫过期的会议记录。
// 读路径已有惰性清理，这里兜底处理长期无人读取的会话。
type MeetingCleanJob struct {
	store *meeting.Store
}

func NewMeetingCleanJob(store *meeting.Store) *MeetingCleanJob {
	return &MeetingCleanJob{store: store}
}

func (s *MeetingCleanJob) Run() {
	log.Info("start meeting cleanup job")

	if err := s.store.PurgeExpired(); err != nil {
		log.Error("failed to purge expired meeting sessions", "err", err)
		return
	}

	log.Info("meeting cleanup job finished")
}
