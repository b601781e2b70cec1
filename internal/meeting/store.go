package meeting

import (
	"Hermes/internal/model"
	"database/sql"
	log "log/slog"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Store 会议会话的客户端本地持久化（SQLite，按会话 ID 索引）。
// 每次读取前先惰性清理过期记录，定时任务再做兜底清扫。
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "打开会议存储")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS meeting_sessions (
			conversation_id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			link_posted INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "初始化会议存储表")
	}

	return &Store{db: db}, nil
}

// Get 按会话 ID 取未过期的会议记录，不存在时返回 (nil, nil)
func (s *Store) Get(convID string) (*model.MeetingSession, error) {
	if err := s.PurgeExpired(); err != nil {
		log.Warn("清理过期会议记录失败", "err", err)
	}

	row := s.db.QueryRow(`
		SELECT conversation_id, url, link_posted, expires_at
		FROM meeting_sessions
		WHERE conversation_id = ?
	`, convID)

	sess := &model.MeetingSession{}
	var posted int
	var expiresAt int64
	err := row.Scan(&sess.ConversationID, &sess.URL, &posted, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "查询会议记录")
	}

	sess.LinkPosted = posted == 1
	sess.ExpiresAt = time.Unix(expiresAt, 0)
	// 清扫失败时读路径自行兜底，过期记录绝不向上层返回
	if sess.Expired(time.Now()) {
		return nil, nil
	}
	return sess, nil
}

// Put 写入（或覆盖）会议记录
func (s *Store) Put(sess *model.MeetingSession) error {
	_, err := s.db.Exec(`
		REPLACE INTO meeting_sessions (conversation_id, url, link_posted, expires_at)
		VALUES (?, ?, ?, ?)
	`, sess.ConversationID, sess.URL, boolToInt(sess.LinkPosted), sess.ExpiresAt.Unix())
	if err != nil {
		return errors.Wrap(err, "写入会议记录")
	}
	return nil
}

// Delete 删除会议记录
func (s *Store) Delete(convID string) error {
	_, err := s.db.Exec(`DELETE FROM meeting_sessions WHERE conversation_id = ?`, convID)
	if err != nil {
		return errors.Wrap(err, "删除会议记录")
	}
	return nil
}

// PurgeExpired 清理所有已过期的会议记录
func (s *Store) PurgeExpired() error {
	_, err := s.db.Exec(`DELETE FROM meeting_sessions WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return errors.Wrap(err, "清理过期会议记录")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(val bool) int {
	if val {
		return 1
	}
	return 0
}
