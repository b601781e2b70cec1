package realtime

import (
	"Hermes/internal/client/config"
	"Hermes/internal/dto"
	"Hermes/internal/pkg/consts"
	"context"
	log "log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// State 连接状态机：DISCONNECTED → CONNECTING → CONNECTED
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// Session 显式持有的实时通道连接会话。
// 生命周期由调用方通过 Start 的 ctx 控制；事件经有界队列向外投递，
// 队列满时丢弃并告警，绝不阻塞读循环；断线按指数退避重连，
// 重连成功后先投递 ResyncEvent 让上层补数据。
type Session struct {
	url          string
	token        string
	events       chan Event
	state        atomic.Int32
	pingInterval time.Duration
	backoffMin   time.Duration
	backoffMax   time.Duration
}

func NewSession(cfg *config.RealtimeConfig, token string) *Session {
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = 256
	}
	backoffMin := time.Duration(cfg.BackoffMin) * time.Second
	if backoffMin <= 0 {
		backoffMin = time.Second
	}
	backoffMax := time.Duration(cfg.BackoffMax) * time.Second
	if backoffMax < backoffMin {
		backoffMax = 30 * time.Second
	}
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}

	return &Session{
		url:          cfg.URL,
		token:        token,
		events:       make(chan Event, buffer),
		pingInterval: pingInterval,
		backoffMin:   backoffMin,
		backoffMax:   backoffMax,
	}
}

// Events 事件队列的消费端
func (s *Session) Events() <-chan Event {
	return s.events
}

// State 当前连接状态
func (s *Session) State() State {
	return State(s.state.Load())
}

// Start 运行连接会话直到 ctx 取消，期间断线自动重连
func (s *Session) Start(ctx context.Context) error {
	defer close(s.events)
	defer s.state.Store(int32(StateDisconnected))

	backoff := s.backoffMin
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.state.Store(int32(StateConnecting))
		conn, err := s.dial(ctx)
		if err != nil {
			s.state.Store(int32(StateDisconnected))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("实时通道连接失败，稍后重试", "err", err, "backoff", backoff)
			if err := s.sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = s.nextBackoff(backoff)
			continue
		}

		s.state.Store(int32(StateConnected))
		log.Info("实时通道已建立", "url", s.url)
		// 断连窗口内可能漏事件，交由上层重拉补齐
		s.emit(ResyncEvent{})

		connectedAt := time.Now()
		err = s.readLoop(ctx, conn)
		_ = conn.Close()
		s.state.Store(int32(StateDisconnected))
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// 握手后立刻被断开的连接同样走退避，否则接受即踢的服务端
		// 会引发重拨风暴；连接存活到退避上限才视为恢复，重置退避
		if time.Since(connectedAt) >= s.backoffMax {
			backoff = s.backoffMin
		}
		log.Warn("实时通道断开，准备重连", "err", err, "backoff", backoff)
		if err := s.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = s.nextBackoff(backoff)
	}
}

func (s *Session) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Session) nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > s.backoffMax {
		next = s.backoffMax
	}
	return next
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// readLoop 读循环：解析事件帧并投递；另起心跳协程保活
func (s *Session) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	defer close(stop)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
	})
	_ = conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))

	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					_ = conn.Close()
					return
				}
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-stop:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.dispatch(data)
	}
}

// dispatch 解析事件帧为类型化事件。通道自身不做任何业务逻辑，只负责转发。
func (s *Session) dispatch(data []byte) {
	var env dto.EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn("事件载荷解析失败，已丢弃", "err", err)
		return
	}

	switch env.Type {
	case consts.EventTypeMessage:
		convID := env.ConversationID
		if convID == "" && env.Message != nil {
			if env.Message.ConversationID != "" {
				convID = env.Message.ConversationID
			} else {
				convID = env.Message.ConversationIDAlt
			}
		}
		s.emit(MessageEvent{ConversationID: convID, Envelope: env.Message})
	case consts.EventTypePresence:
		s.emit(PresenceEvent{UserID: env.UserID, Status: env.Status})
	default:
		log.Warn("未知事件类型，已丢弃", "type", env.Type)
	}
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		log.Warn("事件队列已满，丢弃事件")
	}
}
