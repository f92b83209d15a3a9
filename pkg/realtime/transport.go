package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coursehub/realtime-go/pkg/schemas/events"
)

// session owns one open socket: frame writes, the read loop, and the
// ping heartbeat. Reconnect policy lives in the Client; a session is
// single-use and replaced wholesale after a drop.
type session struct {
	conn Conn
	log  *slog.Logger

	heartbeat    time.Duration
	writeTimeout time.Duration

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func newSession(conn Conn, heartbeat, writeTimeout time.Duration, log *slog.Logger) *session {
	return &session{
		conn:         conn,
		log:          log,
		heartbeat:    heartbeat,
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
}

func (s *session) writeFrame(frame events.ClientFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	select {
	case <-s.done:
		return ErrNotConnected
	default:
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop delivers every inbound frame in arrival order and returns
// the terminal read error. Liveness is enforced by the read deadline:
// each pong (or data frame) extends it, so a silent peer surfaces as a
// deadline error here rather than hanging forever.
func (s *session) readLoop(deliver func([]byte)) error {
	grace := 2*s.heartbeat + s.heartbeat/2
	_ = s.conn.SetReadDeadline(time.Now().Add(grace))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(grace))
	})
	go s.heartbeatLoop()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(grace))
		deliver(data)
	}
}

func (s *session) heartbeatLoop() {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.writeTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.log.Debug("ping failed", slog.Any("error", err))
				return
			}
		}
	}
}

// close is idempotent and safe to call from any goroutine. Closing the
// conn unblocks the read loop.
func (s *session) close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *session) closedDeliberately() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
