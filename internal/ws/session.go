// README: Ephemeral live-transport session around one WebSocket connection.
package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fleetwatch/internal/auth"
	"fleetwatch/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Session exists only for the lifetime of one connection and is never
// persisted. Outbound delivery goes through a buffered channel so one slow
// consumer cannot block a publisher or other recipients.
type Session struct {
	ID     string
	Claims auth.Claims

	conn *websocket.Conn
	send chan []byte
	log  *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func NewSession(conn *websocket.Conn, claims auth.Claims, log *zap.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:     id,
		Claims: claims,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		log:    log.With(zap.String("session_id", id), zap.String("subject", claims.Subject)),
		closed: make(chan struct{}),
	}
}

// Send queues a message for delivery. It never blocks: when the buffer is
// full or the session is closed the message is dropped for this session only.
func (s *Session) Send(msg []byte) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		metrics.DroppedDeliveries.Inc()
		s.log.Debug("dropped delivery to slow session")
		return false
	}
}

// Close tears the connection down; safe to call from any goroutine and more
// than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

// WritePump drains the send queue onto the connection and keeps the peer
// alive with pings. It owns all writes to the connection.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.closed:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadLoop decodes inbound envelopes and hands them to handle until the
// connection drops. It owns all reads from the connection.
func (s *Session) ReadLoop(handle func(Envelope)) {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("session read error", zap.Error(err))
			}
			return
		}
		handle(env)
	}
}

// SendEnvelope marshals and queues a typed message.
func (s *Session) SendEnvelope(msgType string, payload any) {
	msg, err := Encode(msgType, payload)
	if err != nil {
		s.log.Warn("encode outbound message failed", zap.String("type", msgType), zap.Error(err))
		return
	}
	s.Send(msg)
}
