package sink

import (
	"context"
	"direct-chat/domain/event"
	"direct-chat/errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxInboundSize = 4096
)

// WebsocketSink is the connection handle of one websocket client.
// Push only enqueues; a single writer goroutine owns every data write
// to the socket so pushes coming from several goroutines never interleave.
type WebsocketSink struct {
	id           string
	log          *slog.Logger
	conn         *websocket.Conn
	outbound     chan event.Frame
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
}

func NewWebsocketSink(log *slog.Logger, conn *websocket.Conn, bufferSize int, pingInterval time.Duration) *WebsocketSink {
	s := &WebsocketSink{
		id:           uuid.NewString(),
		log:          log,
		conn:         conn,
		outbound:     make(chan event.Frame, bufferSize),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
	}
	go s.writeLoop()
	return s
}

func (s *WebsocketSink) ID() string {
	return s.id
}

// Push never blocks: a full buffer means the client is too slow and the
// event is dropped with ErrBackpressure.
func (s *WebsocketSink) Push(ctx context.Context, e event.Event) error {
	frame, err := event.ToFrame(e)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return errors.ErrHandleClosed
	default:
	}
	select {
	case s.outbound <- frame:
		return nil
	case <-s.done:
		return errors.ErrHandleClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.ErrBackpressure
	}
}

// Close is idempotent. It sends a close frame on a best effort basis
// and releases the socket, which also ends ReadLoop.
func (s *WebsocketSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = s.conn.Close()
	})
	return err
}

// Done is closed once the sink is closed.
func (s *WebsocketSink) Done() <-chan struct{} {
	return s.done
}

// ReadLoop blocks until the client goes away. Inbound frames are discarded,
// reading only keeps pong handling alive and detects the disconnect.
func (s *WebsocketSink) ReadLoop() error {
	s.conn.SetReadLimit(maxInboundSize)
	if s.pingInterval > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(2 * s.pingInterval))
		})
	}
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway,
				websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Debug("Websocket read failed", "handle_id", s.id, "error", err)
			}
			return err
		}
	}
}

func (s *WebsocketSink) writeLoop() {
	var ticks <-chan time.Time
	if s.pingInterval > 0 {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-s.done:
			return
		case frame := <-s.outbound:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(frame); err != nil {
				s.log.Debug("Websocket write failed", "handle_id", s.id, "error", err)
				_ = s.Close()
				return
			}
		case <-ticks:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.Close()
				return
			}
		}
	}
}
