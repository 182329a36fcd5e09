package server

import (
	"context"
	"direct-chat/sink"
	"net/http"
)

// requestHandshake reads handshake metadata from the query string first,
// then from the headers.
type requestHandshake struct {
	r *http.Request
}

func (h requestHandshake) Get(key string) string {
	if v := h.r.URL.Query().Get(key); v != "" {
		return v
	}
	return h.r.Header.Get(key)
}

// connect upgrades the request and hands the new connection to the lifecycle
// manager. The handler owns the sink: it is the only place that closes it
// once the client is gone.
func (s *HTTPServer) connect(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Websocket upgrade failed", "error", err)
		return
	}
	handle := sink.NewWebsocketSink(s.log, conn, s.options.ConnectionBufferSize, s.options.PingInterval)
	ctx := r.Context()

	userID, err := s.lifecycle.OnConnect(ctx, requestHandshake{r: r}, handle)
	if err != nil {
		// The lifecycle manager already closed the handle
		return
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = handle.Close()
		case <-handle.Done():
		}
	}()

	_ = handle.ReadLoop()
	_ = handle.Close()
	// Presence must still go out when the server is shutting down
	s.lifecycle.OnDisconnect(context.WithoutCancel(ctx), userID, handle)
}
