package server

import (
	"context"
	"direct-chat/auth"
	"direct-chat/contract"
	"direct-chat/services"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Host                 string
	Port                 int
	ConnectionBufferSize int
	PingInterval         time.Duration
}

// HTTPServer exposes the REST API and the websocket endpoint.
// It implements contract.Worker so it can run under the supervisor.
type HTTPServer struct {
	log              *slog.Logger
	options          Options
	lifecycle        contract.ILifecycle
	authService      services.IAuthService
	directoryService services.IDirectoryService
	chatService      services.IChatService
	tokenizer        *auth.Tokenizer
	upgrader         websocket.Upgrader
}

func NewHTTPServer(log *slog.Logger, options Options, lifecycle contract.ILifecycle,
	authService services.IAuthService, directoryService services.IDirectoryService,
	chatService services.IChatService, tokenizer *auth.Tokenizer) *HTTPServer {
	return &HTTPServer{
		log:              log,
		options:          options,
		lifecycle:        lifecycle,
		authService:      authService,
		directoryService: directoryService,
		chatService:      chatService,
		tokenizer:        tokenizer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// TODO: restrict to the configured front-end origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler builds the routing table.
func (s *HTTPServer) Handler() http.Handler {
	protected := auth.Middleware(s.tokenizer)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("POST /api/auth/register", s.register)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("GET /api/me", protected(http.HandlerFunc(s.me)))
	mux.Handle("GET /api/users", protected(http.HandlerFunc(s.listUsers)))
	mux.Handle("POST /api/messages", protected(http.HandlerFunc(s.sendMessage)))
	mux.Handle("GET /api/conversations", protected(http.HandlerFunc(s.listConversations)))
	mux.Handle("GET /api/conversations/{peerId}/messages", protected(http.HandlerFunc(s.fetchConversation)))
	mux.HandleFunc("GET /ws", s.connect)
	return mux
}

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *HTTPServer) Run(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.options.Host, s.options.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("Shutting down HTTP server...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}
