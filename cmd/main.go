package main

import (
	"context"
	"direct-chat/auth"
	grpcserver "direct-chat/infrastructure/grpc/server"
	httpserver "direct-chat/infrastructure/http/server"
	"direct-chat/internal"
	"direct-chat/moderation"
	"direct-chat/repositories"
	"direct-chat/runtime"
	"direct-chat/runtime/workers"
	"direct-chat/services"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until a signal arrives.
// Returning an error instead of exiting lets the deferred cleanups run.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithSyncWrites(config.BadgerSyncWrites).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	tokenizer, err := auth.NewTokenizer(config.JWTSecret, config.AuthTokenDuration)
	if err != nil {
		return err
	}
	identity, err := auth.NewIdentityExtractor(config.IdentityMode, tokenizer)
	if err != nil {
		return err
	}

	// 3. Presence core
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewPresenceBroadcaster(log, registry, config.SinkTimeout)
	dispatcher := runtime.NewDispatcher(log, registry, config.SinkTimeout)
	lifecycle := runtime.NewLifecycle(log, registry, broadcaster, identity, config.EvictReplacedConnections)

	// 4. Store & services
	userRepository := repositories.NewUserRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	authService := services.NewAuthService(log, userRepository, tokenizer)
	directoryService := services.NewDirectoryService(userRepository, registry)
	contentFilter, err := moderation.NewFilter(config.BannedWords)
	if err != nil {
		return fmt.Errorf("banned words loading failed: %w", err)
	}
	log.Info("Content filter ready", "banned_words", contentFilter.Size())
	chatService := services.NewChatService(log, messageRepository, userRepository, dispatcher,
		config.MaxContentLength, contentFilter)

	// 5. Servers
	httpServer := httpserver.NewHTTPServer(log, httpserver.Options{
		Host:                 config.Host,
		Port:                 config.Port,
		ConnectionBufferSize: config.ConnectionBufferSize,
		PingInterval:         config.PingInterval,
	}, lifecycle, authService, directoryService, chatService, tokenizer)
	healthServer := grpcserver.NewHealthServer(log, config.Host, config.GRPCPort)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting direct-chat", "identity_mode", config.IdentityMode,
		"evict_replaced", config.EvictReplacedConnections)

	// 7. Blocks until every worker stopped
	workers.NewSupervisor(log, config.RestartInterval).
		Add(httpServer, healthServer, workers.NewHeartbeatWorker(log, registry, config.MetricInterval)).
		Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
