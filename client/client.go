package main

import (
	"bufio"
	"bytes"
	"context"
	"direct-chat/domain/event"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Token         string `env:"CHAT_TOKEN,required=true"`
	PeerID        string `env:"CHAT_PEER_ID,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

type inboundFrame struct {
	Type    event.Kind      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run connects to the push channel, prints incoming events and sends every
// line typed on stdin to the configured peer.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsURL := url.URL{Scheme: "ws", Host: config.ServerAddress, Path: "/ws",
		RawQuery: url.Values{"token": {config.Token}}.Encode()}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	color.Green.Printf(">>> Connected to %s, chatting with %s (Ctrl+C to quit)\n", config.ServerAddress, config.PeerID)

	go readStdin(ctx, log, config)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("connection error: %w", err)
		}
		printFrame(log, frame)
	}
}

func printFrame(log *slog.Logger, frame inboundFrame) {
	switch frame.Type {
	case event.KindPresenceUpdate:
		var payload event.PresencePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			log.Debug("Malformed presence frame", "error", err)
			return
		}
		color.Cyan.Printf("* online: %s\n", strings.Join(payload.UserIDs, ", "))
	case event.KindNewMessage:
		var payload event.MessagePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			log.Debug("Malformed message frame", "error", err)
			return
		}
		color.Yellow.Printf("[%s] %s: ", payload.CreatedAt.Local().Format(time.TimeOnly), payload.SenderID)
		fmt.Println(payload.Body)
	default:
		log.Debug("Unknown frame", "type", frame.Type)
	}
}

func readStdin(ctx context.Context, log *slog.Logger, config Config) {
	client := &http.Client{Timeout: 10 * time.Second}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		body := strings.TrimSpace(scanner.Text())
		if body == "" {
			continue
		}
		if err := send(ctx, client, config, body); err != nil {
			color.Red.Printf("! %v\n", err)
			log.Debug("Send failed", "error", err)
		}
	}
}

func send(ctx context.Context, client *http.Client, config Config, body string) error {
	payload, err := json.Marshal(map[string]string{"receiverId": config.PeerID, "body": body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("http://%s/api/messages", config.ServerAddress), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.Token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return fmt.Errorf("send rejected (%d): %s", resp.StatusCode, failure.Error)
	}
	return nil
}
