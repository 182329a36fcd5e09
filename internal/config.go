package internal

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	ConnectionBufferSize     int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	LimitMessages            *int          `env:"LIMIT_MESSAGES"`
	SinkTimeout              time.Duration `env:"SINK_TIMEOUT,default=2s"`
	PingInterval             time.Duration `env:"PING_INTERVAL,default=30s"`
	RestartInterval          time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval           time.Duration `env:"METRIC_INTERVAL,default=1m"`
	AuthTokenDuration        time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	JWTSecret                string        `env:"JWT_SECRET,required=true"`
	IdentityMode             string        `env:"IDENTITY_MODE,default=token"`
	EvictReplacedConnections bool          `env:"EVICT_REPLACED_CONNECTIONS,default=false"`
	BadgerFilepath           string        `env:"BADGER_FILEPATH,required=true"`
	BadgerSyncWrites         bool          `env:"BADGER_SYNC_WRITES,default=true"`
	LogLevel                 string        `env:"LOG_LEVEL,default=INFO"`
	MaxContentLength         int           `env:"MAX_CONTENT_LENGTH,default=4000"`
	BannedWords              []string      `env:"BANNED_WORDS,separator=,"`
	Host                     string        `env:"HOST,default=localhost"`
	Port                     int           `env:"PORT,default=8080"`
	GRPCPort                 int           `env:"GRPC_PORT,default=9090"`
}

// LoadConfig reads the process environment, optionally seeded by .env files.
// A missing .env file is not an error.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			continue
		}
	}

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if config.ConnectionBufferSize <= 0 {
		return Config{}, fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", config.ConnectionBufferSize)
	}
	if config.LimitMessages != nil && *config.LimitMessages <= 0 {
		return Config{}, fmt.Errorf("LIMIT_MESSAGES must be positive, got %d", *config.LimitMessages)
	}
	for name, interval := range map[string]time.Duration{
		"METRIC_INTERVAL":     config.MetricInterval,
		"RESTART_INTERVAL":    config.RestartInterval,
		"AUTH_TOKEN_DURATION": config.AuthTokenDuration,
	} {
		if interval <= 0 {
			return Config{}, fmt.Errorf("%s must be positive, got %s", name, interval)
		}
	}
	return config, nil
}
