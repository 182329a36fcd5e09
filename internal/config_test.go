package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "a-test-secret-of-at-least-32-bytes!!")
	t.Setenv("BADGER_FILEPATH", t.TempDir())

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	req.NoError(err)
	req.Equal(64, config.ConnectionBufferSize)
	req.Equal(2*time.Second, config.SinkTimeout)
	req.Equal("token", config.IdentityMode)
	req.False(config.EvictReplacedConnections)
	req.True(config.BadgerSyncWrites)
	req.Nil(config.LimitMessages)
	req.Equal(8080, config.Port)
}

func TestLoadConfig_Missing_Required(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BADGER_FILEPATH", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("BADGER_FILEPATH")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	req.Error(err)
}

func TestLoadConfig_From_Dotenv(t *testing.T) {
	req := require.New(t)
	// Registered so the values loaded from the file are restored afterwards
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BADGER_FILEPATH", "")
	t.Setenv("LIMIT_MESSAGES", "")
	t.Setenv("IDENTITY_MODE", "")
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("BADGER_FILEPATH")
	os.Unsetenv("LIMIT_MESSAGES")
	os.Unsetenv("IDENTITY_MODE")

	file := filepath.Join(t.TempDir(), "test.env")
	content := "JWT_SECRET=a-test-secret-of-at-least-32-bytes!!\n" +
		"BADGER_FILEPATH=/tmp/direct-chat\n" +
		"LIMIT_MESSAGES=50\n" +
		"IDENTITY_MODE=query\n"
	req.NoError(os.WriteFile(file, []byte(content), 0o600))

	config, err := LoadConfig(file)

	req.NoError(err)
	req.Equal("/tmp/direct-chat", config.BadgerFilepath)
	req.Equal("query", config.IdentityMode)
	req.NotNil(config.LimitMessages)
	req.Equal(50, *config.LimitMessages)
}

func TestLoadConfig_Rejects_Non_Positive_Limit(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "a-test-secret-of-at-least-32-bytes!!")
	t.Setenv("BADGER_FILEPATH", t.TempDir())
	t.Setenv("LIMIT_MESSAGES", "0")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	req.Error(err)
}

func TestLoadConfig_Rejects_Non_Positive_Intervals(t *testing.T) {
	for _, name := range []string{"METRIC_INTERVAL", "RESTART_INTERVAL", "AUTH_TOKEN_DURATION"} {
		for _, value := range []string{"0s", "-1s"} {
			t.Run(name+"="+value, func(t *testing.T) {
				req := require.New(t)
				t.Setenv("JWT_SECRET", "a-test-secret-of-at-least-32-bytes!!")
				t.Setenv("BADGER_FILEPATH", t.TempDir())
				t.Setenv(name, value)

				_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

				req.ErrorContains(err, name)
			})
		}
	}
}
