package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvananhanhanh/IT4062-Chessgame/chessprotocol"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chessline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8888, cfg.Server.Port)
	assert.Equal(t, "localhost:8888", cfg.Address())
	assert.Equal(t, 5*time.Second, cfg.Bridge.CommandTimeout)
	assert.Equal(t, 30*time.Millisecond, cfg.Poller.Interval)
	assert.True(t, cfg.Bridge.RetryOnBroken)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: chess.example.com
  port: 9000
bridge:
  command_timeout: 2s
  retry_on_broken: false
poller:
  interval: 50ms
  max_queue: 64
logging:
  level: DEBUG
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "chess.example.com", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Bridge.CommandTimeout)
	assert.False(t, cfg.Bridge.RetryOnBroken)
	assert.Equal(t, 50*time.Millisecond, cfg.Poller.Interval)
	assert.Equal(t, 64, cfg.Poller.MaxQueue)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, chessprotocol.ConnectionTimeout, cfg.Bridge.ConnectTimeout)
	assert.True(t, cfg.Logging.ConsoleEnabled)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: chess.example.com
  port: 9000
`)
	t.Setenv("C_SERVER_HOST", "10.0.0.2")
	t.Setenv("C_SERVER_PORT", "7777")
	t.Setenv("CHESSLINE_COMMAND_TIMEOUT", "750ms")
	t.Setenv("CHESSLINE_MAX_QUEUE", "8")
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_FILE_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", cfg.Server.Host)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.Bridge.CommandTimeout)
	assert.Equal(t, 8, cfg.Poller.MaxQueue)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.True(t, cfg.Logging.FileEnabled)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"bad yaml", "server: [unterminated", nil},
		{"bad duration", "bridge:\n  command_timeout: soon\n", nil},
		{"bad env port", "", map[string]string{"C_SERVER_PORT": "eighty"}},
		{"port out of range", "server:\n  port: 70000\n", nil},
		{"empty host", "server:\n  host: \"\"\n", nil},
		{"zero poll interval", "poller:\n  interval: 0s\n", nil},
		{"negative timeout", "", map[string]string{"CHESSLINE_CONNECT_TIMEOUT": "-1s"}},
		{"empty queue", "poller:\n  max_queue: 0\n", nil},
		{"unknown level", "logging:\n  level: LOUD\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestConnOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9999
	cfg.Bridge.ReadTimeout = -1
	log := slog.New(slog.DiscardHandler)

	opts := cfg.ConnOptions(log)
	assert.Equal(t, "127.0.0.1", opts.Host)
	assert.Equal(t, 9999, opts.Port)
	assert.Equal(t, time.Duration(-1), opts.GreetingWait)
	assert.Equal(t, cfg.Bridge.ConnectTimeout, opts.ConnectTimeout)
	assert.Same(t, log, opts.Logger)

	assert.Len(t, cfg.ClientOptions(log), 3)
	assert.Len(t, cfg.PollerOptions(log), 2)

	conn := chessprotocol.NewConn(opts)
	assert.Equal(t, "127.0.0.1:9999", conn.Addr())
}

func TestConnOptionsZeroReadTimeoutSkipsGreeting(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, chessprotocol.GreetingWait, cfg.ConnOptions(nil).GreetingWait)

	cfg.Bridge.ReadTimeout = 0
	assert.Negative(t, cfg.ConnOptions(nil).GreetingWait)

	t.Setenv("CHESSLINE_READ_TIMEOUT", "0")
	loaded, err := Load(writeConfig(t, "server:\n  host: localhost\n"))
	require.NoError(t, err)
	assert.Negative(t, loaded.ConnOptions(nil).GreetingWait)
}
