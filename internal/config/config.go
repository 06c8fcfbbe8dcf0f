// Package config loads chessline settings from a YAML file and the
// environment.
//
// Precedence, lowest first: DefaultConfig, the YAML file, environment
// variables. Command-line flags are applied by the caller on top.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/tranvananhanhanh/IT4062-Chessgame/chessprotocol"
	"github.com/tranvananhanhanh/IT4062-Chessgame/internal/logger"
)

// Config is the complete chessline configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Poller  PollerConfig  `yaml:"poller"`
	Logging logger.Config `yaml:"logging"`
}

// ServerConfig says where the chess server listens.
type ServerConfig struct {
	Host string `yaml:"host" env:"C_SERVER_HOST"`
	Port int    `yaml:"port" env:"C_SERVER_PORT"`

	// Binary is the chess_server executable started by --launch.
	Binary string `yaml:"binary" env:"CHESSLINE_SERVER_BINARY"`
}

// BridgeConfig holds connection and request timing.
type BridgeConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CHESSLINE_CONNECT_TIMEOUT"`
	// ReadTimeout bounds the greeting read after each connect. Zero or
	// negative skips the greeting read.
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"CHESSLINE_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"CHESSLINE_WRITE_TIMEOUT"`
	CommandTimeout time.Duration `yaml:"command_timeout" env:"CHESSLINE_COMMAND_TIMEOUT"`
	RetryOnBroken  bool          `yaml:"retry_on_broken" env:"CHESSLINE_RETRY_ON_BROKEN"`
}

// PollerConfig tunes the asynchronous mode.
type PollerConfig struct {
	Interval time.Duration `yaml:"interval" env:"CHESSLINE_POLL_INTERVAL"`
	MaxQueue int           `yaml:"max_queue" env:"CHESSLINE_MAX_QUEUE"`
	// ReconnectMaxElapsed caps how long the async loop keeps retrying
	// after the server went away.
	ReconnectMaxElapsed time.Duration `yaml:"reconnect_max_elapsed" env:"CHESSLINE_RECONNECT_MAX_ELAPSED"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:   chessprotocol.DefaultHost,
			Port:   chessprotocol.DefaultPort,
			Binary: "chess_server",
		},
		Bridge: BridgeConfig{
			ConnectTimeout: chessprotocol.ConnectionTimeout,
			ReadTimeout:    chessprotocol.GreetingWait,
			WriteTimeout:   chessprotocol.CommandTimeout,
			CommandTimeout: chessprotocol.CommandTimeout,
			RetryOnBroken:  true,
		},
		Poller: PollerConfig{
			Interval:            chessprotocol.PollInterval,
			MaxQueue:            chessprotocol.MaxOutboundQueue,
			ReconnectMaxElapsed: 30 * time.Second,
		},
		Logging: logger.DefaultConfig(),
	}
}

// Load reads path, applies environment overrides and validates the
// result. An empty path or a missing file yields the defaults plus
// environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("config: server.host is empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range 1-65535", c.Server.Port)
	}
	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"bridge.connect_timeout", c.Bridge.ConnectTimeout},
		{"bridge.write_timeout", c.Bridge.WriteTimeout},
		{"bridge.command_timeout", c.Bridge.CommandTimeout},
		{"poller.interval", c.Poller.Interval},
	} {
		if t.d <= 0 {
			return fmt.Errorf("config: %s must be positive, got %s", t.name, t.d)
		}
	}
	if c.Poller.MaxQueue < 1 {
		return fmt.Errorf("config: poller.max_queue must be at least 1, got %d", c.Poller.MaxQueue)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Address returns host:port of the chess server.
func (c *Config) Address() string {
	return chessprotocol.Address(c.Server.Host, c.Server.Port)
}

// ConnOptions converts the settings to connection options.
func (c *Config) ConnOptions(log *slog.Logger) chessprotocol.Options {
	// chessprotocol treats a zero wait as "use the default".
	wait := c.Bridge.ReadTimeout
	if wait == 0 {
		wait = -1
	}
	return chessprotocol.Options{
		Host:           c.Server.Host,
		Port:           c.Server.Port,
		ConnectTimeout: c.Bridge.ConnectTimeout,
		WriteTimeout:   c.Bridge.WriteTimeout,
		GreetingWait:   wait,
		Logger:         log,
	}
}

// ClientOptions returns the options of a synchronous client.
func (c *Config) ClientOptions(log *slog.Logger) []chessprotocol.ClientOption {
	return []chessprotocol.ClientOption{
		chessprotocol.WithTimeout(c.Bridge.CommandTimeout),
		chessprotocol.WithRetryOnBroken(c.Bridge.RetryOnBroken),
		chessprotocol.WithLogger(log),
	}
}

// PollerOptions returns the options of an asynchronous poller.
func (c *Config) PollerOptions(log *slog.Logger) []chessprotocol.PollerOption {
	return []chessprotocol.PollerOption{
		chessprotocol.WithMaxQueue(c.Poller.MaxQueue),
		chessprotocol.WithPollerLogger(log),
	}
}
