// Package server provides configuration helpers that define runtime defaults,
// validation, and environment loading for the relay service.
package server

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"

	"github.com/Tyrowin/roomrelay/internal/rooms"
)

const (
	defaultPort            = ":9090"
	defaultOrigin          = "http://localhost:9090"
	defaultMaxMessageSize  = 4096
	defaultSendBufferSize  = 256
	defaultWriteTimeout    = 10 * time.Second
	defaultPongWait        = 60 * time.Second
	defaultSubprotocol     = "chat-token"
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "INFO"
)

// Config holds the relay settings. Fields tagged env are loaded by
// NewConfigFromEnv.
type Config struct {
	Port             string        `env:"SERVER_PORT,default=:9090" validate:"required"`
	Origins          string        `env:"ALLOWED_ORIGINS,default=http://localhost:9090"`
	MaxMessageSize   int64         `env:"MAX_MESSAGE_SIZE,default=4096" validate:"gt=0"`
	SendBufferSize   int           `env:"SEND_BUFFER_SIZE,default=256" validate:"gt=0"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	PongWait         time.Duration `env:"PONG_WAIT,default=60s" validate:"gt=0"`
	RoomCapacity     int           `env:"ROOM_CAPACITY,default=5" validate:"gt=0"`
	StrictInvariants bool          `env:"STRICT_INVARIANTS,default=false"`
	Subprotocol      string        `env:"SUBPROTOCOL,default=chat-token" validate:"required"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`

	// AllowedOrigins takes precedence over Origins when set.
	AllowedOrigins []string
}

var validate = validator.New()

func defaultConfig() Config {
	return Config{
		Port:            defaultPort,
		AllowedOrigins:  []string{defaultOrigin},
		MaxMessageSize:  defaultMaxMessageSize,
		SendBufferSize:  defaultSendBufferSize,
		WriteTimeout:    defaultWriteTimeout,
		PongWait:        defaultPongWait,
		RoomCapacity:    rooms.DefaultCapacity,
		Subprotocol:     defaultSubprotocol,
		ShutdownTimeout: defaultShutdownTimeout,
		LogLevel:        defaultLogLevel,
	}
}

// NewConfig creates a Config populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv loads the configuration from environment variables,
// falling back to defaults for unset ones.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	cfg = cfg.sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// PingPeriod is how often the server pings; it must stay below PongWait.
func (c Config) PingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// sanitize fills unset fields with defaults and normalizes the origin list.
func (c Config) sanitize() Config {
	def := defaultConfig()

	if c.Port == "" {
		c.Port = def.Port
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.SendBufferSize == 0 {
		c.SendBufferSize = def.SendBufferSize
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.PongWait == 0 {
		c.PongWait = def.PongWait
	}
	if c.RoomCapacity == 0 {
		c.RoomCapacity = def.RoomCapacity
	}
	if c.Subprotocol == "" {
		c.Subprotocol = def.Subprotocol
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	c.LogLevel = strings.ToUpper(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = parseOrigins(c.Origins)
	} else {
		c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	}
	return c
}

func parseOrigins(origins string) []string {
	if strings.TrimSpace(origins) == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
