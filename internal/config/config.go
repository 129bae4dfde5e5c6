package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	MaxMessageBytes  int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	PingInterval     time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	PingTimeout      time.Duration `mapstructure:"ping_timeout" yaml:"ping_timeout"`
	OutboxSize       int           `mapstructure:"outbox_size" yaml:"outbox_size"`
	OverflowPolicy   string        `mapstructure:"overflow_policy" yaml:"overflow_policy"`

	HistoryLimit        int      `mapstructure:"history_limit" yaml:"history_limit"`
	DefaultRoom         string   `mapstructure:"default_room" yaml:"default_room"`
	Rooms               []string `mapstructure:"rooms" yaml:"rooms"`
	DuplicatePolicy     string   `mapstructure:"duplicate_policy" yaml:"duplicate_policy"`
	AnnounceRoomChanges bool     `mapstructure:"announce_room_changes" yaml:"announce_room_changes"`

	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second" yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	AllowedOrigins     []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",

		MaxMessageBytes:  1 << 20,
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      10 * time.Second,
		OutboxSize:       core.DefaultOutboxSize,
		OverflowPolicy:   string(core.DropOldest),

		HistoryLimit:    core.DefaultHistoryLimit,
		DefaultRoom:     core.DefaultRoom,
		Rooms:           []string{"General", "News", "Sport", "Engineering"},
		DuplicatePolicy: string(core.Supersede),

		RateLimitPerSecond: 10,
		RateLimitBurst:     20,
		AllowedOrigins:     []string{"*"},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.HandshakeTimeout != 0 {
		c.HandshakeTimeout = other.HandshakeTimeout
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.PingTimeout != 0 {
		c.PingTimeout = other.PingTimeout
	}
	if other.OutboxSize != 0 {
		c.OutboxSize = other.OutboxSize
	}
	if other.OverflowPolicy != "" {
		c.OverflowPolicy = other.OverflowPolicy
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.DefaultRoom != "" {
		c.DefaultRoom = other.DefaultRoom
	}
	if len(other.Rooms) > 0 {
		c.Rooms = other.Rooms
	}
	if other.DuplicatePolicy != "" {
		c.DuplicatePolicy = other.DuplicatePolicy
	}
	if other.AnnounceRoomChanges {
		c.AnnounceRoomChanges = true
	}
	if other.RateLimitPerSecond != 0 {
		c.RateLimitPerSecond = other.RateLimitPerSecond
	}
	if other.RateLimitBurst != 0 {
		c.RateLimitBurst = other.RateLimitBurst
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
}

// Validate reports every configuration value that cannot work.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes))
	}
	if c.HandshakeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("handshake_timeout must be positive, got %s", c.HandshakeTimeout))
	}
	if c.PingInterval < 0 || c.PingTimeout < 0 {
		errs = append(errs, errors.New("ping_interval and ping_timeout must not be negative"))
	}
	if c.OutboxSize <= 0 {
		errs = append(errs, fmt.Errorf("outbox_size must be positive, got %d", c.OutboxSize))
	}
	if _, err := core.ParseOverflowPolicy(c.OverflowPolicy); err != nil {
		errs = append(errs, err)
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit))
	}
	if !core.ValidRoomName(strings.TrimSpace(c.DefaultRoom)) {
		errs = append(errs, fmt.Errorf("default_room must be 1-%d characters", core.MaxRoomNameLength))
	}
	for _, room := range c.Rooms {
		if !core.ValidRoomName(strings.TrimSpace(room)) {
			errs = append(errs, fmt.Errorf("rooms: %q must be 1-%d characters", room, core.MaxRoomNameLength))
		}
	}
	if _, err := core.ParseDuplicatePolicy(c.DuplicatePolicy); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimitPerSecond < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_per_second must not be negative, got %v", c.RateLimitPerSecond))
	}
	if c.RateLimitPerSecond > 0 && c.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("rate_limit_burst must be positive when rate limiting is enabled"))
	}
	return errors.Join(errs...)
}

// HubOptions maps the room and session settings onto core.Options.
// Unparseable policies fall back to their defaults; call Validate first.
func (c Config) HubOptions() core.Options {
	duplicate, err := core.ParseDuplicatePolicy(c.DuplicatePolicy)
	if err != nil {
		duplicate = core.Supersede
	}
	return core.Options{
		DefaultRoom:         c.DefaultRoom,
		Rooms:               c.Rooms,
		HistoryLimit:        c.HistoryLimit,
		DuplicatePolicy:     duplicate,
		AnnounceRoomChanges: c.AnnounceRoomChanges,
	}
}

// JWTConfig returns handshake token settings, or nil when no secret is set.
func (c Config) JWTConfig() *auth.JWTConfig {
	if c.JWTSecret == "" {
		return nil
	}
	return &auth.JWTConfig{
		Secret:   []byte(c.JWTSecret),
		Issuer:   c.JWTIssuer,
		Audience: c.JWTAudience,
	}
}
