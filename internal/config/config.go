// Package config loads the relay's runtime settings from the environment.
// Values are read after an optional .env file has been applied by the caller,
// and anything missing or malformed falls back to the defaults below.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pion/logging"
)

// Defaults for the relay.
const (
	DefaultPort             = "3001"
	DefaultAllowedOrigin    = "http://localhost:3000"
	DefaultMaxMessageSize   = 64 * 1024
	DefaultSendBufferSize   = 256
	DefaultRateLimitBurst   = 50
	DefaultRefillInterval   = time.Second
	DefaultRateLimitWindow  = 10 * time.Second
	DefaultRateLimitPerWin  = 500
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultChatHistoryLimit = 0
)

// RateLimit holds both limiter flavours. Burst/RefillInterval drive the
// in-memory token bucket; Window/RequestsPerWindow drive the Redis sliding window.
type RateLimit struct {
	Burst             int
	RefillInterval    time.Duration
	Window            time.Duration
	RequestsPerWindow int
}

// Redis is optional. An empty Addr disables every Redis-backed feature.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (r Redis) Enabled() bool { return r.Addr != "" }

// Config is the full runtime configuration of the relay.
type Config struct {
	Port             string
	AllowedOrigins   []string
	MaxMessageSize   int64
	SendBufferSize   int
	RateLimit        RateLimit
	Redis            Redis
	MirrorChannel    string
	SignalUnicast    bool
	SignalValidate   bool
	ChatHistoryLimit int
	LogLevel         logging.LogLevel
	ShutdownTimeout  time.Duration
}

// Default returns a Config populated with default values for all settings.
func Default() *Config {
	return &Config{
		Port:           DefaultPort,
		AllowedOrigins: []string{DefaultAllowedOrigin},
		MaxMessageSize: DefaultMaxMessageSize,
		SendBufferSize: DefaultSendBufferSize,
		RateLimit: RateLimit{
			Burst:             DefaultRateLimitBurst,
			RefillInterval:    DefaultRefillInterval,
			Window:            DefaultRateLimitWindow,
			RequestsPerWindow: DefaultRateLimitPerWin,
		},
		ChatHistoryLimit: DefaultChatHistoryLimit,
		LogLevel:         logging.LogLevelInfo,
		ShutdownTimeout:  DefaultShutdownTimeout,
	}
}

// Load builds a Config from environment variables.
func Load() *Config {
	cfg := Default()

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = strings.TrimPrefix(port, ":")
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseList(origins)
	}
	cfg.MaxMessageSize = int64(intEnv("MAX_MESSAGE_SIZE", int(cfg.MaxMessageSize)))
	cfg.SendBufferSize = intEnv("SEND_BUFFER_SIZE", cfg.SendBufferSize)

	cfg.RateLimit.Burst = intEnv("RATE_LIMIT_BURST", cfg.RateLimit.Burst)
	cfg.RateLimit.RefillInterval = secondsEnv("RATE_LIMIT_REFILL_INTERVAL", cfg.RateLimit.RefillInterval)
	cfg.RateLimit.Window = secondsEnv("RATE_LIMIT_WINDOW", cfg.RateLimit.Window)
	cfg.RateLimit.RequestsPerWindow = intEnv("RATE_LIMIT_REQUESTS", cfg.RateLimit.RequestsPerWindow)

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if db, err := strconv.Atoi(os.Getenv("REDIS_DB")); err == nil && db >= 0 {
		cfg.Redis.DB = db
	}
	cfg.MirrorChannel = os.Getenv("EVENT_MIRROR_CHANNEL")

	cfg.SignalUnicast = boolEnv("SIGNAL_UNICAST", false)
	cfg.SignalValidate = boolEnv("SIGNAL_VALIDATE", false)

	if limit, err := strconv.Atoi(os.Getenv("CHAT_HISTORY_LIMIT")); err == nil && limit >= 0 {
		cfg.ChatHistoryLimit = limit
	}
	cfg.LogLevel = parseLogLevel(os.Getenv("LOG_LEVEL"), cfg.LogLevel)
	cfg.ShutdownTimeout = secondsEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	return cfg
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// AllowAllOrigins reports whether the wildcard origin was configured.
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func parseList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intEnv(key string, defaultValue int) int {
	if parsed, err := strconv.Atoi(os.Getenv(key)); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func secondsEnv(key string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(os.Getenv(key)); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func boolEnv(key string, defaultValue bool) bool {
	if parsed, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return parsed
	}
	return defaultValue
}

func parseLogLevel(value string, defaultValue logging.LogLevel) logging.LogLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "disabled", "off":
		return logging.LogLevelDisabled
	case "error":
		return logging.LogLevelError
	case "warn", "warning":
		return logging.LogLevelWarn
	case "info":
		return logging.LogLevelInfo
	case "debug":
		return logging.LogLevelDebug
	case "trace":
		return logging.LogLevelTrace
	default:
		return defaultValue
	}
}
