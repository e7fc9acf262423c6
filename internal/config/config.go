// Package config reads server settings from the environment.
//
// Each field names its variable in an `env` tag, an optional fallback
// variable in `envAlt` and a default in `default`. Durations use Go syntax
// ("30s", "2m") and lists are comma separated.
package config

import (
	"net"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"` // per-request middleware deadline
}

// UploadConfig bounds how much work a single upload can cause.
type UploadConfig struct {
	MaxFileSize   int64         `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`   // bytes
	MaxUnzipSize  int64         `env:"UPLOAD_MAX_UNZIP_SIZE" default:"536870912"` // bytes an xlsx may inflate to
	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" default:"4"`         // decodes in parallel
	MaxWaitTime   time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`        // queueing for a decode slot
	Timeout       time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`               // read plus decode
}

// SessionConfig controls the in-memory workspace store.
type SessionConfig struct {
	MaxWorkspaces int           `env:"SESSION_MAX_WORKSPACES" default:"200"`
	IdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" default:"30m"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`
	CookieName    string        `env:"SESSION_COOKIE_NAME" default:"sheetview_ws"`
}

type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"` // per client IP
}

type SecurityConfig struct {
	TrustedProxies []string `env:"TRUSTED_PROXIES"` // CIDRs allowed to set X-Real-IP / X-Forwarded-For
	EnableCSP      bool     `env:"SECURITY_ENABLE_CSP" default:"true"`
	RequireAPIKey  bool     `env:"REQUIRE_API_KEY" default:"false"` // guards /api
	APIKeys        []string `env:"API_KEYS"`
}

type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`  // debug, info, warn, error
	Format string `env:"LOG_FORMAT" default:"text"` // text or json
}

// Addr is the listen address, host:port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
