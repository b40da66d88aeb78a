package config

import (
	"log/slog"
	"time"
)

// ServerConfig is the root configuration for branchweb-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server" yaml:"server"`
	Web    WebSection    `koanf:"web" yaml:"web"`
	Users  UsersSection  `koanf:"users" yaml:"users"`
	Auth   AuthSection   `koanf:"auth" yaml:"auth"`
	Log    LogSection    `koanf:"log" yaml:"log"`
}

// ServerSection configures listeners.
type ServerSection struct {
	HTTP            HTTPConfig    `koanf:"http" yaml:"http"`
	Metrics         MetricsConfig `koanf:"metrics" yaml:"metrics"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr              string        `koanf:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" yaml:"read_header_timeout"`
}

// MetricsConfig configures the Prometheus listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// WebSection configures request handling and session keys.
type WebSection struct {
	// KeyTimeout is the key idle timeout in seconds.
	KeyTimeout int `koanf:"key_timeout" yaml:"key_timeout"`

	// Debug logs stack traces for handler failures.
	Debug bool `koanf:"debug" yaml:"debug"`

	SendCORSHeaders bool `koanf:"send_cors_headers" yaml:"send_cors_headers"`

	// SweepInterval runs the expired key janitor. Zero keeps expiry lazy.
	SweepInterval time.Duration `koanf:"sweep_interval" yaml:"sweep_interval"`

	MaxBodyBytes int64 `koanf:"max_body_bytes" yaml:"max_body_bytes"`
}

// KeyTimeoutDuration returns KeyTimeout as a duration.
func (w WebSection) KeyTimeoutDuration() time.Duration {
	return time.Duration(w.KeyTimeout) * time.Second
}

// UsersSection configures the user store.
type UsersSection struct {
	File          string `koanf:"file" yaml:"file"`
	HashAlgorithm string `koanf:"hash_algorithm" yaml:"hash_algorithm"`
}

// AuthSection configures login throttling.
type AuthSection struct {
	// LoginRate is the sustained login attempts per second per user. Zero disables throttling.
	LoginRate  float64 `koanf:"login_rate" yaml:"login_rate"`
	LoginBurst int     `koanf:"login_burst" yaml:"login_burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`

	// Output is stderr, stdout or a file path.
	Output string `koanf:"output" yaml:"output"`

	// DebugOutput, when set, receives records below INFO instead of Output.
	DebugOutput string `koanf:"debug_output" yaml:"debug_output"`
}

// LogValue implements slog.LogValuer so the effective configuration can be
// logged at startup.
func (c *ServerConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("http_addr", c.Server.HTTP.Addr),
		slog.String("metrics_addr", c.Server.Metrics.Addr),
		slog.Int("key_timeout", c.Web.KeyTimeout),
		slog.Bool("debug", c.Web.Debug),
		slog.Bool("send_cors_headers", c.Web.SendCORSHeaders),
		slog.Duration("sweep_interval", c.Web.SweepInterval),
		slog.String("users_file", c.Users.File),
		slog.String("hash_algorithm", c.Users.HashAlgorithm),
		slog.Float64("login_rate", c.Auth.LoginRate),
		slog.String("log_level", c.Log.Level),
	)
}
