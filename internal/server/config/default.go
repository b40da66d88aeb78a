package config

import (
	"time"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/server/httpserver"
	"github.com/branchweb/branchweb-go/pkg/crypto/passhash"
)

// Default configuration values.
const (
	DefaultHTTPAddr          = "127.0.0.1:8080"
	DefaultReadHeaderTimeout = httpserver.DefaultReadHeaderTimeout
	DefaultShutdownTimeout   = 10 * time.Second

	DefaultKeyTimeout   = int(domain.DefaultKeyTimeout / time.Second)
	DefaultMaxBodyBytes = httpserver.DefaultMaxBodyBytes

	DefaultUsersFile     = "users.meta"
	DefaultHashAlgorithm = passhash.AlgorithmArgon2id

	DefaultLoginBurst = 5

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stderr"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:              DefaultHTTPAddr,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Web: WebSection{
			KeyTimeout:   DefaultKeyTimeout,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Users: UsersSection{
			File:          DefaultUsersFile,
			HashAlgorithm: DefaultHashAlgorithm,
		},
		Auth: AuthSection{
			LoginBurst: DefaultLoginBurst,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: DefaultLogOutput,
		},
	}
}

// DefaultMap returns the defaults keyed by dotted path, the form the
// configuration loader layers under file and environment values.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.http.addr":                d.Server.HTTP.Addr,
		"server.http.read_header_timeout": d.Server.HTTP.ReadHeaderTimeout,
		"server.metrics.addr":             d.Server.Metrics.Addr,
		"server.shutdown_timeout":         d.Server.ShutdownTimeout,
		"web.key_timeout":                 d.Web.KeyTimeout,
		"web.debug":                       d.Web.Debug,
		"web.send_cors_headers":           d.Web.SendCORSHeaders,
		"web.sweep_interval":              d.Web.SweepInterval,
		"web.max_body_bytes":              d.Web.MaxBodyBytes,
		"users.file":                      d.Users.File,
		"users.hash_algorithm":            d.Users.HashAlgorithm,
		"auth.login_rate":                 d.Auth.LoginRate,
		"auth.login_burst":                d.Auth.LoginBurst,
		"log.level":                       d.Log.Level,
		"log.format":                      d.Log.Format,
		"log.output":                      d.Log.Output,
		"log.debug_output":                d.Log.DebugOutput,
	}
}
