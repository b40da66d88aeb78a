package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/branchweb/branchweb-go/internal/telemetry/logger"
	"github.com/branchweb/branchweb-go/pkg/crypto/passhash"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	var errs []error
	errs = append(errs, verifyServer(&cfg.Server)...)
	errs = append(errs, verifyWeb(&cfg.Web)...)
	errs = append(errs, verifyUsers(&cfg.Users)...)
	errs = append(errs, verifyAuth(&cfg.Auth)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	return errors.Join(errs...)
}

func verifyServer(cfg *ServerSection) []error {
	var errs []error
	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		errs = append(errs, err)
	}
	if cfg.Metrics.Addr != "" {
		if err := verifyAddr("server.metrics.addr", cfg.Metrics.Addr); err != nil {
			errs = append(errs, err)
		}
		if cfg.Metrics.Addr == cfg.HTTP.Addr {
			errs = append(errs, errors.New("server.metrics.addr must differ from server.http.addr"))
		}
	}
	if cfg.HTTP.ReadHeaderTimeout < 0 {
		errs = append(errs, errors.New("server.http.read_header_timeout must not be negative"))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	return errs
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func verifyWeb(cfg *WebSection) []error {
	var errs []error
	if cfg.KeyTimeout <= 0 {
		errs = append(errs, errors.New("web.key_timeout must be positive"))
	}
	if cfg.SweepInterval < 0 {
		errs = append(errs, errors.New("web.sweep_interval must not be negative"))
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("web.max_body_bytes must be positive"))
	}
	return errs
}

func verifyUsers(cfg *UsersSection) []error {
	var errs []error
	if cfg.File == "" {
		errs = append(errs, errors.New("users.file is required"))
	}
	if _, err := passhash.New(cfg.HashAlgorithm); err != nil {
		errs = append(errs, fmt.Errorf("users.hash_algorithm: %w", err))
	}
	return errs
}

func verifyAuth(cfg *AuthSection) []error {
	var errs []error
	if cfg.LoginRate < 0 {
		errs = append(errs, errors.New("auth.login_rate must not be negative"))
	}
	if cfg.LoginRate > 0 && cfg.LoginBurst < 1 {
		errs = append(errs, errors.New("auth.login_burst must be at least 1 when throttling is enabled"))
	}
	return errs
}

func verifyLog(cfg *LogSection) []error {
	var errs []error
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", cfg.Format))
	}
	if cfg.Output == "" {
		errs = append(errs, errors.New("log.output is required"))
	}
	return errs
}
