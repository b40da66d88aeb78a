package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/branchweb/branchweb-go/internal/core/service"
	"github.com/branchweb/branchweb-go/internal/infra/confloader"
	"github.com/branchweb/branchweb-go/internal/infra/shutdown"
	"github.com/branchweb/branchweb-go/internal/server/config"
	"github.com/branchweb/branchweb-go/internal/server/httpserver"
	"github.com/branchweb/branchweb-go/internal/server/httpserver/handler"
	"github.com/branchweb/branchweb-go/internal/storage/memory"
	"github.com/branchweb/branchweb-go/internal/storage/userfile"
	"github.com/branchweb/branchweb-go/internal/telemetry/logger"
	"github.com/branchweb/branchweb-go/internal/telemetry/metric"
	"github.com/branchweb/branchweb-go/pkg/crypto/passhash"
)

// throttlePruneInterval is how often idle login limiters are dropped.
const throttlePruneInterval = time.Minute

// app holds the wired server components.
type app struct {
	cfg atomic.Pointer[config.ServerConfig]
	log *logger.Logger

	metrics    *metric.Registry
	keys       *memory.KeyStore
	throttle   *service.LoginThrottle
	dir        *service.Directory
	dispatcher *httpserver.Dispatcher

	http        *httpserver.Server
	metricsHTTP *httpserver.Server
}

// newApp builds every component from cfg. It loads (or bootstraps) the
// user store, so a persistence failure here is fatal.
func newApp(ctx context.Context, cfg *config.ServerConfig, log *logger.Logger) (*app, error) {
	a := &app{log: log, metrics: metric.NewRegistry()}
	a.cfg.Store(cfg)

	a.keys = memory.NewKeyStore(
		memory.WithTimeout(cfg.Web.KeyTimeoutDuration()),
		memory.WithMetrics(a.metrics),
		memory.WithLogger(log.With("component", "keys")),
	)

	hasher, err := passhash.New(cfg.Users.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	a.throttle = service.NewLoginThrottle(cfg.Auth.LoginRate, cfg.Auth.LoginBurst)

	a.dir, err = service.OpenDirectory(ctx, userfile.New(cfg.Users.File), a.keys,
		service.WithHasher(hasher),
		service.WithThrottle(a.throttle),
		service.WithDirectoryMetrics(a.metrics),
		service.WithDirectoryLogger(log.With("component", "users")),
	)
	if err != nil {
		return nil, fmt.Errorf("open user store %s: %w", cfg.Users.File, err)
	}
	a.metrics.MustRegister(metric.NewCollector(a.dir.Len))

	reg := httpserver.NewRegistry(log.Logger)
	handler.New(a.dir, a.keys, log.Logger).Register(reg)
	for _, r := range reg.Routes() {
		log.Info("endpoint registered", "method", r.Method, "path", r.Path)
	}

	a.dispatcher = httpserver.NewDispatcher(reg, dispatcherOptions(cfg), log.Logger, a.metrics)
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Dispatcher:  a.dispatcher,
		Logger:      log.Logger,
		Metrics:     a.metrics,
		EnableAudit: true,
	})

	a.http = httpserver.New(cfg.Server.HTTP.Addr, router,
		httpserver.WithReadHeaderTimeout(cfg.Server.HTTP.ReadHeaderTimeout),
		httpserver.WithErrorLogger(log.Logger),
	)
	if cfg.Server.Metrics.Addr != "" {
		a.metricsHTTP = httpserver.New(cfg.Server.Metrics.Addr, a.metrics.Handler(),
			httpserver.WithErrorLogger(log.Logger),
		)
	}
	return a, nil
}

func dispatcherOptions(cfg *config.ServerConfig) httpserver.Options {
	return httpserver.Options{
		Debug:           cfg.Web.Debug,
		SendCORSHeaders: cfg.Web.SendCORSHeaders,
		MaxBodyBytes:    cfg.Web.MaxBodyBytes,
	}
}

// start launches the listeners and janitors and registers their shutdown.
// A listener that fails triggers shutdown.
func (a *app) start(sd *shutdown.Handler) {
	cfg := a.cfg.Load()
	bg, cancel := context.WithCancel(context.Background())

	go a.keys.Run(bg, cfg.Web.SweepInterval)
	if a.throttle.Enabled() {
		go a.throttle.Run(bg, throttlePruneInterval)
	}
	sd.OnShutdown("janitors", func(context.Context) error {
		cancel()
		return nil
	})

	if a.metricsHTTP != nil {
		a.serve("metrics", a.metricsHTTP, sd)
		sd.OnShutdown("metrics listener", a.metricsHTTP.Shutdown)
	}
	a.serve("http", a.http, sd)
	sd.OnShutdown("http listener", a.http.Shutdown)
}

func (a *app) serve(name string, srv *httpserver.Server, sd *shutdown.Handler) {
	go func() {
		a.log.Info("listener starting", "listener", name, "addr", srv.Addr())
		if err := srv.ListenAndServe(); err != nil {
			a.log.Error("listener failed", "listener", name, "error", err)
			sd.Trigger(name + " listener failed")
		}
	}()
}

// watchConfig reloads the configuration whenever path changes.
func (a *app) watchConfig(path string, sd *shutdown.Handler) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(a.log.Logger))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return err
	}
	w.OnChange(func(string) { a.reload(path) })
	w.StartAsync()
	sd.OnShutdown("config watcher", func(context.Context) error {
		return w.Stop()
	})
	return nil
}

// reload applies the runtime-adjustable settings from path. An invalid
// file is logged and the running configuration kept.
func (a *app) reload(path string) {
	next, err := config.Load(path)
	if err != nil {
		a.log.Error("configuration reload rejected", "error", err)
		return
	}
	a.apply(next)
}

func (a *app) apply(next *config.ServerConfig) {
	old := a.cfg.Load()
	for _, key := range config.RestartRequired(old, next) {
		a.log.Warn("configuration change requires a restart", "key", key)
	}

	a.keys.SetTimeout(next.Web.KeyTimeoutDuration())
	a.dispatcher.SetOptions(dispatcherOptions(next))
	if err := a.log.SetLevel(next.Log.Level); err != nil {
		a.log.Warn("log level not changed", "error", err)
	}
	a.cfg.Store(next)
	a.log.Info("configuration reloaded", "config", next)
}
