package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/branchweb/branchweb-go/internal/infra/buildinfo"
	"github.com/branchweb/branchweb-go/internal/infra/shutdown"
	"github.com/branchweb/branchweb-go/internal/server/config"
	"github.com/branchweb/branchweb-go/internal/telemetry/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("branchweb-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Open(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.DebugOutput)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()
	slog.SetDefault(log.Logger)

	info := buildinfo.Get()
	log.Info("starting branchweb-server",
		"version", info.Version,
		"commit", info.Commit,
		"config_file", *configFile,
		"config", cfg)

	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	sd := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log.Logger)
	a.start(sd)
	if *configFile != "" {
		if err := a.watchConfig(*configFile, sd); err != nil {
			log.Warn("config hot reload disabled", "error", err)
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := sd.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}
