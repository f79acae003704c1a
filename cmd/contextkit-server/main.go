// Package main provides a flag-driven entry point for the contextkit server,
// suited to container deployments that do not want the full CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/context-kit/contextkit/internal/config"
	"github.com/context-kit/contextkit/internal/event"
	"github.com/context-kit/contextkit/internal/logging"
	"github.com/context-kit/contextkit/internal/manager"
	"github.com/context-kit/contextkit/internal/provider"
	"github.com/context-kit/contextkit/internal/repository"
	"github.com/context-kit/contextkit/internal/server"
	"github.com/context-kit/contextkit/internal/tool"
)

var (
	configPath = flag.String("config", "", "Path to config file (JSONC)")
	port       = flag.Int("port", 0, "Server port (overrides config)")
	version    = flag.Bool("version", false, "Print version and exit")
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("contextkit-server %s (%s)\n", Version, BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Output: os.Stderr,
		Pretty: cfg.Log.Pretty,
	})

	repo, err := repository.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("storage init failed")
	}

	defaultProvider, err := config.DefaultProviderConfig(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid provider config")
	}

	registry := tool.DefaultRegistry(cfg.ContextRepoPath)
	bus := event.NewBus()
	defer bus.Close()

	mgr := manager.NewManager(repo, registry, provider.NewFactory(), bus, defaultProvider, cfg.Session.MaxAgeHours)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go mgr.RunSweeper(sweepCtx, time.Duration(cfg.Session.CleanupIntervalMinutes)*time.Minute)

	srv := server.New(server.FromAppConfig(cfg), mgr, repo, registry, bus, cfg.Storage.Backend)

	go func() {
		logging.Info().
			Int("port", cfg.Server.Port).
			Str("backend", cfg.Storage.Backend).
			Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("shutdown error")
	}
}
