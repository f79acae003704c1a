package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/context-kit/contextkit/internal/config"
	"github.com/context-kit/contextkit/internal/event"
	"github.com/context-kit/contextkit/internal/logging"
	"github.com/context-kit/contextkit/internal/manager"
	"github.com/context-kit/contextkit/internal/provider"
	"github.com/context-kit/contextkit/internal/repository"
	"github.com/context-kit/contextkit/internal/server"
	"github.com/context-kit/contextkit/internal/tool"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the contextkit HTTP server",
	Long: `Start the orchestration server that exposes the session and
message API over HTTP.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	repo, err := repository.New(cfg)
	if err != nil {
		return err
	}

	defaultProvider, err := config.DefaultProviderConfig(cfg)
	if err != nil {
		return err
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
	return nil
}
