package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/context-kit/contextkit/internal/repository"
)

var cleanupMaxAgeHours int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored sessions",
}

var sessionsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete sessions idle beyond the maximum age",
	RunE:  runSessionsCleanup,
}

var sessionsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored sessions",
	RunE:  runSessionsCount,
}

func init() {
	sessionsCleanupCmd.Flags().IntVar(&cleanupMaxAgeHours, "max-age-hours", 0, "Override the configured maximum idle age")

	sessionsCmd.AddCommand(sessionsCleanupCmd)
	sessionsCmd.AddCommand(sessionsCountCmd)
}

func runSessionsCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	maxAge := cfg.Session.MaxAgeHours
	if cleanupMaxAgeHours > 0 {
		maxAge = cleanupMaxAgeHours
	}

	repo, err := repository.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := repository.CleanupExpired(ctx, repo, maxAge)
	if err != nil {
		return err
	}

	fmt.Printf("removed %d expired session(s)\n", removed)
	return nil
}

func runSessionsCount(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := repository.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := repo.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%d session(s)\n", count)
	return nil
}
