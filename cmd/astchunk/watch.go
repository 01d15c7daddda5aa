// cmd/astchunk/watch.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/astchunk/internal/indexer"
	"github.com/randalmurphal/astchunk/internal/logging"
	"github.com/randalmurphal/astchunk/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch repositories and re-chunk on changes",
	Long:  `Run a daemon that polls each repository's git HEAD and re-indexes it when HEAD moves.`,
	RunE:  runWatch,
}

var (
	watchRepos    string
	watchInterval string
)

func init() {
	watchCmd.Flags().StringVar(&watchRepos, "repos", "", "Comma-separated repo names or paths to watch")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "60s", "Check interval (e.g., 30s, 5m)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchRepos == "" {
		return fmt.Errorf("--repos is required")
	}

	interval, err := time.ParseDuration(watchInterval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var repos []watch.RepoWatch
	for _, name := range strings.Split(watchRepos, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		repoPath, err := resolveRepoPath(name)
		if err != nil {
			logger.Warn("skipping repo", logging.FieldRepo, name, logging.FieldError, err)
			continue
		}
		repoCfg := loadRepoConfigOrDefault(repoPath)
		repos = append(repos, watch.RepoWatch{
			Name:     repoCfg.Name,
			Path:     repoPath,
			Config:   repoCfg,
			Settings: indexer.SettingsFromConfig(cfg, repoCfg),
		})
	}

	if len(repos) == 0 {
		return fmt.Errorf("no valid repos found")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	daemon := watch.NewDaemon(repos, interval, p.indexer, logger)
	if err := daemon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
