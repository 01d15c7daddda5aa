// cmd/astchunk/invalidate.go
package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/astchunk/internal/cache"
	"github.com/randalmurphal/astchunk/internal/config"
	"github.com/randalmurphal/astchunk/internal/embedding"
	"github.com/randalmurphal/astchunk/internal/store"
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate [repo-name-or-path]",
	Short: "Drop cached chunks of a repository",
	Long: `Increments the repository's index version and removes its cached chunk
records, so the next index run re-chunks every file.

With --purge the repository's stored chunks are also deleted from the SQLite
and Qdrant sinks.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvalidate,
}

var invalidatePurge bool

func init() {
	invalidateCmd.Flags().BoolVar(&invalidatePurge, "purge", false, "Also delete stored chunks from SQLite and Qdrant")
	rootCmd.AddCommand(invalidateCmd)
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo := args[0]
	if absPath, err := resolveRepoPath(repo); err == nil {
		repo = loadRepoConfigOrDefault(absPath).Name
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	if cfg.Storage.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.Storage.RedisURL, cfg.Storage.CacheTTL)
		if err != nil {
			fmt.Fprintf(out, "Redis unavailable, nothing cached to drop (%v)\n", err)
		} else {
			defer rc.Close()
			version, err := rc.IncrIndexVersion(ctx, repo)
			if err != nil {
				return fmt.Errorf("bump index version: %w", err)
			}
			if err := rc.InvalidateRepo(ctx, repo); err != nil {
				return fmt.Errorf("drop cached chunks: %w", err)
			}
			fmt.Fprintf(out, "Invalidated cache for %s (version: %d)\n", repo, version)
		}
	}

	if !invalidatePurge {
		return nil
	}

	if slices.Contains(cfg.Storage.Sinks, config.SinkSQLite) {
		db, err := store.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("open %s: %w", cfg.Storage.SQLitePath, err)
		}
		defer db.Close()
		n, err := db.DeleteRepo(ctx, repo)
		if err != nil {
			return fmt.Errorf("delete sqlite rows: %w", err)
		}
		fmt.Fprintf(out, "Deleted %d chunks from %s\n", n, cfg.Storage.SQLitePath)
	}

	if slices.Contains(cfg.Storage.Sinks, config.SinkQdrant) {
		dim := embedding.NewVoyageClient("", cfg.Embedding.Model).Dimension()
		qs, err := store.NewQdrantSink(cfg.Storage.QdrantHost, cfg.Storage.QdrantPort, cfg.Storage.Collection, dim)
		if err != nil {
			return fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		defer qs.Close()
		if err := qs.DeleteRepo(ctx, repo); err != nil {
			return fmt.Errorf("delete qdrant points: %w", err)
		}
		fmt.Fprintf(out, "Deleted %s points from collection %s\n", repo, cfg.Storage.Collection)
	}

	return nil
}
