// Package watch re-chunks repositories when their git HEAD moves.
package watch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/randalmurphal/astchunk/internal/config"
	"github.com/randalmurphal/astchunk/internal/indexer"
	"github.com/randalmurphal/astchunk/internal/logging"
)

// Reindexer runs a full index of one repository. *indexer.Indexer implements it.
type Reindexer interface {
	Index(ctx context.Context, repoPath string, repoCfg *config.RepoConfig, settings indexer.Settings) (*indexer.IndexResult, error)
}

// Daemon watches repositories and re-chunks on changes.
type Daemon struct {
	repos    []RepoWatch
	interval time.Duration
	indexer  Reindexer
	logger   *slog.Logger
	headHash map[string]string // repo name -> last known HEAD hash
}

// RepoWatch defines a repository to watch.
type RepoWatch struct {
	Name     string
	Path     string
	Config   *config.RepoConfig
	Settings indexer.Settings
}

// NewDaemon creates a new watch daemon.
func NewDaemon(repos []RepoWatch, interval time.Duration, idx Reindexer, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		repos:    repos,
		interval: interval,
		indexer:  idx,
		logger:   logger,
		headHash: make(map[string]string),
	}
}

// Run syncs immediately and then on every tick until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("starting watch daemon", "interval", d.interval, "repos", len(d.repos))

	if err := ctx.Err(); err != nil {
		return err
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.SyncAll(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon shutting down")
			return ctx.Err()
		case <-ticker.C:
			d.SyncAll(ctx)
		}
	}
}

// SyncAll checks every repository once. Failures are logged, not returned.
func (d *Daemon) SyncAll(ctx context.Context) {
	for _, repo := range d.repos {
		if err := d.syncRepo(ctx, repo); err != nil {
			d.logger.Error("sync failed", logging.FieldRepo, repo.Name, logging.FieldError, err)
		}
	}
}

func (d *Daemon) syncRepo(ctx context.Context, repo RepoWatch) error {
	currentHead, err := getGitHead(repo.Path)
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}

	cachedHead := d.headHash[repo.Name]
	if currentHead == cachedHead {
		d.logger.Debug("repo unchanged", logging.FieldRepo, repo.Name)
		return nil
	}

	d.logger.Info("repo changed, re-chunking",
		logging.FieldRepo, repo.Name,
		"old_head", truncateHash(cachedHead),
		"new_head", truncateHash(currentHead),
	)

	result, err := d.indexer.Index(ctx, repo.Path, repo.Config, repo.Settings)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	d.logger.Info("sync complete",
		logging.FieldRepo, repo.Name,
		logging.FieldFiles, result.FilesProcessed,
		logging.FieldChunks, result.ChunksCreated,
		"failed", len(result.Errors),
	)

	d.headHash[repo.Name] = currentHead
	return nil
}

// getGitHead returns the current HEAD commit hash.
func getGitHead(repoPath string) (string, error) {
	output, err := exec.Command("git", "-C", repoPath, "rev-parse", "HEAD").Output()
	if err == nil {
		return strings.TrimSpace(string(output)), nil
	}
	return readHeadFile(repoPath)
}

// readHeadFile resolves HEAD from .git without invoking git.
func readHeadFile(repoPath string) (string, error) {
	headData, err := os.ReadFile(filepath.Join(repoPath, ".git", "HEAD"))
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(string(headData))

	ref, ok := strings.CutPrefix(content, "ref: ")
	if !ok {
		// Detached HEAD, content is the hash
		return content, nil
	}

	refData, err := os.ReadFile(filepath.Join(repoPath, ".git", filepath.FromSlash(ref)))
	if err != nil {
		// Might be a packed ref, hash the ref name as fallback
		h := sha256.Sum256([]byte(content))
		return fmt.Sprintf("%x", h[:8]), nil
	}
	return strings.TrimSpace(string(refData)), nil
}

func truncateHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
