// cmd/astchunk/pipeline.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/randalmurphal/astchunk/internal/cache"
	"github.com/randalmurphal/astchunk/internal/chunk"
	"github.com/randalmurphal/astchunk/internal/config"
	"github.com/randalmurphal/astchunk/internal/embedding"
	"github.com/randalmurphal/astchunk/internal/indexer"
	"github.com/randalmurphal/astchunk/internal/logging"
	"github.com/randalmurphal/astchunk/internal/metrics"
	"github.com/randalmurphal/astchunk/internal/security"
	"github.com/randalmurphal/astchunk/internal/store"
)

// pipeline owns everything an index run opens.
type pipeline struct {
	indexer *indexer.Indexer
	closers []func() error
}

func (p *pipeline) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	return errors.Join(errs...)
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	p := &pipeline{}
	opts := []indexer.Option{
		indexer.WithLogger(logger),
		indexer.WithWorkers(cfg.Indexing.Workers),
	}
	if cfg.Indexing.RedactSecrets {
		opts = append(opts, indexer.WithRedactor(security.NewRedactor()))
	}

	var embedder embedding.Embedder
	if cfg.Embedding.Enabled {
		apiKey := os.Getenv("VOYAGE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("VOYAGE_API_KEY environment variable not set")
		}
		embedder = embedding.NewVoyageClient(apiKey, cfg.Embedding.Model,
			embedding.WithRequestsPerMinute(cfg.Embedding.RequestsPerMinute))
		opts = append(opts, indexer.WithEmbedder(embedder, cfg.Embedding.BatchSize))
	}

	sink, err := openSinks(ctx, cfg, embedder)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, sink.Close)

	if cfg.Storage.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.Storage.RedisURL, cfg.Storage.CacheTTL)
		if err != nil {
			logger.Warn("redis unavailable, chunking without cache", logging.FieldError, err)
		} else {
			p.closers = append(p.closers, rc.Close)
			opts = append(opts, indexer.WithCache(rc))
		}
	}

	if cfg.Logging.MetricsPath != "" {
		ml, err := openMetrics(cfg.Logging.MetricsPath)
		if err != nil {
			logger.Warn("metrics log disabled", logging.FieldPath, cfg.Logging.MetricsPath, logging.FieldError, err)
		} else {
			p.closers = append(p.closers, ml.Close)
			opts = append(opts, indexer.WithMetrics(ml))
		}
	}

	p.indexer = indexer.NewIndexer(chunk.NewBuilder(nil, logger), sink, opts...)
	return p, nil
}

// openSinks opens every configured sink. Already opened sinks are closed
// when a later one fails.
func openSinks(ctx context.Context, cfg *config.Config, embedder embedding.Embedder) (*store.MultiSink, error) {
	var sinks []store.Sink
	fail := func(err error) (*store.MultiSink, error) {
		_ = store.NewMultiSink(sinks...).Close()
		return nil, err
	}

	for _, name := range cfg.Storage.Sinks {
		switch name {
		case config.SinkJSONL:
			s, err := store.OpenJSONLFile(cfg.Storage.JSONLPath)
			if err != nil {
				return fail(fmt.Errorf("open jsonl sink: %w", err))
			}
			sinks = append(sinks, s)
		case config.SinkSQLite:
			if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
				return fail(fmt.Errorf("create sqlite directory: %w", err))
			}
			s, err := store.OpenSQLite(cfg.Storage.SQLitePath)
			if err != nil {
				return fail(fmt.Errorf("open sqlite sink: %w", err))
			}
			sinks = append(sinks, s)
		case config.SinkQdrant:
			if embedder == nil {
				return fail(fmt.Errorf("qdrant sink requires embedding.enabled"))
			}
			s, err := store.NewQdrantSink(cfg.Storage.QdrantHost, cfg.Storage.QdrantPort, cfg.Storage.Collection, embedder.Dimension())
			if err != nil {
				return fail(fmt.Errorf("connect to qdrant at %s:%d: %w", cfg.Storage.QdrantHost, cfg.Storage.QdrantPort, err))
			}
			sinks = append(sinks, s)
			if err := s.EnsureCollection(ctx); err != nil {
				return fail(fmt.Errorf("ensure qdrant collection: %w", err))
			}
		case config.SinkKafka:
			s, err := store.DialKafka(cfg.KafkaBrokers(), cfg.Storage.KafkaTopic)
			if err != nil {
				return fail(fmt.Errorf("connect to kafka: %w", err))
			}
			sinks = append(sinks, s)
		}
	}

	return store.NewMultiSink(sinks...), nil
}

func openMetrics(path string) (*metrics.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return metrics.NewLogger(path)
}

// resolveRepoPath accepts a path or the name of a checkout under ~/repos.
func resolveRepoPath(arg string) (string, error) {
	repoPath := arg
	if !filepath.IsAbs(repoPath) {
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("repository not found: %s (unable to check ~/repos)", repoPath)
			}
			repoPath = filepath.Join(homeDir, "repos", arg)
		}
	}

	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("repository not found: %s", absPath)
	}
	return absPath, nil
}

// loadRepoConfigOrDefault falls back to the default includes when the
// repository has not been initialised.
func loadRepoConfigOrDefault(repoPath string) *config.RepoConfig {
	repoCfg, err := config.LoadRepoConfig(repoPath)
	if err != nil {
		logger.Debug("no repo config, using defaults", logging.FieldPath, repoPath)
		return &config.RepoConfig{Name: filepath.Base(repoPath)}
	}
	return repoCfg
}
