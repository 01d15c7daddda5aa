package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/astchunk/internal/apperr"
	"github.com/randalmurphal/astchunk/internal/cache"
	"github.com/randalmurphal/astchunk/internal/chunk"
	"github.com/randalmurphal/astchunk/internal/config"
	"github.com/randalmurphal/astchunk/internal/embedding"
	"github.com/randalmurphal/astchunk/internal/logging"
	"github.com/randalmurphal/astchunk/internal/metrics"
	"github.com/randalmurphal/astchunk/internal/parser"
	"github.com/randalmurphal/astchunk/internal/security"
	"github.com/randalmurphal/astchunk/internal/store"
)

const sinkBatchSize = 100

// RecordCache stores chunk records by content key. *cache.RedisCache
// implements it.
type RecordCache interface {
	GetRecords(ctx context.Context, key string) ([]chunk.Record, bool, error)
	SetRecords(ctx context.Context, key string, records []chunk.Record) error
	GetIndexVersion(ctx context.Context, repo string) (int64, error)
}

// Indexer coordinates the indexing pipeline: file discovery, chunking,
// optional embedding, and storage.
type Indexer struct {
	builder   *chunk.Builder
	sink      store.Sink
	cache     RecordCache
	embedder  embedding.Embedder
	batchSize int
	metrics   *metrics.Logger
	redactor  *security.Redactor
	logger    *slog.Logger
	workers   int
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithCache skips re-chunking files whose content and options are unchanged.
func WithCache(c RecordCache) Option {
	return func(idx *Indexer) { idx.cache = c }
}

// WithEmbedder attaches vectors to records before they are written.
func WithEmbedder(e embedding.Embedder, batchSize int) Option {
	return func(idx *Indexer) {
		idx.embedder = e
		idx.batchSize = batchSize
	}
}

// WithMetrics records per-file events.
func WithMetrics(m *metrics.Logger) Option {
	return func(idx *Indexer) { idx.metrics = m }
}

// WithRedactor masks credentials in record content before caching and storage.
func WithRedactor(r *security.Redactor) Option {
	return func(idx *Indexer) { idx.redactor = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// WithWorkers bounds the number of files chunked concurrently.
func WithWorkers(n int) Option {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// NewIndexer creates a new indexer writing to sink.
func NewIndexer(builder *chunk.Builder, sink store.Sink, opts ...Option) *Indexer {
	idx := &Indexer{
		builder: builder,
		sink:    sink,
		logger:  slog.Default(),
		workers: 4,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Settings are the chunking parameters applied to every file of a run.
type Settings struct {
	MaxChunkSize int
	Template     string
	Expand       bool
	InstanceID   string
}

// SettingsFromConfig builds run settings from the global config, letting the
// repository config override the chunk budget.
func SettingsFromConfig(cfg *config.Config, repoCfg *config.RepoConfig) Settings {
	s := Settings{
		MaxChunkSize: cfg.Chunking.MaxChunkSize,
		Template:     cfg.Chunking.Template,
		Expand:       cfg.Chunking.Expand,
	}
	if repoCfg != nil && repoCfg.MaxChunkSize > 0 {
		s.MaxChunkSize = repoCfg.MaxChunkSize
	}
	return s
}

// FileError records a file that could not be chunked.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// IndexResult contains statistics from an indexing run.
type IndexResult struct {
	FilesProcessed int
	FilesSkipped   int
	CacheHits      int
	ChunksCreated  int
	Errors         []FileError
	Duration       time.Duration
}

// fileResult is the outcome for one walked file, kept in walk order.
type fileResult struct {
	relPath  string
	records  []chunk.Record
	skipped  bool
	cacheHit bool
	err      error
}

// Index processes a repository, chunking every matching file and writing
// the records to the sink. Per-file failures are collected in the result;
// only walk, embedding and sink failures abort the run.
func (idx *Indexer) Index(ctx context.Context, repoPath string, repoCfg *config.RepoConfig, settings Settings) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{}

	var paths []string
	walker := NewWalker(repoCfg.Include, repoCfg.Exclude)
	if err := walker.Walk(repoPath, func(path string) error {
		paths = append(paths, path)
		return nil
	}); err != nil {
		return result, fmt.Errorf("walk failed: %w", err)
	}

	resolver := NewMetadataResolver(repoCfg.Name, repoPath, settings.InstanceID)
	version := idx.indexVersion(ctx, repoCfg.Name)

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = idx.processFile(gctx, repoCfg.Name, path, resolver, settings, version)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	var (
		records []chunk.Record
		emptied []string
	)
	for _, fr := range results {
		switch {
		case fr.skipped:
			result.FilesSkipped++
		case fr.err != nil:
			result.Errors = append(result.Errors, FileError{Path: fr.relPath, Err: fr.err})
		default:
			result.FilesProcessed++
			if fr.cacheHit {
				result.CacheHits++
			}
			if len(fr.records) == 0 {
				emptied = append(emptied, fr.relPath)
			}
			records = append(records, fr.records...)
		}
	}

	if err := idx.store(ctx, records); err != nil {
		return result, err
	}
	if err := idx.removeEmptied(ctx, repoCfg.Name, emptied); err != nil {
		return result, err
	}

	result.ChunksCreated = len(records)
	result.Duration = time.Since(start)

	idx.logger.Info("index complete",
		logging.FieldRepo, repoCfg.Name,
		logging.FieldFiles, result.FilesProcessed,
		"skipped", result.FilesSkipped,
		"failed", len(result.Errors),
		logging.FieldChunks, result.ChunksCreated,
		logging.FieldDurationMS, result.Duration.Milliseconds(),
	)
	if idx.metrics != nil {
		idx.metrics.LogIndexUpdate(repoCfg.Name, result.FilesProcessed, result.ChunksCreated, len(result.Errors), result.Duration)
	}

	return result, nil
}

// IndexFiles chunks only the given paths, as the watcher does for changed files.
func (idx *Indexer) IndexFiles(ctx context.Context, repoPath string, repoCfg *config.RepoConfig, settings Settings, paths []string) (*IndexResult, error) {
	walker := NewWalker(repoCfg.Include, repoCfg.Exclude)
	resolver := NewMetadataResolver(repoCfg.Name, repoPath, settings.InstanceID)
	version := idx.indexVersion(ctx, repoCfg.Name)
	result := &IndexResult{}
	start := time.Now()

	var (
		records []chunk.Record
		emptied []string
	)
	for _, path := range paths {
		if !walker.Matches(resolver.RelPath(path)) {
			result.FilesSkipped++
			continue
		}
		fr := idx.processFile(ctx, repoCfg.Name, path, resolver, settings, version)
		switch {
		case fr.skipped:
			result.FilesSkipped++
		case fr.err != nil:
			result.Errors = append(result.Errors, FileError{Path: fr.relPath, Err: fr.err})
		default:
			result.FilesProcessed++
			if fr.cacheHit {
				result.CacheHits++
			}
			if len(fr.records) == 0 {
				emptied = append(emptied, fr.relPath)
			}
			records = append(records, fr.records...)
		}
	}

	if err := idx.store(ctx, records); err != nil {
		return result, err
	}
	if err := idx.removeEmptied(ctx, repoCfg.Name, emptied); err != nil {
		return result, err
	}
	result.ChunksCreated = len(records)
	result.Duration = time.Since(start)
	return result, nil
}

func (idx *Indexer) indexVersion(ctx context.Context, repo string) int64 {
	if idx.cache == nil {
		return 0
	}
	version, err := idx.cache.GetIndexVersion(ctx, repo)
	if err != nil {
		idx.logger.Warn("index version lookup failed", logging.FieldRepo, repo, logging.FieldError, err)
		return 0
	}
	return version
}

func (idx *Indexer) processFile(ctx context.Context, repo, path string, resolver *MetadataResolver, settings Settings, version int64) fileResult {
	relPath := resolver.RelPath(path)
	fr := fileResult{relPath: relPath}

	source, err := os.ReadFile(path)
	if err != nil {
		fr.err = fmt.Errorf("read: %w", err)
		idx.recordFailure(relPath, fr.err)
		return fr
	}

	language, ok := parser.DetectLanguage(relPath, source)
	if !ok {
		idx.logger.Debug("skipping file with unknown language", logging.FieldFile, relPath)
		fr.skipped = true
		return fr
	}

	opts := chunk.Options{
		MaxChunkSize: settings.MaxChunkSize,
		Language:     string(language),
		Template:     settings.Template,
		Expand:       settings.Expand,
		RepoMetadata: resolver.Resolve(relPath),
	}

	started := time.Now()
	key := cache.ChunkCacheKey(repo, relPath, source, opts, idx.redactor != nil, version)
	if idx.cache != nil {
		cached, hit, err := idx.cache.GetRecords(ctx, key)
		if err != nil {
			idx.logger.Warn("cache read failed", logging.FieldFile, relPath, logging.FieldError, err)
		}
		if hit {
			idx.redact(relPath, cached)
			fr.records, fr.cacheHit = cached, true
			idx.recordRun(repo, relPath, opts.Language, cached, time.Since(started), true)
			return fr
		}
	}

	chunks, err := idx.builder.Chunkify(ctx, source, opts)
	if err != nil {
		fr.err = err
		idx.recordFailure(relPath, err)
		return fr
	}

	fr.records = make([]chunk.Record, len(chunks))
	for i, c := range chunks {
		fr.records[i] = chunk.NewRecord(repo, relPath, opts.Language, c)
	}
	idx.redact(relPath, fr.records)

	if idx.cache != nil {
		if err := idx.cache.SetRecords(ctx, key, fr.records); err != nil {
			idx.logger.Warn("cache write failed", logging.FieldFile, relPath, logging.FieldError, err)
		}
	}

	idx.recordRun(repo, relPath, opts.Language, fr.records, time.Since(started), false)
	return fr
}

func (idx *Indexer) redact(relPath string, records []chunk.Record) {
	if idx.redactor == nil {
		return
	}
	for i := range records {
		for _, f := range idx.redactor.RedactRecord(&records[i]) {
			idx.logger.Warn("redacted credential", logging.FieldFile, relPath, "kind", f.Kind, "line", f.Line)
		}
	}
}

func (idx *Indexer) recordRun(repo, relPath, language string, records []chunk.Record, latency time.Duration, cacheHit bool) {
	idx.logger.Debug("chunked file",
		logging.FieldFile, relPath,
		logging.FieldLanguage, language,
		logging.FieldChunks, len(records),
		"cache_hit", cacheHit,
	)
	if idx.metrics == nil {
		return
	}
	total := 0
	for i := range records {
		total += records[i].Size
	}
	idx.metrics.LogChunkRun(metrics.ChunkRun{
		Repo:      repo,
		File:      relPath,
		Language:  language,
		Chunks:    len(records),
		TotalSize: total,
		Latency:   latency,
		CacheHit:  cacheHit,
	})
}

func (idx *Indexer) recordFailure(relPath string, err error) {
	idx.logger.Warn("file not chunked", logging.FieldFile, relPath, logging.FieldError, err)
	if idx.metrics != nil {
		idx.metrics.LogFileError(relPath, apperr.CodeOf(err), err.Error())
	}
}

// store embeds records when an embedder is configured, then writes them in batches.
func (idx *Indexer) store(ctx context.Context, records []chunk.Record) error {
	if len(records) == 0 {
		return nil
	}

	if idx.embedder != nil {
		idx.logger.Info("generating embeddings", "chunks", len(records), "model", idx.embedder.Model())
		if err := embedding.EmbedRecords(ctx, idx.embedder, records, idx.batchSize); err != nil {
			return fmt.Errorf("embedding failed: %w", err)
		}
	}

	// A file's records never straddle two batches; sinks replace per file.
	for i := 0; i < len(records); {
		end := min(i+sinkBatchSize, len(records))
		for end < len(records) && records[end].FilePath == records[end-1].FilePath {
			end++
		}
		if err := idx.sink.Write(ctx, records[i:end]); err != nil {
			return fmt.Errorf("sink write failed: %w", err)
		}
		i = end
	}
	return nil
}

// removeEmptied drops stored chunks of files that now produce none.
func (idx *Indexer) removeEmptied(ctx context.Context, repo string, relPaths []string) error {
	remover, ok := idx.sink.(store.FileRemover)
	if !ok || len(relPaths) == 0 {
		return nil
	}
	if err := remover.RemoveFiles(ctx, repo, relPaths); err != nil {
		return fmt.Errorf("sink remove failed: %w", err)
	}
	idx.logger.Debug("removed chunks of empty files", logging.FieldRepo, repo, logging.FieldFiles, len(relPaths))
	return nil
}
