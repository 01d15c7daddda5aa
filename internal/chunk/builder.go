package chunk

import (
	"context"
	"log/slog"
	"strings"

	"github.com/randalmurphal/astchunk/internal/apperr"
	"github.com/randalmurphal/astchunk/internal/lang"
	"github.com/randalmurphal/astchunk/internal/logging"
	"github.com/randalmurphal/astchunk/internal/parser"
)

// Options configure one Chunkify call.
type Options struct {
	MaxChunkSize int
	Language     string
	Template     string
	Expand       bool
	RepoMetadata map[string]string
}

func (o Options) validate() error {
	if o.MaxChunkSize <= 0 {
		return apperr.Newf(apperr.CodeInvalidConfiguration,
			"max chunk size must be positive, got %d", o.MaxChunkSize)
	}
	if strings.TrimSpace(o.Language) == "" {
		return apperr.New(apperr.CodeInvalidConfiguration, "language is required")
	}
	return nil
}

// Builder turns source text into chunks.
type Builder struct {
	parsers *parser.Pool
	logger  *slog.Logger
}

// NewBuilder creates a Builder. A nil pool uses the process-wide parser pool.
func NewBuilder(pool *parser.Pool, logger *slog.Logger) *Builder {
	if pool == nil {
		pool = parser.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{parsers: pool, logger: logger}
}

// Chunkify splits src into chunks. It returns either every chunk or an error,
// never both.
func (b *Builder) Chunkify(ctx context.Context, src []byte, opts Options) ([]Chunk, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	entry, err := lang.Lookup(opts.Language)
	if err != nil {
		return nil, err
	}

	tmpl, err := ParseTemplate(opts.Template)
	if err != nil {
		return nil, err
	}

	if err := parser.Guard(entry, src); err != nil {
		return nil, err
	}

	tree, err := b.parsers.ParseEntry(ctx, entry, src)
	if err != nil {
		return nil, err
	}

	windows := Select(tree, opts.MaxChunkSize, Policy{
		Container: entry.Root,
		Atomic:    entry.IsFunction,
	})

	chunks := make([]Chunk, 0, len(windows))
	for _, w := range windows {
		c, err := Assemble(w, entry.AncestorTags())
		if err != nil {
			return nil, err
		}

		c.Metadata, err = buildMetadata(tmpl, c, opts.RepoMetadata)
		if err != nil {
			return nil, err
		}

		if opts.Expand {
			c.Expand()
		}
		chunks = append(chunks, *c)
	}

	b.logger.Debug("chunkified source",
		logging.FieldLanguage, entry.ID,
		"bytes", len(src),
		logging.FieldChunks, len(chunks),
		"max_chunk_size", opts.MaxChunkSize,
	)

	return chunks, nil
}

// CodeWindows runs Chunkify and returns each chunk in code-window form.
func (b *Builder) CodeWindows(ctx context.Context, src []byte, opts Options) ([]map[string]any, error) {
	chunks, err := b.Chunkify(ctx, src, opts)
	if err != nil {
		return nil, err
	}

	windows := make([]map[string]any, len(chunks))
	for i := range chunks {
		windows[i] = chunks[i].CodeWindow()
	}
	return windows, nil
}
