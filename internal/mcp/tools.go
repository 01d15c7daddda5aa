package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/randalmurphal/astchunk/internal/apperr"
	"github.com/randalmurphal/astchunk/internal/chunk"
	"github.com/randalmurphal/astchunk/internal/lang"
	"github.com/randalmurphal/astchunk/internal/logging"
	"github.com/randalmurphal/astchunk/internal/parser"
)

// Validation helpers

var (
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrPathRequired     = errors.New("path is required")
	ErrPathNotAbsolute  = errors.New("path must be absolute")
)

// handleChunkify handles the chunkify tool invocation
func (s *Server) handleChunkify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError(ErrInvalidArguments.Error()), nil
	}

	source, ok := args["source"].(string)
	if !ok {
		return mcp.NewToolResultError("source parameter is required"), nil
	}

	opts, err := s.chunkOptions(args, getStringDefault(args, "language", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.chunkResult(ctx, []byte(source), opts, args)
}

// handleChunkFile handles the chunk_file tool invocation
func (s *Server) handleChunkFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError(ErrInvalidArguments.Error()), nil
	}

	path := getStringDefault(args, "path", "")
	if err := validatePath(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", path, err)), nil
	}

	language := getStringDefault(args, "language", "")
	if language == "" {
		id, ok := parser.DetectLanguage(path, source)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("could not detect the language of %s; pass language explicitly", path)), nil
		}
		language = string(id)
	}

	opts, err := s.chunkOptions(args, language)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if opts.RepoMetadata == nil {
		opts.RepoMetadata = map[string]string{
			chunk.KeyFilePath: filepath.ToSlash(path),
			chunk.KeyFilename: filepath.Base(path),
		}
	}

	return s.chunkResult(ctx, source, opts, args)
}

// handleLanguages handles the languages tool invocation
func (s *Server) handleLanguages(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var languages []map[string]interface{}
	for _, id := range lang.Supported() {
		entry, err := lang.Lookup(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var unsupported []map[string]interface{}
		for _, c := range entry.Unsupported {
			unsupported = append(unsupported, map[string]interface{}{
				"feature":    c.Feature,
				"markers":    c.Markers,
				"keywords":   c.Keywords,
				"workaround": c.Workaround,
			})
		}

		languages = append(languages, map[string]interface{}{
			"language":    id,
			"class_tags":  entry.ClassTags,
			"func_tags":   entry.FuncTags,
			"unsupported": unsupported,
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"languages": languages,
		"templates": chunk.Templates(),
	})), nil
}

func (s *Server) chunkOptions(args map[string]interface{}, language string) (chunk.Options, error) {
	opts := chunk.Options{
		MaxChunkSize: getIntDefault(args, "max_chunk_size", s.defaults.MaxChunkSize),
		Language:     language,
		Template:     getStringDefault(args, "metadata_template", s.defaults.Template),
		Expand:       getBoolDefault(args, "expand", s.defaults.Expand),
	}

	if raw, ok := args["repo_metadata"]; ok && raw != nil {
		fields, ok := raw.(map[string]interface{})
		if !ok {
			return opts, fmt.Errorf("%w: repo_metadata must be an object", ErrInvalidArguments)
		}
		opts.RepoMetadata = make(map[string]string, len(fields))
		for k, v := range fields {
			str, ok := v.(string)
			if !ok {
				return opts, fmt.Errorf("%w: repo_metadata.%s must be a string", ErrInvalidArguments, k)
			}
			opts.RepoMetadata[k] = str
		}
	}
	return opts, nil
}

func (s *Server) chunkResult(ctx context.Context, source []byte, opts chunk.Options, args map[string]interface{}) (*mcp.CallToolResult, error) {
	codeWindows := getBoolDefault(args, "code_windows", false)
	input := inputHash(source, opts, codeWindows)
	offset, err := decodeCursor(getStringDefault(args, "cursor", ""), input, s.now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	chunks, err := s.builder.Chunkify(ctx, source, opts)
	if err != nil {
		s.logger.Warn("chunkify failed", logging.FieldLanguage, opts.Language, logging.FieldError, err)
		if apperr.CodeOf(err) != "" {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}

	out := make([]map[string]interface{}, len(chunks))
	for i := range chunks {
		if codeWindows {
			out[i] = chunks[i].CodeWindow()
		} else {
			out[i] = chunkView(&chunks[i])
		}
	}

	p := paginate(out, offset, getIntDefault(args, "limit", 0), input, s.now())
	resp := map[string]interface{}{
		"language":    opts.Language,
		"count":       len(p.Items),
		"total_count": p.Total,
		"has_more":    p.HasMore,
		"chunks":      p.Items,
	}
	if p.Cursor != "" {
		resp["cursor"] = p.Cursor
	}
	return mcp.NewToolResultText(formatJSON(resp)), nil
}

func chunkView(c *chunk.Chunk) map[string]interface{} {
	view := map[string]interface{}{
		"content":    c.Content(),
		"chunk_size": c.Size,
		"start_line": c.StartLine,
		"end_line":   c.EndLine,
		"byte_start": c.Range.Start,
		"byte_stop":  c.Range.Stop,
		"node_count": c.NodeCount,
		"ancestors":  c.Ancestors,
	}
	if c.Metadata != nil {
		view["metadata"] = c.Metadata.Fields()
	}
	return view
}

func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
