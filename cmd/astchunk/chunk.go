// cmd/astchunk/chunk.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/astchunk/internal/chunk"
	"github.com/randalmurphal/astchunk/internal/parser"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file|-]",
	Short: "Chunk a single source file and print the result",
	Long: `Chunk one file (or stdin with "-") and print the chunks.

Formats:
  text   human-readable, one block per chunk
  json   a single JSON array of records
  jsonl  one record per line`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

var (
	chunkLanguage    string
	chunkMaxSize     int
	chunkTemplate    string
	chunkExpand      bool
	chunkFormat      string
	chunkCodeWindows bool
	chunkRepoMeta    map[string]string
)

func init() {
	chunkCmd.Flags().StringVarP(&chunkLanguage, "language", "l", "", "Source language (detected from the file when omitted)")
	chunkCmd.Flags().IntVarP(&chunkMaxSize, "max-chunk-size", "m", 0, "Budget per chunk in non-whitespace characters (config default when 0)")
	chunkCmd.Flags().StringVarP(&chunkTemplate, "template", "t", "", "Metadata template: none, default, coderagbench-repoeval, coderagbench-swebench-lite")
	chunkCmd.Flags().BoolVar(&chunkExpand, "expand", false, "Prefix chunks with file path and enclosing scopes")
	chunkCmd.Flags().StringVarP(&chunkFormat, "format", "f", "text", "Output format: text, json, jsonl")
	chunkCmd.Flags().BoolVar(&chunkCodeWindows, "code-windows", false, "Emit benchmark code windows instead of records")
	chunkCmd.Flags().StringToStringVar(&chunkRepoMeta, "repo-meta", nil, "Repository metadata fields, e.g. --repo-meta repo=django,instance_id=django-1")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := args[0]
	var source []byte
	if name == "-" {
		source, err = io.ReadAll(cmd.InOrStdin())
	} else {
		source, err = os.ReadFile(name)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	language := chunkLanguage
	if language == "" {
		id, ok := parser.DetectLanguage(name, source)
		if !ok {
			return fmt.Errorf("cannot detect the language of %s, pass --language", name)
		}
		language = string(id)
	}

	opts := chunk.Options{
		MaxChunkSize: cfg.Chunking.MaxChunkSize,
		Language:     language,
		Template:     cfg.Chunking.Template,
		Expand:       cfg.Chunking.Expand || chunkExpand,
		RepoMetadata: repoMetadataFor(name, chunkRepoMeta),
	}
	if chunkMaxSize != 0 {
		opts.MaxChunkSize = chunkMaxSize
	}
	if chunkTemplate != "" {
		opts.Template = chunkTemplate
	}

	builder := chunk.NewBuilder(nil, logger)
	out := cmd.OutOrStdout()
	if chunkCodeWindows {
		windows, err := builder.CodeWindows(cmd.Context(), source, opts)
		if err != nil {
			return err
		}
		format := chunkFormat
		if format == "text" {
			format = "json"
		}
		return writeJSON(out, format, windows)
	}

	chunks, err := builder.Chunkify(cmd.Context(), source, opts)
	if err != nil {
		return err
	}

	records := make([]chunk.Record, len(chunks))
	for i, c := range chunks {
		records[i] = chunk.NewRecord(opts.RepoMetadata[chunk.KeyRepo], filepath.ToSlash(name), language, c)
	}

	if chunkFormat == "text" {
		for i, r := range records {
			fmt.Fprintf(out, "--- chunk %d  lines %d-%d  size %d  nodes %d\n", i+1, r.StartLine, r.EndLine, r.Size, r.NodeCount)
			if len(r.Ancestors) > 0 {
				fmt.Fprintf(out, "    scope: %v\n", r.Ancestors)
			}
			fmt.Fprintln(out, r.Content)
		}
		return nil
	}
	return writeJSON(out, chunkFormat, records)
}

// repoMetadataFor fills the path-derived fields the user did not pass.
func repoMetadataFor(name string, given map[string]string) map[string]string {
	meta := make(map[string]string, len(given)+3)
	if name != "-" {
		slashed := filepath.ToSlash(name)
		meta[chunk.KeyFilePath] = slashed
		meta[chunk.KeyFpathTuple] = slashed
		meta[chunk.KeyFilename] = filepath.Base(name)
	}
	for k, v := range given {
		meta[k] = v
	}
	return meta
}

func writeJSON[T any](w io.Writer, format string, items []T) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case "jsonl":
		enc := json.NewEncoder(w)
		for i := range items {
			if err := enc.Encode(items[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or jsonl)", format)
	}
}
