package chunk

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/astchunk/internal/apperr"
)

// Template selects the metadata attached to each chunk.
type Template string

const (
	TemplateNone         Template = "none"
	TemplateDefault      Template = "default"
	TemplateRepoEval     Template = "coderagbench-repoeval"
	TemplateSWEBenchLite Template = "coderagbench-swebench-lite"
)

var templates = []Template{TemplateNone, TemplateDefault, TemplateRepoEval, TemplateSWEBenchLite}

// Templates returns the known template names.
func Templates() []string {
	names := make([]string, len(templates))
	for i, t := range templates {
		names[i] = string(t)
	}
	return names
}

// ParseTemplate resolves a template name. An empty name selects the default.
func ParseTemplate(name string) (Template, error) {
	if name == "" {
		return TemplateDefault, nil
	}
	for _, t := range templates {
		if string(t) == name {
			return t, nil
		}
	}
	return "", apperr.Newf(apperr.CodeUnsupportedMetadataTemplate,
		"unsupported metadata template %q, expected one of: %s", name, strings.Join(Templates(), ", ")).
		WithDetail("template", name)
}

// Repository-level metadata keys read by the templates.
const (
	KeyFilePath   = "filepath"
	KeyFpathTuple = "fpath_tuple"
	KeyRepo       = "repo"
	KeyInstanceID = "instance_id"
	KeyFilename   = "filename"
)

// Metadata is the per-chunk record produced by a Template.
type Metadata interface {
	// Fields returns the record as a JSON-ready map.
	Fields() map[string]any
	// expansionPath is the path shown in the expansion header.
	expansionPath() string
	codeWindow(content string) map[string]any
}

// NoMetadata is produced by the "none" template.
type NoMetadata struct{}

func (NoMetadata) Fields() map[string]any { return map[string]any{} }
func (NoMetadata) expansionPath() string  { return "" }
func (m NoMetadata) codeWindow(content string) map[string]any {
	return map[string]any{"content": content, "metadata": m.Fields()}
}

// DefaultMetadata is produced by the "default" template.
type DefaultMetadata struct {
	FilePath  string `json:"filepath"`
	ChunkSize int    `json:"chunk_size"`
	LineCount int    `json:"line_count"`
	StartLine int    `json:"start_line_no"`
	EndLine   int    `json:"end_line_no"`
	NodeCount int    `json:"node_count"`
}

func (m DefaultMetadata) Fields() map[string]any {
	return map[string]any{
		"filepath":      m.FilePath,
		"chunk_size":    m.ChunkSize,
		"line_count":    m.LineCount,
		"start_line_no": m.StartLine,
		"end_line_no":   m.EndLine,
		"node_count":    m.NodeCount,
	}
}

func (m DefaultMetadata) expansionPath() string { return m.FilePath }

func (m DefaultMetadata) codeWindow(content string) map[string]any {
	return map[string]any{"content": content, "metadata": m.Fields()}
}

// RepoEvalMetadata is produced by the "coderagbench-repoeval" template.
type RepoEvalMetadata struct {
	FpathTuple []string `json:"fpath_tuple"`
	Repo       string   `json:"repo"`
	ChunkSize  int      `json:"chunk_size"`
	LineCount  int      `json:"line_count"`
	StartLine  int      `json:"start_line_no"`
	EndLine    int      `json:"end_line_no"`
	NodeCount  int      `json:"node_count"`
}

func (m RepoEvalMetadata) Fields() map[string]any {
	return map[string]any{
		"fpath_tuple":   m.FpathTuple,
		"repo":          m.Repo,
		"chunk_size":    m.ChunkSize,
		"line_count":    m.LineCount,
		"start_line_no": m.StartLine,
		"end_line_no":   m.EndLine,
		"node_count":    m.NodeCount,
	}
}

func (m RepoEvalMetadata) expansionPath() string { return strings.Join(m.FpathTuple, "/") }

func (m RepoEvalMetadata) codeWindow(content string) map[string]any {
	return map[string]any{"content": content, "metadata": m.Fields()}
}

// SWEBenchMetadata is produced by the "coderagbench-swebench-lite" template.
type SWEBenchMetadata struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
}

func (m SWEBenchMetadata) Fields() map[string]any {
	return map[string]any{"_id": m.ID, "title": m.Title}
}

func (m SWEBenchMetadata) expansionPath() string { return m.Title }

func (m SWEBenchMetadata) codeWindow(content string) map[string]any {
	return map[string]any{"_id": m.ID, "title": m.Title, "text": content}
}

// buildMetadata renders the template for c from repository-level metadata.
func buildMetadata(t Template, c *Chunk, repo map[string]string) (Metadata, error) {
	switch t {
	case TemplateNone:
		return NoMetadata{}, nil
	case TemplateDefault:
		return DefaultMetadata{
			FilePath:  repo[KeyFilePath],
			ChunkSize: c.Size,
			LineCount: c.LineCount(),
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			NodeCount: c.NodeCount,
		}, nil
	case TemplateRepoEval:
		return RepoEvalMetadata{
			FpathTuple: splitPath(repo[KeyFpathTuple]),
			Repo:       repo[KeyRepo],
			ChunkSize:  c.Size,
			LineCount:  c.LineCount(),
			StartLine:  c.StartLine,
			EndLine:    c.EndLine,
			NodeCount:  c.NodeCount,
		}, nil
	case TemplateSWEBenchLite:
		return SWEBenchMetadata{
			ID:    fmt.Sprintf("%s_%d-%d", repo[KeyInstanceID], c.StartLine, c.EndLine),
			Title: repo[KeyFilename],
		}, nil
	}
	return nil, apperr.Newf(apperr.CodeUnsupportedMetadataTemplate, "unsupported metadata template %q", t)
}

// splitPath turns "a/b/c.py" into its components. An empty path has none.
func splitPath(p string) []string {
	if p == "" {
		return []string{}
	}
	return strings.Split(p, "/")
}
