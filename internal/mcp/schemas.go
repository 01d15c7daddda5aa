package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/randalmurphal/astchunk/internal/chunk"
	"github.com/randalmurphal/astchunk/internal/lang"
)

// chunkOptionProperties are shared by chunkify and chunk_file.
func chunkOptionProperties() map[string]interface{} {
	return map[string]interface{}{
		"max_chunk_size": map[string]interface{}{
			"type":        "integer",
			"description": "Budget per chunk in non-whitespace characters",
			"minimum":     1,
		},
		"metadata_template": map[string]interface{}{
			"type":        "string",
			"description": "Metadata layout attached to each chunk",
			"enum":        chunk.Templates(),
		},
		"expand": map[string]interface{}{
			"type":        "boolean",
			"description": "Prefix each chunk with its file path and enclosing scopes",
			"default":     false,
		},
		"repo_metadata": map[string]interface{}{
			"type":        "object",
			"description": "Repository fields used by the templates (filepath, fpath_tuple, repo, instance_id, filename)",
			"additionalProperties": map[string]interface{}{
				"type": "string",
			},
		},
		"code_windows": map[string]interface{}{
			"type":        "boolean",
			"description": "Return chunks in the retrieval benchmark code-window shape",
			"default":     false,
		},
		"limit": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum chunks per response; all chunks when omitted",
			"minimum":     1,
		},
		"cursor": map[string]interface{}{
			"type":        "string",
			"description": "Cursor from a previous response to fetch the next page",
		},
	}
}

// chunkifyTool returns the tool definition for chunkify
func chunkifyTool() mcp.Tool {
	props := chunkOptionProperties()
	props["source"] = map[string]interface{}{
		"type":        "string",
		"description": "Source text to split",
	}
	props["language"] = map[string]interface{}{
		"type":        "string",
		"description": "Language of the source",
		"enum":        lang.Supported(),
	}

	return mcp.Tool{
		Name:        "chunkify",
		Description: "Split source code into syntax-aligned chunks that respect a size budget",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"source", "language"},
		},
	}
}

// chunkFileTool returns the tool definition for chunk_file
func chunkFileTool() mcp.Tool {
	props := chunkOptionProperties()
	props["path"] = map[string]interface{}{
		"type":        "string",
		"description": "Absolute path of the file to split",
	}
	props["language"] = map[string]interface{}{
		"type":        "string",
		"description": "Language of the file; detected from the name and content when omitted",
		"enum":        lang.Supported(),
	}

	return mcp.Tool{
		Name:        "chunk_file",
		Description: "Read a source file and split it into syntax-aligned chunks",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{"path"},
		},
	}
}

// languagesTool returns the tool definition for languages
func languagesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "languages",
		Description: "List supported languages and the constructs each one rejects",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
