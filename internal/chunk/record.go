package chunk

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Record is the storable form of a chunk, written by the sinks and cached.
type Record struct {
	// Identity
	ID       string `json:"id"` // UUIDv5 of repo+path+range+body
	Repo     string `json:"repo,omitempty"`
	FilePath string `json:"file_path"`
	Language string `json:"language"`

	// Location
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
	ByteStart int `json:"byte_start"`
	ByteStop  int `json:"byte_stop"`

	// Content
	Content   string         `json:"content"`
	Size      int            `json:"chunk_size"`
	NodeCount int            `json:"node_count"`
	Ancestors []string       `json:"ancestors"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	IsTest          bool    `json:"is_test"`
	RetrievalWeight float32 `json:"retrieval_weight"` // 1.0 normal, 0.5 for tests

	// Vector (populated after embedding)
	Vector []float32 `json:"vector,omitempty"`
}

var testPatterns = []string{
	"test_",
	"_test.py",
	".test.js",
	".test.ts",
	".spec.js",
	".spec.ts",
	"tests.cs",
	"test.java",
	"/tests/",
	"/__tests__/",
}

// NewRecord converts a chunk produced for filePath.
func NewRecord(repo, filePath, language string, c Chunk) Record {
	isTest := isTestFile(filePath)
	weight := float32(1.0)
	if isTest {
		weight = 0.5
	}

	var fields map[string]any
	if c.Metadata != nil {
		fields = c.Metadata.Fields()
	}

	return Record{
		ID:              GenerateID(repo, filePath, c.Range.Start, c.Range.Stop, c.Text),
		Repo:            repo,
		FilePath:        filePath,
		Language:        language,
		StartLine:       c.StartLine,
		EndLine:         c.EndLine,
		ByteStart:       c.Range.Start,
		ByteStop:        c.Range.Stop,
		Content:         c.Content(),
		Size:            c.Size,
		NodeCount:       c.NodeCount,
		Ancestors:       c.Ancestors,
		Metadata:        fields,
		IsTest:          isTest,
		RetrievalWeight: weight,
	}
}

// GenerateID creates a deterministic ID for a chunk. The result is a UUID so
// it can be used directly as a vector store point ID.
func GenerateID(repo, filePath string, start, stop int, body string) string {
	data := fmt.Sprintf("%s:%s:%d:%d:%s", repo, filePath, start, stop, body)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(data)).String()
}

func isTestFile(filePath string) bool {
	lower := strings.ToLower(filePath)
	for _, pattern := range testPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
