package indexer

import (
	"path"
	"path/filepath"
	"sync"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

// MetadataResolver derives the repository-level metadata fields handed to
// the chunk builder for each file.
type MetadataResolver struct {
	repo       string
	repoPath   string
	instanceID string

	mu    sync.Mutex
	cache map[string]map[string]string
}

// NewMetadataResolver creates a resolver for the repository at repoPath.
// instanceID labels chunk IDs for the swebench template and defaults to repo.
func NewMetadataResolver(repo, repoPath, instanceID string) *MetadataResolver {
	if instanceID == "" {
		instanceID = repo
	}
	return &MetadataResolver{
		repo:       repo,
		repoPath:   repoPath,
		instanceID: instanceID,
		cache:      make(map[string]map[string]string),
	}
}

// RelPath returns filePath relative to the repository, slash separated.
func (r *MetadataResolver) RelPath(filePath string) string {
	relPath := filePath
	if filepath.IsAbs(filePath) && r.repoPath != "" {
		if rel, err := filepath.Rel(r.repoPath, filePath); err == nil {
			relPath = rel
		}
	}
	return filepath.ToSlash(relPath)
}

// Resolve returns the metadata fields for filePath. The returned map is
// shared and must not be modified.
func (r *MetadataResolver) Resolve(filePath string) map[string]string {
	relPath := r.RelPath(filePath)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[relPath]; ok {
		return cached
	}

	fields := map[string]string{
		chunk.KeyFilePath:   relPath,
		chunk.KeyFpathTuple: path.Join(r.repo, relPath),
		chunk.KeyRepo:       r.repo,
		chunk.KeyInstanceID: r.instanceID,
		chunk.KeyFilename:   relPath,
	}
	r.cache[relPath] = fields
	return fields
}
