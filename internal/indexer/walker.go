// Package indexer walks a repository, chunks every supported source file
// and hands the records to the configured sinks.
package indexer

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIncludes covers the extensions of every supported language.
var DefaultIncludes = []string{
	"**/*.py",
	"**/*.pyi",
	"**/*.java",
	"**/*.cs",
	"**/*.ts",
	"**/*.tsx",
	"**/*.js",
	"**/*.jsx",
	"**/*.mjs",
	"**/*.cpp",
	"**/*.cc",
	"**/*.cxx",
	"**/*.hpp",
	"**/*.hh",
}

var defaultExcludes = []string{
	"**/.git/**",
	"**/__pycache__/**",
	"**/node_modules/**",
	"**/venv/**",
	"**/.venv/**",
	"**/dist/**",
	"**/build/**",
	"**/bin/**",
	"**/obj/**",
	"**/target/**",
	"**/.idea/**",
	"**/.vscode/**",
	"**/*.min.js",
	"**/*.bundle.js",
	"**/*.d.ts",
}

// Walker traverses directories respecting include/exclude patterns.
type Walker struct {
	includes []string
	excludes []string
}

// NewWalker creates a new file walker with the given include and exclude patterns.
// If no includes are specified, DefaultIncludes is used.
func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}

	all := make([]string, 0, len(defaultExcludes)+len(excludes))
	all = append(all, defaultExcludes...)
	all = append(all, excludes...)

	return &Walker{
		includes: includes,
		excludes: all,
	}
}

// Walk traverses the directory tree rooted at root, calling fn for each file
// that matches the include patterns and does not match the exclude patterns.
func (w *Walker) Walk(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.shouldExcludeDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.Matches(relPath) {
			return fn(path)
		}
		return nil
	})
}

// Matches reports whether a slash-separated relative path would be walked.
func (w *Walker) Matches(relPath string) bool {
	return !matchAny(w.excludes, relPath) && matchAny(w.includes, relPath)
}

func (w *Walker) shouldExcludeDir(relPath string) bool {
	// "**/.git/**" should match the directory ".git" itself
	return matchAny(w.excludes, relPath+"/") || matchAny(w.excludes, relPath)
}

func matchAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}
