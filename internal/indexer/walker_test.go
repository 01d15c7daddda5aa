package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func walk(t *testing.T, w *Walker, root string) []string {
	t.Helper()
	var files []string
	err := w.Walk(root, func(path string) error {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestWalker(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "test.py", "def hello():\n    return 'Hello'\n")
	// Test files are still walked; weighting happens on the record.
	writeFile(t, tmpDir, "test_hello.py", "def test_hello():\n    pass\n")
	writeFile(t, tmpDir, "__pycache__/test.pyc", "binary")

	files := walk(t, NewWalker([]string{"**/*.py"}, nil), tmpDir)

	assert.ElementsMatch(t, []string{"test.py", "test_hello.py"}, files)
}

func TestWalkerDefaultIncludes(t *testing.T) {
	tmpDir := t.TempDir()
	for _, f := range []string{"a.py", "B.java", "C.cs", "d.ts", "e.js", "f.cpp", "g.go", "README.md"} {
		writeFile(t, tmpDir, f, "x")
	}

	files := walk(t, NewWalker(nil, nil), tmpDir)

	assert.ElementsMatch(t, []string{"a.py", "B.java", "C.cs", "d.ts", "e.js", "f.cpp"}, files)
}

func TestWalkerDefaultExcludes(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{".git", "node_modules", "venv", ".venv", "dist", "build", "obj"} {
		writeFile(t, tmpDir, dir+"/file.py", "# excluded")
	}
	writeFile(t, tmpDir, "types.d.ts", "declare const x: number;")
	writeFile(t, tmpDir, "main.py", "# included")

	files := walk(t, NewWalker(nil, nil), tmpDir)

	assert.Equal(t, []string{"main.py"}, files)
}

func TestWalkerCustomExcludes(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "main.py", "# main")
	writeFile(t, tmpDir, "generated.py", "# generated")

	files := walk(t, NewWalker([]string{"**/*.py"}, []string{"**/generated.py"}), tmpDir)

	assert.Equal(t, []string{"main.py"}, files)
}

func TestWalkerNestedDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "src/main.py", "# main")
	writeFile(t, tmpDir, "src/pkg/util.py", "# util")
	writeFile(t, tmpDir, "src/pkg/sub/deep.py", "# deep")

	files := walk(t, NewWalker([]string{"**/*.py"}, nil), tmpDir)

	require.Len(t, files, 3)
}

func TestWalkerMatches(t *testing.T) {
	w := NewWalker(nil, []string{"vendor/**"})

	assert.True(t, w.Matches("src/app.ts"))
	assert.False(t, w.Matches("vendor/lib.ts"))
	assert.False(t, w.Matches("node_modules/pkg/index.js"))
	assert.False(t, w.Matches("notes.txt"))
}
