package chunk

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/astchunk/internal/apperr"
)

func TestParseTemplate(t *testing.T) {
	for _, name := range Templates() {
		tmpl, err := ParseTemplate(name)
		require.NoError(t, err)
		assert.Equal(t, name, string(tmpl))
	}

	tmpl, err := ParseTemplate("")
	require.NoError(t, err)
	assert.Equal(t, TemplateDefault, tmpl)

	_, err = ParseTemplate("Default")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeUnsupportedMetadataTemplate))
	assert.Contains(t, err.Error(), "coderagbench-swebench-lite")
}

func TestDefaultTemplate(t *testing.T) {
	windows, err := NewBuilder(nil, nil).CodeWindows(context.Background(), []byte(calculatorPy), Options{
		MaxChunkSize: 45,
		Language:     "python",
		Template:     "default",
		RepoMetadata: map[string]string{KeyFilePath: "calc.py"},
	})
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, map[string]any{
		"filepath":      "calc.py",
		"chunk_size":    42,
		"line_count":    3,
		"start_line_no": 0,
		"end_line_no":   2,
		"node_count":    4,
	}, windows[0]["metadata"])
	assert.Equal(t, "class Calculator:\n    def add(self, a, b):\n        return a + b", windows[0]["content"])
}

func TestNoneTemplate(t *testing.T) {
	chunks := chunkify(t, calculatorPy, Options{MaxChunkSize: 45, Language: "python", Template: "none", Expand: true})

	require.Len(t, chunks, 2)
	window := chunks[0].CodeWindow()
	assert.Equal(t, map[string]any{}, window["metadata"])
	assert.Equal(t, "'''\nclass Calculator:\n'''", chunks[0].Header)
}

func TestRepoEvalTemplate(t *testing.T) {
	chunks := chunkify(t, calculatorPy, Options{
		MaxChunkSize: 45,
		Language:     "python",
		Template:     "coderagbench-repoeval",
		Expand:       true,
		RepoMetadata: map[string]string{KeyFpathTuple: "repo/src/calc.py", KeyRepo: "repo"},
	})

	require.Len(t, chunks, 2)
	fields := chunks[1].Metadata.Fields()
	assert.Equal(t, []string{"repo", "src", "calc.py"}, fields["fpath_tuple"])
	assert.Equal(t, "repo", fields["repo"])
	assert.Equal(t, 31, fields["chunk_size"])
	assert.Equal(t, 3, fields["start_line_no"])
	assert.Equal(t, "'''\nrepo/src/calc.py\nclass Calculator:\n'''", chunks[1].Header)
}

func TestRepoEvalTemplateWithoutPath(t *testing.T) {
	m, err := buildMetadata(TemplateRepoEval, &Chunk{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{}, m.Fields()["fpath_tuple"])
	assert.Equal(t, "", m.expansionPath())
}

func TestSWEBenchTemplate(t *testing.T) {
	windows, err := NewBuilder(nil, nil).CodeWindows(context.Background(), []byte(calculatorPy), Options{
		MaxChunkSize: 45,
		Language:     "python",
		Template:     "coderagbench-swebench-lite",
		Expand:       true,
		RepoMetadata: map[string]string{KeyInstanceID: "calc__calc-12", KeyFilename: "calc.py"},
	})
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, "calc__calc-12_0-2", windows[0]["_id"])
	assert.Equal(t, "calc__calc-12_3-4", windows[1]["_id"])
	assert.Equal(t, "calc.py", windows[1]["title"])
	assert.Equal(t,
		"'''\ncalc.py\nclass Calculator:\n'''\n    def subtract(self, a, b):\n        return a - b",
		windows[1]["text"])
	assert.NotContains(t, windows[1], "metadata")
}

func TestExpansionHeader(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		ancestors []string
		want      string
	}{
		{"empty", "", nil, "'''\n'''"},
		{"path only", "a.py", nil, "'''\na.py\n'''"},
		{"ancestors only", "", []string{"class A:", "def f(self):"}, "'''\nclass A:\n\tdef f(self):\n'''"},
		{"both", "a.py", []string{"class A:", "class B:", "def f(self):"}, "'''\na.py\nclass A:\n\tclass B:\n\t\tdef f(self):\n'''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expansionHeader(tt.path, tt.ancestors))
		})
	}
}

func TestMetadataJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(SWEBenchMetadata{ID: "x_1-2", Title: "t.py"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"x_1-2","title":"t.py"}`, string(data))
}
