package lang

import (
	"testing"

	"github.com/randalmurphal/astchunk/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedIsSorted(t *testing.T) {
	assert.Equal(t,
		[]string{"cpp", "csharp", "java", "javascript", "python", "typescript"},
		Supported())
}

func TestAncestorTagsPerLanguage(t *testing.T) {
	tests := []struct {
		lang string
		want []string
	}{
		{"python", []string{"class_definition", "function_definition"}},
		{"java", []string{"class_declaration", "interface_declaration", "enum_declaration", "method_declaration", "constructor_declaration"}},
		{"csharp", []string{"class_declaration", "interface_declaration", "struct_declaration", "method_declaration", "constructor_declaration"}},
		{"typescript", []string{"class_declaration", "interface_declaration", "function_declaration", "method_definition", "arrow_function"}},
		{"javascript", []string{"class_declaration", "function_declaration", "method_definition", "arrow_function"}},
		{"cpp", []string{"class_specifier", "struct_specifier", "union_specifier", "namespace_definition", "template_declaration", "function_definition"}},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			tags, err := AncestorTags(tt.lang)
			require.NoError(t, err)
			assert.Len(t, tags, len(tt.want))
			for _, tag := range tt.want {
				assert.Contains(t, tags, tag)
			}
		})
	}
}

func TestLookupUnsupported(t *testing.T) {
	for _, id := range []string{"ruby", "go", "rust", "c", "", "Python", " python"} {
		t.Run(id, func(t *testing.T) {
			_, err := Lookup(id)
			require.Error(t, err)
			assert.True(t, apperr.IsUnsupportedLanguage(err))
			assert.Contains(t, err.Error(), "Unsupported language: '"+id+"'")
			assert.Contains(t, err.Error(), "Supported languages: cpp, csharp, java, javascript, python, typescript")
		})
	}
}

func TestEveryEntryIsComplete(t *testing.T) {
	for _, id := range Supported() {
		e, err := Lookup(id)
		require.NoError(t, err)
		assert.NotEmpty(t, e.Root, id)
		assert.NotEmpty(t, e.ClassTags, id)
		assert.NotEmpty(t, e.FuncTags, id)
		assert.NotNil(t, e.Grammar(), id)
	}
}

func TestIsFunction(t *testing.T) {
	e, err := Lookup("python")
	require.NoError(t, err)

	assert.True(t, e.IsFunction("function_definition"))
	assert.False(t, e.IsFunction("class_definition"))
	_, scoped := e.AncestorTags()["class_definition"]
	assert.True(t, scoped)
}

func TestOnlyCPPHasUnsupportedConstructs(t *testing.T) {
	for _, id := range Supported() {
		e, _ := Lookup(id)
		if e.ID == CPP {
			require.Len(t, e.Unsupported, 1)
			assert.Contains(t, e.Unsupported[0].Markers, "export module ")
			assert.Equal(t, []string{"module", "import"}, e.Unsupported[0].Keywords)
			continue
		}
		assert.Empty(t, e.Unsupported, id)
	}
}
