package parser

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/randalmurphal/astchunk/internal/lang"
)

// enryNames maps linguist language names to registered languages.
var enryNames = map[string]lang.ID{
	"Python":     lang.Python,
	"Java":       lang.Java,
	"C#":         lang.CSharp,
	"TypeScript": lang.TypeScript,
	"TSX":        lang.TypeScript,
	"JavaScript": lang.JavaScript,
	"C++":        lang.CPP,
}

// DetectLanguage determines language from file extension, falling back to
// linguist heuristics on the file name and content.
func DetectLanguage(filePath string, content []byte) (lang.ID, bool) {
	switch {
	case hasExtension(filePath, ".py", ".pyi"):
		return lang.Python, true
	case hasExtension(filePath, ".java"):
		return lang.Java, true
	case hasExtension(filePath, ".cs"):
		return lang.CSharp, true
	case hasExtension(filePath, ".ts", ".tsx", ".mts", ".cts"):
		return lang.TypeScript, true
	case hasExtension(filePath, ".js", ".jsx", ".mjs", ".cjs"):
		return lang.JavaScript, true
	case hasExtension(filePath, ".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx"):
		return lang.CPP, true
	}

	name := enry.GetLanguage(filepath.Base(filePath), content)
	id, ok := enryNames[name]
	return id, ok
}

func hasExtension(path string, exts ...string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
