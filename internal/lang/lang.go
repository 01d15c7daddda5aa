// Package lang is the registry of languages the chunker understands: which
// tree-sitter grammar parses them and which node types introduce a scope.
package lang

import (
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"github.com/randalmurphal/astchunk/internal/apperr"
)

// ID identifies a registered language.
type ID string

const (
	Python     ID = "python"
	Java       ID = "java"
	CSharp     ID = "csharp"
	TypeScript ID = "typescript"
	JavaScript ID = "javascript"
	CPP        ID = "cpp"
)

// Construct is a source feature the grammar does not model faithfully.
type Construct struct {
	// Markers are literal substrings that reveal the feature.
	Markers []string
	// Keywords reveal the feature when one opens a line, optionally after
	// "export". Any amount of whitespace may separate the words.
	Keywords   []string
	Feature    string
	Workaround string
}

// Entry describes one language.
type Entry struct {
	ID ID
	// Root is the container tag whose children are walked instead of the
	// node itself being packed.
	Root        string
	ClassTags   []string
	FuncTags    []string
	Unsupported []Construct
	Grammar     func() *sitter.Language

	tags  map[string]struct{}
	funcs map[string]struct{}
}

// AncestorTags returns the union of class-like and function-like tags.
func (e *Entry) AncestorTags() map[string]struct{} {
	return e.tags
}

// IsFunction reports whether nodeType is function-like.
func (e *Entry) IsFunction(nodeType string) bool {
	_, ok := e.funcs[nodeType]
	return ok
}

var registry = buildRegistry(
	&Entry{
		ID:        Python,
		Root:      "module",
		ClassTags: []string{"class_definition"},
		FuncTags:  []string{"function_definition"},
		Grammar:   python.GetLanguage,
	},
	&Entry{
		ID:        Java,
		Root:      "program",
		ClassTags: []string{"class_declaration", "interface_declaration", "enum_declaration"},
		FuncTags:  []string{"method_declaration", "constructor_declaration"},
		Grammar:   java.GetLanguage,
	},
	&Entry{
		ID:        CSharp,
		Root:      "compilation_unit",
		ClassTags: []string{"class_declaration", "interface_declaration", "struct_declaration"},
		FuncTags:  []string{"method_declaration", "constructor_declaration"},
		Grammar:   csharp.GetLanguage,
	},
	&Entry{
		ID:        TypeScript,
		Root:      "program",
		ClassTags: []string{"class_declaration", "interface_declaration"},
		FuncTags:  []string{"function_declaration", "method_definition", "arrow_function"},
		Grammar:   tsx.GetLanguage,
	},
	&Entry{
		ID:        JavaScript,
		Root:      "program",
		ClassTags: []string{"class_declaration"},
		FuncTags:  []string{"function_declaration", "method_definition", "arrow_function"},
		Grammar:   javascript.GetLanguage,
	},
	&Entry{
		ID:   CPP,
		Root: "translation_unit",
		ClassTags: []string{
			"class_specifier",
			"struct_specifier",
			"union_specifier",
			"namespace_definition",
			"template_declaration",
		},
		FuncTags: []string{"function_definition"},
		Unsupported: []Construct{{
			Markers:    []string{"export module ", "module;"},
			Keywords:   []string{"module", "import"},
			Feature:    "C++20 named modules",
			Workaround: "convert the module interface to a header/source pair before chunking",
		}},
		Grammar: cpp.GetLanguage,
	},
)

func buildRegistry(entries ...*Entry) map[ID]*Entry {
	m := make(map[ID]*Entry, len(entries))
	for _, e := range entries {
		e.tags = make(map[string]struct{}, len(e.ClassTags)+len(e.FuncTags))
		e.funcs = make(map[string]struct{}, len(e.FuncTags))
		for _, t := range e.ClassTags {
			e.tags[t] = struct{}{}
		}
		for _, t := range e.FuncTags {
			e.tags[t] = struct{}{}
			e.funcs[t] = struct{}{}
		}
		m[e.ID] = e
	}
	return m
}

// Lookup returns the entry for id. The match is exact and case-sensitive.
func Lookup(id string) (*Entry, error) {
	if e, ok := registry[ID(id)]; ok {
		return e, nil
	}
	supported := Supported()
	return nil, apperr.Newf(apperr.CodeUnsupportedLanguage,
		"Unsupported language: '%s'. Supported languages: %s", id, strings.Join(supported, ", ")).
		WithDetail("language", id).
		WithDetail("supported", strings.Join(supported, ","))
}

// AncestorTags returns the scope-introducing tags for id.
func AncestorTags(id string) (map[string]struct{}, error) {
	e, err := Lookup(id)
	if err != nil {
		return nil, err
	}
	return e.AncestorTags(), nil
}

// Supported returns the registered identifiers, sorted.
func Supported() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return ids
}

func (id ID) String() string {
	return string(id)
}

// Describe renders a one-line summary used by the CLI.
func (e *Entry) Describe() string {
	return fmt.Sprintf("%-11s root=%s classes=%s functions=%s",
		e.ID, e.Root, strings.Join(e.ClassTags, ","), strings.Join(e.FuncTags, ","))
}
