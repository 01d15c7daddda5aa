package chunk

import "strings"

const expansionDelimiter = "'''"

// expansionHeader renders the block prepended to an expanded chunk: the file
// path, then one line per ancestor indented one tab deeper than the last.
func expansionHeader(path string, ancestors []string) string {
	var b strings.Builder
	b.WriteString(expansionDelimiter + "\n")
	if path != "" {
		b.WriteString(path + "\n")
	}
	for i, a := range ancestors {
		b.WriteString(strings.Repeat("\t", i))
		b.WriteString(a)
		b.WriteString("\n")
	}
	b.WriteString(expansionDelimiter)
	return b.String()
}

// Expand attaches the expansion header. It does not touch Size, the line
// numbers or the metadata, which keep describing the body.
func (c *Chunk) Expand() {
	var path string
	if c.Metadata != nil {
		path = c.Metadata.expansionPath()
	}
	c.Header = expansionHeader(path, c.Ancestors)
}

// CodeWindow returns the chunk in the shape downstream consumers ingest.
func (c *Chunk) CodeWindow() map[string]any {
	m := c.Metadata
	if m == nil {
		m = NoMetadata{}
	}
	return m.codeWindow(c.Content())
}
