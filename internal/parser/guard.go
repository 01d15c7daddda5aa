package parser

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/randalmurphal/astchunk/internal/apperr"
	"github.com/randalmurphal/astchunk/internal/lang"
)

// Guard fails when src contains a construct the grammar for entry is known
// to mis-parse. It is a plain text scan: a marker inside a comment or a
// string literal also trips it.
func Guard(entry *lang.Entry, src []byte) error {
	for _, c := range entry.Unsupported {
		for _, marker := range c.Markers {
			if bytes.Contains(src, []byte(marker)) {
				return unsupported(entry, c, marker)
			}
		}
		if len(c.Keywords) == 0 {
			continue
		}
		row := 0
		for line := range bytes.Lines(src) {
			if kw := leadingKeyword(string(line), c.Keywords); kw != "" {
				return unsupported(entry, c, kw).WithDetail("line", strconv.Itoa(row))
			}
			row++
		}
	}
	return nil
}

func unsupported(entry *lang.Entry, c lang.Construct, marker string) *apperr.Error {
	return apperr.Newf(apperr.CodeUnsupportedConstruct,
		"%s source uses %s (found %q), which the grammar does not support; %s",
		entry.ID, c.Feature, marker, c.Workaround).
		WithDetail("language", string(entry.ID)).
		WithDetail("feature", c.Feature).
		WithDetail("marker", marker)
}

// leadingKeyword returns the keyword that opens line, looking past a single
// "export". A keyword used as an ordinary identifier (module = x, import(y))
// does not count.
func leadingKeyword(line string, keywords []string) string {
	fields := strings.Fields(line)
	if len(fields) > 0 && fields[0] == "export" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ""
	}
	for _, kw := range keywords {
		rest, ok := strings.CutPrefix(fields[0], kw)
		if !ok {
			continue
		}
		switch {
		case rest == "" && (len(fields) == 1 || opensName(fields[1][0])):
			return kw
		case rest != "" && strings.IndexByte(";<\":", rest[0]) >= 0:
			return kw
		}
	}
	return ""
}

func opensName(b byte) bool {
	return b == '_' || b == ';' || b == '<' || b == '"' || b == ':' ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
