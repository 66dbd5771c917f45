// Package source provides the location utilities shared by the lexer,
// parser, and renderer: byte-offset to 1-based (line, column) mapping, and
// conversions between dotted variable names (a.b.c) and RFC 6901 JSON
// Pointers (/a/b/c) used by github.com/go-openapi/jsonpointer.
package source

import "strings"

// Position is a 1-based (line, column) pair.
type Position struct {
	Line   int
	Column int
}

// Locate computes the 1-based (line, column) of a byte offset into src. The
// column counts bytes, not runes, matching the lexer's byte-oriented
// scanning.
func Locate(src string, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	line := 1
	col := 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col}
}

// SplitDotted splits a dotted variable name ("a.b.c") into its parts. An
// empty name yields a single empty-string part so callers need not special-
// case it.
func SplitDotted(name string) []string {
	if name == "" {
		return []string{""}
	}
	return strings.Split(name, ".")
}

// ToPointer normalizes a dotted name to its JSON Pointer form ("/a/b/c"),
// escaping '~' as "~0" and '/' as "~1" within each segment per RFC 6901.
func ToPointer(dotted string) string {
	parts := SplitDotted(dotted)
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteByte('/')
		sb.WriteString(escapeToken(part))
	}
	return sb.String()
}

func escapeToken(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}
