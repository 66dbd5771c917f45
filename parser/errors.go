package parser

import (
	"fmt"

	"github.com/motif-lang/motif/source"
)

// Error is a parse-time failure carrying the lexer's current (line, column)
// at the point the failure was detected.
type Error struct {
	Pos     source.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

func (s *state) errorf(offset int, format string, args ...interface{}) error {
	return &Error{Pos: source.Locate(s.source, offset), Message: fmt.Sprintf(format, args...)}
}
