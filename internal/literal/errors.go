package literal

import (
	"errors"
	"fmt"
)

// ErrArgumentSyntax matches every SyntaxError via errors.Is.
var ErrArgumentSyntax = errors.New("argument syntax error")

// SyntaxError reports why a parameter body was rejected and where.
type SyntaxError struct {
	// Offset is the byte offset into the raw parameter text.
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid parameters: %s (offset %d)", e.Msg, e.Offset)
}

// Is makes errors.Is(err, ErrArgumentSyntax) hold.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrArgumentSyntax
}

func syntaxErrorf(offset int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}
