package interpreter

import (
	"errors"
	"fmt"

	"cmdrelay/internal/literal"
)

// Whole-call errors returned by Process.
var (
	ErrNegativeBudget = errors.New("max invocations must not be negative")
	ErrInputTooLarge  = errors.New("input exceeds the configured size limit")
	ErrNilRegistry    = errors.New("interpreter has no command registry")
)

// Per-invocation failure classes. They never escape Process; they are
// rendered inline and reported through Report.
var (
	ErrUnknownCommand    = errors.New("unknown command")
	ErrInvocationFailure = errors.New("command invocation failed")
)

// ErrorKind classifies a failed invocation.
type ErrorKind int

const (
	KindUnknownCommand ErrorKind = iota + 1
	KindArgumentSyntax
	KindInvocationFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnknownCommand:
		return "unknown_command"
	case KindArgumentSyntax:
		return "argument_syntax"
	case KindInvocationFailure:
		return "invocation_failure"
	default:
		return "unknown"
	}
}

// InvocationError describes why a single invocation produced an error
// marker instead of a value.
type InvocationError struct {
	Kind    ErrorKind
	Command string
	Err     error
}

func (e *InvocationError) Error() string {
	if e.Kind == KindUnknownCommand {
		return fmt.Sprintf("unknown command '%s'", e.Command)
	}
	return fmt.Sprintf("%s() failed - %s", e.Command, e.message())
}

func (e *InvocationError) message() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *InvocationError) Is(target error) bool {
	switch e.Kind {
	case KindUnknownCommand:
		return target == ErrUnknownCommand
	case KindArgumentSyntax:
		return target == literal.ErrArgumentSyntax
	case KindInvocationFailure:
		return target == ErrInvocationFailure
	}
	return false
}

// Marker is the inline text substituted for the failed invocation.
func (e *InvocationError) Marker() string {
	if e.Kind == KindUnknownCommand {
		return fmt.Sprintf("[ERROR: Unknown command '%s']", e.Command)
	}
	return fmt.Sprintf("[ERROR: %s() failed - %s]", e.Command, e.message())
}
