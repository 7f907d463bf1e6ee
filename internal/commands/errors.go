package commands

import "errors"

// Registry errors.
var (
	// ErrInvalidDescriptor is returned when a descriptor cannot be registered.
	ErrInvalidDescriptor = errors.New("invalid command descriptor")

	// ErrUnexpectedArgument is returned when a call passes an undeclared keyword.
	ErrUnexpectedArgument = errors.New("unexpected keyword argument")

	// ErrMissingArgument is returned when a required keyword is absent.
	ErrMissingArgument = errors.New("missing required argument")
)
