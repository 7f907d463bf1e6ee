// Package commands holds the registry of invocable local commands.
//
// The registry is populated from explicit registration tables (Source)
// and may grow afterwards through Register or AddCommand. It is not safe
// for concurrent writers; callers that share it across goroutines must
// serialise access.
package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"cmdrelay/internal/literal"
)

// Func is the signature of a command implementation.
type Func func(ctx context.Context, args literal.Args) (literal.Value, error)

// Param describes one keyword parameter of a command.
type Param struct {
	Name string
	// Type is an optional hint shown in the prompt ("str", "int", ...).
	Type string
	// Default is used when the caller omits the parameter. A nil Default
	// makes the parameter required.
	Default *literal.Value
}

// Required reports whether the parameter has no default.
func (p Param) Required() bool { return p.Default == nil }

// Descriptor is a registered command.
type Descriptor struct {
	Name   string
	Params []Param
	// Doc is a free-form description; its first line is shown in prompts.
	Doc    string
	Invoke Func
	// Variadic accepts keywords beyond Params.
	Variadic bool
	// Cacheable marks commands whose result depends only on their
	// arguments.
	Cacheable bool
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validate checks the descriptor is registrable.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}
	if !namePattern.MatchString(d.Name) {
		return fmt.Errorf("%w: name %q must match [A-Za-z0-9_]+", ErrInvalidDescriptor, d.Name)
	}
	if d.Invoke == nil {
		return fmt.Errorf("%w: %s has no implementation", ErrInvalidDescriptor, d.Name)
	}
	seen := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if p.Name == "" || !namePattern.MatchString(p.Name) {
			return fmt.Errorf("%w: %s has invalid parameter name %q", ErrInvalidDescriptor, d.Name, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %s declares parameter %q twice", ErrInvalidDescriptor, d.Name, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Summary returns the first non-empty line of Doc.
func (d Descriptor) Summary() string {
	for _, line := range strings.Split(d.Doc, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// Signature renders the parameter list, e.g. "(city: str, days: int = 3)".
func (d Descriptor) Signature() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range d.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Type != "" {
			b.WriteString(": ")
			b.WriteString(p.Type)
		}
		if p.Default != nil {
			if p.Type != "" {
				b.WriteString(" = ")
			} else {
				b.WriteByte('=')
			}
			b.WriteString(p.Default.Repr())
		}
	}
	if d.Variadic {
		if len(d.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("**kwargs")
	}
	b.WriteByte(')')
	return b.String()
}

// Option configures a descriptor built by AddCommand.
type Option func(*Descriptor)

// WithDoc sets the description.
func WithDoc(doc string) Option {
	return func(d *Descriptor) { d.Doc = doc }
}

// WithParams declares the parameters.
func WithParams(params ...Param) Option {
	return func(d *Descriptor) { d.Params = append(d.Params, params...) }
}

// WithVariadic accepts undeclared keywords.
func WithVariadic() Option {
	return func(d *Descriptor) { d.Variadic = true }
}

// WithCacheable marks the command result as cacheable.
func WithCacheable() Option {
	return func(d *Descriptor) { d.Cacheable = true }
}

// Required declares a parameter without a default.
func Required(name, typ string) Param {
	return Param{Name: name, Type: typ}
}

// Optional declares a parameter with a default.
func Optional(name, typ string, def literal.Value) Param {
	return Param{Name: name, Type: typ, Default: &def}
}
