package commands

import (
	"fmt"
	"sort"

	"cmdrelay/internal/literal"
)

// Source supplies descriptors at registry construction.
type Source interface {
	Commands() []Descriptor
}

// StaticSource is a fixed registration table.
type StaticSource []Descriptor

// Commands implements Source.
func (s StaticSource) Commands() []Descriptor { return s }

// Registry maps command names to descriptors and remembers registration
// order.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

// NewRegistry builds a registry from the given sources, in order. Later
// sources overwrite earlier entries of the same name.
func NewRegistry(sources ...Source) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor)}
	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, d := range src.Commands() {
			if err := r.Register(d); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Register adds d, replacing any command of the same name. A replaced
// command keeps its position in the registration order.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if _, exists := r.byName[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.byName[d.Name] = d
	return nil
}

// AddCommand registers fn under name. Without WithParams or WithVariadic
// the command accepts no keywords.
func (r *Registry) AddCommand(name string, fn Func, opts ...Option) error {
	d := Descriptor{Name: name, Invoke: fn}
	for _, opt := range opts {
		opt(&d)
	}
	return r.Register(d)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns command names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedNames returns command names alphabetically.
func (r *Registry) SortedNames() []string {
	out := r.Names()
	sort.Strings(out)
	return out
}

// Descriptors returns all descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int { return len(r.order) }

// Bind checks args against the declared parameters of d and fills in
// defaults.
func Bind(d Descriptor, args literal.Args) (literal.Args, error) {
	declared := make(map[string]bool, len(d.Params))
	bound := make(literal.Args, len(args)+len(d.Params))
	for _, p := range d.Params {
		declared[p.Name] = true
		if v, ok := args[p.Name]; ok {
			bound[p.Name] = v
			continue
		}
		if p.Required() {
			return nil, fmt.Errorf("%w '%s'", ErrMissingArgument, p.Name)
		}
		bound[p.Name] = *p.Default
	}

	extra := make([]string, 0)
	for name := range args {
		if !declared[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	if len(extra) > 0 && !d.Variadic {
		return nil, fmt.Errorf("%w '%s'", ErrUnexpectedArgument, extra[0])
	}
	for _, name := range extra {
		bound[name] = args[name]
	}
	return bound, nil
}
