// Package prompt renders the system instruction that teaches a model the
// command invocation syntax and lists the registered commands.
package prompt

import (
	_ "embed"
	"strings"
	"text/template"

	"cmdrelay/internal/commands"
)

//go:embed system.md
var systemTemplate string

var system = template.Must(template.New("system").Parse(systemTemplate))

// EmptyListing is the single line rendered for an empty registry.
const EmptyListing = "- (no commands available)"

// Lister exposes descriptors in display order.
type Lister interface {
	Descriptors() []commands.Descriptor
}

// Line renders one command as "- name(sig) — summary". The dash and
// summary are omitted when the command has no doc.
func Line(d commands.Descriptor) string {
	line := "- " + d.Name + d.Signature()
	if summary := d.Summary(); summary != "" {
		line += " — " + summary
	}
	return line
}

// Functions renders the command listing, one line per command.
func Functions(reg Lister) string {
	var descs []commands.Descriptor
	if reg != nil {
		descs = reg.Descriptors()
	}
	if len(descs) == 0 {
		return EmptyListing
	}
	lines := make([]string, len(descs))
	for i, d := range descs {
		lines[i] = Line(d)
	}
	return strings.Join(lines, "\n")
}

// Render returns the full system prompt for reg.
func Render(reg Lister) string {
	var b strings.Builder
	// The template is static and its only field is a string.
	if err := system.Execute(&b, struct{ Functions string }{Functions(reg)}); err != nil {
		panic("prompt: render system template: " + err.Error())
	}
	return b.String()
}
