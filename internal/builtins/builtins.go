// Package builtins is the registration table of the commands shipped with
// cmdrelay.
package builtins

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cmdrelay/internal/commands"
	"cmdrelay/internal/literal"
)

const (
	defaultHTTPTimeout  = 10 * time.Second
	defaultMaxPageBytes = 2 << 20
	defaultUserAgent    = "cmdrelay/0.1 (+page_title)"
)

// Config supplies the dependencies of the builtin commands. Zero fields
// fall back to the real clock and a default HTTP client.
type Config struct {
	Now          func() time.Time
	HTTPClient   *http.Client
	HTTPTimeout  time.Duration
	MaxPageBytes int64
	UserAgent    string
}

func (c Config) withDefaults() Config {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.HTTPTimeout}
	}
	if c.MaxPageBytes <= 0 {
		c.MaxPageBytes = defaultMaxPageBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}

// Source returns the builtin commands in display order.
func Source(cfg Config) commands.Source {
	cfg = cfg.withDefaults()
	fetcher := &titleFetcher{client: cfg.HTTPClient, maxBytes: cfg.MaxPageBytes, userAgent: cfg.UserAgent}

	return commands.StaticSource{
		{
			Name:   "get_time",
			Doc:    "Return the current local time. format is a Go layout, e.g. '3:04 PM'.",
			Params: []commands.Param{commands.Optional("format", "str", literal.String("15:04"))},
			Invoke: clockCommand(cfg.Now),
		},
		{
			Name:   "get_date",
			Doc:    "Return today's local date. format is a Go layout.",
			Params: []commands.Param{commands.Optional("format", "str", literal.String("2006-01-02"))},
			Invoke: clockCommand(cfg.Now),
		},
		{
			Name:      "add",
			Doc:       "Add two numbers.",
			Params:    []commands.Param{commands.Required("a", "number"), commands.Required("b", "number")},
			Invoke:    add,
			Cacheable: true,
		},
		{
			Name:   "echo",
			Doc:    "Return text unchanged.",
			Params: []commands.Param{commands.Required("text", "str")},
			Invoke: echo,
		},
		{
			Name:      "count_tokens",
			Doc:       "Count cl100k_base tokens in text.",
			Params:    []commands.Param{commands.Required("text", "str")},
			Invoke:    countTokens,
			Cacheable: true,
		},
		{
			Name:      "diff_text",
			Doc:       "Return a unified patch turning old into new.",
			Params:    []commands.Param{commands.Required("old", "str"), commands.Required("new", "str")},
			Invoke:    diffText,
			Cacheable: true,
		},
		{
			Name:   "page_title",
			Doc:    "Fetch an http(s) page and return its <title>.",
			Params: []commands.Param{commands.Required("url", "str")},
			Invoke: fetcher.invoke,
		},
		{
			Name:      "repair_json",
			Doc:       "Repair malformed JSON and return the fixed text.",
			Params:    []commands.Param{commands.Required("text", "str")},
			Invoke:    repairJSON,
			Cacheable: true,
		},
	}
}

func clockCommand(now func() time.Time) commands.Func {
	return func(_ context.Context, args literal.Args) (literal.Value, error) {
		layout, err := stringArg(args, "format")
		if err != nil {
			return literal.Value{}, err
		}
		if layout == "" {
			return literal.Value{}, fmt.Errorf("format must not be empty")
		}
		return literal.String(now().Format(layout)), nil
	}
}

func add(_ context.Context, args literal.Args) (literal.Value, error) {
	a, b := args["a"], args["b"]
	ai, aInt := a.AsInt()
	bi, bInt := b.AsInt()
	if aInt && bInt {
		sum := ai + bi
		if (sum > ai) != (bi > 0) {
			return literal.Float(float64(ai) + float64(bi)), nil
		}
		return literal.Int(sum), nil
	}
	af, ok := a.AsFloat()
	if !ok {
		return literal.Value{}, fmt.Errorf("a must be a number, got %s", a.Kind())
	}
	bf, ok := b.AsFloat()
	if !ok {
		return literal.Value{}, fmt.Errorf("b must be a number, got %s", b.Kind())
	}
	return literal.Float(af + bf), nil
}

func echo(_ context.Context, args literal.Args) (literal.Value, error) {
	return args["text"], nil
}

func stringArg(args literal.Args, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing required argument '%s'", name)
	}
	s, ok := v.AsString()
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %s", name, v.Kind())
	}
	return s, nil
}
