// Package interpreter finds command invocation tokens in model output,
// runs the named commands and substitutes their results in place.
//
// Text between triple-backtick fences is never touched. Every other span
// is scanned left to right with its own invocation budget. Failures of a
// single invocation are rendered inline as "[ERROR: ...]" markers and do
// not abort the pass.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cmdrelay/internal/commands"
	"cmdrelay/internal/literal"
	"cmdrelay/internal/logging"
	"cmdrelay/internal/observability"
	"cmdrelay/internal/prompt"
	"cmdrelay/internal/segment"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultMaxInvocations is the per-span budget used by Execute.
const DefaultMaxInvocations = 5

// Interpreter dispatches invocation tokens against a command registry.
// It is not safe for concurrent use.
type Interpreter struct {
	registry      *commands.Registry
	maxPerSpan    int
	maxInputBytes int
	cache         *resultCache
	cacheMetrics  *observability.CacheMetrics
	logger        logging.Logger
	metrics       *observability.MetricsCollector
	tracer        *observability.TracerProvider
	now           func() time.Time
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithDefaultBudget sets the per-span budget used by Execute.
func WithDefaultBudget(n int) Option {
	return func(i *Interpreter) { i.maxPerSpan = n }
}

// WithMaxInputBytes rejects texts longer than n bytes. Zero disables the
// limit.
func WithMaxInputBytes(n int) Option {
	return func(i *Interpreter) { i.maxInputBytes = n }
}

// WithCache memoises results of cacheable commands in an LRU of the given
// size. Entries older than ttl are recomputed.
func WithCache(size int, ttl time.Duration) Option {
	return func(i *Interpreter) {
		i.cache = newResultCache(size, ttl, nil)
	}
}

// WithCacheMetrics reports cache hits and misses to m.
func WithCacheMetrics(m *observability.CacheMetrics) Option {
	return func(i *Interpreter) { i.cacheMetrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.MetricsCollector) Option {
	return func(i *Interpreter) { i.metrics = m }
}

// WithTracer sets the tracer provider.
func WithTracer(tp *observability.TracerProvider) Option {
	return func(i *Interpreter) { i.tracer = tp }
}

// WithClock overrides the time source used for durations and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(i *Interpreter) { i.now = now }
}

// New returns an interpreter over reg.
func New(reg *commands.Registry, opts ...Option) *Interpreter {
	i := &Interpreter{
		registry:   reg,
		maxPerSpan: DefaultMaxInvocations,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.OrNop(i.logger)
	if i.tracer == nil {
		i.tracer = observability.NoopTracerProvider()
	}
	if i.cache != nil {
		i.cache.metrics = i.cacheMetrics
		i.cache.now = i.now
	}
	return i
}

// Registry returns the underlying registry.
func (i *Interpreter) Registry() *commands.Registry { return i.registry }

// DefaultBudget returns the per-span budget used by Execute.
func (i *Interpreter) DefaultBudget() int { return i.maxPerSpan }

// AddCommand registers a command after construction.
func (i *Interpreter) AddCommand(name string, fn commands.Func, opts ...commands.Option) error {
	if i.registry == nil {
		return ErrNilRegistry
	}
	return i.registry.AddCommand(name, fn, opts...)
}

// AvailableCommands returns registered names in registration order.
func (i *Interpreter) AvailableCommands() []string {
	if i.registry == nil {
		return nil
	}
	return i.registry.Names()
}

// SystemPrompt renders the instruction describing the invocation syntax
// and the registered commands.
func (i *Interpreter) SystemPrompt() string {
	if i.registry == nil {
		return prompt.Render(nil)
	}
	return prompt.Render(i.registry)
}

// Execute processes text with the default budget.
func (i *Interpreter) Execute(ctx context.Context, text string) (string, error) {
	return i.Process(ctx, text, i.maxPerSpan)
}

// Process substitutes every invocation token in the non-fenced spans of
// text, running at most maxInvocations commands per span.
func (i *Interpreter) Process(ctx context.Context, text string, maxInvocations int) (string, error) {
	report, err := i.ProcessReport(ctx, text, maxInvocations)
	if err != nil {
		return "", err
	}
	return report.Output, nil
}

// ProcessReport is Process with a per-invocation account of what happened.
func (i *Interpreter) ProcessReport(ctx context.Context, text string, maxInvocations int) (report *Report, err error) {
	ctx, span := i.tracer.StartSpan(ctx, observability.SpanProcess,
		attribute.Int(observability.AttrBudget, maxInvocations))
	defer func() {
		status, matches := "error", 0
		if err == nil {
			status, matches = "ok", len(report.Invocations)
			span.SetAttributes(attribute.Int(observability.AttrMatches, matches))
		}
		i.metrics.RecordProcess(ctx, status, matches)
		observability.EndSpan(span, err)
	}()

	if err := i.validate(text, maxInvocations); err != nil {
		i.logger.Warn("process rejected: %v", err)
		return nil, err
	}

	report = &Report{}
	var out strings.Builder
	out.Grow(len(text))
	for s := range segment.Spans(text) {
		if s.Verbatim {
			out.WriteString(s.Content)
			continue
		}
		i.processSpan(ctx, s, maxInvocations, &out, report)
	}
	report.Output = out.String()
	return report, nil
}

func (i *Interpreter) validate(text string, maxInvocations int) error {
	if i.registry == nil {
		return ErrNilRegistry
	}
	if maxInvocations < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeBudget, maxInvocations)
	}
	if i.maxInputBytes > 0 && len(text) > i.maxInputBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(text), i.maxInputBytes)
	}
	return nil
}

// processSpan rewrites one processable span. Replacements are written
// straight to out, so substituted text is never scanned again.
func (i *Interpreter) processSpan(ctx context.Context, s segment.Span, budget int, out *strings.Builder, report *Report) {
	used := 0
	last := 0
	for _, m := range FindMatches(s.Content) {
		out.WriteString(s.Content[last:m.Start])
		last = m.End

		inv := Invocation{Match: m.shift(s.Start)}
		if used >= budget {
			inv.Outcome = OutcomeSkipped
			inv.Replacement = m.Text
			i.metrics.RecordInvocation(ctx, m.Command, string(OutcomeSkipped), 0)
			i.logger.Debug("skipping %s: span budget of %d exhausted", m.Command, budget)
		} else {
			i.invoke(ctx, m, &inv)
			if inv.Outcome != OutcomeUnknownCommand {
				used++
			}
		}
		out.WriteString(inv.Replacement)
		report.Invocations = append(report.Invocations, inv)
	}
	out.WriteString(s.Content[last:])
}

// invoke resolves, parses, binds and runs one match, filling inv.
func (i *Interpreter) invoke(ctx context.Context, m Match, inv *Invocation) {
	ctx, span := i.tracer.StartSpan(ctx, observability.SpanCommandInvoke, observability.CommandAttrs(m.Command)...)
	start := i.now()

	value, cached, err := i.dispatch(ctx, m)
	inv.Duration = i.now().Sub(start)
	inv.Cached = cached

	var ierr *InvocationError
	switch {
	case err == nil:
		inv.Outcome = OutcomeOK
		inv.Replacement = value.String()
		i.logger.Debug("invoked %s in %s", m.Command, inv.Duration)
	case errors.As(err, &ierr):
		inv.Outcome = outcomeFor(ierr.Kind)
		inv.Replacement = ierr.Marker()
		inv.Err = ierr
		inv.Error = ierr.Error()
		i.logger.Warn("invocation %s: %v", m.Command, ierr)
	default:
		ierr = &InvocationError{Kind: KindInvocationFailure, Command: m.Command, Err: err}
		inv.Outcome = OutcomeInvocationFailure
		inv.Replacement = ierr.Marker()
		inv.Err = ierr
		inv.Error = ierr.Error()
	}

	span.SetAttributes(
		attribute.String(observability.AttrOutcome, string(inv.Outcome)),
		attribute.Bool(observability.AttrCacheHit, cached),
	)
	i.metrics.RecordInvocation(ctx, m.Command, string(inv.Outcome), inv.Duration)
	observability.EndSpan(span, inv.Err)
}

func (i *Interpreter) dispatch(ctx context.Context, m Match) (literal.Value, bool, error) {
	desc, ok := i.registry.Lookup(m.Command)
	if !ok {
		return literal.Value{}, false, &InvocationError{Kind: KindUnknownCommand, Command: m.Command, Err: ErrUnknownCommand}
	}

	args, err := literal.Parse(m.RawParams)
	if err != nil {
		return literal.Value{}, false, &InvocationError{Kind: KindArgumentSyntax, Command: m.Command, Err: err}
	}

	bound, err := commands.Bind(desc, args)
	if err != nil {
		return literal.Value{}, false, &InvocationError{Kind: KindInvocationFailure, Command: m.Command, Err: err}
	}

	if desc.Cacheable && i.cache != nil {
		if v, hit := i.cache.get(desc.Name, bound); hit {
			return v, true, nil
		}
	}

	v, err := call(ctx, desc, bound)
	if err != nil {
		return literal.Value{}, false, &InvocationError{Kind: KindInvocationFailure, Command: m.Command, Err: err}
	}
	if desc.Cacheable && i.cache != nil {
		i.cache.put(desc.Name, bound, v)
	}
	return v, false, nil
}

// call runs the command, converting a panic into an error.
func call(ctx context.Context, desc commands.Descriptor, args literal.Args) (v literal.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return desc.Invoke(ctx, args)
}
