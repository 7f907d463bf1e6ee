// Package assistant connects a language model to the command interpreter:
// every model reply is scanned for invocation tokens before it is shown.
package assistant

import (
	"context"
	"strings"

	"cmdrelay/internal/interpreter"
	"cmdrelay/internal/logging"
	"cmdrelay/internal/ports"
)

// exitWords end an interactive session.
var exitWords = map[string]struct{}{
	"quit": {},
	"exit": {},
	"q":    {},
}

// IsExit reports whether input asks to end the session.
func IsExit(input string) bool {
	_, ok := exitWords[strings.ToLower(strings.TrimSpace(input))]
	return ok
}

// Turn is one exchange with the model.
type Turn struct {
	// Raw is the model's reply before substitution.
	Raw string
	// Reply is what the user sees.
	Reply  string
	Report *interpreter.Report
}

// Assistant is not safe for concurrent use; it shares the interpreter's
// constraints.
type Assistant struct {
	client ports.LLMClient
	interp *interpreter.Interpreter
	budget int
	logger logging.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithBudget sets the per-span invocation budget applied to replies.
func WithBudget(n int) Option {
	return func(a *Assistant) { a.budget = n }
}

func WithLogger(logger logging.Logger) Option {
	return func(a *Assistant) { a.logger = logging.OrNop(logger) }
}

func New(client ports.LLMClient, interp *interpreter.Interpreter, opts ...Option) *Assistant {
	a := &Assistant{
		client: client,
		interp: interp,
		budget: interp.DefaultBudget(),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Model returns the underlying model name.
func (a *Assistant) Model() string {
	return a.client.Model()
}

// Reply sends message to the model and returns the processed answer.
// Model failures come back as "Error generating text: ..." rather than an
// error so the conversation can continue.
func (a *Assistant) Reply(ctx context.Context, message string) string {
	return a.Respond(ctx, message).Reply
}

// Respond is Reply with the raw model text and the invocation report.
func (a *Assistant) Respond(ctx context.Context, message string) Turn {
	logger := logging.FromContext(ctx, a.logger)

	resp, err := a.client.Generate(ctx, ports.GenerateRequest{
		Prompt:            message,
		SystemInstruction: a.interp.SystemPrompt(),
	})
	if err != nil {
		logger.Warn("model request failed: %v", err)
		text := "Error generating text: " + err.Error()
		return Turn{Raw: text, Reply: text}
	}

	turn := Turn{Raw: resp.Text, Reply: resp.Text}
	report, err := a.interp.ProcessReport(ctx, resp.Text, a.budget)
	if err != nil {
		// The reply is shown unprocessed rather than dropped.
		logger.Warn("reply left unprocessed: %v", err)
		return turn
	}
	turn.Reply = report.Output
	turn.Report = report
	if n := len(report.Invocations); n > 0 {
		logger.Debug("reply carried %d invocation(s), %d ok", n, report.Count(interpreter.OutcomeOK))
	}
	return turn
}
