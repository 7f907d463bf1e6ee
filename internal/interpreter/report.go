package interpreter

import "time"

// Outcome is the result class of one invocation token.
type Outcome string

const (
	OutcomeOK                Outcome = "ok"
	OutcomeSkipped           Outcome = "skipped"
	OutcomeUnknownCommand    Outcome = "unknown_command"
	OutcomeArgumentSyntax    Outcome = "argument_syntax"
	OutcomeInvocationFailure Outcome = "invocation_failure"
)

func outcomeFor(kind ErrorKind) Outcome {
	switch kind {
	case KindUnknownCommand:
		return OutcomeUnknownCommand
	case KindArgumentSyntax:
		return OutcomeArgumentSyntax
	default:
		return OutcomeInvocationFailure
	}
}

// Invocation records what happened to one token. Match offsets refer to
// the input text.
type Invocation struct {
	Match       Match         `json:"match"`
	Outcome     Outcome       `json:"outcome"`
	Replacement string        `json:"replacement"`
	Error       string        `json:"error,omitempty"`
	Cached      bool          `json:"cached,omitempty"`
	Duration    time.Duration `json:"duration_ns"`

	Err error `json:"-"`
}

// Report is the output of one pass with its invocations in text order.
type Report struct {
	Output      string       `json:"output"`
	Invocations []Invocation `json:"invocations"`
}

// Count returns how many invocations ended with outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, inv := range r.Invocations {
		if inv.Outcome == outcome {
			n++
		}
	}
	return n
}
