package interpreter

import (
	"errors"
	"testing"

	"cmdrelay/internal/literal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMatches(t *testing.T) {
	tests := []struct {
		name string
		span string
		want []Match
	}{
		{name: "none", span: "nothing here"},
		{
			name: "single",
			span: "It is COMMAND: get_time() now",
			want: []Match{{Command: "get_time", Text: "COMMAND: get_time()", Start: 6, End: 25}},
		},
		{
			name: "no space and params",
			span: "COMMAND:add(a=1, b=2)",
			want: []Match{{Command: "add", RawParams: "a=1, b=2", Text: "COMMAND:add(a=1, b=2)", Start: 0, End: 21}},
		},
		{
			name: "newline between token and name",
			span: "COMMAND:\n\techo(text='x')",
			want: []Match{{Command: "echo", RawParams: "text='x'", Text: "COMMAND:\n\techo(text='x')", Start: 0, End: 24}},
		},
		{
			name: "two in a row",
			span: "COMMAND: a()COMMAND: b()",
			want: []Match{
				{Command: "a", Text: "COMMAND: a()", Start: 0, End: 12},
				{Command: "b", Text: "COMMAND: b()", Start: 12, End: 24},
			},
		},
		{name: "lowercase token", span: "command: a()"},
		{name: "space before paren", span: "COMMAND: a ()"},
		{name: "hyphenated name", span: "COMMAND: get-time()"},
		{name: "unclosed", span: "COMMAND: a(x=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindMatches(tt.span))
		})
	}
}

func TestInvocationErrorClassification(t *testing.T) {
	unknown := &InvocationError{Kind: KindUnknownCommand, Command: "nope", Err: ErrUnknownCommand}
	assert.Equal(t, "[ERROR: Unknown command 'nope']", unknown.Marker())
	assert.True(t, errors.Is(unknown, ErrUnknownCommand))
	assert.False(t, errors.Is(unknown, ErrInvocationFailure))

	_, perr := literal.Parse("x=y")
	require.Error(t, perr)
	syntax := &InvocationError{Kind: KindArgumentSyntax, Command: "echo", Err: perr}
	assert.True(t, errors.Is(syntax, literal.ErrArgumentSyntax))
	var se *literal.SyntaxError
	assert.True(t, errors.As(syntax, &se))
	assert.Equal(t, "[ERROR: echo() failed - "+perr.Error()+"]", syntax.Marker())

	failure := &InvocationError{Kind: KindInvocationFailure, Command: "boom", Err: errors.New("bad")}
	assert.Equal(t, "[ERROR: boom() failed - bad]", failure.Marker())
	assert.Equal(t, "boom() failed - bad", failure.Error())
	assert.True(t, errors.Is(failure, ErrInvocationFailure))

	assert.Equal(t, "argument_syntax", KindArgumentSyntax.String())
	assert.Equal(t, OutcomeArgumentSyntax, outcomeFor(KindArgumentSyntax))
}

func TestCacheKeyIsOrderIndependent(t *testing.T) {
	a := literal.Args{"x": literal.Int(1), "y": literal.String("s")}
	b := literal.Args{"y": literal.String("s"), "x": literal.Int(1)}
	assert.Equal(t, cacheKey("f", a), cacheKey("f", b))
	assert.Equal(t, "f(x=1, y='s')", cacheKey("f", a))
	assert.NotEqual(t, cacheKey("f", a), cacheKey("g", a))
	assert.Equal(t, "f()", cacheKey("f", nil))
}
