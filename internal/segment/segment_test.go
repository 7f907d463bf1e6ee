package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitWithoutFences(t *testing.T) {
	spans := Split("plain text")
	require.Len(t, spans, 1)
	assert.Equal(t, Span{Content: "plain text", Start: 0, End: 10}, spans[0])
}

func TestSplitEmpty(t *testing.T) {
	spans := Split("")
	require.Len(t, spans, 1)
	assert.False(t, spans[0].Verbatim)
	assert.Equal(t, "", spans[0].Content)
}

func TestSplitAlternates(t *testing.T) {
	text := "before ```code\nCOMMAND: x()``` middle ```more``` after"
	spans := Split(text)
	require.Len(t, spans, 5)

	want := []Span{
		{Content: "before ", Start: 0, End: 7},
		{Content: "```code\nCOMMAND: x()```", Verbatim: true, Start: 7, End: 30},
		{Content: " middle ", Start: 30, End: 38},
		{Content: "```more```", Verbatim: true, Start: 38, End: 48},
		{Content: " after", Start: 48, End: 54},
	}
	assert.Equal(t, want, spans)
	assert.Equal(t, text, Join(spans))
}

func TestSplitFenceOnly(t *testing.T) {
	text := "```COMMAND: get_time()```"
	spans := Split(text)
	require.Len(t, spans, 3)
	assert.Equal(t, "", spans[0].Content)
	assert.True(t, spans[1].Verbatim)
	assert.Equal(t, text, spans[1].Content)
	assert.Equal(t, "", spans[2].Content)
}

func TestSplitFencesDoNotNest(t *testing.T) {
	text := "```a```b```c```"
	spans := Split(text)
	require.Len(t, spans, 5)
	assert.Equal(t, "```a```", spans[1].Content)
	assert.Equal(t, "b", spans[2].Content)
	assert.Equal(t, "```c```", spans[3].Content)
}

func TestSplitUnmatchedFenceIsText(t *testing.T) {
	text := "a ```b``` c ```d"
	spans := Split(text)
	require.Len(t, spans, 3)
	assert.Equal(t, " c ```d", spans[2].Content)
	assert.False(t, spans[2].Verbatim)
}

func TestSpansRestartableAndStoppable(t *testing.T) {
	seq := Spans("x ```y``` z")
	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	assert.Equal(t, 3, first)
	assert.Equal(t, first, second)

	seen := 0
	for range seq {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}
