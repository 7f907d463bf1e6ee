package interpreter

import "regexp"

// Token introduces an invocation in model output.
const Token = "COMMAND:"

// invocationPattern: token, optional whitespace, identifier, and a
// parenthesised body that cannot itself contain ')'.
var invocationPattern = regexp.MustCompile(`COMMAND:\s*([A-Za-z0-9_]+)\(([^)]*)\)`)

// Match is one invocation token found in a span. Start and End are byte
// offsets of the full token text.
type Match struct {
	Command   string `json:"command"`
	RawParams string `json:"raw_params"`
	Text      string `json:"text"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// FindMatches returns every invocation token in span, left to right.
// Matches never overlap.
func FindMatches(span string) []Match {
	locs := invocationPattern.FindAllStringSubmatchIndex(span, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Match{
			Command:   span[loc[2]:loc[3]],
			RawParams: span[loc[4]:loc[5]],
			Text:      span[loc[0]:loc[1]],
			Start:     loc[0],
			End:       loc[1],
		})
	}
	return out
}

func (m Match) shift(offset int) Match {
	m.Start += offset
	m.End += offset
	return m
}
