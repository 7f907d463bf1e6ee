package builtins

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cmdrelay/internal/literal"

	"github.com/kaptinlin/jsonrepair"
	"github.com/pkoukk/tiktoken-go"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// tokenEncoding loads cl100k_base on first use. It stays nil when the
// vocabulary cannot be loaded, and counts fall back to EstimateTokens.
func tokenEncoding() *tiktoken.Tiktoken {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	return encoding
}

// CountTokens returns the cl100k_base token count of text.
func CountTokens(text string) int {
	if enc := tokenEncoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return EstimateTokens(text)
}

// EstimateTokens is max(runes/4, words), and at least 1 for non-blank text.
func EstimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	estimate := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); estimate < words {
		estimate = words
	}
	return max(estimate, 1)
}

func countTokens(_ context.Context, args literal.Args) (literal.Value, error) {
	text, err := stringArg(args, "text")
	if err != nil {
		return literal.Value{}, err
	}
	return literal.Int(int64(CountTokens(text))), nil
}

// Patch returns the diff-match-patch patch text turning old into updated,
// or "" when they are equal.
func Patch(old, updated string) string {
	if old == updated {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(old, updated, false))
	return dmp.PatchToText(dmp.PatchMake(old, diffs))
}

func diffText(_ context.Context, args literal.Args) (literal.Value, error) {
	old, err := stringArg(args, "old")
	if err != nil {
		return literal.Value{}, err
	}
	updated, err := stringArg(args, "new")
	if err != nil {
		return literal.Value{}, err
	}
	patch := Patch(old, updated)
	if patch == "" {
		return literal.String("(no changes)"), nil
	}
	return literal.String(patch), nil
}

func repairJSON(_ context.Context, args literal.Args) (literal.Value, error) {
	text, err := stringArg(args, "text")
	if err != nil {
		return literal.Value{}, err
	}
	fixed, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return literal.Value{}, fmt.Errorf("cannot repair JSON: %w", err)
	}
	return literal.String(fixed), nil
}
