// Package matherr defines the error kinds shared by the tokenizer,
// parser and evaluator. Every error carries a human-readable message,
// a byte position when one is available, and an optional suggestion.
package matherr

import (
	"fmt"
	"strings"
)

// Kind discriminates the three error families.
type Kind int

const (
	Tokenization Kind = iota
	Parse
	Evaluation
)

func (k Kind) String() string {
	switch k {
	case Tokenization:
		return "tokenization error"
	case Parse:
		return "parse error"
	case Evaluation:
		return "evaluation error"
	default:
		return fmt.Sprintf("unknown error kind (%d)", int(k))
	}
}

// MathError is the common supertype of all errors raised by the
// pipeline. Pos is a byte offset into the source, or -1 when no
// position applies (pure tree operations).
type MathError struct {
	Kind       Kind
	Message    string
	Pos        int
	Suggestion string
}

func (e *MathError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Pos >= 0 {
		fmt.Fprintf(&sb, " at pos %d", e.Pos)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, " (%s)", e.Suggestion)
	}
	return sb.String()
}

// NewTokenization creates a TokenizationError.
func NewTokenization(pos int, format string, args ...any) *MathError {
	return &MathError{Kind: Tokenization, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// NewParse creates a ParseError.
func NewParse(pos int, format string, args ...any) *MathError {
	return &MathError{Kind: Parse, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// NewEvaluation creates an EvaluationError. Evaluation errors usually
// have no source position.
func NewEvaluation(format string, args ...any) *MathError {
	return &MathError{Kind: Evaluation, Pos: -1, Message: fmt.Sprintf(format, args...)}
}

// WithSuggestion attaches a best-effort suggestion and returns the
// error for chaining.
func (e *MathError) WithSuggestion(s string) *MathError {
	e.Suggestion = s
	return e
}

// IsKind reports whether err is a MathError of the given kind.
func IsKind(err error, k Kind) bool {
	me, ok := err.(*MathError)
	return ok && me.Kind == k
}

// Nearest returns the candidate within edit distance 2 of name, or ""
// when no candidate is close enough. Ties resolve to the candidate
// with the smaller distance, then to the earlier one in the list.
func Nearest(name string, candidates []string) string {
	best := ""
	bestDist := 3
	for _, c := range candidates {
		if d := editDistance(name, c); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// editDistance computes the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
