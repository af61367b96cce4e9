package texmath

import (
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

// TokenKind names the shapes an extension command rule can produce.
type TokenKind int

const (
	// TokenFunction makes the command parse like the built-in
	// function commands (\sin-style argument handling).
	TokenFunction TokenKind = iota
	// TokenIdentifier makes the command read as a flat identifier.
	TokenIdentifier
	// TokenNumber makes the command read as a numeric literal.
	TokenNumber
)

// CommandToken is the token an extension rule yields.
type CommandToken struct {
	Kind TokenKind
	Text string
}

// CommandRule supplies the token for an unknown command, given the
// command name and its byte position in the source.
type CommandRule func(name string, pos int) CommandToken

// Recur re-enters the evaluator on a sub-expression.
type Recur func(e ast.Expr) (value.Result, error)

// Handler is an extension evaluator: it inspects a node and either
// produces a result (handled=true, taking precedence over built-ins)
// or falls through (handled=false). Handlers compose in registration
// order; built-ins act as the final fallback.
type Handler func(e ast.Expr, locals map[string]value.Result, recur Recur) (result value.Result, handled bool, err error)

// Extensions bundles the two optional extension hooks.
type Extensions struct {
	commands   map[string]CommandRule
	evaluators []Handler
}

// NewExtensions creates an empty registry.
func NewExtensions() *Extensions {
	return &Extensions{commands: map[string]CommandRule{}}
}

// RegisterCommand installs a tokenizer rule for an unknown command
// name. It is consulted only when the normal catalogue does not know
// the name.
func (x *Extensions) RegisterCommand(name string, rule CommandRule) {
	x.commands[name] = rule
}

// RegisterEvaluator appends an evaluation handler.
func (x *Extensions) RegisterEvaluator(h Handler) {
	x.evaluators = append(x.evaluators, h)
}
