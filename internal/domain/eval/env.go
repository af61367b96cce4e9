package eval

import (
	"math"

	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

// Globals is the persistent variable layer, mutated only by assignment
// and definition nodes evaluated at the top level.
type Globals struct {
	vars map[string]value.Result
}

// NewGlobals creates an empty global environment.
func NewGlobals() *Globals {
	return &Globals{vars: map[string]value.Result{}}
}

// Get looks up a global binding.
func (g *Globals) Get(name string) (value.Result, bool) {
	r, ok := g.vars[name]
	return r, ok
}

// Set binds name in the global layer.
func (g *Globals) Set(name string, r value.Result) {
	g.vars[name] = r
}

// Clear drops every user binding. Constants are resolved on a separate
// layer and survive.
func (g *Globals) Clear() {
	g.vars = map[string]value.Result{}
}

// constants is the read-only third lookup layer.
var constants = map[string]value.Result{
	"pi":    value.NewNumeric(math.Pi),
	"e":     value.NewNumeric(math.E),
	"hbar":  value.NewNumeric(1.054571817e-34),
	"gamma": value.NewNumeric(0.5772156649015329),
	"i":     value.NewComplex(complex(0, 1)),
	"infty": value.NewNumeric(math.Inf(1)),
	"inf":   value.NewNumeric(math.Inf(1)),
}

// Constant resolves a built-in constant by name.
func Constant(name string) (value.Result, bool) {
	r, ok := constants[name]
	return r, ok
}

// env is the chained lookup scope used during one evaluation: a stack
// of local frames over the globals, with constants as the final layer.
type env struct {
	locals  map[string]value.Result
	parent  *env
	globals *Globals
}

func newEnv(globals *Globals, locals map[string]value.Result) *env {
	return &env{locals: locals, globals: globals}
}

// child pushes a fresh local frame (function call, loop index binding).
func (e *env) child(locals map[string]value.Result) *env {
	return &env{locals: locals, parent: e, globals: e.globals}
}

// lookup resolves locals first, then globals, then constants.
func (e *env) lookup(name string) (value.Result, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if scope.locals != nil {
			if r, ok := scope.locals[name]; ok {
				return r, true
			}
		}
	}
	if e.globals != nil {
		if r, ok := e.globals.Get(name); ok {
			return r, true
		}
	}
	return Constant(name)
}
