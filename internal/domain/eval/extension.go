package eval

import (
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

// Recur re-enters the evaluator on a sub-expression within the current
// environment and depth budget.
type Recur func(e ast.Expr) (value.Result, error)

// Handler is an extension evaluator. It inspects the node and either
// produces a result (handled=true) or falls through to the next
// handler and finally the built-ins (handled=false).
type Handler func(e ast.Expr, locals map[string]value.Result, recur Recur) (result value.Result, handled bool, err error)

// RegisterHandler appends a handler to the chain. Handlers compose in
// registration order; built-ins act as the final fallback.
func (ev *Evaluator) RegisterHandler(h Handler) {
	ev.handlers = append(ev.handlers, h)
}

// applyHandlers runs the handler chain for one node. The first handler
// that reports handled wins.
func (ev *Evaluator) applyHandlers(e ast.Expr, scope *env, depth int) (value.Result, bool, error) {
	if len(ev.handlers) == 0 {
		return value.Result{}, false, nil
	}
	recur := func(sub ast.Expr) (value.Result, error) {
		return ev.eval(sub, scope, depth+1)
	}
	for _, h := range ev.handlers {
		res, handled, err := h(e, scope.locals, recur)
		if err != nil {
			return value.Result{}, true, err
		}
		if handled {
			return res, true, nil
		}
	}
	return value.Result{}, false, nil
}
