package eval

import (
	"math"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/internal/domain/symbolic"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

// Default resource limits.
const (
	DefaultMaxDepth         = 500
	DefaultIterationCap     = 1_000_000
	DefaultSimpsonIntervals = 1000
	DefaultInfinityBound    = 100
	DefaultLimitHalvings    = 8
)

// Evaluator interprets expression trees against a layered environment.
// It is single-threaded and cooperative: every request terminates
// within a budget predictable from the configured caps.
type Evaluator struct {
	RealOnly         bool
	MaxDepth         int
	IterationCap     int
	SimpsonIntervals int
	InfinityBound    float64
	LimitHalvings    int

	globals  *Globals
	sym      *symbolic.Engine
	handlers []Handler
}

// New creates an evaluator with stock limits and an empty global
// environment.
func New() *Evaluator {
	return &Evaluator{
		MaxDepth:         DefaultMaxDepth,
		IterationCap:     DefaultIterationCap,
		SimpsonIntervals: DefaultSimpsonIntervals,
		InfinityBound:    DefaultInfinityBound,
		LimitHalvings:    DefaultLimitHalvings,
		globals:          NewGlobals(),
		sym:              symbolic.NewEngine(),
	}
}

// Globals exposes the persistent variable layer.
func (ev *Evaluator) Globals() *Globals {
	return ev.globals
}

// Evaluate interprets e with the given caller-supplied locals.
func (ev *Evaluator) Evaluate(e ast.Expr, locals map[string]value.Result) (value.Result, error) {
	return ev.eval(e, newEnv(ev.globals, locals), 0)
}

func (ev *Evaluator) depthError() error {
	return matherr.NewEvaluation("evaluation depth exceeds maximum of %d", ev.MaxDepth)
}

func (ev *Evaluator) eval(e ast.Expr, scope *env, depth int) (value.Result, error) {
	if depth > ev.MaxDepth {
		return value.Result{}, ev.depthError()
	}
	if res, handled, err := ev.applyHandlers(e, scope, depth); handled || err != nil {
		return res, err
	}

	switch x := e.(type) {
	case *ast.NumberLiteral:
		return value.NewNumeric(x.Value), nil

	case *ast.Variable:
		if r, ok := scope.lookup(x.Name); ok {
			return r, nil
		}
		return value.Result{}, matherr.NewEvaluation("undefined identifier %q", x.Name)

	case *ast.UnaryExpr:
		operand, err := ev.eval(x.Operand, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		return negate(operand)

	case *ast.BinaryExpr:
		return ev.evalBinary(x, scope, depth)

	case *ast.FunctionCall:
		return ev.evalFunctionCall(x, scope, depth)

	case *ast.AbsExpr:
		arg, err := ev.eval(x.Arg, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		return absolute(arg)

	case *ast.FactorialExpr:
		operand, err := ev.eval(x.Value, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		n, err := operand.AsNumeric()
		if err != nil {
			return value.Result{}, matherr.NewEvaluation("factorial requires a real operand: %s", err)
		}
		f, err := factorial(n)
		if err != nil {
			return value.Result{}, err
		}
		return value.NewNumeric(f), nil

	case *ast.Comparison:
		return ev.evalComparison(x, scope, depth)

	case *ast.ChainedComparison:
		return ev.evalChainedComparison(x, scope, depth)

	case *ast.LogicExpr:
		return ev.evalLogic(x, scope, depth)

	case *ast.ConditionalExpr:
		cond, err := ev.evalCondition(x.Condition, scope, depth)
		if err != nil {
			return value.Result{}, err
		}
		if !cond {
			return value.NaN(), nil
		}
		return ev.eval(x.Value, scope, depth+1)

	case *ast.PiecewiseExpr:
		for _, c := range x.Cases {
			if c.Condition == nil {
				return ev.eval(c.Value, scope, depth+1)
			}
			ok, err := ev.evalCondition(c.Condition, scope, depth)
			if err != nil {
				return value.Result{}, err
			}
			if ok {
				return ev.eval(c.Value, scope, depth+1)
			}
		}
		return value.NaN(), nil

	case *ast.SumExpr:
		return ev.evalSumProd(x, scope, depth)

	case *ast.LimitExpr:
		return ev.evalLimit(x, scope, depth)

	case *ast.IntegralExpr:
		return ev.evalIntegral(x, scope, depth)

	case *ast.MultiIntegralExpr:
		return ev.evalMultiIntegral(x, scope, depth)

	case *ast.DerivativeExpr:
		return ev.evalDerivative(x, scope, depth)

	case *ast.GradientExpr:
		return ev.evalGradient(x, scope, depth)

	case *ast.BinomExpr:
		return ev.evalBinom(x, scope, depth)

	case *ast.MatrixExpr:
		return ev.evalMatrix(x, scope, depth)

	case *ast.VectorExpr:
		return ev.evalVector(x, scope, depth)

	case *ast.AssignmentExpr:
		val, err := ev.eval(x.Value, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		ev.globals.Set(x.Name, val)
		return val, nil

	case *ast.FunctionDefExpr:
		fn := value.NewFunction(x)
		ev.globals.Set(x.Name, fn)
		return fn, nil
	}

	return value.Result{}, matherr.NewEvaluation("cannot evaluate node of type %T", e)
}

// evalCondition evaluates a guard to a truth value. Numbers are truthy
// iff non-zero; anything else is a type error.
func (ev *Evaluator) evalCondition(cond ast.Expr, scope *env, depth int) (bool, error) {
	r, err := ev.eval(cond, scope, depth+1)
	if err != nil {
		return false, err
	}
	b, err := r.AsBoolean()
	if err != nil {
		return false, matherr.NewEvaluation("condition is not boolean: %s", err)
	}
	return b, nil
}

func (ev *Evaluator) evalComparison(x *ast.Comparison, scope *env, depth int) (value.Result, error) {
	left, err := ev.eval(x.Left, scope, depth+1)
	if err != nil {
		return value.Result{}, err
	}
	right, err := ev.eval(x.Right, scope, depth+1)
	if err != nil {
		return value.Result{}, err
	}
	ok, err := compare(x.Op, left, right)
	if err != nil {
		return value.Result{}, err
	}
	return value.NewBoolean(ok), nil
}

func (ev *Evaluator) evalChainedComparison(x *ast.ChainedComparison, scope *env, depth int) (value.Result, error) {
	results := make([]value.Result, len(x.Exprs))
	for i, e := range x.Exprs {
		r, err := ev.eval(e, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		results[i] = r
	}
	for i, op := range x.Ops {
		ok, err := compare(op, results[i], results[i+1])
		if err != nil {
			return value.Result{}, err
		}
		if !ok {
			return value.NewBoolean(false), nil
		}
	}
	return value.NewBoolean(true), nil
}

func (ev *Evaluator) evalLogic(x *ast.LogicExpr, scope *env, depth int) (value.Result, error) {
	truths := make([]bool, len(x.Operands))
	for i, operand := range x.Operands {
		b, err := ev.evalCondition(operand, scope, depth)
		if err != nil {
			return value.Result{}, err
		}
		truths[i] = b
	}
	switch x.Op {
	case "not":
		return value.NewBoolean(!truths[0]), nil
	case "and":
		return value.NewBoolean(truths[0] && truths[1]), nil
	case "or":
		return value.NewBoolean(truths[0] || truths[1]), nil
	case "xor":
		return value.NewBoolean(truths[0] != truths[1]), nil
	case "implies":
		return value.NewBoolean(!truths[0] || truths[1]), nil
	case "iff":
		return value.NewBoolean(truths[0] == truths[1]), nil
	}
	return value.Result{}, matherr.NewEvaluation("unknown logic operator %q", x.Op)
}

// maxDerivativeOrder bounds repeated differentiation.
const maxDerivativeOrder = 10

func (ev *Evaluator) evalDerivative(x *ast.DerivativeExpr, scope *env, depth int) (value.Result, error) {
	if x.Order < 1 || x.Order > maxDerivativeOrder {
		return value.Result{}, matherr.NewEvaluation("derivative order %d out of range [1, %d]", x.Order, maxDerivativeOrder)
	}
	body := ev.inlineUserFunctions(x.Body, depth)
	derived, err := ev.sym.Differentiate(body, x.Var, x.Order)
	if err != nil {
		return value.Result{}, err
	}
	return ev.eval(derived, scope, depth+1)
}

func (ev *Evaluator) evalGradient(x *ast.GradientExpr, scope *env, depth int) (value.Result, error) {
	body := ev.inlineUserFunctions(x.Body, depth)
	vars := ast.Variables(body)
	if len(vars) == 0 {
		return value.NewVector(nil), nil
	}
	components := make([]float64, len(vars))
	for i, name := range vars {
		derived, err := ev.sym.Differentiate(body, name, 1)
		if err != nil {
			return value.Result{}, err
		}
		r, err := ev.eval(derived, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		n, err := r.AsNumeric()
		if err != nil {
			return value.Result{}, matherr.NewEvaluation("gradient component for %q is not numeric: %s", name, err)
		}
		components[i] = n
	}
	return value.NewVector(components), nil
}

func (ev *Evaluator) evalBinom(x *ast.BinomExpr, scope *env, depth int) (value.Result, error) {
	nRes, err := ev.eval(x.N, scope, depth+1)
	if err != nil {
		return value.Result{}, err
	}
	kRes, err := ev.eval(x.K, scope, depth+1)
	if err != nil {
		return value.Result{}, err
	}
	n, err := nRes.AsNumeric()
	if err != nil {
		return value.Result{}, matherr.NewEvaluation("binomial requires real operands: %s", err)
	}
	k, err := kRes.AsNumeric()
	if err != nil {
		return value.Result{}, matherr.NewEvaluation("binomial requires real operands: %s", err)
	}
	b, err := binomial(n, k)
	if err != nil {
		return value.Result{}, err
	}
	return value.NewNumeric(b), nil
}

func (ev *Evaluator) evalMatrix(x *ast.MatrixExpr, scope *env, depth int) (value.Result, error) {
	rows := len(x.Rows)
	if rows == 0 {
		return value.Result{}, matherr.NewEvaluation("empty matrix")
	}
	cols := len(x.Rows[0])
	data := make([]float64, 0, rows*cols)
	for _, row := range x.Rows {
		if len(row) != cols {
			return value.Result{}, matherr.NewEvaluation("matrix rows have unequal width")
		}
		for _, cell := range row {
			r, err := ev.eval(cell, scope, depth+1)
			if err != nil {
				return value.Result{}, err
			}
			n, err := r.AsNumeric()
			if err != nil {
				return value.Result{}, matherr.NewEvaluation("matrix cell is not numeric: %s", err)
			}
			data = append(data, n)
		}
	}
	m := value.NewMatrix(data, rows, cols)
	// A vmatrix environment denotes the determinant of its contents.
	if x.Style == "vmatrix" {
		d, err := determinant(m)
		if err != nil {
			return value.Result{}, err
		}
		return value.NewNumeric(d), nil
	}
	return m, nil
}

func (ev *Evaluator) evalVector(x *ast.VectorExpr, scope *env, depth int) (value.Result, error) {
	comps := make([]float64, len(x.Components))
	for i, c := range x.Components {
		r, err := ev.eval(c, scope, depth+1)
		if err != nil {
			return value.Result{}, err
		}
		n, err := r.AsNumeric()
		if err != nil {
			return value.Result{}, matherr.NewEvaluation("vector component is not numeric: %s", err)
		}
		comps[i] = n
	}
	if x.Unit {
		mag := 0.0
		for _, c := range comps {
			mag += c * c
		}
		mag = math.Sqrt(mag)
		if mag == 0 {
			return value.Result{}, matherr.NewEvaluation("cannot normalize the zero vector")
		}
		for i := range comps {
			comps[i] /= mag
		}
	}
	return value.NewVector(comps), nil
}

// inlineUserFunctions substitutes user-defined function bodies into a
// tree so the symbolic passes can see through the call. Cycles are cut
// by the depth budget.
func (ev *Evaluator) inlineUserFunctions(e ast.Expr, depth int) ast.Expr {
	if depth > ev.MaxDepth {
		return e
	}
	fc, ok := e.(*ast.FunctionCall)
	if ok {
		if r, found := ev.globals.Get(fc.Name); found {
			if def, err := r.AsFunction(); err == nil && len(def.Params) == 1 {
				body := ast.Substitute(def.Body, def.Params[0], fc.Arg)
				return ev.inlineUserFunctions(body, depth+1)
			}
		}
	}
	return ast.Map(e, func(c ast.Expr) ast.Expr {
		return ev.inlineUserFunctions(c, depth+1)
	})
}
