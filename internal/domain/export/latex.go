// Package export implements the stateless tree walks that re-serialize
// expression trees: canonical TeX, presentation MathML, a JSON tree
// dump, and SymPy surface syntax. Every writer is pure and depth
// bounded.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// MaxDepth bounds every export walk.
const MaxDepth = 500

// Writer precedence levels, mirroring the parser's ladder.
const (
	precLowest = iota
	precIff
	precImplies
	precOr
	precXor
	precAnd
	precNot
	precCompare
	precAdd
	precMul
	precUnary
	precPow
	precPostfix
)

var greekNames = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true,
	"epsilon": true, "varepsilon": true, "zeta": true, "eta": true,
	"theta": true, "vartheta": true, "iota": true, "kappa": true,
	"lambda": true, "mu": true, "nu": true, "xi": true, "omicron": true,
	"pi": true, "rho": true, "sigma": true, "tau": true, "upsilon": true,
	"phi": true, "varphi": true, "chi": true, "psi": true, "omega": true,
	"Gamma": true, "Delta": true, "Theta": true, "Lambda": true,
	"Xi": true, "Pi": true, "Sigma": true, "Upsilon": true, "Phi": true,
	"Psi": true, "Omega": true, "infty": true, "hbar": true, "ell": true,
}

// Latex serializes a tree back to a canonical TeX source form.
// Parsing the output yields a structurally equal tree.
func Latex(e ast.Expr) (string, error) {
	var sb strings.Builder
	if err := writeLatex(&sb, e, precLowest, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func depthExceeded() error {
	return matherr.NewEvaluation("export depth exceeds maximum of %d", MaxDepth)
}

func latexNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func latexName(name string) string {
	if colon := strings.IndexByte(name, ':'); colon >= 0 {
		return `\` + name[:colon] + `{` + name[colon+1:] + `}`
	}
	base := name
	if under := strings.IndexByte(name, '_'); under >= 0 {
		base = name[:under]
	}
	if greekNames[base] {
		out := `\` + base
		if base != name {
			out += name[len(base):]
		}
		return out
	}
	return name
}

func writeLatex(sb *strings.Builder, e ast.Expr, parent, depth int) error {
	if depth > MaxDepth {
		return depthExceeded()
	}

	wrap := func(prec int, inner func() error) error {
		if prec < parent {
			sb.WriteString("(")
			if err := inner(); err != nil {
				return err
			}
			sb.WriteString(")")
			return nil
		}
		return inner()
	}
	braced := func(sub ast.Expr) error {
		sb.WriteString("{")
		if err := writeLatex(sb, sub, precLowest, depth+1); err != nil {
			return err
		}
		sb.WriteString("}")
		return nil
	}

	switch x := e.(type) {
	case *ast.NumberLiteral:
		if x.Value < 0 {
			return wrap(precUnary, func() error {
				sb.WriteString(latexNumber(x.Value))
				return nil
			})
		}
		sb.WriteString(latexNumber(x.Value))
		return nil

	case *ast.Variable:
		sb.WriteString(latexName(x.Name))
		return nil

	case *ast.UnaryExpr:
		return wrap(precUnary, func() error {
			sb.WriteString("-")
			return writeLatex(sb, x.Operand, precUnary, depth+1)
		})

	case *ast.BinaryExpr:
		switch x.Op {
		case "+", "-":
			return wrap(precAdd, func() error {
				if err := writeLatex(sb, x.Left, precAdd, depth+1); err != nil {
					return err
				}
				sb.WriteString(" " + x.Op + " ")
				return writeLatex(sb, x.Right, precAdd+1, depth+1)
			})
		case "*", "dot", "cross":
			op := " * "
			switch x.Op {
			case "dot":
				op = ` \cdot `
			case "cross":
				op = ` \times `
			}
			return wrap(precMul, func() error {
				if err := writeLatex(sb, x.Left, precMul, depth+1); err != nil {
					return err
				}
				sb.WriteString(op)
				return writeLatex(sb, x.Right, precMul+1, depth+1)
			})
		case "/":
			sb.WriteString(`\frac`)
			if err := braced(x.Left); err != nil {
				return err
			}
			return braced(x.Right)
		case "^":
			return wrap(precPow, func() error {
				if err := writeLatex(sb, x.Left, precPow+1, depth+1); err != nil {
					return err
				}
				sb.WriteString("^")
				return braced(x.Right)
			})
		}
		return matherr.NewEvaluation("cannot serialize operator %q", x.Op)

	case *ast.FunctionCall:
		return writeLatexFunction(sb, x, depth)

	case *ast.AbsExpr:
		sb.WriteString("|")
		if err := writeLatex(sb, x.Arg, precLowest, depth+1); err != nil {
			return err
		}
		sb.WriteString("|")
		return nil

	case *ast.FactorialExpr:
		return wrap(precPostfix, func() error {
			if err := writeLatex(sb, x.Value, precPostfix+1, depth+1); err != nil {
				return err
			}
			sb.WriteString("!")
			return nil
		})

	case *ast.Comparison:
		return wrap(precCompare, func() error {
			if err := writeLatex(sb, x.Left, precCompare, depth+1); err != nil {
				return err
			}
			sb.WriteString(" " + latexComparisonOp(x.Op) + " ")
			return writeLatex(sb, x.Right, precCompare+1, depth+1)
		})

	case *ast.ChainedComparison:
		return wrap(precCompare, func() error {
			for i, sub := range x.Exprs {
				if i > 0 {
					sb.WriteString(" " + latexComparisonOp(x.Ops[i-1]) + " ")
				}
				if err := writeLatex(sb, sub, precCompare+1, depth+1); err != nil {
					return err
				}
			}
			return nil
		})

	case *ast.LogicExpr:
		return writeLatexLogic(sb, x, parent, depth)

	case *ast.ConditionalExpr:
		if err := writeLatex(sb, x.Value, precLowest, depth+1); err != nil {
			return err
		}
		sb.WriteString(", ")
		return writeLatex(sb, x.Condition, precLowest, depth+1)

	case *ast.PiecewiseExpr:
		sb.WriteString(`\begin{cases} `)
		for i, c := range x.Cases {
			if i > 0 {
				sb.WriteString(` \\ `)
			}
			if err := writeLatex(sb, c.Value, precLowest, depth+1); err != nil {
				return err
			}
			sb.WriteString(" & ")
			if c.Condition == nil {
				sb.WriteString(`\text{otherwise}`)
			} else if err := writeLatex(sb, c.Condition, precLowest, depth+1); err != nil {
				return err
			}
		}
		sb.WriteString(` \end{cases}`)
		return nil

	case *ast.SumExpr:
		return wrap(precLowest+1, func() error {
			if x.IsProduct {
				sb.WriteString(`\prod_{`)
			} else {
				sb.WriteString(`\sum_{`)
			}
			sb.WriteString(x.Var + "=")
			if x.Lower != nil {
				if err := writeLatex(sb, x.Lower, precLowest, depth+1); err != nil {
					return err
				}
			}
			sb.WriteString("}")
			if x.Upper != nil {
				sb.WriteString("^")
				if err := braced(x.Upper); err != nil {
					return err
				}
			}
			sb.WriteString(" ")
			return writeLatex(sb, x.Body, precLowest, depth+1)
		})

	case *ast.LimitExpr:
		return wrap(precLowest+1, func() error {
			sb.WriteString(`\lim_{` + latexName(x.Var) + ` \to `)
			if err := writeLatex(sb, x.Approaches, precLowest, depth+1); err != nil {
				return err
			}
			if x.Side != "" {
				sb.WriteString("^" + x.Side)
			}
			sb.WriteString("} ")
			return writeLatex(sb, x.Body, precLowest, depth+1)
		})

	case *ast.IntegralExpr:
		return wrap(precLowest+1, func() error {
			if x.Closed {
				sb.WriteString(`\oint`)
			} else {
				sb.WriteString(`\int`)
			}
			if x.Lower != nil && x.Upper != nil {
				sb.WriteString("_")
				if err := braced(x.Lower); err != nil {
					return err
				}
				sb.WriteString("^")
				if err := braced(x.Upper); err != nil {
					return err
				}
			}
			sb.WriteString(" ")
			if err := braced(x.Body); err != nil {
				return err
			}
			sb.WriteString(" d" + latexName(x.Var))
			return nil
		})

	case *ast.MultiIntegralExpr:
		return wrap(precLowest+1, func() error {
			if x.Order == 2 {
				sb.WriteString(`\iint`)
			} else {
				sb.WriteString(`\iiint`)
			}
			if len(x.Lowers) > 0 && x.Lowers[0] != nil {
				sb.WriteString("_")
				if err := braced(x.Lowers[0]); err != nil {
					return err
				}
			}
			if len(x.Uppers) > 0 && x.Uppers[0] != nil {
				sb.WriteString("^")
				if err := braced(x.Uppers[0]); err != nil {
					return err
				}
			}
			sb.WriteString(" ")
			if err := braced(x.Body); err != nil {
				return err
			}
			for _, v := range x.Vars {
				sb.WriteString(" d" + latexName(v))
			}
			return nil
		})

	case *ast.DerivativeExpr:
		head, tail := "d", "d"
		if x.IsPartial {
			head, tail = `\partial`, `\partial `
		}
		sb.WriteString(`\frac{` + head)
		if x.Order > 1 {
			sb.WriteString(fmt.Sprintf("^{%d}", x.Order))
		}
		sb.WriteString("}{" + tail + x.Var)
		if x.Order > 1 {
			sb.WriteString(fmt.Sprintf("^{%d}", x.Order))
		}
		sb.WriteString("}")
		return braced(x.Body)

	case *ast.GradientExpr:
		sb.WriteString(`\nabla `)
		return braced(x.Body)

	case *ast.BinomExpr:
		sb.WriteString(`\binom`)
		if err := braced(x.N); err != nil {
			return err
		}
		return braced(x.K)

	case *ast.MatrixExpr:
		sb.WriteString(`\begin{` + x.Style + `} `)
		for i, row := range x.Rows {
			if i > 0 {
				sb.WriteString(` \\ `)
			}
			for j, cell := range row {
				if j > 0 {
					sb.WriteString(" & ")
				}
				if err := writeLatex(sb, cell, precLowest, depth+1); err != nil {
					return err
				}
			}
		}
		sb.WriteString(` \end{` + x.Style + `}`)
		return nil

	case *ast.VectorExpr:
		if x.Unit {
			sb.WriteString(`\hat{`)
		} else {
			sb.WriteString(`\vec{`)
		}
		for i, c := range x.Components {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeLatex(sb, c, precLowest, depth+1); err != nil {
				return err
			}
		}
		sb.WriteString("}")
		return nil

	case *ast.AssignmentExpr:
		sb.WriteString("let " + x.Name + " = ")
		return writeLatex(sb, x.Value, precLowest, depth+1)

	case *ast.FunctionDefExpr:
		sb.WriteString(x.Name + "(" + strings.Join(x.Params, ", ") + ") = ")
		return writeLatex(sb, x.Body, precLowest, depth+1)
	}

	return matherr.NewEvaluation("cannot serialize node of type %T", e)
}

func latexComparisonOp(op string) string {
	switch op {
	case "<=":
		return `\le`
	case ">=":
		return `\ge`
	case "!=":
		return `\ne`
	case "in":
		return `\in`
	}
	return op
}

var latexFunctionCommands = map[string]bool{
	"sin": true, "cos": true, "tan": true, "sec": true, "csc": true,
	"cot": true, "arcsin": true, "arccos": true, "arctan": true,
	"sinh": true, "cosh": true, "tanh": true, "ln": true, "exp": true,
	"abs": true, "floor": true, "ceil": true, "det": true, "tr": true,
}

func writeLatexFunction(sb *strings.Builder, x *ast.FunctionCall, depth int) error {
	if depth > MaxDepth {
		return depthExceeded()
	}
	braced := func(sub ast.Expr) error {
		sb.WriteString("{")
		if err := writeLatex(sb, sub, precLowest, depth+1); err != nil {
			return err
		}
		sb.WriteString("}")
		return nil
	}

	switch {
	case x.Name == "sqrt":
		sb.WriteString(`\sqrt`)
		if x.Index != nil {
			sb.WriteString("[")
			if err := writeLatex(sb, x.Index, precLowest, depth+1); err != nil {
				return err
			}
			sb.WriteString("]")
		}
		return braced(x.Arg)

	case x.Name == "log":
		sb.WriteString(`\log`)
		if x.Base != nil {
			sb.WriteString("_")
			if err := braced(x.Base); err != nil {
				return err
			}
		}
		return braced(x.Arg)

	case x.Name == "transpose":
		if err := writeLatex(sb, x.Arg, precPow+1, depth+1); err != nil {
			return err
		}
		sb.WriteString("^T")
		return nil

	case x.Name == "norm":
		sb.WriteString(`\|`)
		if err := writeLatex(sb, x.Arg, precLowest, depth+1); err != nil {
			return err
		}
		sb.WriteString(`\|`)
		return nil

	case x.Name == "min" || x.Name == "max" || x.Name == "gcd":
		sb.WriteString(`\` + x.Name + `(`)
		if err := writeLatex(sb, x.Arg, precLowest, depth+1); err != nil {
			return err
		}
		for _, a := range x.Args {
			sb.WriteString(", ")
			if err := writeLatex(sb, a, precLowest, depth+1); err != nil {
				return err
			}
		}
		sb.WriteString(")")
		return nil

	case latexFunctionCommands[x.Name]:
		sb.WriteString(`\` + x.Name)
		return braced(x.Arg)
	}

	// Anything outside the command catalogue round-trips through
	// \operatorname.
	sb.WriteString(`\operatorname{` + x.Name + `}(`)
	if err := writeLatex(sb, x.Arg, precLowest, depth+1); err != nil {
		return err
	}
	for _, a := range x.Args {
		sb.WriteString(", ")
		if err := writeLatex(sb, a, precLowest, depth+1); err != nil {
			return err
		}
	}
	sb.WriteString(")")
	return nil
}

func writeLatexLogic(sb *strings.Builder, x *ast.LogicExpr, parent, depth int) error {
	var op string
	var prec int
	switch x.Op {
	case "not":
		if parent > precNot {
			sb.WriteString("(")
		}
		sb.WriteString(`\neg `)
		if err := writeLatex(sb, x.Operands[0], precNot, depth+1); err != nil {
			return err
		}
		if parent > precNot {
			sb.WriteString(")")
		}
		return nil
	case "and":
		op, prec = `\land`, precAnd
	case "or":
		op, prec = `\lor`, precOr
	case "xor":
		op, prec = `\oplus`, precXor
	case "implies":
		op, prec = `\implies`, precImplies
	case "iff":
		op, prec = `\iff`, precIff
	default:
		return matherr.NewEvaluation("cannot serialize logic operator %q", x.Op)
	}
	if prec < parent {
		sb.WriteString("(")
	}
	if err := writeLatex(sb, x.Operands[0], prec, depth+1); err != nil {
		return err
	}
	sb.WriteString(" " + op + " ")
	var rightPrec int
	if x.Op == "implies" {
		rightPrec = prec // right-associative
	} else {
		rightPrec = prec + 1
	}
	if err := writeLatex(sb, x.Operands[1], rightPrec, depth+1); err != nil {
		return err
	}
	if prec < parent {
		sb.WriteString(")")
	}
	return nil
}
