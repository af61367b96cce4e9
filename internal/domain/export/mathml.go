package export

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// mathmlNamespace is the standard namespace declaration on the <math>
// root element.
const mathmlNamespace = "http://www.w3.org/1998/Math/MathML"

// MathML serializes a tree to presentation markup wrapped in a <math>
// root. The output is well-formed XML.
func MathML(e ast.Expr) (string, error) {
	body, err := MathMLFragment(e)
	if err != nil {
		return "", err
	}
	return `<math xmlns="` + mathmlNamespace + `">` + body + `</math>`, nil
}

// MathMLFragment serializes a tree without the <math> wrapper.
func MathMLFragment(e ast.Expr) (string, error) {
	var sb strings.Builder
	if err := writeMathML(&sb, e, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func mo(sb *strings.Builder, glyph string) {
	sb.WriteString("<mo>" + glyph + "</mo>")
}

func mi(sb *strings.Builder, name string) {
	sb.WriteString("<mi>" + xmlEscape(name) + "</mi>")
}

func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

var greekGlyphs = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ",
	"epsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν",
	"xi": "ξ", "pi": "π", "rho": "ρ", "sigma": "σ", "tau": "τ",
	"upsilon": "υ", "phi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ",
	"Omega": "Ω", "infty": "∞", "hbar": "ℏ",
}

func mathmlName(name string) string {
	if g, ok := greekGlyphs[name]; ok {
		return g
	}
	if colon := strings.IndexByte(name, ':'); colon >= 0 {
		return name[colon+1:]
	}
	return name
}

func writeMathML(sb *strings.Builder, e ast.Expr, depth int) error {
	if depth > MaxDepth {
		return depthExceeded()
	}

	row := func(parts ...func() error) error {
		sb.WriteString("<mrow>")
		for _, p := range parts {
			if err := p(); err != nil {
				return err
			}
		}
		sb.WriteString("</mrow>")
		return nil
	}
	sub := func(child ast.Expr) func() error {
		return func() error { return writeMathML(sb, child, depth+1) }
	}
	lit := func(glyph string) func() error {
		return func() error { mo(sb, glyph); return nil }
	}

	switch x := e.(type) {
	case *ast.NumberLiteral:
		if x.Value < 0 {
			return row(lit("−"), func() error {
				sb.WriteString("<mn>" + latexNumber(-x.Value) + "</mn>")
				return nil
			})
		}
		sb.WriteString("<mn>" + latexNumber(x.Value) + "</mn>")
		return nil

	case *ast.Variable:
		if under := strings.IndexByte(x.Name, '_'); under >= 0 {
			sb.WriteString("<msub>")
			mi(sb, mathmlName(x.Name[:under]))
			mi(sb, x.Name[under+1:])
			sb.WriteString("</msub>")
			return nil
		}
		mi(sb, mathmlName(x.Name))
		return nil

	case *ast.UnaryExpr:
		return row(lit("−"), sub(x.Operand))

	case *ast.BinaryExpr:
		switch x.Op {
		case "+":
			return row(sub(x.Left), lit("+"), sub(x.Right))
		case "-":
			return row(sub(x.Left), lit("−"), sub(x.Right))
		case "*", "dot":
			return row(sub(x.Left), lit("⋅"), sub(x.Right))
		case "cross":
			return row(sub(x.Left), lit("×"), sub(x.Right))
		case "/":
			sb.WriteString("<mfrac>")
			if err := row(sub(x.Left)); err != nil {
				return err
			}
			if err := row(sub(x.Right)); err != nil {
				return err
			}
			sb.WriteString("</mfrac>")
			return nil
		case "^":
			sb.WriteString("<msup>")
			if err := row(sub(x.Left)); err != nil {
				return err
			}
			if err := row(sub(x.Right)); err != nil {
				return err
			}
			sb.WriteString("</msup>")
			return nil
		}
		return matherr.NewEvaluation("cannot serialize operator %q", x.Op)

	case *ast.FunctionCall:
		return writeMathMLFunction(sb, x, depth)

	case *ast.AbsExpr:
		return row(lit("|"), sub(x.Arg), lit("|"))

	case *ast.FactorialExpr:
		return row(sub(x.Value), lit("!"))

	case *ast.Comparison:
		return row(sub(x.Left), lit(mathmlComparison(x.Op)), sub(x.Right))

	case *ast.ChainedComparison:
		sb.WriteString("<mrow>")
		for i, part := range x.Exprs {
			if i > 0 {
				mo(sb, mathmlComparison(x.Ops[i-1]))
			}
			if err := writeMathML(sb, part, depth+1); err != nil {
				return err
			}
		}
		sb.WriteString("</mrow>")
		return nil

	case *ast.LogicExpr:
		glyphs := map[string]string{
			"and": "∧", "or": "∨", "xor": "⊕", "implies": "⇒", "iff": "⇔",
		}
		if x.Op == "not" {
			return row(lit("¬"), sub(x.Operands[0]))
		}
		g, ok := glyphs[x.Op]
		if !ok {
			return matherr.NewEvaluation("cannot serialize logic operator %q", x.Op)
		}
		return row(sub(x.Operands[0]), lit(g), sub(x.Operands[1]))

	case *ast.ConditionalExpr:
		return row(sub(x.Value), lit(","), sub(x.Condition))

	case *ast.PiecewiseExpr:
		sb.WriteString("<mrow><mo>{</mo><mtable>")
		for _, c := range x.Cases {
			sb.WriteString("<mtr><mtd>")
			if err := writeMathML(sb, c.Value, depth+1); err != nil {
				return err
			}
			sb.WriteString("</mtd><mtd>")
			if c.Condition == nil {
				sb.WriteString("<mtext>otherwise</mtext>")
			} else if err := writeMathML(sb, c.Condition, depth+1); err != nil {
				return err
			}
			sb.WriteString("</mtd></mtr>")
		}
		sb.WriteString("</mtable></mrow>")
		return nil

	case *ast.SumExpr:
		glyph := "∑"
		if x.IsProduct {
			glyph = "∏"
		}
		sb.WriteString("<mrow><munderover><mo>" + glyph + "</mo><mrow>")
		mi(sb, x.Var)
		mo(sb, "=")
		if x.Lower != nil {
			if err := writeMathML(sb, x.Lower, depth+1); err != nil {
				return err
			}
		}
		sb.WriteString("</mrow><mrow>")
		if x.Upper != nil {
			if err := writeMathML(sb, x.Upper, depth+1); err != nil {
				return err
			}
		}
		sb.WriteString("</mrow></munderover>")
		if err := writeMathML(sb, x.Body, depth+1); err != nil {
			return err
		}
		sb.WriteString("</mrow>")
		return nil

	case *ast.LimitExpr:
		sb.WriteString("<mrow><munder><mo>lim</mo><mrow>")
		mi(sb, x.Var)
		mo(sb, "→")
		if err := writeMathML(sb, x.Approaches, depth+1); err != nil {
			return err
		}
		if x.Side != "" {
			mo(sb, x.Side)
		}
		sb.WriteString("</mrow></munder>")
		if err := writeMathML(sb, x.Body, depth+1); err != nil {
			return err
		}
		sb.WriteString("</mrow>")
		return nil

	case *ast.IntegralExpr:
		glyph := "∫"
		if x.Closed {
			glyph = "∮"
		}
		sb.WriteString("<mrow>")
		if x.Lower != nil && x.Upper != nil {
			sb.WriteString("<munderover><mo>" + glyph + "</mo>")
			if err := row(sub(x.Lower)); err != nil {
				return err
			}
			if err := row(sub(x.Upper)); err != nil {
				return err
			}
			sb.WriteString("</munderover>")
		} else {
			mo(sb, glyph)
		}
		if err := writeMathML(sb, x.Body, depth+1); err != nil {
			return err
		}
		mi(sb, "d")
		mi(sb, mathmlName(x.Var))
		sb.WriteString("</mrow>")
		return nil

	case *ast.MultiIntegralExpr:
		glyph := "∬"
		if x.Order == 3 {
			glyph = "∭"
		}
		sb.WriteString("<mrow>")
		mo(sb, glyph)
		if err := writeMathML(sb, x.Body, depth+1); err != nil {
			return err
		}
		for _, v := range x.Vars {
			mi(sb, "d")
			mi(sb, mathmlName(v))
		}
		sb.WriteString("</mrow>")
		return nil

	case *ast.DerivativeExpr:
		head := "d"
		if x.IsPartial {
			head = "∂"
		}
		sb.WriteString("<mrow><mfrac><mrow>")
		if x.Order > 1 {
			sb.WriteString("<msup><mi>" + head + "</mi><mn>" + fmt.Sprint(x.Order) + "</mn></msup>")
		} else {
			mi(sb, head)
		}
		sb.WriteString("</mrow><mrow>")
		mi(sb, head)
		if x.Order > 1 {
			sb.WriteString("<msup>")
			mi(sb, mathmlName(x.Var))
			sb.WriteString("<mn>" + fmt.Sprint(x.Order) + "</mn></msup>")
		} else {
			mi(sb, mathmlName(x.Var))
		}
		sb.WriteString("</mrow></mfrac>")
		if err := writeMathML(sb, x.Body, depth+1); err != nil {
			return err
		}
		sb.WriteString("</mrow>")
		return nil

	case *ast.GradientExpr:
		return row(lit("∇"), sub(x.Body))

	case *ast.BinomExpr:
		sb.WriteString("<mrow><mo>(</mo><mfrac linethickness=\"0\">")
		if err := row(sub(x.N)); err != nil {
			return err
		}
		if err := row(sub(x.K)); err != nil {
			return err
		}
		sb.WriteString("</mfrac><mo>)</mo></mrow>")
		return nil

	case *ast.MatrixExpr:
		open, close := matrixFence(x.Style)
		sb.WriteString("<mrow>")
		if open != "" {
			mo(sb, open)
		}
		sb.WriteString("<mtable>")
		for _, r := range x.Rows {
			sb.WriteString("<mtr>")
			for _, cell := range r {
				sb.WriteString("<mtd>")
				if err := writeMathML(sb, cell, depth+1); err != nil {
					return err
				}
				sb.WriteString("</mtd>")
			}
			sb.WriteString("</mtr>")
		}
		sb.WriteString("</mtable>")
		if close != "" {
			mo(sb, close)
		}
		sb.WriteString("</mrow>")
		return nil

	case *ast.VectorExpr:
		inner := func() error {
			sb.WriteString("<mrow><mo>(</mo>")
			for i, c := range x.Components {
				if i > 0 {
					mo(sb, ",")
				}
				if err := writeMathML(sb, c, depth+1); err != nil {
					return err
				}
			}
			sb.WriteString("<mo>)</mo></mrow>")
			return nil
		}
		glyph := "→"
		if x.Unit {
			glyph = "^"
		}
		sb.WriteString("<mover>")
		if err := inner(); err != nil {
			return err
		}
		mo(sb, glyph)
		sb.WriteString("</mover>")
		return nil

	case *ast.AssignmentExpr:
		return row(func() error { mi(sb, x.Name); return nil }, lit("="), sub(x.Value))

	case *ast.FunctionDefExpr:
		return row(
			func() error { mi(sb, x.Name); return nil },
			lit("("),
			func() error {
				for i, p := range x.Params {
					if i > 0 {
						mo(sb, ",")
					}
					mi(sb, p)
				}
				return nil
			},
			lit(")"),
			lit("="),
			sub(x.Body),
		)
	}

	return matherr.NewEvaluation("cannot serialize node of type %T", e)
}

func mathmlComparison(op string) string {
	switch op {
	case "<=":
		return "≤"
	case ">=":
		return "≥"
	case "!=":
		return "≠"
	case "<":
		return "&lt;"
	case ">":
		return "&gt;"
	case "in":
		return "∈"
	}
	return op
}

func matrixFence(style string) (string, string) {
	switch style {
	case "pmatrix":
		return "(", ")"
	case "bmatrix":
		return "[", "]"
	case "Bmatrix":
		return "{", "}"
	case "vmatrix":
		return "|", "|"
	case "Vmatrix":
		return "‖", "‖"
	}
	return "", ""
}

func writeMathMLFunction(sb *strings.Builder, x *ast.FunctionCall, depth int) error {
	switch x.Name {
	case "sqrt":
		if x.Index != nil {
			sb.WriteString("<mroot><mrow>")
			if err := writeMathML(sb, x.Arg, depth+1); err != nil {
				return err
			}
			sb.WriteString("</mrow><mrow>")
			if err := writeMathML(sb, x.Index, depth+1); err != nil {
				return err
			}
			sb.WriteString("</mrow></mroot>")
			return nil
		}
		sb.WriteString("<msqrt>")
		if err := writeMathML(sb, x.Arg, depth+1); err != nil {
			return err
		}
		sb.WriteString("</msqrt>")
		return nil

	case "log":
		if x.Base != nil {
			sb.WriteString("<mrow><msub><mi>log</mi><mrow>")
			if err := writeMathML(sb, x.Base, depth+1); err != nil {
				return err
			}
			sb.WriteString("</mrow></msub><mo>(</mo>")
			if err := writeMathML(sb, x.Arg, depth+1); err != nil {
				return err
			}
			sb.WriteString("<mo>)</mo></mrow>")
			return nil
		}

	case "transpose":
		sb.WriteString("<msup><mrow>")
		if err := writeMathML(sb, x.Arg, depth+1); err != nil {
			return err
		}
		sb.WriteString("</mrow><mi>T</mi></msup>")
		return nil

	case "norm":
		sb.WriteString("<mrow><mo>‖</mo>")
		if err := writeMathML(sb, x.Arg, depth+1); err != nil {
			return err
		}
		sb.WriteString("<mo>‖</mo></mrow>")
		return nil
	}

	sb.WriteString("<mrow><mi>" + xmlEscape(x.Name) + "</mi><mo>(</mo>")
	if err := writeMathML(sb, x.Arg, depth+1); err != nil {
		return err
	}
	for _, a := range x.Args {
		mo(sb, ",")
		if err := writeMathML(sb, a, depth+1); err != nil {
			return err
		}
	}
	sb.WriteString("<mo>)</mo></mrow>")
	return nil
}
