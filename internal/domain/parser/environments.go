package parser

import (
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// matrixStyles maps environment names to the bracket-style tag stored
// on the MatrixExpr.
var matrixStyles = map[string]string{
	"matrix":  "matrix",
	"pmatrix": "pmatrix",
	"bmatrix": "bmatrix",
	"Bmatrix": "Bmatrix",
	"vmatrix": "vmatrix",
	"Vmatrix": "Vmatrix",
	"align":   "align",
}

func (p *Parser) parseEnvironment() (ast.Expr, error) {
	name := p.cur().Literal
	pos := p.cur().Pos
	if name == "cases" {
		return p.parseCases()
	}
	if style, ok := matrixStyles[name]; ok {
		return p.parseMatrix(name, style)
	}
	return nil, p.errorAt(pos, "unknown environment %q", name)
}

func (p *Parser) parseMatrix(envName, style string) (ast.Expr, error) {
	beginPos := p.cur().Pos
	p.next() // consume \begin{...}

	var rows [][]ast.Expr
	row := []ast.Expr{}
	for {
		switch p.cur().Type {
		case EOF:
			return nil, p.errorAt(beginPos, `\begin{%s} without matching \end{%s}`, envName, envName)
		case END:
			if p.cur().Literal != envName {
				return nil, p.errorAt(p.cur().Pos, `mismatched environment: \begin{%s} closed by \end{%s}`, envName, p.cur().Literal)
			}
			p.next()
			if len(row) > 0 {
				rows = append(rows, row)
			}
			if len(rows) == 0 {
				return nil, p.errorAt(beginPos, "empty %s environment", envName)
			}
			width := len(rows[0])
			for i, r := range rows {
				if len(r) != width {
					return nil, p.errorAt(beginPos, "matrix row %d has %d cells, expected %d", i+1, len(r), width)
				}
			}
			return &ast.MatrixExpr{Rows: rows, Style: style}, nil
		case AMPERSAND:
			p.next()
		case ROWSEP:
			p.next()
			rows = append(rows, row)
			row = []ast.Expr{}
		default:
			cell, err := p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			row = append(row, cell)
		}
	}
}

func (p *Parser) parseCases() (ast.Expr, error) {
	beginPos := p.cur().Pos
	p.next() // consume \begin{cases}

	var cases []ast.PiecewiseCase
	sawOtherwise := false
	for {
		if p.cur().Type == EOF {
			return nil, p.errorAt(beginPos, `\begin{cases} without matching \end{cases}`)
		}
		if p.cur().Type == END {
			if p.cur().Literal != "cases" {
				return nil, p.errorAt(p.cur().Pos, `mismatched environment: \begin{cases} closed by \end{%s}`, p.cur().Literal)
			}
			p.next()
			if len(cases) == 0 {
				return nil, p.errorAt(beginPos, "empty cases environment")
			}
			return &ast.PiecewiseExpr{Cases: cases}, nil
		}

		if sawOtherwise {
			return nil, p.errorAt(p.cur().Pos, `the "otherwise" case must come last`)
		}

		value, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}

		var condition ast.Expr
		if p.cur().Type == AMPERSAND {
			p.next()
		}
		switch p.cur().Type {
		case TEXT:
			if p.cur().Literal != "otherwise" {
				return nil, p.errorAt(p.cur().Pos, "unexpected text %q in cases environment", p.cur().Literal)
			}
			sawOtherwise = true
			p.next()
		case ROWSEP, END:
			// A bare value with no condition is only valid as "otherwise";
			// require the explicit marker.
			return nil, p.errorAt(p.cur().Pos, `case is missing a condition or "otherwise"`)
		default:
			condition, err = p.parseExpression(LOWEST)
			if err != nil {
				return nil, err
			}
			if !isCondition(condition) {
				return nil, p.errorAt(p.cur().Pos, "case condition must be a comparison or boolean combination")
			}
		}
		cases = append(cases, ast.PiecewiseCase{Value: value, Condition: condition})

		if p.cur().Type == ROWSEP {
			p.next()
		}
	}
}

// isCondition reports whether e can serve as a piecewise or
// conditional guard.
func isCondition(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Comparison, *ast.ChainedComparison, *ast.LogicExpr:
		return true
	}
	return false
}
