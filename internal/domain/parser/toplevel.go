package parser

import (
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// parseTopLevel handles the statement forms that only exist at the top
// of a source string: "let NAME = EXPR", "f(a, b) = EXPR", and
// "EXPR , CONDITION" / "EXPR { CONDITION }".
func (p *Parser) parseTopLevel() (ast.Expr, error) {
	if p.cur().Type == TEXT && p.cur().Literal == "let" {
		return p.parseAssignment()
	}
	if def, ok, err := p.tryParseFunctionDefinition(); ok || err != nil {
		return def, err
	}

	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}

	switch p.cur().Type {
	case COMMA:
		p.next()
		cond, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if !isCondition(cond) {
			return nil, p.errorAt(p.cur().Pos, "condition must be a comparison or boolean combination")
		}
		return &ast.ConditionalExpr{Value: expr, Condition: cond}, nil
	case LBRACE:
		p.next()
		cond, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if !isCondition(cond) {
			return nil, p.errorAt(p.cur().Pos, "condition must be a comparison or boolean combination")
		}
		if err := p.expect(RBRACE, "'}'"); err != nil {
			return nil, err
		}
		return &ast.ConditionalExpr{Value: expr, Condition: cond}, nil
	}
	return expr, nil
}

func (p *Parser) parseAssignment() (ast.Expr, error) {
	p.next() // consume "let"
	if p.cur().Type != IDENT {
		return nil, p.errorAt(p.cur().Pos, "expected identifier after 'let'")
	}
	name := p.cur().Literal
	p.next()
	// Commas around '=' are permitted.
	for p.cur().Type == COMMA {
		p.next()
	}
	if p.cur().Type != EQUALS {
		return nil, p.errorAt(p.cur().Pos, "expected '=' in let binding")
	}
	p.next()
	for p.cur().Type == COMMA {
		p.next()
	}
	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.AssignmentExpr{Name: name, Value: value}, nil
}

// tryParseFunctionDefinition matches "NAME(p1, ..., pn) = EXPR" by tape
// lookahead; the cursor is untouched when the shape does not match.
func (p *Parser) tryParseFunctionDefinition() (ast.Expr, bool, error) {
	if p.cur().Type != IDENT || p.peek().Type != LPAREN {
		return nil, false, nil
	}
	// Scan ahead: IDENT ( IDENT [, IDENT]* ) =
	i := 2
	params := []string{}
	for {
		if p.at(i).Type != IDENT {
			return nil, false, nil
		}
		params = append(params, p.at(i).Literal)
		i++
		if p.at(i).Type == COMMA {
			i++
			continue
		}
		break
	}
	if p.at(i).Type != RPAREN || p.at(i+1).Type != EQUALS {
		return nil, false, nil
	}

	name := p.cur().Literal
	for j := 0; j < i+2; j++ {
		p.next()
	}
	body, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, true, err
	}
	return &ast.FunctionDefExpr{Name: name, Params: params, Body: body}, true, nil
}
