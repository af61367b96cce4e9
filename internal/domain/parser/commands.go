package parser

import (
	"strconv"

	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// functionCommands parse as a plain function applied to one argument.
var functionCommands = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan",
	"sec": "sec", "csc": "csc", "cot": "cot",
	"arcsin": "arcsin", "arccos": "arccos", "arctan": "arctan",
	"sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
	"ln": "ln", "exp": "exp",
	"abs": "abs", "floor": "floor", "ceil": "ceil",
	"det": "det", "tr": "tr",
}

// multiArgCommands accept a comma-separated argument list.
var multiArgCommands = map[string]string{
	"min": "min", "max": "max", "gcd": "gcd",
}

// inverseTrig maps \sin^{-1} style notation onto the arc functions.
var inverseTrig = map[string]string{
	"sin": "arcsin", "cos": "arccos", "tan": "arctan",
}

func (p *Parser) parseCommandExpression() (ast.Expr, error) {
	name := p.cur().Literal
	pos := p.cur().Pos

	switch name {
	case "frac":
		return p.parseFrac()
	case "sqrt":
		return p.parseSqrt()
	case "log":
		return p.parseLog()
	case "binom":
		return p.parseBinom()
	case "sum", "prod":
		return p.parseSumProd(name == "prod")
	case "int", "oint":
		return p.parseIntegral(name == "oint")
	case "iint", "iiint":
		order := 2
		if name == "iiint" {
			order = 3
		}
		return p.parseMultiIntegral(order)
	case "lim":
		return p.parseLimit()
	case "nabla":
		p.next()
		body, err := p.parseExpression(PREFIX)
		if err != nil {
			return nil, err
		}
		return &ast.GradientExpr{Body: body}, nil
	case "vec", "hat":
		return p.parseVector(name == "hat")
	case "operatorname":
		return p.parseOperatorName()
	case "partial":
		return nil, p.errorAt(pos, `\partial is only valid inside a \frac derivative template`)
	}

	if fn, ok := multiArgCommands[name]; ok {
		return p.parseMultiArgFunction(fn)
	}
	if fn, ok := functionCommands[name]; ok {
		return p.parseFunction(fn)
	}
	if p.cfg.ExtensionFunctions[name] {
		return p.parseFunction(name)
	}
	return nil, p.errorAt(pos, `unsupported command \%s`, name)
}

// parseFunction handles \sin-style commands: an optional ^exponent
// before the argument, then a braced, parenthesized or bare argument.
func (p *Parser) parseFunction(fn string) (ast.Expr, error) {
	p.next() // consume the command

	var exponent ast.Expr
	if p.cur().Type == CARET {
		p.next()
		var err error
		exponent, err = p.parseFunctionExponent()
		if err != nil {
			return nil, err
		}
	}

	arg, err := p.parseFunctionArg(fn)
	if err != nil {
		return nil, err
	}

	// \sin^{-1} is inverse notation, not reciprocal.
	if exponent != nil && isNegativeOne(exponent) {
		if inv, ok := inverseTrig[fn]; ok {
			return &ast.FunctionCall{Name: inv, Arg: arg}, nil
		}
	}

	var expr ast.Expr = &ast.FunctionCall{Name: fn, Arg: arg}
	if exponent != nil {
		expr = &ast.BinaryExpr{Op: "^", Left: expr, Right: exponent}
	}
	return expr, nil
}

func (p *Parser) parseFunctionExponent() (ast.Expr, error) {
	switch p.cur().Type {
	case NUMBER:
		return p.parseNumberLiteral()
	case LBRACE:
		return p.parseBracedGroup()
	case MINUS:
		return p.parsePrefixMinus()
	}
	return nil, p.errorAt(p.cur().Pos, "expected exponent after '^'")
}

// parseFunctionArg accepts {A}, (A) or a bare argument that extends
// through powers and through products, explicit (*, /, \cdot, \times)
// as well as implicit; it stops at the first additive, comparison or
// logical operator.
func (p *Parser) parseFunctionArg(fn string) (ast.Expr, error) {
	switch p.cur().Type {
	case LBRACE:
		return p.parseBracedGroup()
	case LPAREN:
		return p.parseGroupedExpression()
	case EOF:
		return nil, p.errorAt(p.cur().Pos, `missing argument for \%s`, fn)
	}
	return p.parseExpression(PRODUCT - 1)
}

func isNegativeOne(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.NumberLiteral:
		return x.Value == -1
	case *ast.UnaryExpr:
		if n, ok := x.Operand.(*ast.NumberLiteral); ok {
			return x.Op == "-" && n.Value == 1
		}
	}
	return false
}

func (p *Parser) parseMultiArgFunction(fn string) (ast.Expr, error) {
	p.next() // consume the command
	var args []ast.Expr
	switch p.cur().Type {
	case LPAREN:
		var err error
		args, err = p.parseParenArgs()
		if err != nil {
			return nil, err
		}
	case LBRACE:
		for p.cur().Type == LBRACE {
			arg, err := p.parseBracedGroup()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	default:
		return nil, p.errorAt(p.cur().Pos, `expected arguments for \%s`, fn)
	}
	fc := &ast.FunctionCall{Name: fn, Arg: args[0]}
	if len(args) > 1 {
		fc.Args = args[1:]
	}
	return fc, nil
}

// parseFrac handles \frac{A}{B}, the braceless single-token forms, and
// the derivative templates \frac{d^k}{dx^k} and \frac{\partial^k}{\partial x^k}.
func (p *Parser) parseFrac() (ast.Expr, error) {
	fracPos := p.cur().Pos
	p.next() // consume \frac

	if deriv, ok, err := p.tryParseDerivative(); ok || err != nil {
		return deriv, err
	}

	if p.cur().Type == LBRACE {
		num, err := p.parseBracedGroup()
		if err != nil {
			return nil, err
		}
		den, err := p.parseFracSecondArg()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: "/", Left: num, Right: den}, nil
	}

	// Braceless: exactly two single-digit or single-letter operands.
	operands, err := p.parseBracelessFracOperands(fracPos)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Op: "/", Left: operands[0], Right: operands[1]}, nil
}

func (p *Parser) parseFracSecondArg() (ast.Expr, error) {
	switch p.cur().Type {
	case LBRACE:
		return p.parseBracedGroup()
	case NUMBER:
		lit := p.cur().Literal
		if len(lit) > 1 {
			return nil, p.errorAt(p.cur().Pos, "ambiguous braceless fraction").WithSuggestion("use braces to disambiguate")
		}
		return p.parseNumberLiteral()
	case IDENT:
		return p.parseIdentifier()
	}
	return nil, p.errorAt(p.cur().Pos, `expected denominator for \frac`)
}

func (p *Parser) parseBracelessFracOperands(fracPos int) ([2]ast.Expr, error) {
	var out [2]ast.Expr
	tok := p.cur()
	switch tok.Type {
	case NUMBER:
		lit := tok.Literal
		switch {
		case len(lit) == 1:
			p.next()
			v, _ := strconv.ParseFloat(lit, 64)
			out[0] = &ast.NumberLiteral{Value: v}
		case len(lit) == 2 && isDigit(rune(lit[0])) && isDigit(rune(lit[1])):
			// \frac12 reads as 1/2.
			p.next()
			a, _ := strconv.ParseFloat(lit[:1], 64)
			b, _ := strconv.ParseFloat(lit[1:], 64)
			out[0] = &ast.NumberLiteral{Value: a}
			out[1] = &ast.NumberLiteral{Value: b}
			if p.cur().Type == NUMBER || (p.cur().Type == IDENT && len(p.cur().Literal) == 1) {
				return out, p.errorAt(fracPos, "ambiguous braceless fraction").WithSuggestion("use braces to disambiguate")
			}
			return out, nil
		default:
			return out, p.errorAt(tok.Pos, "ambiguous braceless fraction").WithSuggestion("use braces to disambiguate")
		}
	case IDENT:
		p.next()
		out[0] = &ast.Variable{Name: tok.Literal}
	default:
		return out, p.errorAt(tok.Pos, `expected numerator for \frac`)
	}

	second, err := p.parseFracSecondArg()
	if err != nil {
		return out, err
	}
	out[1] = second
	return out, nil
}

// tryParseDerivative matches the \frac{d^k}{dx^k}{body} template at the
// current position. It returns ok=false with the cursor untouched when
// the numerator is not a derivative head.
func (p *Parser) tryParseDerivative() (ast.Expr, bool, error) {
	save := p.pos
	if p.cur().Type != LBRACE {
		return nil, false, nil
	}
	p.next()

	partial := false
	switch {
	case p.cur().Type == IDENT && p.cur().Literal == "d":
		p.next()
	case p.cur().Type == COMMAND && p.cur().Literal == "partial":
		partial = true
		p.next()
	default:
		p.pos = save
		return nil, false, nil
	}

	order := 1
	if p.cur().Type == CARET {
		k, err := p.parseDerivativeOrder()
		if err != nil {
			p.pos = save
			return nil, false, nil
		}
		order = k
	}
	if p.cur().Type != RBRACE {
		p.pos = save
		return nil, false, nil
	}
	p.next()

	// Denominator: {dx^k} or {\partial x^k}.
	if p.cur().Type != LBRACE {
		p.pos = save
		return nil, false, nil
	}
	p.next()
	if partial {
		if p.cur().Type != COMMAND || p.cur().Literal != "partial" {
			p.pos = save
			return nil, false, nil
		}
		p.next()
	} else {
		if p.cur().Type != IDENT || p.cur().Literal != "d" {
			p.pos = save
			return nil, false, nil
		}
		p.next()
	}
	if p.cur().Type != IDENT {
		p.pos = save
		return nil, false, nil
	}
	varName := p.cur().Literal
	p.next()
	if p.cur().Type == CARET {
		if _, err := p.parseDerivativeOrder(); err != nil {
			return nil, true, err
		}
	}
	if err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, true, err
	}

	// Body: {body}, (body), or the next primary-tight expression.
	var body ast.Expr
	var err error
	switch p.cur().Type {
	case LBRACE:
		body, err = p.parseBracedGroup()
	case LPAREN:
		body, err = p.parseGroupedExpression()
	default:
		body, err = p.parseExpression(PRODUCT - 1)
	}
	if err != nil {
		return nil, true, err
	}
	return &ast.DerivativeExpr{IsPartial: partial, Var: varName, Order: order, Body: body}, true, nil
}

func (p *Parser) parseDerivativeOrder() (int, error) {
	p.next() // consume '^'
	tok := p.cur()
	lit := ""
	switch tok.Type {
	case NUMBER:
		lit = tok.Literal
		p.next()
	case LBRACE:
		p.next()
		if p.cur().Type != NUMBER {
			return 0, p.errorAt(p.cur().Pos, "expected numeric derivative order")
		}
		lit = p.cur().Literal
		p.next()
		if err := p.expect(RBRACE, "'}'"); err != nil {
			return 0, err
		}
	default:
		return 0, p.errorAt(tok.Pos, "expected numeric derivative order")
	}
	k, err := strconv.Atoi(lit)
	if err != nil || k < 1 {
		return 0, p.errorAt(tok.Pos, "derivative order must be a positive integer")
	}
	return k, nil
}

func (p *Parser) parseSqrt() (ast.Expr, error) {
	p.next() // consume \sqrt
	var index ast.Expr
	if p.cur().Type == LBRACKET {
		var err error
		index, err = p.parseBracketGroup()
		if err != nil {
			return nil, err
		}
	}
	arg, err := p.parseFunctionArg("sqrt")
	if err != nil {
		return nil, err
	}
	return &ast.FunctionCall{Name: "sqrt", Arg: arg, Index: index}, nil
}

func (p *Parser) parseLog() (ast.Expr, error) {
	p.next() // consume \log
	var base ast.Expr
	if p.cur().Type == UNDERSCORE {
		p.next()
		var err error
		switch p.cur().Type {
		case LBRACE:
			base, err = p.parseBracedGroup()
		case NUMBER:
			base, err = p.parseNumberLiteral()
		case IDENT:
			base, err = p.parseIdentifier()
		default:
			err = p.errorAt(p.cur().Pos, `expected base after \log_`)
		}
		if err != nil {
			return nil, err
		}
	}
	arg, err := p.parseFunctionArg("log")
	if err != nil {
		return nil, err
	}
	return &ast.FunctionCall{Name: "log", Arg: arg, Base: base}, nil
}

func (p *Parser) parseBinom() (ast.Expr, error) {
	p.next() // consume \binom
	if p.cur().Type != LBRACE {
		return nil, p.errorAt(p.cur().Pos, `\binom requires two braced arguments`)
	}
	n, err := p.parseBracedGroup()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != LBRACE {
		return nil, p.errorAt(p.cur().Pos, `\binom requires two braced arguments`)
	}
	k, err := p.parseBracedGroup()
	if err != nil {
		return nil, err
	}
	return &ast.BinomExpr{N: n, K: k}, nil
}

// parseBound parses the expression after _ or ^ in big-operator
// notation: a braced group or a single tight primary.
func (p *Parser) parseBound() (ast.Expr, error) {
	switch p.cur().Type {
	case LBRACE:
		return p.parseBracedGroup()
	case NUMBER:
		return p.parseNumberLiteral()
	case IDENT:
		return p.parseIdentifier()
	case MINUS:
		return p.parsePrefixMinus()
	case COMMAND:
		return p.parseCommandExpression()
	}
	return nil, p.errorAt(p.cur().Pos, "expected bound expression")
}

func (p *Parser) parseSumProd(isProduct bool) (ast.Expr, error) {
	kind := "sum"
	if isProduct {
		kind = "prod"
	}
	pos := p.cur().Pos
	p.next() // consume the command

	varName := ""
	var lower, upper ast.Expr

	if p.cur().Type == UNDERSCORE {
		p.next()
		if p.cur().Type != LBRACE {
			return nil, p.errorAt(p.cur().Pos, `expected '{' after '_' in \%s`, kind)
		}
		p.next()
		if p.cur().Type != IDENT {
			return nil, p.errorAt(p.cur().Pos, `expected index variable in \%s lower bound`, kind)
		}
		varName = p.cur().Literal
		p.next()
		if p.cur().Type != EQUALS {
			return nil, p.errorAt(p.cur().Pos, `expected '=' after index variable in \%s`, kind)
		}
		p.next()
		var err error
		lower, err = p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if err := p.expect(RBRACE, "'}'"); err != nil {
			return nil, err
		}
	}

	if p.cur().Type == CARET {
		p.next()
		var err error
		upper, err = p.parseBound()
		if err != nil {
			return nil, err
		}
	}

	if varName == "" {
		return nil, p.errorAt(pos, `\%s requires an index binding like _{i=1}`, kind)
	}

	body, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.SumExpr{
		IsProduct: isProduct,
		Var:       varName,
		Lower:     lower,
		Upper:     upper,
		Body:      body,
	}, nil
}

func (p *Parser) parseIntegral(closed bool) (ast.Expr, error) {
	p.next() // consume \int or \oint

	var lower, upper ast.Expr
	var err error
	if p.cur().Type == UNDERSCORE {
		p.next()
		lower, err = p.parseBound()
		if err != nil {
			return nil, err
		}
	}
	if p.cur().Type == CARET {
		p.next()
		upper, err = p.parseBound()
		if err != nil {
			return nil, err
		}
	}
	if (lower == nil) != (upper == nil) {
		return nil, p.errorAt(p.cur().Pos, "integral bounds must be given in pairs")
	}

	p.inIntegral++
	body, err := p.parseExpression(LOWEST)
	p.inIntegral--
	if err != nil {
		return nil, err
	}

	varName := p.parseDifferential()
	if varName == "" {
		varName = "x"
	}

	return &ast.IntegralExpr{
		Var:    varName,
		Lower:  lower,
		Upper:  upper,
		Body:   body,
		Closed: closed,
	}, nil
}

// parseDifferential consumes "d x" and returns the variable name, or
// "" when no differential follows.
func (p *Parser) parseDifferential() string {
	if p.cur().Type == IDENT && p.cur().Literal == "d" && p.peek().Type == IDENT {
		name := p.peek().Literal
		p.next()
		p.next()
		return name
	}
	return ""
}

func (p *Parser) parseMultiIntegral(order int) (ast.Expr, error) {
	p.next() // consume \iint or \iiint

	lowers := make([]ast.Expr, order)
	uppers := make([]ast.Expr, order)
	var err error
	if p.cur().Type == UNDERSCORE {
		p.next()
		lowers[0], err = p.parseBound()
		if err != nil {
			return nil, err
		}
	}
	if p.cur().Type == CARET {
		p.next()
		uppers[0], err = p.parseBound()
		if err != nil {
			return nil, err
		}
	}

	p.inIntegral++
	body, err := p.parseExpression(LOWEST)
	p.inIntegral--
	if err != nil {
		return nil, err
	}

	vars := make([]string, 0, order)
	for i := 0; i < order; i++ {
		name := p.parseDifferential()
		if name == "" {
			return nil, p.errorAt(p.cur().Pos, "expected %d differentials after multi-integral body, got %d", order, len(vars))
		}
		vars = append(vars, name)
	}

	return &ast.MultiIntegralExpr{
		Order:  order,
		Vars:   vars,
		Lowers: lowers,
		Uppers: uppers,
		Body:   body,
	}, nil
}

func (p *Parser) parseLimit() (ast.Expr, error) {
	p.next() // consume \lim
	if p.cur().Type != UNDERSCORE {
		return nil, p.errorAt(p.cur().Pos, `expected '_' after \lim`)
	}
	p.next()
	if p.cur().Type != LBRACE {
		return nil, p.errorAt(p.cur().Pos, `expected '{' after \lim_`)
	}
	p.next()
	if p.cur().Type != IDENT {
		return nil, p.errorAt(p.cur().Pos, "expected limit variable")
	}
	varName := p.cur().Literal
	p.next()
	if p.cur().Type != TEXT || p.cur().Literal != "to" {
		return nil, p.errorAt(p.cur().Pos, `expected \to in limit binding`)
	}
	p.next()
	target, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	side := ""
	if p.cur().Type == CARET {
		p.next()
		switch p.cur().Type {
		case PLUS:
			side = "+"
		case MINUS:
			side = "-"
		default:
			return nil, p.errorAt(p.cur().Pos, "expected '+' or '-' in one-sided limit")
		}
		p.next()
	}
	if err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	body, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.LimitExpr{Var: varName, Approaches: target, Body: body, Side: side}, nil
}

func (p *Parser) parseVector(unit bool) (ast.Expr, error) {
	p.next() // consume \vec or \hat
	if p.cur().Type != LBRACE {
		return nil, p.errorAt(p.cur().Pos, `expected '{' after \vec`)
	}
	p.next()
	var comps []ast.Expr
	for {
		c, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		comps = append(comps, c)
		if p.cur().Type != COMMA {
			break
		}
		p.next()
	}
	if err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return &ast.VectorExpr{Components: comps, Unit: unit}, nil
}

func (p *Parser) parseOperatorName() (ast.Expr, error) {
	p.next() // consume \operatorname
	if p.cur().Type != LBRACE {
		return nil, p.errorAt(p.cur().Pos, `expected '{' after \operatorname`)
	}
	p.next()
	name := ""
	for p.cur().Type == IDENT || p.cur().Type == TEXT {
		name += p.cur().Literal
		p.next()
	}
	if name == "" {
		return nil, p.errorAt(p.cur().Pos, `empty \operatorname`)
	}
	if err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	var args []ast.Expr
	var err error
	switch p.cur().Type {
	case LPAREN:
		args, err = p.parseParenArgs()
		if err != nil {
			return nil, err
		}
	case LBRACE:
		arg, err := p.parseBracedGroup()
		if err != nil {
			return nil, err
		}
		args = []ast.Expr{arg}
	default:
		arg, err := p.parseExpression(PRODUCT - 1)
		if err != nil {
			return nil, err
		}
		args = []ast.Expr{arg}
	}
	fc := &ast.FunctionCall{Name: name, Arg: args[0]}
	if len(args) > 1 {
		fc.Args = args[1:]
	}
	return fc, nil
}
