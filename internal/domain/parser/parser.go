package parser

import (
	"strconv"

	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
)

// --- Operator Precedence ---
const (
	_ int = iota
	LOWEST
	IFFPREC     // <=>
	IMPLIESPREC // => (right-associative)
	ORPREC      // or
	XORPREC     // xor binds tighter than or
	ANDPREC     // and
	NOTPREC     // unary not
	COMPARE     // < <= > >= = != and chains thereof
	SUM         // + -
	PRODUCT     // * / cdot times, implicit multiplication
	PREFIX      // -X (unary minus)
	EXPONENT    // ^ (right-associative)
	POSTFIX     // X! and other postfix forms
	CALL        // \command{X}
)

var precedences = map[TokenType]int{
	IFF:         IFFPREC,
	IMPLIES:     IMPLIESPREC,
	OR:          ORPREC,
	XOR:         XORPREC,
	AND:         ANDPREC,
	EQUALS:      COMPARE,
	NE:          COMPARE,
	LT:          COMPARE,
	GT:          COMPARE,
	LE:          COMPARE,
	GE:          COMPARE,
	IN:          COMPARE,
	PLUS:        SUM,
	MINUS:       SUM,
	ASTERISK:    PRODUCT,
	CDOT:        PRODUCT,
	TIMES:       PRODUCT,
	SLASH:       PRODUCT,
	CARET:       EXPONENT,
	EXCLAMATION: POSTFIX,
	UNDERSCORE:  POSTFIX,
}

// DefaultMaxDepth bounds nesting before the parser fails structurally.
const DefaultMaxDepth = 500

// Config carries the parser's tunables.
type Config struct {
	ImplicitMultiplication bool
	MaxDepth               int
	Extensions             map[string]CommandRule
	// ExtensionFunctions names commands (from the extension registry)
	// that parse like the built-in function commands.
	ExtensionFunctions map[string]bool
}

// DefaultConfig returns the stock configuration: implicit
// multiplication on, depth cap 500, no extensions.
func DefaultConfig() Config {
	return Config{ImplicitMultiplication: true, MaxDepth: DefaultMaxDepth}
}

type (
	prefixParseFn func() (ast.Expr, error)
	infixParseFn  func(ast.Expr) (ast.Expr, error)
)

// Parser builds one expression tree from a token tape.
type Parser struct {
	cfg    Config
	tokens []Token
	pos    int

	depth      int
	inIntegral int // >0 while parsing an integral body: differentials stop implicit multiplication

	errors []*matherr.MathError

	prefixParseFns map[TokenType]prefixParseFn
	infixParseFns  map[TokenType]infixParseFn
}

// New creates a parser with the given configuration.
func New(cfg Config) *Parser {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	p := &Parser{cfg: cfg}
	p.prefixParseFns = map[TokenType]prefixParseFn{
		IDENT:    p.parseIdentifier,
		NUMBER:   p.parseNumberLiteral,
		LPAREN:   p.parseGroupedExpression,
		LBRACKET: p.parseBracketGroup,
		LBRACE:   p.parseBracedGroup,
		MINUS:    p.parsePrefixMinus,
		NOT:      p.parsePrefixNot,
		BAR:      p.parseAbsoluteValue,
		DBLBAR:   p.parseNorm,
		COMMAND:  p.parseCommandExpression,
		BEGIN:    p.parseEnvironment,
	}
	p.infixParseFns = map[TokenType]infixParseFn{
		PLUS:        p.parseInfixExpression,
		MINUS:       p.parseInfixExpression,
		ASTERISK:    p.parseInfixExpression,
		CDOT:        p.parseInfixExpression,
		TIMES:       p.parseInfixExpression,
		SLASH:       p.parseInfixExpression,
		CARET:       p.parsePowerExpression,
		EXCLAMATION: p.parseFactorialExpression,
		UNDERSCORE:  p.parseSubscriptExpression,
		EQUALS:      p.parseComparisonExpression,
		NE:          p.parseComparisonExpression,
		LT:          p.parseComparisonExpression,
		GT:          p.parseComparisonExpression,
		LE:          p.parseComparisonExpression,
		GE:          p.parseComparisonExpression,
		IN:          p.parseComparisonExpression,
		AND:         p.parseLogicExpression,
		OR:          p.parseLogicExpression,
		XOR:         p.parseLogicExpression,
		IMPLIES:     p.parseLogicExpression,
		IFF:         p.parseLogicExpression,
	}
	return p
}

// Parse tokenizes and parses one source string into a single tree.
func (p *Parser) Parse(src string) (ast.Expr, error) {
	tokens, terr := Tokenize(src, p.cfg.Extensions, !p.cfg.ImplicitMultiplication)
	if terr != nil {
		return nil, terr
	}
	p.tokens = tokens
	p.pos = 0
	p.depth = 0
	p.inIntegral = 0
	p.errors = nil

	expr, err := p.parseTopLevel()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != EOF {
		return nil, p.errorAt(p.cur().Pos, "unexpected token %s (%q) after expression", p.cur().Type, p.cur().Literal)
	}
	return expr, nil
}

// ParseAll parses in recovery mode: on error it records the failure,
// synchronizes at the next top-level separator or environment end, and
// continues. The first successfully parsed tree is returned together
// with every error collected.
func (p *Parser) ParseAll(src string) (ast.Expr, []*matherr.MathError) {
	tokens, terr := Tokenize(src, p.cfg.Extensions, !p.cfg.ImplicitMultiplication)
	if terr != nil {
		return nil, []*matherr.MathError{terr}
	}
	p.tokens = tokens
	p.pos = 0
	p.depth = 0
	p.inIntegral = 0
	p.errors = nil

	var first ast.Expr
	for p.cur().Type != EOF {
		expr, err := p.parseTopLevel()
		if err != nil {
			p.record(err)
			p.synchronize()
			continue
		}
		if first == nil {
			first = expr
		}
		if p.cur().Type == COMMA {
			p.next()
		} else if p.cur().Type != EOF {
			p.record(p.errorAt(p.cur().Pos, "unexpected token %s (%q) after expression", p.cur().Type, p.cur().Literal))
			p.synchronize()
		}
	}
	return first, p.errors
}

// synchronize skips to the next statement boundary: a top-level comma
// or an environment end.
func (p *Parser) synchronize() {
	depth := 0
	for {
		switch p.cur().Type {
		case EOF:
			return
		case LBRACE, LPAREN, LBRACKET, BEGIN:
			depth++
		case RBRACE, RPAREN, RBRACKET:
			if depth > 0 {
				depth--
			}
		case END:
			p.next()
			return
		case COMMA:
			if depth == 0 {
				p.next()
				return
			}
		}
		p.next()
	}
}

func (p *Parser) record(err error) {
	if me, ok := err.(*matherr.MathError); ok {
		p.errors = append(p.errors, me)
		return
	}
	p.errors = append(p.errors, matherr.NewParse(-1, "%s", err.Error()))
}

// --- token cursor ---

func (p *Parser) cur() Token {
	return p.at(0)
}

func (p *Parser) peek() Token {
	return p.at(1)
}

func (p *Parser) at(offset int) Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		end := 0
		if n := len(p.tokens); n > 0 {
			last := p.tokens[n-1]
			end = last.Pos + len(last.Literal)
		}
		return Token{Type: EOF, Pos: end}
	}
	return p.tokens[i]
}

func (p *Parser) next() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *Parser) expect(t TokenType, what string) error {
	if p.cur().Type != t {
		err := p.errorAt(p.cur().Pos, "expected %s, got %s (%q)", what, p.cur().Type, p.cur().Literal)
		if t == RBRACE || t == RPAREN || t == RBRACKET {
			err.WithSuggestion("missing " + closerLiteral(t))
		}
		return err
	}
	p.next()
	return nil
}

func closerLiteral(t TokenType) string {
	switch t {
	case RBRACE:
		return "'}'"
	case RPAREN:
		return "')'"
	case RBRACKET:
		return "']'"
	}
	return "closer"
}

func (p *Parser) errorAt(pos int, format string, args ...any) *matherr.MathError {
	return matherr.NewParse(pos, format, args...)
}

// --- depth guard ---

func (p *Parser) enter() error {
	p.depth++
	if p.depth > p.cfg.MaxDepth {
		return p.errorAt(p.cur().Pos, "nesting depth exceeds maximum of %d", p.cfg.MaxDepth)
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// --- Pratt core ---

func (p *Parser) parseExpression(precedence int) (ast.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	prefix := p.prefixParseFns[p.cur().Type]
	if prefix == nil {
		if p.cur().Type == EOF {
			return nil, p.errorAt(p.cur().Pos, "empty expression")
		}
		return nil, p.errorAt(p.cur().Pos, "unexpected token %s (%q)", p.cur().Type, p.cur().Literal)
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.cur()
		if tok.Type == EOF {
			return left, nil
		}
		// Leave a trailing ^+ / ^- for the one-sided limit tag.
		if tok.Type == CARET && (p.peek().Type == PLUS || p.peek().Type == MINUS) && p.at(2).Type == RBRACE {
			return left, nil
		}
		if prec, ok := precedences[tok.Type]; ok && precedence < prec {
			infix := p.infixParseFns[tok.Type]
			if infix == nil {
				return left, nil
			}
			left, err = infix(left)
			if err != nil {
				return nil, err
			}
			continue
		}
		// Implicit multiplication: two adjacent primaries fold into a
		// multiply node at multiplicative precedence.
		if p.cfg.ImplicitMultiplication && precedence < PRODUCT && p.startsPrimary(tok) {
			// A single-letter variable applied to a parenthesized
			// argument list parses as a call; the evaluator falls back
			// to multiplication when the name is not a function.
			if v, ok := left.(*ast.Variable); ok && tok.Type == LPAREN {
				args, err := p.parseParenArgs()
				if err != nil {
					return nil, err
				}
				fc := &ast.FunctionCall{Name: v.Name, Arg: args[0]}
				if len(args) > 1 {
					fc.Args = args[1:]
				}
				left = fc
				continue
			}
			right, err := p.parseExpression(PRODUCT)
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Op: "*", Left: left, Right: right}
			continue
		}
		return left, nil
	}
}

// parseParenArgs consumes "(a, b, c)" and returns the argument list.
func (p *Parser) parseParenArgs() ([]ast.Expr, error) {
	p.next() // consume '('
	args := []ast.Expr{}
	for {
		arg, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur().Type != COMMA {
			break
		}
		p.next()
	}
	if err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

// startsPrimary reports whether tok can begin an implicit-multiplication
// operand. Braced groups are excluded: braces after a complete
// expression belong to constructs like conditionals, not products.
func (p *Parser) startsPrimary(tok Token) bool {
	switch tok.Type {
	case NUMBER, IDENT, LPAREN, COMMAND, BEGIN:
		if tok.Type == IDENT && p.inIntegral > 0 && tok.Literal == "d" && p.peek().Type == IDENT {
			return false // differential of the enclosing integral
		}
		return true
	}
	return false
}

// --- leaf parsers ---

func (p *Parser) parseIdentifier() (ast.Expr, error) {
	name := p.cur().Literal
	p.next()
	return &ast.Variable{Name: name}, nil
}

func (p *Parser) parseNumberLiteral() (ast.Expr, error) {
	lit := p.cur().Literal
	val, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, p.errorAt(p.cur().Pos, "malformed numeric literal %q", lit)
	}
	p.next()
	return &ast.NumberLiteral{Value: val}, nil
}

func (p *Parser) parsePrefixMinus() (ast.Expr, error) {
	p.next()
	operand, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpr{Op: "-", Operand: operand}, nil
}

func (p *Parser) parsePrefixNot() (ast.Expr, error) {
	p.next()
	operand, err := p.parseExpression(NOTPREC)
	if err != nil {
		return nil, err
	}
	return &ast.LogicExpr{Op: "not", Operands: []ast.Expr{operand}}, nil
}

func (p *Parser) parseGroupedExpression() (ast.Expr, error) {
	p.next() // consume '('
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseBracketGroup() (ast.Expr, error) {
	p.next() // consume '['
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(RBRACKET, "']'"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseBracedGroup() (ast.Expr, error) {
	p.next() // consume '{'
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseAbsoluteValue() (ast.Expr, error) {
	p.next() // consume opening '|'
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.cur().Type != BAR {
		return nil, p.errorAt(p.cur().Pos, "missing closing '|'").WithSuggestion("missing '|'")
	}
	p.next()
	return &ast.AbsExpr{Arg: expr}, nil
}

func (p *Parser) parseNorm() (ast.Expr, error) {
	p.next() // consume opening double bar
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.cur().Type != DBLBAR {
		return nil, p.errorAt(p.cur().Pos, "missing closing norm delimiter")
	}
	p.next()
	return &ast.FunctionCall{Name: "norm", Arg: expr}, nil
}

// --- infix parsers ---

func (p *Parser) parseInfixExpression(left ast.Expr) (ast.Expr, error) {
	op := binaryOpFor(p.cur().Type)
	prec := precedences[p.cur().Type]
	p.next()
	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Op: op, Left: left, Right: right}, nil
}

func binaryOpFor(t TokenType) string {
	switch t {
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case ASTERISK:
		return "*"
	case CDOT:
		return "dot"
	case TIMES:
		return "cross"
	case SLASH:
		return "/"
	case CARET:
		return "^"
	}
	return "?"
}

func (p *Parser) parsePowerExpression(left ast.Expr) (ast.Expr, error) {
	p.next() // consume '^'
	// Pass precedence-1 so the right side binds tighter: right-associative.
	right, err := p.parseExpression(EXPONENT - 1)
	if err != nil {
		return nil, err
	}
	if v, ok := right.(*ast.Variable); ok && v.Name == "T" {
		return &ast.FunctionCall{Name: "transpose", Arg: left}, nil
	}
	return &ast.BinaryExpr{Op: "^", Left: left, Right: right}, nil
}

func (p *Parser) parseFactorialExpression(left ast.Expr) (ast.Expr, error) {
	p.next() // consume '!'
	return &ast.FactorialExpr{Value: left}, nil
}

// parseSubscriptExpression folds x_1 and x_{ij} into flat variable names.
func (p *Parser) parseSubscriptExpression(left ast.Expr) (ast.Expr, error) {
	v, ok := left.(*ast.Variable)
	if !ok {
		return nil, p.errorAt(p.cur().Pos, "subscript applies only to identifiers")
	}
	p.next() // consume '_'
	var sub string
	switch p.cur().Type {
	case NUMBER, IDENT:
		sub = p.cur().Literal
		p.next()
	case LBRACE:
		p.next()
		for p.cur().Type == NUMBER || p.cur().Type == IDENT {
			sub += p.cur().Literal
			p.next()
		}
		if sub == "" {
			return nil, p.errorAt(p.cur().Pos, "empty subscript")
		}
		if err := p.expect(RBRACE, "'}'"); err != nil {
			return nil, err
		}
	default:
		return nil, p.errorAt(p.cur().Pos, "expected subscript after '_'")
	}
	return &ast.Variable{Name: v.Name + "_" + sub}, nil
}

func comparisonOpFor(t TokenType) string {
	switch t {
	case EQUALS:
		return "="
	case NE:
		return "!="
	case LT:
		return "<"
	case GT:
		return ">"
	case LE:
		return "<="
	case GE:
		return ">="
	case IN:
		return "in"
	}
	return "?"
}

func (p *Parser) parseComparisonExpression(left ast.Expr) (ast.Expr, error) {
	op := comparisonOpFor(p.cur().Type)
	p.next()
	right, err := p.parseExpression(COMPARE)
	if err != nil {
		return nil, err
	}
	// A run of comparisons at the same level builds a single chain.
	switch prev := left.(type) {
	case *ast.Comparison:
		return &ast.ChainedComparison{
			Exprs: []ast.Expr{prev.Left, prev.Right, right},
			Ops:   []string{prev.Op, op},
		}, nil
	case *ast.ChainedComparison:
		return &ast.ChainedComparison{
			Exprs: append(append([]ast.Expr{}, prev.Exprs...), right),
			Ops:   append(append([]string{}, prev.Ops...), op),
		}, nil
	}
	return &ast.Comparison{Op: op, Left: left, Right: right}, nil
}

func logicOpFor(t TokenType) string {
	switch t {
	case AND:
		return "and"
	case OR:
		return "or"
	case XOR:
		return "xor"
	case IMPLIES:
		return "implies"
	case IFF:
		return "iff"
	}
	return "?"
}

func (p *Parser) parseLogicExpression(left ast.Expr) (ast.Expr, error) {
	t := p.cur().Type
	op := logicOpFor(t)
	prec := precedences[t]
	p.next()
	// Implication is right-associative; the rest associate left.
	argPrec := prec
	if t == IMPLIES {
		argPrec = prec - 1
	}
	right, err := p.parseExpression(argPrec)
	if err != nil {
		return nil, err
	}
	return &ast.LogicExpr{Op: op, Operands: []ast.Expr{left, right}}, nil
}
