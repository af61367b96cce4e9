// Package texmath is the front-door facade over the TeX math pipeline:
// parse, evaluate, validate, transform symbolically, and export.
//
// A Service owns mutable state (the global environment, the parsed
// expression cache and the assumption table) and is therefore not safe
// for simultaneous mutation from multiple goroutines. Concurrent
// read-only evaluation against a stable environment is fine: the parse
// cache carries its own lock.
package texmath

import (
	"github.com/ZanzyTHEbar/texmath/internal/domain/eval"
	"github.com/ZanzyTHEbar/texmath/internal/domain/export"
	"github.com/ZanzyTHEbar/texmath/internal/domain/matherr"
	"github.com/ZanzyTHEbar/texmath/internal/domain/parser"
	"github.com/ZanzyTHEbar/texmath/internal/domain/symbolic"
	"github.com/ZanzyTHEbar/texmath/pkg/ast"
	"github.com/ZanzyTHEbar/texmath/pkg/value"
)

type config struct {
	realOnly         bool
	implicitMul      bool
	maxDepth         int
	cacheSize        int
	iterationCap     int
	simpsonIntervals int
	infinityBound    float64
	extensions       *Extensions
}

// Option configures a Service at construction time.
type Option func(*config)

// WithRealOnly substitutes Numeric(NaN) for every would-be Complex
// result.
func WithRealOnly(on bool) Option {
	return func(c *config) { c.realOnly = on }
}

// WithImplicitMultiplication toggles folding of adjacent primaries
// into products (default on).
func WithImplicitMultiplication(on bool) Option {
	return func(c *config) { c.implicitMul = on }
}

// WithMaxDepth sets the shared nesting/recursion ceiling.
func WithMaxDepth(depth int) Option {
	return func(c *config) { c.maxDepth = depth }
}

// WithCacheSize bounds the parsed-expression LRU (0 disables caching).
func WithCacheSize(n int) Option {
	return func(c *config) { c.cacheSize = n }
}

// WithIterationCap bounds sum and product ranges.
func WithIterationCap(n int) Option {
	return func(c *config) { c.iterationCap = n }
}

// WithSimpsonIntervals sets the subinterval count for numeric
// integration.
func WithSimpsonIntervals(n int) Option {
	return func(c *config) { c.simpsonIntervals = n }
}

// WithInfinityBound sets the finite surrogate used when an integration
// bound is infinite.
func WithInfinityBound(v float64) Option {
	return func(c *config) { c.infinityBound = v }
}

// WithExtensions installs an extension registry.
func WithExtensions(x *Extensions) Option {
	return func(c *config) { c.extensions = x }
}

// Service bundles the pipeline with a result cache and convenience
// methods.
type Service struct {
	cfg       config
	parser    *parser.Parser
	evaluator *eval.Evaluator
	sym       *symbolic.Engine
	cache     *parseCache
}

// New creates a Service with the given options.
func New(opts ...Option) *Service {
	cfg := config{
		implicitMul:      true,
		maxDepth:         parser.DefaultMaxDepth,
		cacheSize:        DefaultCacheSize,
		iterationCap:     eval.DefaultIterationCap,
		simpsonIntervals: eval.DefaultSimpsonIntervals,
		infinityBound:    eval.DefaultInfinityBound,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	parserCfg := parser.Config{
		ImplicitMultiplication: cfg.implicitMul,
		MaxDepth:               cfg.maxDepth,
	}

	evaluator := eval.New()
	evaluator.RealOnly = cfg.realOnly
	evaluator.MaxDepth = cfg.maxDepth
	evaluator.IterationCap = cfg.iterationCap
	evaluator.SimpsonIntervals = cfg.simpsonIntervals
	evaluator.InfinityBound = cfg.infinityBound

	if cfg.extensions != nil {
		extFns := map[string]bool{}
		rules := map[string]parser.CommandRule{}
		for name, rule := range cfg.extensions.commands {
			userRule := rule
			rules[name] = func(cmdName string, pos int) parser.Token {
				tok := userRule(cmdName, pos)
				switch tok.Kind {
				case TokenIdentifier:
					return parser.Token{Type: parser.IDENT, Literal: tok.Text, Pos: pos}
				case TokenNumber:
					return parser.Token{Type: parser.NUMBER, Literal: tok.Text, Pos: pos}
				default:
					extFns[tok.Text] = true
					return parser.Token{Type: parser.COMMAND, Literal: tok.Text, Pos: pos}
				}
			}
			// Function-kind rules conventionally keep the command name.
			extFns[name] = true
		}
		parserCfg.Extensions = rules
		parserCfg.ExtensionFunctions = extFns

		for _, h := range cfg.extensions.evaluators {
			userHandler := h
			evaluator.RegisterHandler(func(e ast.Expr, locals map[string]value.Result, recur eval.Recur) (value.Result, bool, error) {
				return userHandler(e, locals, Recur(recur))
			})
		}
	}

	sym := symbolic.NewEngine()
	sym.MaxDepth = cfg.maxDepth

	return &Service{
		cfg:       cfg,
		parser:    parser.New(parserCfg),
		evaluator: evaluator,
		sym:       sym,
		cache:     newParseCache(cfg.cacheSize),
	}
}

// --- configuration getters ---

// MaxRecursionDepth reports the configured depth ceiling.
func (s *Service) MaxRecursionDepth() int { return s.cfg.maxDepth }

// ParsedExpressionCacheSize reports the configured LRU capacity.
func (s *Service) ParsedExpressionCacheSize() int { return s.cfg.cacheSize }

// RealOnly reports whether complex results are suppressed.
func (s *Service) RealOnly() bool { return s.cfg.realOnly }

// AllowImplicitMultiplication reports whether adjacent primaries
// multiply.
func (s *Service) AllowImplicitMultiplication() bool { return s.cfg.implicitMul }

// --- pipeline methods ---

func (s *Service) cacheKey(source string) string {
	// The configuration flags are fixed per Service; the key encodes
	// them anyway so snapshots of different services never collide.
	flags := byte('0')
	if s.cfg.implicitMul {
		flags = '1'
	}
	return string(flags) + "\x00" + source
}

// Parse returns the expression tree for source, consulting the cache.
func (s *Service) Parse(source string) (ast.Expr, error) {
	key := s.cacheKey(source)
	if expr, ok := s.cache.get(key); ok {
		return expr, nil
	}
	expr, err := s.parser.Parse(source)
	if err != nil {
		return nil, err
	}
	s.cache.put(key, expr)
	return expr, nil
}

// Evaluate parses and evaluates source against the optional locals.
func (s *Service) Evaluate(source string, locals map[string]value.Result) (value.Result, error) {
	expr, err := s.Parse(source)
	if err != nil {
		return value.Result{}, err
	}
	return s.EvaluateParsed(expr, locals)
}

// EvaluateParsed evaluates an already-parsed tree.
func (s *Service) EvaluateParsed(expr ast.Expr, locals map[string]value.Result) (value.Result, error) {
	return s.evaluator.Evaluate(expr, locals)
}

// Numbers converts a plain float map into evaluation locals.
func Numbers(m map[string]float64) map[string]value.Result {
	out := make(map[string]value.Result, len(m))
	for k, v := range m {
		out[k] = value.NewNumeric(v)
	}
	return out
}

// ValidationIssue is one collected sub-error.
type ValidationIssue struct {
	Message    string
	Position   int
	Suggestion string
}

// Validation is the outcome of Validate.
type Validation struct {
	Valid      bool
	Message    string
	Position   int
	Suggestion string
	SubErrors  []ValidationIssue
}

// Validate checks source and reports every error the recovery-mode
// parser can collect.
func (s *Service) Validate(source string) Validation {
	_, errs := s.parser.ParseAll(source)
	if len(errs) == 0 {
		return Validation{Valid: true, Position: -1}
	}
	out := Validation{Valid: false, Position: -1}
	for _, e := range errs {
		out.SubErrors = append(out.SubErrors, ValidationIssue{
			Message:    e.Message,
			Position:   e.Pos,
			Suggestion: e.Suggestion,
		})
	}
	first := errs[0]
	out.Message = first.Message
	out.Position = first.Pos
	out.Suggestion = first.Suggestion
	return out
}

// IsValid reports whether source parses cleanly.
func (s *Service) IsValid(source string) bool {
	_, err := s.Parse(source)
	return err == nil
}

// ClearEnvironment drops every user binding; built-in constants remain
// resolvable.
func (s *Service) ClearEnvironment() {
	s.evaluator.Globals().Clear()
}

// --- symbolic methods ---

// Differentiate parses source and differentiates it order times with
// respect to variable.
func (s *Service) Differentiate(source, variable string, order int) (ast.Expr, error) {
	expr, err := s.Parse(source)
	if err != nil {
		return nil, err
	}
	return s.DifferentiateExpr(expr, variable, order)
}

// DifferentiateExpr differentiates an already-parsed tree.
func (s *Service) DifferentiateExpr(expr ast.Expr, variable string, order int) (ast.Expr, error) {
	return s.sym.Differentiate(expr, variable, order)
}

// Integrate parses source and returns an antiderivative.
func (s *Service) Integrate(source, variable string) (ast.Expr, error) {
	expr, err := s.Parse(source)
	if err != nil {
		return nil, err
	}
	return s.IntegrateExpr(expr, variable)
}

// IntegrateExpr integrates an already-parsed tree.
func (s *Service) IntegrateExpr(expr ast.Expr, variable string) (ast.Expr, error) {
	return s.sym.Integrate(expr, variable)
}

// Simplify applies the full identity families to source.
func (s *Service) Simplify(source string) (ast.Expr, error) {
	expr, err := s.Parse(source)
	if err != nil {
		return nil, err
	}
	return s.sym.Simplify(expr)
}

// SimplifyExpr simplifies an already-parsed tree.
func (s *Service) SimplifyExpr(expr ast.Expr) (ast.Expr, error) {
	return s.sym.Simplify(expr)
}

// Expand distributes products over sums.
func (s *Service) Expand(source string) (ast.Expr, error) {
	expr, err := s.Parse(source)
	if err != nil {
		return nil, err
	}
	return s.sym.Expand(expr)
}

// ExpandExpr expands an already-parsed tree.
func (s *Service) ExpandExpr(expr ast.Expr) (ast.Expr, error) {
	return s.sym.Expand(expr)
}

// ExpandTrig rewrites multiple-angle and half-angle trig forms.
func (s *Service) ExpandTrig(source string) (ast.Expr, error) {
	expr, err := s.Parse(source)
	if err != nil {
		return nil, err
	}
	return s.sym.ExpandTrig(expr)
}

// Factor recognizes factored forms on polynomial trees.
func (s *Service) Factor(source string) (ast.Expr, error) {
	expr, err := s.Parse(source)
	if err != nil {
		return nil, err
	}
	return s.sym.Factor(expr)
}

// FactorExpr factors an already-parsed tree.
func (s *Service) FactorExpr(expr ast.Expr) (ast.Expr, error) {
	return s.sym.Factor(expr)
}

// Solve returns the symbolic roots of a linear or quadratic equation
// in variable.
func (s *Service) Solve(source, variable string) ([]ast.Expr, error) {
	expr, err := s.Parse(source)
	if err != nil {
		return nil, err
	}
	return s.sym.Solve(expr, variable, s.cfg.realOnly)
}

// Assume attaches assumption tags (positive, negative, real, integer,
// nonzero) to a variable name. Assumptions scope to this Service and
// influence only the symbolic passes.
func (s *Service) Assume(variable string, tags ...string) {
	s.sym.Assumptions.Assume(variable, tags...)
}

// ClearAssumptions drops the assumption table.
func (s *Service) ClearAssumptions() {
	s.sym.Assumptions.Clear()
}

// --- export methods ---

// ToLatex serializes a tree back to canonical TeX.
func (s *Service) ToLatex(expr ast.Expr) (string, error) {
	return export.Latex(expr)
}

// ToMathML serializes a tree to presentation markup.
func (s *Service) ToMathML(expr ast.Expr) (string, error) {
	return export.MathML(expr)
}

// ToJSONTree dumps a tree as a structured map.
func (s *Service) ToJSONTree(expr ast.Expr) (map[string]any, error) {
	return export.JSONTree(expr)
}

// ToJSON dumps a tree as a JSON document.
func (s *Service) ToJSON(expr ast.Expr) (string, error) {
	return export.JSON(expr)
}

// ToSymPy serializes a tree to SymPy surface syntax.
func (s *Service) ToSymPy(expr ast.Expr) (string, error) {
	return export.SymPy(expr)
}

// ToSymPyScript produces a runnable SymPy script that declares the
// free variables.
func (s *Service) ToSymPyScript(expr ast.Expr) (string, error) {
	return export.SymPyScript(expr)
}

// IsEvaluationError reports whether err came from the evaluator (as
// opposed to the tokenizer or parser).
func IsEvaluationError(err error) bool {
	return matherr.IsKind(err, matherr.Evaluation)
}

// IsParseError reports whether err came from the parser.
func IsParseError(err error) bool {
	return matherr.IsKind(err, matherr.Parse)
}

// IsTokenizationError reports whether err came from the tokenizer.
func IsTokenizationError(err error) bool {
	return matherr.IsKind(err, matherr.Tokenization)
}
