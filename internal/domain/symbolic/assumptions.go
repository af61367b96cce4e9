package symbolic

import "github.com/ZanzyTHEbar/texmath/pkg/ast"

// Assumption tags.
const (
	TagPositive = "positive"
	TagNegative = "negative"
	TagReal     = "real"
	TagInteger  = "integer"
	TagNonzero  = "nonzero"
)

// Assumptions maps variable names to tag sets. Only the symbolic
// engine consults it; the evaluator ignores assumptions entirely.
type Assumptions struct {
	tags map[string]map[string]bool
}

// NewAssumptions creates an empty table.
func NewAssumptions() *Assumptions {
	return &Assumptions{tags: map[string]map[string]bool{}}
}

// Assume attaches tags to a variable name.
func (a *Assumptions) Assume(name string, tags ...string) {
	set := a.tags[name]
	if set == nil {
		set = map[string]bool{}
		a.tags[name] = set
	}
	for _, t := range tags {
		set[t] = true
	}
}

// Has reports whether the named variable carries the tag.
func (a *Assumptions) Has(name, tag string) bool {
	return a.tags[name][tag]
}

// Clear drops every assumption.
func (a *Assumptions) Clear() {
	a.tags = map[string]map[string]bool{}
}

// isPositive reports whether e is known positive: a positive literal,
// a variable tagged positive, or an even power of a nonzero-tagged
// variable.
func (a *Assumptions) isPositive(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.NumberLiteral:
		return x.Value > 0
	case *ast.Variable:
		return a.Has(x.Name, TagPositive)
	case *ast.BinaryExpr:
		if x.Op == "*" || x.Op == "/" {
			return a.isPositive(x.Left) && a.isPositive(x.Right)
		}
		if x.Op == "^" {
			if n, ok := numValue(x.Right); ok && isInteger(n) && int64(n)%2 == 0 {
				if v, ok := x.Left.(*ast.Variable); ok {
					return a.Has(v.Name, TagNonzero) || a.Has(v.Name, TagPositive) || a.Has(v.Name, TagNegative)
				}
			}
			return a.isPositive(x.Left)
		}
	}
	return false
}
