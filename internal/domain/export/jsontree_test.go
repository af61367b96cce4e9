package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func jsonFor(t *testing.T, src string) string {
	t.Helper()
	doc, err := JSON(parseExpr(t, src))
	require.NoError(t, err)
	require.True(t, gjson.Valid(doc), "invalid JSON: %s", doc)
	return doc
}

func TestJSONTreeShapes(t *testing.T) {
	doc := jsonFor(t, "2 + 3 * 4")
	assert.Equal(t, "BinaryExpr", gjson.Get(doc, "type").String())
	assert.Equal(t, "+", gjson.Get(doc, "op").String())
	assert.Equal(t, "NumberLiteral", gjson.Get(doc, "left.type").String())
	assert.Equal(t, 2.0, gjson.Get(doc, "left.value").Float())
	assert.Equal(t, "*", gjson.Get(doc, "right.op").String())
	assert.Equal(t, 4.0, gjson.Get(doc, "right.right.value").Float())

	doc = jsonFor(t, `\sqrt[3]{x}`)
	assert.Equal(t, "FunctionCall", gjson.Get(doc, "type").String())
	assert.Equal(t, "sqrt", gjson.Get(doc, "name").String())
	assert.Equal(t, 3.0, gjson.Get(doc, "index.value").Float())
	assert.Equal(t, "Variable", gjson.Get(doc, "arg.type").String())
	assert.Equal(t, "x", gjson.Get(doc, "arg.name").String())

	doc = jsonFor(t, `\sum_{i=1}^{5} {i^2}`)
	assert.Equal(t, "SumExpr", gjson.Get(doc, "type").String())
	assert.Equal(t, "i", gjson.Get(doc, "var").String())
	assert.Equal(t, 1.0, gjson.Get(doc, "lower.value").Float())
	assert.Equal(t, 5.0, gjson.Get(doc, "upper.value").Float())
	assert.Equal(t, "BinaryExpr", gjson.Get(doc, "body.type").String())

	doc = jsonFor(t, `\prod_{i=1}^{5} i`)
	assert.Equal(t, "ProductExpr", gjson.Get(doc, "type").String())

	doc = jsonFor(t, `\begin{pmatrix} 1 & 2 \\ 3 & 4 \end{pmatrix}`)
	assert.Equal(t, "MatrixExpr", gjson.Get(doc, "type").String())
	assert.Equal(t, "pmatrix", gjson.Get(doc, "style").String())
	assert.Equal(t, int64(2), gjson.Get(doc, "rows.#").Int())
	assert.Equal(t, 4.0, gjson.Get(doc, "rows.1.1.value").Float())

	doc = jsonFor(t, `\begin{cases} x & x > 0 \\ -x & \text{otherwise} \end{cases}`)
	assert.Equal(t, "PiecewiseExpr", gjson.Get(doc, "type").String())
	assert.Equal(t, int64(2), gjson.Get(doc, "cases.#").Int())
	assert.Equal(t, "Comparison", gjson.Get(doc, "cases.0.condition.type").String())
	assert.False(t, gjson.Get(doc, "cases.1.condition").Exists() && gjson.Get(doc, "cases.1.condition").Type != gjson.Null)

	doc = jsonFor(t, `\frac{d^{2}}{dx^{2}}{x^3}`)
	assert.Equal(t, "DerivativeExpr", gjson.Get(doc, "type").String())
	assert.Equal(t, int64(2), gjson.Get(doc, "order").Int())
	assert.Equal(t, "x", gjson.Get(doc, "var").String())

	doc = jsonFor(t, `\frac{\partial}{\partial y}{x}`)
	assert.Equal(t, "PartialDerivativeExpr", gjson.Get(doc, "type").String())

	doc = jsonFor(t, `\int_{0}^{1} {x} dx`)
	assert.Equal(t, "IntegralExpr", gjson.Get(doc, "type").String())
	assert.False(t, gjson.Get(doc, "closed").Bool())

	doc = jsonFor(t, "1 < x <= 5")
	assert.Equal(t, "ChainedComparison", gjson.Get(doc, "type").String())
	assert.Equal(t, int64(3), gjson.Get(doc, "exprs.#").Int())
	assert.Equal(t, int64(2), gjson.Get(doc, "ops.#").Int())

	doc = jsonFor(t, "let a = 5")
	assert.Equal(t, "AssignmentExpr", gjson.Get(doc, "type").String())
	assert.Equal(t, "a", gjson.Get(doc, "name").String())

	doc = jsonFor(t, "f(x, y) = x + y")
	assert.Equal(t, "FunctionDefinitionExpr", gjson.Get(doc, "type").String())
	assert.Equal(t, int64(2), gjson.Get(doc, "params.#").Int())

	doc = jsonFor(t, "|x|")
	assert.Equal(t, "AbsoluteValue", gjson.Get(doc, "type").String())

	doc = jsonFor(t, `\vec{1, 2}`)
	assert.Equal(t, "VectorExpr", gjson.Get(doc, "type").String())
	assert.Equal(t, int64(2), gjson.Get(doc, "components.#").Int())
	assert.False(t, gjson.Get(doc, "unit").Bool())
}
