package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lefth/tmsu/internal/query"
)

func TestCompileNoExpression(t *testing.T) {
	sql, params := Compile(nil, Options{})
	require.Contains(t, sql, "1 = 1")
	require.Empty(t, params)
}

func TestCompileSimpleTag(t *testing.T) {
	expr, err := query.Parse("photo")
	require.NoError(t, err)

	sql, params := Compile(expr, Options{})
	require.Contains(t, sql, "WITH RECURSIVE working")
	require.Equal(t, []interface{}{"photo"}, params)
}

func TestCompileExplicitOnlyTag(t *testing.T) {
	expr, err := query.Parse("photo")
	require.NoError(t, err)

	sql, _ := Compile(expr, Options{ExplicitOnly: true})
	require.NotContains(t, sql, "RECURSIVE")
}

func TestCompileNotEqualFlipsToNegatedEquality(t *testing.T) {
	expr, err := query.Parse("rating != 5")
	require.NoError(t, err)

	sql, params := Compile(expr, Options{})
	require.Contains(t, sql, "NOT")
	require.Contains(t, sql, "==")
	require.NotContains(t, sql, "!=")
	require.Equal(t, []interface{}{"rating", "5"}, params)
}

func TestCompileExplicitOnlyComparisonIgnoresOperator(t *testing.T) {
	expr, err := query.Parse("size > 100")
	require.NoError(t, err)

	sql, params := Compile(expr, Options{ExplicitOnly: true})
	require.NotContains(t, sql, ">")
	require.NotContains(t, sql, "CAST")
	require.Contains(t, sql, "value_id = (SELECT id FROM value WHERE name = ")
	require.Equal(t, []interface{}{"size", "100"}, params)
}

func TestCompileNumericComparisonCastsToFloat(t *testing.T) {
	expr, err := query.Parse("size > 100")
	require.NoError(t, err)

	sql, _ := Compile(expr, Options{})
	require.Contains(t, sql, "CAST(v.name AS float)")
}

func TestCompileAndOrNesting(t *testing.T) {
	expr, err := query.Parse("a and b or c")
	require.NoError(t, err)

	sql, params := Compile(expr, Options{})
	require.Contains(t, sql, "AND")
	require.Contains(t, sql, "OR")
	require.Len(t, params, 3)
}
