package query

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWorkedExample(t *testing.T) {
	expr, err := Parse("not (not b) (a) or c = 2 or d == 3 or e != 4 or f > 5")
	require.NoError(t, err)

	tags := TagNames(expr)
	sort.Strings(tags)
	require.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, tags)

	values := ExactValueNames(expr)
	sort.Strings(values)
	require.Equal(t, []string{"2", "3", "4"}, values)
}

func TestParseEmptyInputIsAbsentExpression(t *testing.T) {
	expr, err := Parse("   ")
	require.NoError(t, err)
	require.Nil(t, expr)
}

func TestParseAndFoldsRightAssociatively(t *testing.T) {
	expr, err := Parse("a and b and c")
	require.NoError(t, err)
	require.Equal(t, And{Left: Tag{Name: "a"}, Right: And{Left: Tag{Name: "b"}, Right: Tag{Name: "c"}}}, expr)
}

func TestParseOrFoldsRightAssociatively(t *testing.T) {
	expr, err := Parse("a or b or c")
	require.NoError(t, err)
	require.Equal(t, Or{Left: Tag{Name: "a"}, Right: Or{Left: Tag{Name: "b"}, Right: Tag{Name: "c"}}}, expr)
}

func TestParseImplicitAndHasSamePriorityAsExplicit(t *testing.T) {
	implicit, err := Parse("a b")
	require.NoError(t, err)
	explicit, err := Parse("a and b")
	require.NoError(t, err)
	require.Equal(t, explicit, implicit)
}

func TestParseEscapedCharacterIsLiteral(t *testing.T) {
	expr, err := Parse(`a\ b`)
	require.NoError(t, err)
	require.Equal(t, Tag{Name: "a b"}, expr)
}

func TestParseEscapedReservedKeywordIsNotReserved(t *testing.T) {
	expr, err := Parse(`\or`)
	require.NoError(t, err)
	require.Equal(t, Tag{Name: "or"}, expr)
}

func TestParseTrailingLoneBackslashIsDropped(t *testing.T) {
	expr, err := Parse(`a\`)
	require.NoError(t, err)
	require.Equal(t, Tag{Name: "a"}, expr)
}

func TestParseBareReservedKeywordIsRejected(t *testing.T) {
	_, err := Parse("and")
	require.Error(t, err)
}

func TestParseMixedCaseReservedKeywordIsAllowedAsTagName(t *testing.T) {
	expr, err := Parse("AnD")
	require.NoError(t, err)
	require.Equal(t, Tag{Name: "AnD"}, expr)
}

func TestParseTrailingGarbageIsAnError(t *testing.T) {
	_, err := Parse("a )")
	require.Error(t, err)
}

func TestParseKeywordComparisonOperators(t *testing.T) {
	expr, err := Parse("size gt 5")
	require.NoError(t, err)
	require.Equal(t, Comparison{Tag: "size", Op: GreaterThan, Value: "5"}, expr)
}
