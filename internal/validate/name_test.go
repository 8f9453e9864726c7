package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNameRejectsEmpty(t *testing.T) {
	require.False(t, Name("").Valid)
}

func TestNameRejectsDot(t *testing.T) {
	require.False(t, Name(".").Valid)
}

func TestNameAllowsThreeDots(t *testing.T) {
	require.True(t, Name("...").Valid)
}

func TestNameRejectsReservedKeywordLowercase(t *testing.T) {
	require.False(t, Name("and").Valid)
}

func TestNameAllowsMixedCaseReservedKeyword(t *testing.T) {
	require.True(t, Name("AnD").Valid)
}

func TestNameAllowsNonLatinLettersAndPunctuation(t *testing.T) {
	require.True(t, Name("今日は!").Valid)
}

func TestNameRejectsControlCharacter(t *testing.T) {
	require.False(t, Name("control\u0001har").Valid)
}
