package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	tr := New()
	tr.Add("/a/b/c", false)
	tr.Add("/a/b/d", false)
	tr.Add("/a/b", true)
	tr.Add("/a/b/e", false)
	tr.Add("/a/f", false)
	tr.Add("/a/b", true)
	tr.Add("/j/k/l", false)
	tr.Add("/j/k/m", false)

	require.Equal(t, []string{"/a/b", "/a/b/c", "/a/b/d", "/a/b/e", "/a/f", "/j/k/l", "/j/k/m"}, tr.Paths())
}

func TestTopLevel(t *testing.T) {
	tr := New()
	tr.Add("/a/b/c", false)
	tr.Add("/a/b/d", false)
	tr.Add("/a/b", true)
	tr.Add("/a/b/e", false)
	tr.Add("/a/f", true)
	tr.Add("/a/b", true)
	tr.Add("/j/k/l", false)
	tr.Add("/j/k/m", false)

	require.Equal(t, []string{"/a/b", "/a/f", "/j/k/l", "/j/k/m"}, tr.TopLevel().Paths())
}
