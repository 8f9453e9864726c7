// Package tree implements the path trie of spec.md §4.10 (part of C10),
// grounded on original_source/src/tree.rs, translated field-for-field from
// its HashMap<String, Node> children model onto Go maps.
package tree

import (
	"path/filepath"
	"sort"
	"strings"
)

// Tree is a trie of path components, each node tracking whether that exact
// path was inserted (IsReal) and whether it denotes a directory (IsDir).
type Tree struct {
	root *node
}

type node struct {
	name     string
	children map[string]*node
	isReal   bool
	isDir    bool
}

func newNode(name string, isReal, isDir bool) *node {
	return &node{name: name, children: map[string]*node{}, isReal: isReal, isDir: isDir}
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: newNode("", false, true)}
}

// Add inserts path, splitting on the OS path separator (Unix-style absolute
// paths only, matching the original). Inserting the same path twice merges
// flags: a node that was ever inserted as real stays real.
func (t *Tree) Add(path string, isDir bool) {
	parts := strings.Split(path, string(filepath.Separator))
	count := len(parts)

	current := t.root
	for i, part := range parts {
		isReal := i == count-1
		if part == "" {
			part = "/"
		}

		child, ok := current.children[part]
		if !ok {
			child = newNode(part, isReal, true)
			current.children[part] = child
		}
		if isReal && !child.isReal {
			child.isReal = true
		}

		current.isDir = true
		current = child
	}
	current.isDir = isDir
}

// Paths returns every real node's full path, sorted.
func (t *Tree) Paths() []string {
	var results []string
	t.root.collectPaths(&results, "")
	sort.Strings(results)
	return results
}

func (n *node) collectPaths(results *[]string, prefix string) {
	var next string
	switch prefix {
	case "":
		next = n.name
	case "/":
		next = prefix + n.name
	default:
		next = prefix + string(filepath.Separator) + n.name
	}

	if n.isReal {
		*results = append(*results, next)
	}
	for _, child := range n.children {
		child.collectPaths(results, next)
	}
}

// TopLevel builds a pruned tree containing only the nodes on the path from
// the root to the first real node along each branch: once a branch hits a
// real node, its descendants are dropped from the result (a filesystem scan
// starting at that real node will rediscover them).
func (t *Tree) TopLevel() *Tree {
	result := New()
	t.root.findTopLevel(result.root)
	return result
}

func (n *node) findTopLevel(out *node) {
	out.isReal = n.isReal
	if n.isReal {
		return
	}
	for name, child := range n.children {
		resultChild := newNode(child.name, false, child.isDir)
		out.children[name] = resultChild
		child.findTopLevel(resultChild)
	}
}
