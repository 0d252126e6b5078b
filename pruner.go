package goartifactcleaner

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// PruneNestedItems drops every item that lies beneath another surviving item.
//
// Items are ordered by component depth, then lexicographically, and kept
// only if no previously kept item is a strict ancestor. The result is in that
// order, and the input slice is not modified.
func PruneNestedItems(items []CandidateItem) []CandidateItem {
	if len(items) == 0 {
		return nil
	}

	sorted := make([]CandidateItem, len(items))
	copy(sorted, items)

	components := make(map[string][]string, len(sorted))
	for _, item := range sorted {
		if _, ok := components[item.Path]; !ok {
			components[item.Path] = splitPath(item.Path)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := len(components[sorted[i].Path]), len(components[sorted[j].Path])
		if di != dj {
			return di < dj
		}
		return sorted[i].Path < sorted[j].Path
	})

	kept := bitset.New(uint(len(sorted)))
	trie := newPathTrie()
	for i, item := range sorted {
		parts := components[item.Path]
		if trie.hasStrictAncestor(parts) {
			continue
		}
		trie.insert(parts)
		kept.Set(uint(i))
	}

	out := make([]CandidateItem, 0, kept.Count())
	for i, ok := kept.NextSet(0); ok; i, ok = kept.NextSet(i + 1) {
		out = append(out, sorted[i])
	}
	return out
}

// IsAncestor reports whether path lies strictly inside ancestor, comparing
// whole path components. A path is not its own ancestor.
func IsAncestor(ancestor, path string) bool {
	ancestor = filepath.Clean(ancestor)
	path = filepath.Clean(path)
	return isStrictlyUnder(ancestor, path)
}

// isStrictlyUnder is IsAncestor for paths that are already clean
func isStrictlyUnder(ancestor, path string) bool {
	if len(path) <= len(ancestor) || !strings.HasPrefix(path, ancestor) {
		return false
	}
	if strings.HasSuffix(ancestor, string(filepath.Separator)) {
		return true
	}
	return path[len(ancestor)] == filepath.Separator
}

func splitPath(path string) []string {
	parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		// filesystem root
		parts = parts[:len(parts)-1]
	}
	return parts
}

// pathTrie indexes kept paths by component
type pathTrie struct {
	children map[string]*pathTrie
	terminal bool
}

func newPathTrie() *pathTrie {
	return &pathTrie{children: make(map[string]*pathTrie)}
}

func (t *pathTrie) insert(parts []string) {
	node := t
	for _, part := range parts {
		child, ok := node.children[part]
		if !ok {
			child = newPathTrie()
			node.children[part] = child
		}
		node = child
	}
	node.terminal = true
}

// hasStrictAncestor reports whether a proper prefix of parts was inserted
func (t *pathTrie) hasStrictAncestor(parts []string) bool {
	node := t
	for _, part := range parts[:len(parts)-1] {
		node = node.children[part]
		if node == nil {
			return false
		}
		if node.terminal {
			return true
		}
	}
	return false
}
