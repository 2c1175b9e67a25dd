package engine

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// trieNode represents a node in the page path trie.
type trieNode struct {
	children map[string]*trieNode
	// A page ends at this node, e.g. "guide/install.html" is marked at
	// guide -> install.html.
	page bool
}

// PageIndex is a thread-safe trie of the pages built for a project, keyed by
// version slug and path segments. It answers "does this file exist on the
// canonical site", which decides whether a non-force redirect may fire.
type PageIndex struct {
	root *trieNode
	mu   sync.RWMutex
}

// NewPageIndex creates a new empty index.
func NewPageIndex() *PageIndex {
	return &PageIndex{
		root: &trieNode{
			children: make(map[string]*trieNode),
		},
	}
}

// Add records a built page for a version. file is the version-relative path,
// with or without a leading slash.
func (x *PageIndex) Add(versionSlug, file string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	node := x.root
	for _, part := range pageKey(versionSlug, file) {
		if node.children == nil {
			node.children = make(map[string]*trieNode)
		}
		if node.children[part] == nil {
			node.children[part] = &trieNode{children: make(map[string]*trieNode)}
		}
		node = node.children[part]
	}
	node.page = true
}

// Has reports whether the exact page exists for the version.
func (x *PageIndex) Has(versionSlug, file string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	node := x.root
	for _, part := range pageKey(versionSlug, file) {
		node = node.children[part]
		if node == nil {
			return false
		}
	}
	return node.page
}

func pageKey(versionSlug, file string) []string {
	file = strings.Trim(file, "/")
	parts := []string{versionSlug}
	if file != "" {
		parts = append(parts, strings.Split(file, "/")...)
	}
	return parts
}

// LoadPageIndex reads a page manifest: one "<version> <file>" pair per line,
// blank lines and #-comments skipped.
func LoadPageIndex(path string) (*PageIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx := NewPageIndex()
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected '<version> <file>'", path, lineno)
		}
		idx.Add(fields[0], fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return idx, nil
}
