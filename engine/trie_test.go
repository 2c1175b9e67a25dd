package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageIndex(t *testing.T) {
	idx := NewPageIndex()
	idx.Add("latest", "guide/install.html")
	idx.Add("latest", "index.html")
	idx.Add("v1.0", "guide/install.html")

	assert.True(t, idx.Has("latest", "guide/install.html"))
	assert.True(t, idx.Has("latest", "/guide/install.html")) // leading slash tolerated
	assert.True(t, idx.Has("v1.0", "guide/install.html"))

	assert.False(t, idx.Has("latest", "guide"))        // intermediate node, not a page
	assert.False(t, idx.Has("latest", "missing.html"))
	assert.False(t, idx.Has("v2.0", "guide/install.html"))
}

func TestLoadPageIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.txt")
	require.NoError(t, os.WriteFile(path, []byte(`
# built pages
latest index.html
latest guide/install.html
v1.0 index.html
`), 0644))

	idx, err := LoadPageIndex(path)
	require.NoError(t, err)
	assert.True(t, idx.Has("latest", "guide/install.html"))
	assert.True(t, idx.Has("v1.0", "index.html"))
	assert.False(t, idx.Has("v1.0", "guide/install.html"))
}

func TestLoadPageIndexMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.txt")
	require.NoError(t, os.WriteFile(path, []byte("latest\n"), 0644))

	_, err := LoadPageIndex(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":1:")
}
