package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redirector/config"
	"redirector/rules"
)

func testProject() *config.Project {
	return &config.Project{Slug: "demo", Language: "en", DefaultVersion: "latest"}
}

func testResolver() PathResolver {
	return SitePathResolver{}
}

func TestMatchPrefix(t *testing.T) {
	r := &rules.Rule{Type: rules.TypePrefix, FromURL: "/dev/", HTTPStatus: 302, Active: true}
	p := testProject()

	dest, ok := Match(r, p, testResolver(), "/dev/install.html", "/en/latest/dev/install.html", "", "")
	require.True(t, ok)
	assert.Equal(t, "/en/latest/install.html", dest)

	// The remainder after the prefix is exactly the version-relative path
	// with the prefix removed.
	dest, ok = Match(r, p, testResolver(), "/dev/a/b/c.html", "", "", "")
	require.True(t, ok)
	assert.Equal(t, "/en/latest/a/b/c.html", dest)

	_, ok = Match(r, p, testResolver(), "/stable/install.html", "", "", "")
	assert.False(t, ok)
}

func TestMatchPrefixHonorsOverrides(t *testing.T) {
	r := &rules.Rule{Type: rules.TypePrefix, FromURL: "/dev/", HTTPStatus: 302, Active: true}

	dest, ok := Match(r, testProject(), testResolver(), "/dev/x.html", "", "ja", "v2.0")
	require.True(t, ok)
	assert.Equal(t, "/ja/v2.0/x.html", dest)
}

func TestMatchPage(t *testing.T) {
	r := &rules.Rule{Type: rules.TypePage, FromURL: "/install.html", ToURL: "/tutorial/install.html", HTTPStatus: 302, Active: true}
	p := testProject()

	dest, ok := Match(r, p, testResolver(), "/install.html", "/en/latest/install.html", "", "")
	require.True(t, ok)
	assert.Equal(t, "/en/latest/tutorial/install.html", dest)

	_, ok = Match(r, p, testResolver(), "/install.html/extra", "", "", "")
	assert.False(t, ok)
	_, ok = Match(r, p, testResolver(), "/installing.html", "", "", "")
	assert.False(t, ok)
}

func TestMatchPageCrossdomain(t *testing.T) {
	// Page redirects may point off-site; the destination bypasses path
	// composition entirely.
	r := &rules.Rule{Type: rules.TypePage, FromURL: "/install.html", ToURL: "https://example.com/install/", HTTPStatus: 302, Active: true}

	dest, ok := Match(r, testProject(), testResolver(), "/install.html", "", "", "")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/install/", dest)
}

func TestMatchExactVerbatim(t *testing.T) {
	r := &rules.Rule{Type: rules.TypeExact, FromURL: "/en/latest/install.html", ToURL: "/en/stable/install.html", HTTPStatus: 302, Active: true}
	p := testProject()

	// Exact matches on the full path, regardless of the relative path.
	dest, ok := Match(r, p, testResolver(), "/whatever", "/en/latest/install.html", "", "")
	require.True(t, ok)
	assert.Equal(t, "/en/stable/install.html", dest)

	_, ok = Match(r, p, testResolver(), "/install.html", "/en/stable/install.html", "", "")
	assert.False(t, ok)
}

func TestMatchExactEmptyDestination(t *testing.T) {
	// Empty string is a valid destination (project root), distinct from
	// no match.
	r := &rules.Rule{Type: rules.TypeExact, FromURL: "/en/latest/gone.html", ToURL: "", HTTPStatus: 302, Active: true}

	dest, ok := Match(r, testProject(), testResolver(), "/gone.html", "/en/latest/gone.html", "", "")
	require.True(t, ok)
	assert.Equal(t, "", dest)
}

func TestMatchExactWildcard(t *testing.T) {
	r := &rules.Rule{Type: rules.TypeExact, FromURL: "/docs/$rest", ToURL: "/v2/", HTTPStatus: 302, Active: true}
	p := testProject()

	dest, ok := Match(r, p, testResolver(), "", "/docs/api/foo", "", "")
	require.True(t, ok)
	assert.Equal(t, "/v2/api/foo", dest)

	_, ok = Match(r, p, testResolver(), "", "/other/api/foo", "", "")
	assert.False(t, ok)
}

func TestMatchExactWildcardReplacesFirstOccurrenceOnly(t *testing.T) {
	r := &rules.Rule{Type: rules.TypeExact, FromURL: "/docs/$rest", ToURL: "/x/", HTTPStatus: 302, Active: true}

	dest, ok := Match(r, testProject(), testResolver(), "", "/docs/a/docs/b", "", "")
	require.True(t, ok)
	assert.Equal(t, "/x/a/docs/b", dest)
}

func TestMatchSphinxHTMLToHTMLDir(t *testing.T) {
	r := &rules.Rule{Type: rules.TypeSphinxHTMLToHTMLDir, HTTPStatus: 302, Active: true}
	p := testProject()

	dest, ok := Match(r, p, testResolver(), "/guide/", "", "", "")
	require.True(t, ok)
	assert.Equal(t, "/en/latest/guide.html", dest)

	dest, ok = Match(r, p, testResolver(), "/guide/index.html", "", "", "")
	require.True(t, ok)
	assert.Equal(t, "/en/latest/guide.html", dest)

	// A page that isn't an index page is left alone.
	_, ok = Match(r, p, testResolver(), "/guide/other.html", "", "", "")
	assert.False(t, ok)
}

func TestMatchSphinxHTMLToHTMLDirAnchored(t *testing.T) {
	r := &rules.Rule{Type: rules.TypeSphinxHTMLToHTMLDir, HTTPStatus: 302, Active: true}

	// Only the trailing occurrence is rewritten; the same substring earlier
	// in the path stays intact.
	dest, ok := Match(r, testProject(), testResolver(), "/index.html/index.html", "", "", "")
	require.True(t, ok)
	assert.Equal(t, "/en/latest/index.html.html", dest)

	_, ok = Match(r, testProject(), testResolver(), "/a/index.html/b", "", "", "")
	assert.False(t, ok)
}

func TestMatchSphinxHTMLDirToHTML(t *testing.T) {
	r := &rules.Rule{Type: rules.TypeSphinxHTMLDirToHTML, HTTPStatus: 302, Active: true}
	p := testProject()

	dest, ok := Match(r, p, testResolver(), "/guide/install.html", "", "", "")
	require.True(t, ok)
	assert.Equal(t, "/en/latest/guide/install/", dest)

	_, ok = Match(r, p, testResolver(), "/guide/install", "", "", "")
	assert.False(t, ok)
}

func TestMatchSphinxHTMLDirToHTMLAnchored(t *testing.T) {
	r := &rules.Rule{Type: rules.TypeSphinxHTMLDirToHTML, HTTPStatus: 302, Active: true}

	dest, ok := Match(r, testProject(), testResolver(), "/a.html/b.html", "", "", "")
	require.True(t, ok)
	assert.Equal(t, "/en/latest/a.html/b/", dest)
}
