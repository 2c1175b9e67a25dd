package rules

import (
	"fmt"
	"strings"
	"time"
)

// RestToken is the wildcard marker allowed in the from URL of exact
// redirects: "/docs/$rest" matches "/docs/" plus anything after it, and the
// trailing segments are forwarded into the destination.
const RestToken = "$rest"

// Type distinguishes the matching strategy of a redirect rule.
type Type int

const (
	TypeUnknown Type = iota
	TypePrefix                  // path starts with from_url
	TypePage                    // path equals from_url
	TypeExact                   // full path equals from_url, or matches its $rest prefix
	TypeSphinxHTMLToHTMLDir     // path ends with "/" or "/index.html" -> ".html"
	TypeSphinxHTMLDirToHTML     // path ends with ".html" -> "/"
)

var typeNames = map[Type]string{
	TypePrefix:              "prefix",
	TypePage:                "page",
	TypeExact:               "exact",
	TypeSphinxHTMLToHTMLDir: "sphinx_html",
	TypeSphinxHTMLDirToHTML: "sphinx_htmldir",
}

var typesByName = map[string]Type{
	"prefix":         TypePrefix,
	"page":           TypePage,
	"exact":          TypeExact,
	"sphinx_html":    TypeSphinxHTMLToHTMLDir,
	"sphinx_htmldir": TypeSphinxHTMLDirToHTML,
}

// ParseType maps the stored type name to a Type. Unknown names are a
// configuration error and must be rejected at load time, never at
// resolution time.
func ParseType(s string) (Type, error) {
	t, ok := typesByName[s]
	if !ok {
		return TypeUnknown, fmt.Errorf("unknown redirect type %q", s)
	}
	return t, nil
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// Valid reports whether t is one of the five known redirect types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Rule is a single configured redirect for a project.
//
// FromURL is interpreted according to Type. For prefix, page and the sphinx
// types it is matched against the version-relative path; for exact redirects
// it is matched against the full site path including the language and
// version segments.
type Rule struct {
	ID         int64
	Project    string
	Type       Type
	FromURL    string
	ToURL      string
	Force      bool // redirect even if the target page exists
	HTTPStatus int  // 301 or 302
	Active     bool
	UpdatedAt  time.Time
}

// FromURLWithoutRest derives the from URL with the wildcard token stripped.
// It is only meaningful for exact redirects carrying the token; for
// everything else it returns the empty string. The store persists this value
// alongside FromURL for querying, recomputed on every write so the two never
// drift apart.
func (r *Rule) FromURLWithoutRest() string {
	if r.Type == TypeExact && strings.Contains(r.FromURL, RestToken) {
		return strings.ReplaceAll(r.FromURL, RestToken, "")
	}
	return ""
}

// Validate checks the rule configuration. It is called at every ingestion
// point (store writes, store reads, rule files) so that a malformed rule
// surfaces as a descriptive error instead of a silent no-match later.
func (r *Rule) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("redirect %d: unknown type %d", r.ID, int(r.Type))
	}
	if r.HTTPStatus != 301 && r.HTTPStatus != 302 {
		return fmt.Errorf("redirect %d: http status must be 301 or 302, got %d", r.ID, r.HTTPStatus)
	}
	switch r.Type {
	case TypePrefix, TypePage, TypeExact:
		if r.FromURL == "" {
			return fmt.Errorf("redirect %d: %s redirect requires a from url", r.ID, r.Type)
		}
	}
	return nil
}

func (r *Rule) String() string {
	switch r.Type {
	case TypePrefix, TypePage, TypeExact:
		return fmt.Sprintf("%s: %s -> %s", r.Type, r.FromURL, r.ToURL)
	}
	return fmt.Sprintf("redirect: %s", r.Type)
}
