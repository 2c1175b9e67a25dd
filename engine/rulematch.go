package engine

import (
	"regexp"
	"strings"

	"redirector/config"
	"redirector/rules"
)

// End-anchored rewrites for the sphinx layout redirects. A matching
// substring in the middle of the path must never be touched.
var (
	slashSuffixPattern     = regexp.MustCompile(`/$`)
	indexHTMLSuffixPattern = regexp.MustCompile(`/index\.html$`)
	htmlSuffixPattern      = regexp.MustCompile(`\.html$`)
)

// Match applies a single rule to a request and returns the destination.
// The second return value distinguishes "no match" from an empty-string
// destination, which is valid and means the project root.
//
// path is the version-relative path; fullPath includes the language and
// version segments. Prefix, page and the sphinx types match on path, exact
// redirects match on fullPath. Resolution assumes the rule has passed
// Validate; dispatch is exhaustive over the known types.
func Match(r *rules.Rule, p *config.Project, pr PathResolver, path, fullPath, language, versionSlug string) (string, bool) {
	switch r.Type {
	case rules.TypePrefix:
		if !strings.HasPrefix(path, r.FromURL) {
			return "", false
		}
		cut := path[len(r.FromURL):]
		return resolveFull(p, pr, cut, language, versionSlug, false), true

	case rules.TypePage:
		if path != r.FromURL {
			return "", false
		}
		return resolveFull(p, pr, strings.TrimLeft(r.ToURL, "/"), language, versionSlug, true), true

	case rules.TypeExact:
		if fullPath == r.FromURL {
			return r.ToURL, true
		}
		// Handle full sub-level redirects: forward everything after the
		// prefix before $rest into the destination. Only the first
		// occurrence of the prefix is replaced, so a destination that
		// happens to contain it again later in the path stays intact.
		if strings.Contains(r.FromURL, rules.RestToken) {
			match := strings.SplitN(r.FromURL, rules.RestToken, 2)[0]
			if strings.HasPrefix(fullPath, match) {
				return strings.Replace(fullPath, match, r.ToURL, 1), true
			}
		}
		return "", false

	case rules.TypeSphinxHTMLToHTMLDir:
		for _, ending := range []struct {
			suffix  string
			pattern *regexp.Regexp
		}{
			{"/", slashSuffixPattern},
			{"/index.html", indexHTMLSuffixPattern},
		} {
			if strings.HasSuffix(path, ending.suffix) {
				stripped := strings.TrimPrefix(path, "/")
				to := ending.pattern.ReplaceAllString(stripped, ".html")
				return resolveFull(p, pr, to, language, versionSlug, false), true
			}
		}
		return "", false

	case rules.TypeSphinxHTMLDirToHTML:
		if !strings.HasSuffix(path, ".html") {
			return "", false
		}
		stripped := strings.TrimPrefix(path, "/")
		to := htmlSuffixPattern.ReplaceAllString(stripped, "/")
		return resolveFull(p, pr, to, language, versionSlug, false), true
	}

	return "", false
}
