package engine

import (
	"fmt"
	"regexp"
	"strings"

	"redirector/config"
)

// Fallbacks when neither the project nor the deployment defaults configure
// a language or version.
const (
	FallbackLanguage = "en"
	FallbackVersion  = "latest"
)

var absoluteURLPattern = regexp.MustCompile(`^https?://`)

// IsAbsoluteURL reports whether s is a fully qualified http(s) URL, meaning
// the destination points off-site and must not go through path composition.
func IsAbsoluteURL(s string) bool {
	return absoluteURLPattern.MatchString(s)
}

// PathResolver builds the canonical site path for a filename within a
// project. The engine treats segment composition as a black box so that
// deployments with different URL schemes can swap their own implementation
// in.
type PathResolver interface {
	Resolve(p *config.Project, filename, language, versionSlug string) string
}

// SitePathResolver is the default scheme: /<language>/<version>/<filename>,
// with single-version projects served directly under /<filename>.
type SitePathResolver struct {
	Defaults config.DefaultConfig
}

func (s SitePathResolver) Resolve(p *config.Project, filename, language, versionSlug string) string {
	filename = strings.TrimPrefix(filename, "/")

	if p.SingleVersion {
		return "/" + filename
	}

	if language == "" {
		language = p.Language
	}
	if language == "" {
		language = s.Defaults.Language
	}
	if language == "" {
		language = FallbackLanguage
	}

	if versionSlug == "" {
		versionSlug = p.DefaultVersion
	}
	if versionSlug == "" {
		versionSlug = s.Defaults.Version
	}
	if versionSlug == "" {
		versionSlug = FallbackVersion
	}

	return fmt.Sprintf("/%s/%s/%s", language, versionSlug, filename)
}

// resolveFull returns a full path for a given filename, including language
// and version segments. No protocol/domain is returned unless crossdomain
// redirects are allowed and the filename already is an absolute URL.
func resolveFull(p *config.Project, pr PathResolver, filename, language, versionSlug string, allowCrossdomain bool) string {
	if allowCrossdomain && IsAbsoluteURL(filename) {
		return filename
	}
	return pr.Resolve(p, filename, language, versionSlug)
}

// SplitPath splits a full request path into its version-relative path and
// the language/version segments. Single-version projects have no such
// segments, and a path too short to carry them is returned unchanged.
func SplitPath(p *config.Project, fullPath string) (path, language, versionSlug string) {
	if p.SingleVersion {
		return fullPath, "", ""
	}

	trimmed := strings.TrimPrefix(fullPath, "/")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 2 {
		return fullPath, "", ""
	}

	rest := ""
	if len(parts) == 3 {
		rest = parts[2]
	}
	return "/" + rest, parts[0], parts[1]
}
