package engine

import (
	"fmt"
	"net"
	"strings"

	"redirector/config"
)

// ProjectIndex maps request hosts and slugs to projects.
type ProjectIndex struct {
	// Maps for O(1) lookup
	bySlug   map[string]*config.Project
	byDomain map[string]*config.Project

	// "<slug>.docs.example.io" style hosts share one configured suffix.
	domainSuffix string
}

// NewProjectIndex builds an index from the configuration.
func NewProjectIndex(cfg *config.Config) (*ProjectIndex, error) {
	ix := &ProjectIndex{
		bySlug:       make(map[string]*config.Project),
		byDomain:     make(map[string]*config.Project),
		domainSuffix: cfg.Server.DomainSuffix,
	}

	for i := range cfg.Projects {
		p := &cfg.Projects[i]

		if _, ok := ix.bySlug[p.Slug]; ok {
			return nil, fmt.Errorf("duplicate project slug %q", p.Slug)
		}
		ix.bySlug[p.Slug] = p

		for _, d := range p.Domains {
			d = strings.ToLower(d)
			if _, ok := ix.byDomain[d]; ok {
				return nil, fmt.Errorf("domain %q mapped to more than one project", d)
			}
			ix.byDomain[d] = p
		}
	}

	return ix, nil
}

// BySlug returns the project with the given slug, or nil.
func (ix *ProjectIndex) BySlug(slug string) *config.Project {
	return ix.bySlug[slug]
}

// ByHost returns the project serving the given request host, or nil.
// Custom domains take priority over the shared slug suffix.
func (ix *ProjectIndex) ByHost(host string) *config.Project {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)

	if p, ok := ix.byDomain[host]; ok {
		return p
	}

	if ix.domainSuffix != "" && strings.HasSuffix(host, ix.domainSuffix) {
		slug := strings.TrimSuffix(host, ix.domainSuffix)
		if p, ok := ix.bySlug[slug]; ok {
			return p
		}
	}

	return nil
}
