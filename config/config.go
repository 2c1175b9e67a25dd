package config

import (
	"fmt"
	"time"
)

// Config represents the top-level configuration structure.
type Config struct {
	Server      ServerConfig  `yaml:"server"`
	Storage     StorageConfig `yaml:"storage"`
	Defaults    DefaultConfig `yaml:"defaults"`
	Projects    []Project     `yaml:"projects"`
	RuleSources []RuleSource  `yaml:"rule_sources,omitempty"`
	URLInterval time.Duration `yaml:"url_interval,omitempty"` // Refresh interval for URL rule sources
}

// ServerConfig holds server-specific settings.
type ServerConfig struct {
	ListenAddr   string `yaml:"listen_addr"`             // e.g., ":8080"
	DomainSuffix string `yaml:"domain_suffix,omitempty"` // e.g., ".docs.example.io" -> "<slug>.docs.example.io"
}

// StorageConfig locates the redirect rule database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // e.g., "data/redirects.db"
}

// DefaultConfig specifies fallback language/version for projects that
// don't configure their own.
type DefaultConfig struct {
	Language string `yaml:"language"` // e.g., "en"
	Version  string `yaml:"version"`  // e.g., "latest"
}

// Project is a hosted documentation project.
type Project struct {
	Slug           string   `yaml:"slug"`
	Language       string   `yaml:"language,omitempty"`
	DefaultVersion string   `yaml:"default_version,omitempty"`
	SingleVersion  bool     `yaml:"single_version,omitempty"` // serve without /<lang>/<version>/ segments
	Domains        []string `yaml:"domains,omitempty"`        // custom domains, exact match
	PageManifest   string   `yaml:"page_manifest,omitempty"`  // newline-delimited "<version> <file>" list of built pages
}

// RuleSource is a declarative redirect rule file, local or remote.
type RuleSource struct {
	Name    string `yaml:"name"`
	Project string `yaml:"project"`
	URL     string `yaml:"url,omitempty"`  // Remote URL
	Path    string `yaml:"path,omitempty"` // Local file path
}

// Validate rejects configurations the engine cannot index: duplicate slugs or
// domains, and rule sources pointing at projects that don't exist.
func (c *Config) Validate() error {
	slugs := make(map[string]bool, len(c.Projects))
	domains := make(map[string]bool)
	for _, p := range c.Projects {
		if p.Slug == "" {
			return fmt.Errorf("project with empty slug")
		}
		if slugs[p.Slug] {
			return fmt.Errorf("duplicate project slug %q", p.Slug)
		}
		slugs[p.Slug] = true
		for _, d := range p.Domains {
			if domains[d] {
				return fmt.Errorf("domain %q mapped to more than one project", d)
			}
			domains[d] = true
		}
	}
	for _, src := range c.RuleSources {
		if !slugs[src.Project] {
			return fmt.Errorf("rule source %q references unknown project %q", src.Name, src.Project)
		}
		if src.URL == "" && src.Path == "" {
			return fmt.Errorf("rule source %q has neither url nor path", src.Name)
		}
	}
	return nil
}
