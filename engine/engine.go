package engine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"redirector/config"
	"redirector/rules"
)

// MatchEvent describes one rule match, emitted for observability only.
type MatchEvent struct {
	Project     string
	Rule        *rules.Rule
	Path        string
	FullPath    string
	Destination string
}

// MatchSink receives match events. Implementations must not influence
// resolution; the engine works the same with a NopSink.
type MatchSink interface {
	RuleMatched(ev MatchEvent)
}

// NopSink discards match events.
type NopSink struct{}

func (NopSink) RuleMatched(MatchEvent) {}

// Result is a successful resolution: the destination path and the rule that
// produced it. The caller combines Destination with the rule's HTTP status.
type Result struct {
	Destination string
	Rule        *rules.Rule
}

// Resolve walks an ordered rule slice and applies the first matching rule.
// It is a pure function over its inputs: the slice is taken as already
// filtered and ordered by the caller (the store orders by most recently
// updated first), and no further rules are tried after a match, even when
// the destination is the empty string.
func Resolve(ruleset []*rules.Rule, p *config.Project, pr PathResolver, sink MatchSink, path, fullPath, language, versionSlug string) (Result, bool) {
	for _, r := range ruleset {
		if !r.Active {
			continue
		}
		dest, ok := Match(r, p, pr, path, fullPath, language, versionSlug)
		if !ok {
			continue
		}
		sink.RuleMatched(MatchEvent{
			Project:     p.Slug,
			Rule:        r,
			Path:        path,
			FullPath:    fullPath,
			Destination: dest,
		})
		return Result{Destination: dest, Rule: r}, true
	}
	return Result{}, false
}

// RuleStore supplies the persisted, ordered, active rules for a project.
type RuleStore interface {
	ListActive(project string) ([]*rules.Rule, error)
}

// Engine holds an immutable-per-resolution snapshot of every project's rule
// list, plus the page and host indexes. Reloads build a fresh snapshot and
// swap it in atomically, so concurrent resolutions never observe a partial
// rule list.
type Engine struct {
	cfg          *config.Config
	store        RuleStore
	pathResolver PathResolver
	sink         MatchSink

	projects *ProjectIndex

	mu       sync.RWMutex
	rulesets map[string][]*rules.Rule // project slug -> ordered rules
	pages    map[string]*PageIndex    // project slug -> built page index

	// File rule cache: path -> rules, so local sources aren't re-parsed on
	// every periodic reload.
	fileRuleCache map[string][]*rules.Rule
}

// NewEngine initializes the resolution engine. store may be nil when rules
// come exclusively from configured rule sources.
func NewEngine(cfg *config.Config, store RuleStore) (*Engine, error) {
	projects, err := NewProjectIndex(cfg)
	if err != nil {
		return nil, fmt.Errorf("project index init failed: %w", err)
	}

	return &Engine{
		cfg:           cfg,
		store:         store,
		pathResolver:  SitePathResolver{Defaults: cfg.Defaults},
		sink:          NopSink{},
		projects:      projects,
		rulesets:      make(map[string][]*rules.Rule),
		pages:         make(map[string]*PageIndex),
		fileRuleCache: make(map[string][]*rules.Rule),
	}, nil
}

// SetSink installs a match-event sink. Call before serving; the sink is not
// synchronized against in-flight resolutions.
func (e *Engine) SetSink(sink MatchSink) {
	if sink == nil {
		sink = NopSink{}
	}
	e.sink = sink
}

// SetPathResolver overrides the canonical path composition scheme.
func (e *Engine) SetPathResolver(pr PathResolver) {
	e.pathResolver = pr
}

// ProjectBySlug returns the configured project, or nil.
func (e *Engine) ProjectBySlug(slug string) *config.Project {
	return e.projects.BySlug(slug)
}

// ProjectByHost maps a request host to its project, or nil.
func (e *Engine) ProjectByHost(host string) *config.Project {
	return e.projects.ByHost(host)
}

// Resolve applies the current rule snapshot for the project. Safe for
// concurrent use; each call reads one consistent snapshot.
func (e *Engine) Resolve(p *config.Project, path, fullPath, language, versionSlug string) (Result, bool) {
	e.mu.RLock()
	ruleset := e.rulesets[p.Slug]
	e.mu.RUnlock()

	return Resolve(ruleset, p, e.pathResolver, e.sink, path, fullPath, language, versionSlug)
}

// PageExists reports whether the project has a built page at the
// version-relative path. Consumed by the force check: a non-force redirect
// must not shadow an existing page.
func (e *Engine) PageExists(slug, versionSlug, path string) bool {
	e.mu.RLock()
	idx := e.pages[slug]
	e.mu.RUnlock()

	if idx == nil {
		return false
	}
	return idx.Has(versionSlug, path)
}

// ReloadRules rebuilds every project's rule snapshot and atomically swaps it
// in. Store rules come first (already ordered most recently updated first),
// followed by configured rule sources in config order. Remote sources are
// fetched concurrently but assembled in order, so the priority of a rule
// never depends on fetch timing.
func (e *Engine) ReloadRules(loader *rules.Loader) {
	newRulesets := make(map[string][]*rules.Rule)
	newPages := make(map[string]*PageIndex)

	log.Info().Int("projects", len(e.cfg.Projects)).Msg("reloading redirect rules")

	for i := range e.cfg.Projects {
		p := &e.cfg.Projects[i]

		if e.store != nil {
			stored, err := e.store.ListActive(p.Slug)
			if err != nil {
				log.Error().Str("project", p.Slug).Err(err).Msg("failed to load stored rules")
			} else {
				newRulesets[p.Slug] = append(newRulesets[p.Slug], stored...)
			}
		}

		if p.PageManifest != "" {
			idx, err := LoadPageIndex(p.PageManifest)
			if err != nil {
				log.Error().Str("project", p.Slug).Err(err).Msg("failed to load page manifest")
			} else {
				newPages[p.Slug] = idx
			}
		}
	}

	// Fetch sources concurrently into positional slots to keep config order.
	sourceRules := make([][]*rules.Rule, len(e.cfg.RuleSources))
	var wg sync.WaitGroup
	for i, src := range e.cfg.RuleSources {
		wg.Add(1)
		go func(i int, src config.RuleSource) {
			defer wg.Done()

			var loaded []*rules.Rule
			var err error

			if src.Path != "" {
				e.mu.RLock()
				cached, ok := e.fileRuleCache[src.Path]
				e.mu.RUnlock()

				if ok {
					loaded = cached
				} else {
					loaded, err = loader.LoadFromPath(src.Path)
					if err == nil {
						e.mu.Lock()
						e.fileRuleCache[src.Path] = loaded
						e.mu.Unlock()
					}
				}
			} else if src.URL != "" {
				loaded, err = loader.LoadFromURLWithCache(src.URL)
			}

			if err != nil {
				log.Error().Str("source", src.Name).Err(err).Msg("failed to load rule source")
				return
			}

			for _, r := range loaded {
				r.Project = src.Project
			}
			sourceRules[i] = loaded
			log.Info().Str("source", src.Name).Int("rules", len(loaded)).Msg("loaded rule source")
		}(i, src)
	}
	wg.Wait()

	for i, src := range e.cfg.RuleSources {
		newRulesets[src.Project] = append(newRulesets[src.Project], sourceRules[i]...)
	}

	// Atomic swap
	e.mu.Lock()
	e.rulesets = newRulesets
	e.pages = newPages
	e.mu.Unlock()

	log.Info().Msg("redirect rules reloaded")
}
