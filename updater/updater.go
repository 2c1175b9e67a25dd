package updater

import (
	"time"

	"github.com/rs/zerolog/log"

	"redirector/config"
	"redirector/engine"
	"redirector/rules"
)

// Updater manages periodic refreshes of remote rule sources.
type Updater struct {
	cfg    *config.Config
	engine *engine.Engine
	loader *rules.Loader
	stop   chan struct{}

	// Called after each reload, e.g. to flush the server's decision cache.
	OnReload func()
}

// NewUpdater creates a new Updater.
func NewUpdater(cfg *config.Config, eng *engine.Engine, loader *rules.Loader) *Updater {
	return &Updater{
		cfg:    cfg,
		engine: eng,
		loader: loader,
		stop:   make(chan struct{}),
	}
}

func (u *Updater) Stop() {
	close(u.stop)
}

// RunSimple reloads all rule sources every URLInterval (floor one hour) as
// long as at least one remote source is configured. Updates to stored rules
// are picked up by the same reload.
func (u *Updater) RunSimple() {
	hasRemote := false
	for _, src := range u.cfg.RuleSources {
		if src.URL != "" {
			hasRemote = true
			break
		}
	}

	interval := u.cfg.URLInterval
	if interval < time.Hour {
		interval = time.Hour
	}

	if !hasRemote {
		log.Info().Msg("no remote rule sources to update")
		return
	}

	log.Info().Dur("interval", interval).Msg("updater started")

	go func() {
		for {
			select {
			case <-time.After(interval):
				log.Info().Msg("updater triggered")
				u.engine.ReloadRules(u.loader)
				if u.OnReload != nil {
					u.OnReload()
				}
				log.Info().Dur("interval", interval).Msg("update complete")
			case <-u.stop:
				return
			}
		}
	}()
}
