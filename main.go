package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"redirector/config"
	"redirector/engine"
	"redirector/rules"
	"redirector/server"
	"redirector/store"
	"redirector/updater"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	dataDir := flag.String("data", "data", "Path to data directory for caching rule sources")
	listenAddr := flag.String("listen", "", "Listen address (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("starting documentation redirect server")

	// 1. Load Config
	cfgMgr := config.NewManager(*configPath)
	if err := cfgMgr.Load(); err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}
	cfg := cfgMgr.Get()

	// 2. Open Rule Store
	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = "data/redirects.db"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open rule store")
	}
	defer st.Close()

	// 3. Initialize Engine
	eng, err := engine.NewEngine(cfg, st)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize engine")
	}

	// 4. Load Rules (Initial)
	loader := rules.NewLoader(*dataDir)
	eng.ReloadRules(loader)

	// 5. Start Updater
	upd := updater.NewUpdater(cfg, eng, loader)

	// 6. Start HTTP Server
	listen := *listenAddr
	if listen == "" {
		listen = cfg.Server.ListenAddr
	}
	if listen == "" {
		listen = ":8080"
	}

	srv := server.NewServer(listen, eng)
	upd.OnReload = srv.Cache.Flush
	upd.RunSimple()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("redirect server failed")
		}
	}()

	log.Info().Str("listen", listen).Msg("redirect server is running")

	// Wait for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigChan
	log.Info().Str("signal", s.String()).Msg("shutting down")

	upd.Stop()
	srv.Stop()
}
