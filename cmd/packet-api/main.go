// Command packet-api serves the bid packet REST API.
//
// Usage:
//
//	packet-api [options]
//
// Options:
//
//	-config FILE    YAML or JSON configuration file
//	-port N         HTTP port (overrides config)
//	-sqlite FILE    SQLite store path (overrides config)
//	-auth           Enable API key authentication
//	-api-keys KEYS  Comma-separated list of valid API keys
//	-verbose        Enable debug logging
//
// Configuration is resolved in order: defaults, config file, environment
// variables (a .env file is honored), then flags. PostgreSQL/ClickHouse
// summary sync and NATS publishing activate when enabled in the config
// file.
//
// API Endpoints:
//
//	GET  /api/v1/health
//	POST /api/v1/packets
//	GET  /api/v1/packets
//	GET  /api/v1/packets/{id}
//	GET  /api/v1/packets/{id}/sequences
//	GET  /api/v1/sequences/search?q=
//	GET  /api/v1/summaries?base=&fleet=&month=&year=
//	GET  /api/v1/stats
//
// Authentication:
//
//	When auth is enabled, requests must include an API key via:
//	  - X-API-Key header
//	  - Authorization: Bearer <key> header
//	  - ?api_key=<key> query parameter
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bidpacket_parser/internal/api"
	"bidpacket_parser/internal/config"
	"bidpacket_parser/internal/feed"
	"bidpacket_parser/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "YAML or JSON configuration file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	sqlitePath := flag.String("sqlite", "", "SQLite store path (overrides config)")
	authEnabled := flag.Bool("auth", false, "Enable API key authentication")
	apiKeys := flag.String("api-keys", "", "Comma-separated list of valid API keys (when auth enabled)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		cfg = loaded
	}
	config.ApplyEnv(&cfg)

	// Flags win over file and environment.
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *sqlitePath != "" {
		cfg.SQLite.Path = *sqlitePath
	}
	if *authEnabled {
		cfg.Server.AuthEnabled = true
	}
	if *apiKeys != "" {
		keys := strings.Split(*apiKeys, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
		cfg.Server.APIKeys = keys
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	store, err := storage.OpenSQLite(cfg.SQLite.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SQLite.Path).Msg("failed to open packet store")
	}
	defer store.Close()

	server := api.NewPacketServer(store, api.Config{
		Port:        cfg.Server.Port,
		AuthEnabled: cfg.Server.AuthEnabled,
		APIKeys:     cfg.Server.APIKeys,
	})

	if cfg.SyncEnabled() {
		db, err := storage.Open(ctx, cfg.Storage())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open summary databases")
		}
		defer db.Close()
		if err := db.CreateSchemas(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create summary schemas")
		}
		server.AttachSync(db)
		log.Info().Msg("summary sync enabled")
	}

	if cfg.NATS.Enabled {
		pub, err := feed.Connect(cfg.NATS.URL, "packet-api")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer pub.Close()
		server.AttachPublisher(pub)
		log.Info().Str("url", cfg.NATS.URL).Msg("feed publishing enabled")
	}

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: server.Handler(),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Bool("auth", cfg.Server.AuthEnabled).Msg("packet API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}
