// Package main provides the stats service entry point for realmstats.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/thebtf/realmstats/internal/config"
	gormstore "github.com/thebtf/realmstats/internal/db/gorm"
	"github.com/thebtf/realmstats/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.EnsureDataDir(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}

	// The audit log is optional; reassignments still apply without it.
	var reassignments *gormstore.ReassignmentStore
	store, err := gormstore.NewStore(gormstore.Config{DSN: cfg.DBPath, LogLevel: logger.Silent})
	if err != nil {
		log.Warn().Err(err).Msg("Audit database unavailable, reassignments will not be recorded")
	} else {
		defer store.Close()
		reassignments = gormstore.NewReassignmentStore(store)
	}

	svc, err := worker.NewService(Version, cfg, reassignments)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create service")
	}
	if err := svc.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start service")
	}

	if !cfg.AdminEnabled() {
		log.Info().Msgf("Admin endpoints disabled, set %s to enable", config.EnvAdminToken)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case <-svc.Done():
		log.Warn().Msg("Service stopped unexpectedly")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
