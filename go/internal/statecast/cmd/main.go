package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racewall/go/internal/statecast"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", "", "listen address (default :$STATECAST_PORT or :8080)")
	scriptPath := flag.String("script", "", "YAML script of snapshots to replay")
	natsURL := flag.String("nats", "", "also publish snapshots to this NATS server")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if level, err := zerolog.ParseLevel(getEnv("STATECAST_LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if *addr == "" {
		*addr = fmt.Sprintf(":%s", getEnv("STATECAST_PORT", "8080"))
	}
	if *scriptPath == "" {
		*scriptPath = os.Getenv("STATECAST_SCRIPT")
	}
	if *natsURL == "" {
		*natsURL = os.Getenv("STATECAST_NATS_URL")
	}

	var script *statecast.Script
	if *scriptPath != "" {
		var err error
		script, err = statecast.LoadScript(*scriptPath)
		if err != nil {
			log.Fatal().Err(err).Str("script", *scriptPath).Msg("failed to load script")
		}
	}

	hub := statecast.NewHub(statecast.DefaultHubConfig())

	var mirrors []statecast.Broadcaster
	if *natsURL != "" {
		mirrorConfig := statecast.DefaultNATSMirrorConfig()
		mirrorConfig.URL = *natsURL
		mirrorConfig.Subject = getEnv("STATECAST_NATS_SUBJECT", mirrorConfig.Subject)
		mirror, err := statecast.NewNATSMirror(mirrorConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect NATS mirror")
		}
		defer mirror.Close()
		mirrors = append(mirrors, mirror)
	}

	server := statecast.NewServer(hub, mirrors...)

	httpServer := &http.Server{
		Addr:        *addr,
		Handler:     server.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	if script != nil {
		go script.Play(ctx, clockwork.NewRealClock(), server.PublishFrame)
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("statecast server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("statecast shutdown complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
