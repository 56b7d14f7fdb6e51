package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/mcdev12/racewall/go/internal/display/config"
	"github.com/mcdev12/racewall/go/internal/display/connection"
	"github.com/mcdev12/racewall/go/internal/display/projector"
	"github.com/mcdev12/racewall/go/internal/display/render"
	"github.com/mcdev12/racewall/go/internal/display/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	endpoint := flag.String("endpoint", "", "state server endpoint (ws://, wss://, nats://)")
	renderer := flag.String("renderer", "", "tui or log")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "could not load .env file: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "racewall: %v\n", err)
		os.Exit(1)
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *renderer != "" {
		cfg.Renderer = *renderer
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "racewall: %v\n", err)
		os.Exit(2)
	}

	logOut, closeLog, err := logOutput(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "racewall: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logOut, NoColor: logOut != os.Stderr})
	level, _ := cfg.Level()
	zerolog.SetGlobalLevel(level)

	transportCfg := transport.DefaultConfig()
	transportCfg.NATS.Subject = cfg.NATSSubject
	tr, err := transport.ForEndpoint(cfg.Endpoint, transportCfg)
	if err != nil {
		log.Fatal().Err(err).Str("endpoint", cfg.Endpoint).Msg("no transport for endpoint")
	}

	log.Info().
		Str("endpoint", cfg.Endpoint).
		Str("renderer", cfg.Renderer).
		Dur("reconnect_interval", cfg.ReconnectInterval).
		Msg("starting racewall display")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	managerConfig := connection.Config{
		Endpoint:          cfg.Endpoint,
		ReconnectInterval: cfg.ReconnectInterval,
	}

	switch cfg.Renderer {
	case config.RendererTUI:
		runDashboard(ctx, managerConfig, tr)
	default:
		runHeadless(ctx, managerConfig, tr)
	}

	log.Info().Msg("racewall display shutdown complete")
}

// logOutput keeps the terminal free for the dashboard
func logOutput(cfg config.Config) (io.Writer, func(), error) {
	if cfg.Renderer != config.RendererTUI || cfg.LogFile == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func runHeadless(ctx context.Context, managerConfig connection.Config, tr connection.Transport) {
	proj := projector.NewProjector(render.NewLogRenderer(log.Logger))
	proj.Init()

	manager := connection.NewManager(managerConfig, tr, proj)
	manager.Run(ctx)

	stats := manager.Stats()
	log.Info().
		Int("attempts", stats.Attempts).
		Int("sessions", stats.SessionsOpened).
		Int("applied", stats.MessagesApplied).
		Int("discarded", stats.MessagesDiscarded).
		Msg("connection summary")
}

func runDashboard(ctx context.Context, managerConfig connection.Config, tr connection.Transport) {
	var manager *connection.Manager
	dashboard := render.NewDashboard(func() string {
		return manager.State().String()
	})

	program := tea.NewProgram(dashboard, tea.WithAltScreen(), tea.WithContext(ctx))
	proj := projector.NewProjector(render.NewProgramRenderer(program))
	manager = connection.NewManager(managerConfig, tr, proj)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		proj.Init()
		manager.Run(runCtx)
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("dashboard exited with error")
	}

	// The dashboard quit by key or signal; stop the connection too.
	cancel()
	<-done
}
