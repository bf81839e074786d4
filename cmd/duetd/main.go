// Command duetd is the HTTP gateway in front of the retrieval backend. It
// serves /api/chat and /api/search to browser and TUI clients, journaling
// every request.
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

	"github.com/abelbrown/duet/internal/config"
	"github.com/abelbrown/duet/internal/gateway"
	"github.com/abelbrown/duet/internal/journal"
	"github.com/abelbrown/duet/internal/logging"
	"github.com/abelbrown/duet/internal/otel"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", config.ConfigPath(), "Path to config.json")
	listen := flag.String("listen", "", "Listen address (overrides gateway.listen)")
	upstream := flag.String("upstream", "", "Backend root URL (overrides gateway.upstream)")
	flag.Parse()

	if err := run(*configPath, *listen, *upstream); err != nil {
		fmt.Fprintf(os.Stderr, "duetd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, listen, upstream string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if listen != "" {
		cfg.Gateway.Listen = listen
	}
	if upstream != "" {
		cfg.Gateway.Upstream = upstream
	}

	logging.InitWriter(os.Stderr, cfg.LogLevel)

	events, err := otel.Open(config.EventsPath())
	if err != nil {
		logging.Warn("event log unavailable", "err", err)
		events = otel.NewNullLogger()
	}
	defer events.Close()

	var recorder gateway.Recorder
	if cfg.Gateway.Journal != "" {
		j, err := journal.Open(cfg.Gateway.Journal)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		recorder = j
		logging.Info("journal open", "path", cfg.Gateway.Journal)
	}

	srv := gateway.New(gateway.Options{
		Upstream:      cfg.Gateway.Upstream,
		RatePerSecond: cfg.Gateway.RatePerSecond,
		Burst:         cfg.Gateway.Burst,
		Journal:       recorder,
		Events:        events,
	})
	httpServer := srv.NewHTTPServer(cfg.Gateway.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info("gateway listening", "addr", cfg.Gateway.Listen, "upstream", cfg.Gateway.Upstream)
		events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "gateway", Msg: cfg.Gateway.Listen})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "gateway"})
	return nil
}
