// Command duet is the side-by-side chat TUI: every question is answered
// twice, once from plain vector search and once after reranking.
package main

import (
	"context"
	"log"
	"os"

	"github.com/abelbrown/duet/internal/backend"
	"github.com/abelbrown/duet/internal/chat"
	"github.com/abelbrown/duet/internal/config"
	"github.com/abelbrown/duet/internal/logging"
	"github.com/abelbrown/duet/internal/otel"
	"github.com/abelbrown/duet/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logging.Init(config.Dir(), cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logging: %v", err)
	}
	defer logging.Close()

	events, err := otel.Open(config.EventsPath())
	if err != nil {
		logging.Warn("event log unavailable, continuing without it", "err", err)
		events = otel.NewNullLogger()
	}
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	defer events.Close()

	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main", Msg: cfg.Backend.URL})
	logging.Info("backend", "url", cfg.Backend.URL, "timeout", cfg.Backend.Timeout)

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)
	conv := chat.NewConversation(client)

	app := ui.NewApp(ui.AppConfig{
		Conversation:    conv,
		Searcher:        client,
		Events:          events,
		Ring:            ring,
		Context:         ctx,
		InspectorOffset: cfg.UI.InspectorOffset,
		InspectorWidth:  cfg.UI.InspectorWidth,
		SearchTopK:      cfg.UI.SearchTopK,
	})

	// All-motion mouse reporting drives the hover inspectors.
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	// Run UI (blocks until quit)
	_, runErr := program.Run()
	if runErr != nil {
		logging.Error("program exited with error", "err", runErr)
		events.Error(otel.KindError, "main", runErr)
	}

	// Graceful shutdown: in-flight turns see a cancelled context.
	cancel()
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main", Count: conv.Len()})

	if runErr != nil {
		events.Close()
		logging.Close()
		os.Exit(1)
	}
}
