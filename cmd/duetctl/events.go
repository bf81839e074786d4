package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abelbrown/duet/internal/config"
	"github.com/abelbrown/duet/internal/otel"
)

func runEvents() {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	tail := fs.Int("tail", 50, "Number of recent lines to show")
	follow := fs.Bool("f", false, "Follow mode (like tail -f)")
	kind := fs.String("kind", "", "Filter by event kind prefix (e.g. 'chat')")
	level := fs.String("level", "", "Only this level: debug, info, warn, error")
	turn := fs.String("turn", "", "Filter by turn or request ID prefix")
	rawJSON := fs.Bool("json", false, "Output JSON lines")
	path := fs.String("file", config.EventsPath(), "Event log path")
	fs.Parse(os.Args[1:])

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "  Event log not found at %s\n", *path)
		fmt.Fprintf(os.Stderr, "  Run duet or duetd first to generate events.\n")
		os.Exit(1)
	}
	defer f.Close()

	filter := otel.Filter{KindPrefix: *kind, Level: otel.Level(*level), TurnID: *turn}

	events, skipped, err := otel.ReadEvents(f, filter)
	if err != nil {
		fatalf("read %s: %v", *path, err)
	}
	if *tail > 0 && len(events) > *tail {
		events = events[len(events)-*tail:]
	}
	for _, e := range events {
		fmt.Println(formatEvent(e, *rawJSON))
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "(%d unreadable lines skipped)\n", skipped)
	}

	if !*follow {
		return
	}

	// ReadEvents consumed the file; poll for appended lines.
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var e otel.Event
		if json.Unmarshal(line, &e) != nil {
			continue
		}
		if filter.Match(e) {
			fmt.Println(formatEvent(e, *rawJSON))
		}
	}
}

// formatEvent renders one event as a log line, or as JSON when raw is set.
func formatEvent(e otel.Event, raw bool) string {
	if raw {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Sprintf(`{"err":%q}`, err.Error())
		}
		return string(b)
	}

	ts := e.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(string(e.Level))
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-7s] %-20s", ts, lvl, e.Comp, e.Kind)}

	if e.Msg != "" {
		parts = append(parts, "- "+e.Msg)
	}
	if e.Dur > 0 {
		parts = append(parts, "("+formatMs(float64(e.Dur)/float64(time.Millisecond))+")")
	}
	if e.Pane != "" {
		parts = append(parts, "pane="+e.Pane)
	}
	if e.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", e.Count))
	}
	if e.Chars > 0 {
		parts = append(parts, fmt.Sprintf("chars=%d", e.Chars))
	}
	if e.Status > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.TurnID != "" {
		id := e.TurnID
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, "turn="+id)
	}
	if e.Err != "" {
		parts = append(parts, "err="+e.Err)
	}

	return strings.Join(parts, " ")
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
