package otel

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single JSONL line when reading an event log.
const maxLineSize = 1 << 20

// Filter selects events when reading a log. Zero fields match everything.
type Filter struct {
	// KindPrefix matches kinds by prefix, so "chat." selects every chat event.
	KindPrefix string
	Level      Level
	TurnID     string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Event) bool {
	if f.KindPrefix != "" && !strings.HasPrefix(string(e.Kind), f.KindPrefix) {
		return false
	}
	if f.Level != "" && e.Level != f.Level {
		return false
	}
	if f.TurnID != "" && !strings.HasPrefix(e.TurnID, f.TurnID) {
		return false
	}
	return true
}

// ReadEvents decodes a JSONL event log, keeping the events that match f.
// Lines that fail to decode are skipped and counted; a log cut short by a
// crash still yields everything before the damage.
func ReadEvents(r io.Reader, f Filter) (events []Event, skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			skipped++
			continue
		}
		if f.Match(e) {
			events = append(events, e)
		}
	}
	if err := sc.Err(); err != nil {
		return events, skipped, fmt.Errorf("read events: %w", err)
	}
	return events, skipped, nil
}
