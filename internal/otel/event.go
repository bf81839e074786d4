// Package otel provides structured observability for duet.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer provides live in-memory inspection for the debug overlay.
//
// Events never carry message text. Turns are identified by TurnID and sized
// by Chars.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Chat turns
	KindChatSubmit   EventKind = "chat.submit"
	KindChatIgnored  EventKind = "chat.ignored"
	KindChatComplete EventKind = "chat.complete"
	KindChatError    EventKind = "chat.error"

	// Results-only search
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchError    EventKind = "search.error"

	// UI events
	KindLinkOpen   EventKind = "ui.link_open"
	KindLinkJump   EventKind = "ui.link_jump"
	KindInspect    EventKind = "ui.inspect"
	KindKeyPress   EventKind = "ui.key"
	KindViewRender EventKind = "ui.render"

	// Gateway
	KindProxyRequest EventKind = "proxy.request"
	KindProxyError   EventKind = "proxy.error"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Trace events, only emitted when tracing is enabled
	KindMsgReceived EventKind = "trace.msg_received"
	KindMsgHandled  EventKind = "trace.msg_handled"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "chat", "ui", "gateway", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	TurnID    string         `json:"turn,omitempty"`       // chat turn or gateway request ID
	Pane      string         `json:"pane,omitempty"`       // "left" or "right"
	Dur       time.Duration  `json:"-"`                    // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Chars     int            `json:"chars,omitempty"` // length of the text involved, never the text
	Status    int            `json:"status,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`   // free text
	Extra     map[string]any `json:"extra,omitempty"` // escape hatch for unusual fields
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}

// UnmarshalJSON implements json.Unmarshaler, restoring Dur from DurMs.
func (e *Event) UnmarshalJSON(data []byte) error {
	type Alias Event
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = Event(a)
	if e.DurMs > 0 {
		e.Dur = time.Duration(e.DurMs * float64(time.Millisecond))
	}
	return nil
}
