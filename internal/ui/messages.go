// Package ui provides the Bubble Tea TUI for duet: two timelines side by
// side, one per answer channel, over a single input.
package ui

import (
	"time"

	"github.com/abelbrown/duet/internal/backend"
	"github.com/abelbrown/duet/internal/chat"
)

// ChatReplied is sent when the chat call for a turn returns.
type ChatReplied struct {
	Turn  chat.Turn
	Reply backend.ChatReply
	Err   error
	Dur   time.Duration
}

// SearchCompleted is sent when a results-only search returns.
type SearchCompleted struct {
	Query string
	Resp  backend.SearchResponse
	Err   error
	Dur   time.Duration
}

// LinkOpened is sent after the browser was asked to open an external link.
type LinkOpened struct {
	Href string
	Err  error
}
