package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/abelbrown/duet/internal/backend"
	"github.com/google/uuid"
)

// Chatter is the backend's chat operation.
type Chatter interface {
	Chat(ctx context.Context, message string) (backend.ChatReply, error)
}

// ErrUnknownTurn is returned by Resolve for a turn that is not the one in flight.
var ErrUnknownTurn = errors.New("chat: reply for unknown turn")

// Turn is one accepted submission awaiting its reply.
type Turn struct {
	ID            string
	Text          string
	UserMessageID string
}

// TurnError reports a turn whose chat call failed. The user message stays in
// the sequence; no answers are appended for the turn.
type TurnError struct {
	TurnID string
	Err    error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %s failed: %v", shortID(e.TurnID), e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// Conversation is the single owner of the canonical message sequence.
//
// A turn appends the user message immediately, then exactly two assistant
// messages (vector first, reranked second) once the backend answers. At most
// one turn is in flight; submissions while busy are ignored.
//
// On failure the user message is kept rather than rolled back, so the user
// can see what was asked when the error appeared and resubmit it.
type Conversation struct {
	mu       sync.Mutex
	client   Chatter
	messages []Message
	results  map[string][]backend.Result
	pending  *Turn
	newID    func() string
}

// NewConversation creates an empty conversation backed by client.
func NewConversation(client Chatter) *Conversation {
	return &Conversation{
		client:  client,
		results: make(map[string][]backend.Result),
		newID:   uuid.NewString,
	}
}

// Begin accepts a submission: it appends the user message and marks the
// conversation busy. It returns false, changing nothing, when text is blank
// or a turn is already in flight.
func (c *Conversation) Begin(text string) (Turn, bool) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return Turn{}, false
	}

	msg := Message{ID: c.newID(), Role: RoleUser, Content: text}
	c.messages = append(c.messages, msg)

	turn := Turn{ID: c.newID(), Text: text, UserMessageID: msg.ID}
	c.pending = &turn
	return turn, true
}

// Exchange performs the chat call for an accepted turn. It does not touch
// the sequence; pass its result to Resolve.
func (c *Conversation) Exchange(ctx context.Context, turn Turn) (backend.ChatReply, error) {
	return c.client.Chat(ctx, turn.Text)
}

// Resolve completes the in-flight turn. On success both answers are
// appended in fixed order with their result sets. On failure nothing is
// appended and a *TurnError wrapping err is returned. Either way the
// conversation is no longer busy.
func (c *Conversation) Resolve(turn Turn, reply backend.ChatReply, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil || c.pending.ID != turn.ID {
		return ErrUnknownTurn
	}
	c.pending = nil

	if err != nil {
		return &TurnError{TurnID: turn.ID, Err: err}
	}

	vector := Message{ID: c.newID(), Role: RoleAssistant, Channel: ChannelVector, Content: reply.VectorResponse}
	reranked := Message{ID: c.newID(), Role: RoleAssistant, Channel: ChannelReranked, Content: reply.RerankedResponse}
	c.messages = append(c.messages, vector, reranked)

	if len(reply.VectorResults) > 0 {
		c.results[vector.ID] = reply.VectorResults
	}
	if len(reply.RerankedResults) > 0 {
		c.results[reranked.ID] = reply.RerankedResults
	}
	return nil
}

// Submit runs a whole turn synchronously. accepted is false when the
// submission was ignored (blank text or busy); err is non-nil only for an
// accepted turn whose chat call failed.
func (c *Conversation) Submit(ctx context.Context, text string) (accepted bool, err error) {
	turn, ok := c.Begin(text)
	if !ok {
		return false, nil
	}
	reply, err := c.Exchange(ctx, turn)
	return true, c.Resolve(turn, reply, err)
}

// Busy reports whether a turn is in flight.
func (c *Conversation) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Messages returns a copy of the canonical sequence.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the sequence.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Timeline returns the messages shown in a pane.
func (c *Conversation) Timeline(p Pane) []Message {
	return Select(c.Messages(), p)
}

// Results returns the result set attached to an assistant message, or nil.
func (c *Conversation) Results(messageID string) []backend.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results[messageID]
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
