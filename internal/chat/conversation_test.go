package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/abelbrown/duet/internal/backend"
)

type fakeChatter struct {
	calls atomic.Int32
	reply func(n int, message string) (backend.ChatReply, error)
}

func (f *fakeChatter) Chat(ctx context.Context, message string) (backend.ChatReply, error) {
	n := int(f.calls.Add(1))
	if f.reply == nil {
		return backend.ChatReply{
			VectorResponse:   "vector: " + message,
			RerankedResponse: "reranked: " + message,
		}, nil
	}
	return f.reply(n, message)
}

func TestSubmitAppendsTriple(t *testing.T) {
	fc := &fakeChatter{}
	c := NewConversation(fc)

	for i := 0; i < 4; i++ {
		accepted, err := c.Submit(context.Background(), fmt.Sprintf("q%d", i))
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if !accepted {
			t.Fatalf("submit %d not accepted", i)
		}
	}

	msgs := c.Messages()
	if len(msgs) != 12 {
		t.Fatalf("expected 12 messages, got %d", len(msgs))
	}
	for i, m := range msgs {
		switch i % 3 {
		case 0:
			if m.Role != RoleUser || m.Channel != ChannelNone {
				t.Errorf("msg %d: expected user, got %s/%s", i, m.Role, m.Channel)
			}
		case 1:
			if m.Role != RoleAssistant || m.Channel != ChannelVector {
				t.Errorf("msg %d: expected vector answer, got %s/%s", i, m.Role, m.Channel)
			}
		case 2:
			if m.Role != RoleAssistant || m.Channel != ChannelReranked {
				t.Errorf("msg %d: expected reranked answer, got %s/%s", i, m.Role, m.Channel)
			}
		}
	}
	if msgs[4].Content != "vector: q1" || msgs[5].Content != "reranked: q1" {
		t.Errorf("answers out of order: %q, %q", msgs[4].Content, msgs[5].Content)
	}
	if got := fc.calls.Load(); got != 4 {
		t.Errorf("expected 4 chat calls, got %d", got)
	}
	if c.Busy() {
		t.Error("conversation still busy after successful turns")
	}
}

func TestSubmitIDsAreUnique(t *testing.T) {
	c := NewConversation(&fakeChatter{})
	c.Submit(context.Background(), "a")
	c.Submit(context.Background(), "b")

	seen := make(map[string]bool)
	for _, m := range c.Messages() {
		if m.ID == "" {
			t.Fatal("message without ID")
		}
		if seen[m.ID] {
			t.Fatalf("duplicate ID %s", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestSubmitBlankIsIgnored(t *testing.T) {
	fc := &fakeChatter{}
	c := NewConversation(fc)

	for _, text := range []string{"", "   ", "\n\t"} {
		accepted, err := c.Submit(context.Background(), text)
		if accepted || err != nil {
			t.Errorf("Submit(%q) = %v, %v; want false, nil", text, accepted, err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("expected empty sequence, got %d", c.Len())
	}
	if fc.calls.Load() != 0 {
		t.Error("blank submit reached the backend")
	}
}

func TestSubmitWhileBusyIsIgnored(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	fc := &fakeChatter{reply: func(n int, message string) (backend.ChatReply, error) {
		entered <- struct{}{}
		<-release
		return backend.ChatReply{VectorResponse: "v", RerankedResponse: "r"}, nil
	}}
	c := NewConversation(fc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := c.Submit(context.Background(), "first"); err != nil {
			t.Errorf("first submit: %v", err)
		}
	}()
	<-entered

	if !c.Busy() {
		t.Fatal("expected busy while request in flight")
	}
	for i := 0; i < 5; i++ {
		accepted, err := c.Submit(context.Background(), "second")
		if accepted || err != nil {
			t.Fatalf("submit while busy = %v, %v", accepted, err)
		}
	}
	if c.Len() != 1 {
		t.Fatalf("expected only the first user message while busy, got %d", c.Len())
	}

	close(release)
	wg.Wait()

	if got := fc.calls.Load(); got != 1 {
		t.Errorf("expected exactly one chat request, got %d", got)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 messages, got %d", c.Len())
	}
}

func TestConcurrentSubmitsIssueOneRequest(t *testing.T) {
	const n = 16
	release := make(chan struct{})
	entered := make(chan struct{}, n)
	fc := &fakeChatter{reply: func(int, string) (backend.ChatReply, error) {
		entered <- struct{}{}
		<-release
		return backend.ChatReply{VectorResponse: "v", RerankedResponse: "r"}, nil
	}}
	c := NewConversation(fc)

	var accepted atomic.Int32
	rejected := make(chan struct{}, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := c.Submit(context.Background(), "hello")
			if ok {
				accepted.Add(1)
				return
			}
			rejected <- struct{}{}
		}()
	}

	// Hold the accepted turn open until every other submit has bounced.
	<-entered
	for i := 0; i < n-1; i++ {
		<-rejected
	}
	close(release)
	wg.Wait()

	if accepted.Load() != 1 {
		t.Errorf("expected one accepted submit, got %d", accepted.Load())
	}
	if fc.calls.Load() != 1 {
		t.Errorf("expected one chat call, got %d", fc.calls.Load())
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 messages, got %d", c.Len())
	}
}

func TestSubmitFailureRetainsUserMessage(t *testing.T) {
	backendErr := &backend.Error{Op: "chat", Kind: backend.ErrStatus, StatusCode: 500}
	fc := &fakeChatter{reply: func(n int, message string) (backend.ChatReply, error) {
		if n == 2 {
			return backend.ChatReply{}, backendErr
		}
		return backend.ChatReply{VectorResponse: "v" + message, RerankedResponse: "r" + message}, nil
	}}
	c := NewConversation(fc)

	if _, err := c.Submit(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	accepted, err := c.Submit(context.Background(), "two")
	if !accepted {
		t.Fatal("failing submit should still be accepted")
	}

	var turnErr *TurnError
	if !errors.As(err, &turnErr) {
		t.Fatalf("expected *TurnError, got %T: %v", err, err)
	}
	if !errors.Is(err, backend.ErrStatus) {
		t.Errorf("expected errors.Is(err, ErrStatus), got %v", err)
	}
	if c.Busy() {
		t.Error("busy flag not cleared after failure")
	}

	msgs := c.Messages()
	if len(msgs) != 4 {
		t.Fatalf("expected 3k+1 = 4 messages, got %d", len(msgs))
	}
	if msgs[3].Role != RoleUser || msgs[3].Content != "two" {
		t.Errorf("expected retained user message, got %+v", msgs[3])
	}

	// A later turn still routes by channel despite the shifted positions.
	if _, err := c.Submit(context.Background(), "three"); err != nil {
		t.Fatal(err)
	}
	left := c.Timeline(PaneLeft)
	right := c.Timeline(PaneRight)
	if len(left) != 5 || len(right) != 5 {
		t.Fatalf("expected 5 messages per pane, got %d/%d", len(left), len(right))
	}
	if left[4].Content != "vthree" || right[4].Content != "rthree" {
		t.Errorf("wrong routing after failed turn: %q / %q", left[4].Content, right[4].Content)
	}
}

func TestResolveUnknownTurn(t *testing.T) {
	c := NewConversation(&fakeChatter{})

	if err := c.Resolve(Turn{ID: "nope"}, backend.ChatReply{}, nil); !errors.Is(err, ErrUnknownTurn) {
		t.Errorf("expected ErrUnknownTurn with nothing pending, got %v", err)
	}

	turn, ok := c.Begin("hi")
	if !ok {
		t.Fatal("begin rejected")
	}
	if err := c.Resolve(Turn{ID: "other"}, backend.ChatReply{}, nil); !errors.Is(err, ErrUnknownTurn) {
		t.Errorf("expected ErrUnknownTurn for stale turn, got %v", err)
	}
	if !c.Busy() {
		t.Error("stale resolve must not clear busy")
	}
	if err := c.Resolve(turn, backend.ChatReply{VectorResponse: "v", RerankedResponse: "r"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Resolve(turn, backend.ChatReply{}, nil); !errors.Is(err, ErrUnknownTurn) {
		t.Errorf("expected ErrUnknownTurn for double resolve, got %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 messages, got %d", c.Len())
	}
}

func TestBeginRecordsUserMessage(t *testing.T) {
	c := NewConversation(&fakeChatter{})
	turn, ok := c.Begin("what is reranking?")
	if !ok {
		t.Fatal("begin rejected")
	}
	msgs := c.Messages()
	if len(msgs) != 1 || msgs[0].ID != turn.UserMessageID {
		t.Fatalf("unexpected sequence after begin: %+v", msgs)
	}
	if turn.Text != "what is reranking?" {
		t.Errorf("turn text = %q", turn.Text)
	}
	if _, ok := c.Begin("again"); ok {
		t.Error("second begin accepted while busy")
	}
}

func TestResultsAttachedToAnswers(t *testing.T) {
	vr := []backend.Result{{ID: "v1", Score: 0.5}}
	rr := []backend.Result{{ID: "r1", Score: 0.4}, {ID: "r2", Score: 0.3}}
	fc := &fakeChatter{reply: func(n int, message string) (backend.ChatReply, error) {
		return backend.ChatReply{VectorResponse: "v", RerankedResponse: "r", VectorResults: vr, RerankedResults: rr}, nil
	}}
	c := NewConversation(fc)
	c.Submit(context.Background(), "q")

	msgs := c.Messages()
	if got := c.Results(msgs[1].ID); len(got) != 1 || got[0].ID != "v1" {
		t.Errorf("vector results = %+v", got)
	}
	if got := c.Results(msgs[2].ID); len(got) != 2 || got[1].ID != "r2" {
		t.Errorf("reranked results = %+v", got)
	}
	if got := c.Results(msgs[0].ID); got != nil {
		t.Errorf("user message should have no results, got %+v", got)
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	c := NewConversation(&fakeChatter{})
	c.Submit(context.Background(), "q")

	msgs := c.Messages()
	msgs[0].Content = "mutated"
	if c.Messages()[0].Content != "q" {
		t.Error("Messages exposed internal slice")
	}
}

func TestTurnErrorMessage(t *testing.T) {
	err := &TurnError{TurnID: "0123456789abcdef", Err: errors.New("boom")}
	if got := err.Error(); got != "turn 01234567 failed: boom" {
		t.Errorf("Error() = %q", got)
	}
}
