package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/duet/internal/backend"
	"github.com/abelbrown/duet/internal/chat"
	"github.com/abelbrown/duet/internal/cite"
	"github.com/abelbrown/duet/internal/inspect"
	"github.com/abelbrown/duet/internal/logging"
	"github.com/abelbrown/duet/internal/otel"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	headerTitle    = "Vector vs Rerank: See the Difference!"
	headerSubtitle = "Ask a question and watch how reranking improves search results"

	chatPlaceholder   = "Type your message..."
	searchPlaceholder = "Search the index..."

	// Fixed rows around the panes: header, status line, input box, help.
	headerRows = 1
	statusRows = 1
	inputRows  = 3
	helpRows   = 1
)

// Mode selects what the input does.
type Mode int

const (
	ModeChat Mode = iota
	ModeSearch
)

// Searcher is the backend's results-only search operation.
type Searcher interface {
	Search(ctx context.Context, req backend.SearchRequest) (backend.SearchResponse, error)
}

// AppConfig wires the App to its collaborators. Conversation is required;
// everything else has a usable zero value.
type AppConfig struct {
	Conversation *chat.Conversation
	Searcher     Searcher           // nil disables search mode
	OpenURL      func(string) error // defaults to cite.Open
	Events       *otel.Logger
	Ring         *otel.RingBuffer
	Context      context.Context

	InspectorOffset int
	InspectorWidth  int
	SearchTopK      int
}

type searchState struct {
	query   string
	resp    *backend.SearchResponse
	dur     time.Duration
	loading bool
	vp      viewport.Model
}

// App is the root Bubble Tea model.
// App does not own the message sequence; it reads timelines from the
// Conversation after every change.
type App struct {
	ctx      context.Context
	conv     *chat.Conversation
	searcher Searcher
	openURL  func(string) error
	events   *otel.Logger
	ring     *otel.RingBuffer
	topK     int

	panes   [2]paneModel
	focus   chat.Pane
	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	mode    Mode
	search  searchState

	pending   *chat.Turn
	err       error
	status    string
	showDebug bool
	width     int
	height    int
	ready     bool
}

// NewApp creates the App.
func NewApp(cfg AppConfig) App {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	events := cfg.Events
	if events == nil {
		events = otel.NewNullLogger()
		if cfg.Ring != nil {
			events.SetRingBuffer(cfg.Ring)
		}
	}
	openURL := cfg.OpenURL
	if openURL == nil {
		openURL = cite.Open
	}
	offset := cfg.InspectorOffset
	if offset <= 0 {
		offset = inspect.DefaultOffset
	}
	width := cfg.InspectorWidth
	if width <= 4 {
		width = inspect.DefaultWidth
	}

	input := textinput.New()
	input.Placeholder = chatPlaceholder
	input.Prompt = "❯ "
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	a := App{
		ctx:      ctx,
		conv:     cfg.Conversation,
		searcher: cfg.Searcher,
		openURL:  openURL,
		events:   events,
		ring:     cfg.Ring,
		topK:     cfg.SearchTopK,
		focus:    chat.PaneLeft,
		input:    input,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		search:   searchState{vp: viewport.New(0, 0)},
	}
	a.panes[chat.PaneLeft] = newPane(chat.PaneLeft, offset, width)
	a.panes[chat.PaneRight] = newPane(chat.PaneRight, offset, width)
	a.panes[a.focus].focused = true
	a.refresh()
	return a
}

// Init starts the cursor blinking.
func (a App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		start := time.Now()
		defer func() { otel.TraceMsg(a.events, msg, time.Since(start)) }()
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.layout()
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		return a.handleMouseMsg(msg)

	case ChatReplied:
		return a.handleChatReplied(msg)

	case SearchCompleted:
		return a.handleSearchCompleted(msg)

	case LinkOpened:
		if msg.Err != nil {
			a.err = msg.Err
			logging.Warn("open link failed", "href", msg.Href, "err", msg.Err)
			a.events.Error(otel.KindLinkOpen, "ui", msg.Err)
		} else {
			a.status = "Opened " + msg.Href
		}
		return a, nil

	case spinner.TickMsg:
		if a.pending == nil && !a.search.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.refreshBusy()
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear any existing error on key press
	a.err = nil
	a.status = ""

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Debug):
		a.showDebug = !a.showDebug
		return a, nil

	case key.Matches(msg, a.keys.Close):
		a.showDebug = false
		return a, nil

	case key.Matches(msg, a.keys.ToggleMode):
		return a.toggleMode(), nil

	case key.Matches(msg, a.keys.Submit):
		if a.mode == ModeSearch {
			return a.submitSearch()
		}
		return a.submitChat()

	case key.Matches(msg, a.keys.FocusLeft):
		a.setFocus(chat.PaneLeft)
		return a, nil

	case key.Matches(msg, a.keys.FocusRight):
		a.setFocus(chat.PaneRight)
		return a, nil

	case key.Matches(msg, a.keys.NextLink):
		a.panes[a.focus].cycleLink(1)
		return a, nil

	case key.Matches(msg, a.keys.PrevLink):
		a.panes[a.focus].cycleLink(-1)
		return a, nil

	case key.Matches(msg, a.keys.OpenLink):
		_, idx := a.panes[a.focus].focusedHref()
		return a.activate(a.focus, idx)

	case key.Matches(msg, a.keys.PageUp):
		a.page(-1)
		return a, nil

	case key.Matches(msg, a.keys.PageDown):
		a.page(1)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleMouseMsg routes pointer events. Motion reaches every inspector so
// each can decide on its own whether it is hovered.
func (a App) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.mode == ModeSearch {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.search.vp.LineUp(wheelDelta)
		case tea.MouseButtonWheelDown:
			a.search.vp.LineDown(wheelDelta)
		}
		return a, nil
	}

	for i := range a.panes {
		p := &a.panes[i]
		if p.contains(msg.X, msg.Y) {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				p.scroll(-wheelDelta)
			case tea.MouseButtonWheelDown:
				p.scroll(wheelDelta)
			}
		}
		for _, id := range p.hover(msg) {
			a.events.Emit(otel.Event{
				Level: otel.LevelDebug,
				Kind:  otel.KindInspect,
				Comp:  "ui",
				Pane:  p.side.String(),
				Count: len(a.conv.Results(id)),
			})
		}
	}

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		for i := range a.panes {
			if !a.panes[i].contains(msg.X, msg.Y) {
				continue
			}
			side := chat.Pane(i)
			a.setFocus(side)
			if idx := a.panes[i].linkAt(msg.X, msg.Y); idx >= 0 {
				return a.activate(side, idx)
			}
		}
	}
	return a, nil
}

func (a *App) setFocus(p chat.Pane) {
	a.panes[a.focus].focused = false
	a.focus = p
	a.panes[p].focused = true
}

func (a App) toggleMode() App {
	if a.searcher == nil {
		a.status = "Search is not available"
		return a
	}
	if a.mode == ModeChat {
		a.mode = ModeSearch
		a.input.Placeholder = searchPlaceholder
	} else {
		a.mode = ModeChat
		a.input.Placeholder = chatPlaceholder
	}
	for i := range a.panes {
		a.panes[i].leave()
	}
	a.syncInput()
	return a
}

func (a *App) page(dir int) {
	if a.mode == ModeSearch {
		n := limitMin(a.search.vp.Height-1, 1)
		if dir < 0 {
			a.search.vp.LineUp(n)
		} else {
			a.search.vp.LineDown(n)
		}
		return
	}
	a.panes[a.focus].page(dir)
}

// submitChat starts a turn. The conversation ignores blank input and input
// while a turn is in flight.
func (a App) submitChat() (tea.Model, tea.Cmd) {
	text := a.input.Value()
	turn, ok := a.conv.Begin(text)
	if !ok {
		a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindChatIgnored, Comp: "ui", Chars: len(text)})
		return a, nil
	}

	a.pending = &turn
	a.input.Reset()
	a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindChatSubmit, Comp: "ui", TurnID: turn.ID, Chars: len(text)})
	logging.Debug("turn submitted", "turn", turn.ID, "chars", len(text))

	a.refresh()
	return a, tea.Batch(a.exchange(turn), a.spinner.Tick)
}

func (a App) exchange(turn chat.Turn) tea.Cmd {
	conv, ctx := a.conv, a.ctx
	return func() tea.Msg {
		start := time.Now()
		reply, err := conv.Exchange(ctx, turn)
		return ChatReplied{Turn: turn, Reply: reply, Err: err, Dur: time.Since(start)}
	}
}

func (a App) handleChatReplied(msg ChatReplied) (tea.Model, tea.Cmd) {
	err := a.conv.Resolve(msg.Turn, msg.Reply, msg.Err)
	if errors.Is(err, chat.ErrUnknownTurn) {
		logging.Warn("reply for unknown turn dropped", "turn", msg.Turn.ID)
		return a, nil
	}
	a.pending = nil

	var turnErr *chat.TurnError
	if errors.As(err, &turnErr) {
		a.err = fmt.Errorf("chat failed: %w", turnErr.Err)
		a.events.Emit(otel.Event{
			Level:  otel.LevelError,
			Kind:   otel.KindChatError,
			Comp:   "ui",
			TurnID: msg.Turn.ID,
			Dur:    msg.Dur,
			Status: statusOf(turnErr.Err),
			Err:    turnErr.Err.Error(),
		})
		logging.Error("chat failed", "turn", msg.Turn.ID, "err", turnErr.Err)
		// The question stays in the timeline; offer it again for resubmission.
		if a.input.Value() == "" {
			a.input.SetValue(msg.Turn.Text)
			a.input.CursorEnd()
		}
	} else {
		a.events.Emit(otel.Event{
			Level:  otel.LevelInfo,
			Kind:   otel.KindChatComplete,
			Comp:   "ui",
			TurnID: msg.Turn.ID,
			Dur:    msg.Dur,
			Count:  len(msg.Reply.VectorResults) + len(msg.Reply.RerankedResults),
		})
		logging.Debug("turn complete", "turn", msg.Turn.ID, "dur", msg.Dur)
	}

	a.refresh()
	return a, nil
}

func statusOf(err error) int {
	var be *backend.Error
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}

func (a App) submitSearch() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(a.input.Value())
	if query == "" || a.search.loading {
		return a, nil
	}
	a.search.query = query
	a.search.loading = true
	a.input.Reset()
	a.syncInput()
	a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchStart, Comp: "ui", Chars: len(query)})

	searcher, ctx, req := a.searcher, a.ctx, backend.SearchRequest{Query: query, TopK: a.topK}
	search := func() tea.Msg {
		start := time.Now()
		resp, err := searcher.Search(ctx, req)
		return SearchCompleted{Query: query, Resp: resp, Err: err, Dur: time.Since(start)}
	}
	return a, tea.Batch(search, a.spinner.Tick)
}

func (a App) handleSearchCompleted(msg SearchCompleted) (tea.Model, tea.Cmd) {
	a.search.loading = false
	a.search.dur = msg.Dur
	if msg.Err != nil {
		a.err = fmt.Errorf("search failed: %w", msg.Err)
		a.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindSearchError, Comp: "ui", Dur: msg.Dur, Status: statusOf(msg.Err), Err: msg.Err.Error()})
		logging.Error("search failed", "err", msg.Err)
	} else {
		resp := msg.Resp
		a.search.resp = &resp
		a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchComplete, Comp: "ui", Dur: msg.Dur, Count: len(resp.VectorResults) + len(resp.RerankedResults)})
	}
	a.syncInput()
	a.renderSearch()
	a.search.vp.GotoTop()
	return a, nil
}

// activate follows link idx in a pane: anchors scroll to their source
// entry, external targets go to the browser.
func (a App) activate(side chat.Pane, idx int) (tea.Model, tea.Cmd) {
	p := &a.panes[side]
	href := p.href(idx)
	switch (cite.Span{Href: href}).Kind() {
	case cite.LinkAnchor:
		if p.jump(idx, href) {
			a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindLinkJump, Comp: "ui", Pane: side.String()})
		}
		return a, nil
	case cite.LinkExternal:
		if !cite.Opens(href) {
			a.status = "Not opening " + truncateRunes(href, 60)
			return a, nil
		}
		a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindLinkOpen, Comp: "ui", Pane: side.String()})
		open := a.openURL
		return a, func() tea.Msg {
			return LinkOpened{Href: href, Err: open(href)}
		}
	}
	return a, nil
}

// layout sizes panes, the search view and the input to the window.
func (a *App) layout() {
	panesH := limitMin(a.height-headerRows-statusRows-inputRows-helpRows, 3)
	leftW := a.width / 2
	rightW := a.width - leftW

	a.panes[chat.PaneLeft].resize(0, headerRows, leftW, panesH, a.width, a.height)
	a.panes[chat.PaneRight].resize(leftW, headerRows, rightW, panesH, a.width, a.height)

	a.search.vp.Width = a.width
	a.search.vp.Height = panesH
	a.renderSearch()

	a.input.Width = limitMin(a.width-InputBox.GetHorizontalFrameSize()-lipgloss.Width(a.input.Prompt)-1, 1)
	a.help.Width = a.width
}

// refresh re-derives both timelines from the conversation.
func (a *App) refresh() {
	for i := range a.panes {
		a.panes[i].setTimeline(a.conv.Timeline(chat.Pane(i)), a.conv.Results)
	}
	a.refreshBusy()
	a.syncInput()
}

func (a *App) refreshBusy() {
	busy := a.pending != nil
	for i := range a.panes {
		a.panes[i].setBusy(busy, a.spinner.View())
	}
	if a.search.loading {
		a.renderSearch()
	}
}

// syncInput disables the input while the current mode has a request in
// flight.
func (a *App) syncInput() {
	if a.busy() {
		a.input.Blur()
	} else {
		a.input.Focus()
	}
}

func (a App) busy() bool {
	if a.mode == ModeSearch {
		return a.search.loading
	}
	return a.pending != nil
}

func (a *App) renderSearch() {
	var content string
	switch {
	case a.search.loading:
		content = a.spinner.View() + " " + InspectHint.Render("Searching...")
	case a.search.resp != nil:
		content = renderSearchResults(*a.search.resp, a.width)
	default:
		content = InspectHint.Render("Enter a query to compare vector and reranked results.")
	}
	a.search.vp.SetContent(content)
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := HeaderTitle.Render(headerTitle) + HeaderSubtitle.Render(headerSubtitle)
	header = lipgloss.NewStyle().MaxWidth(a.width).Render(header)

	var body string
	if a.mode == ModeSearch {
		body = a.search.vp.View()
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, a.panes[chat.PaneLeft].View(), a.panes[chat.PaneRight].View())
	}

	status := a.statusLine()

	box := InputBox
	if a.busy() {
		box = InputBoxDisabled
	}
	input := box.Width(limitMin(a.width-box.GetHorizontalBorderSize(), 1)).Render(a.input.View())

	footer := HelpStyle.Render(a.help.ShortHelpView(a.keys.ShortHelp()))
	if a.showDebug {
		footer = debugStatusBar(a.width)
	}

	screen := lipgloss.JoinVertical(lipgloss.Left, header, body, status, input, footer)

	if a.mode == ModeChat {
		for i := range a.panes {
			screen = a.panes[i].overlay(screen)
		}
	}
	if a.showDebug {
		if panel := debugOverlay(a.ring, a.width, a.height); panel != "" {
			x := limitMin((a.width-lipgloss.Width(panel))/2, 0)
			y := limitMin((a.height-lipgloss.Height(panel))/2, 0)
			screen = inspect.Place(screen, panel, x, y)
		}
	}
	return screen
}

// statusLine is the single row between panes and input: the error bar when
// the last action failed, otherwise a transient status or the mode.
func (a App) statusLine() string {
	if a.err != nil {
		return ErrorStyle.Width(a.width).MaxHeight(1).Render(
			truncateRunes("Error: "+a.err.Error()+" (press any key to dismiss)", a.width))
	}
	text := a.status
	if text == "" {
		switch {
		case a.mode == ModeSearch && a.search.resp != nil:
			text = fmt.Sprintf("Search: %q in %s", truncateRunes(a.search.query, 40), formatAge(a.search.dur))
		case a.mode == ModeSearch:
			text = "Search mode"
		case a.pending != nil:
			text = "Waiting for both answers..."
		default:
			text = fmt.Sprintf("%d messages", a.conv.Len())
		}
	}
	return StatusBar.Width(a.width).MaxHeight(1).Render(truncateRunes(text, limitMin(a.width-2, 1)))
}

// Mode returns the input mode.
func (a App) Mode() Mode {
	return a.mode
}

// Busy reports whether a chat turn is in flight.
func (a App) Busy() bool {
	return a.pending != nil
}

// Err returns the error currently shown, if any.
func (a App) Err() error {
	return a.err
}
