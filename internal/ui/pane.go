package ui

import (
	"strconv"
	"strings"

	"github.com/abelbrown/duet/internal/backend"
	"github.com/abelbrown/duet/internal/chat"
	"github.com/abelbrown/duet/internal/cite"
	"github.com/abelbrown/duet/internal/inspect"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	leftTitle  = "Similarity Search"
	rightTitle = "Similarity + Rerank"

	bodyIndent = 2
	wheelDelta = 3
)

// block is one message's rendered lines within a pane's content.
type block struct {
	msg      chat.Message
	start    int // label line
	end      int // exclusive, before the separator
	linkBase int
	links    int
	anchors  map[string]int // content lines
}

func (b block) owns(link int) bool {
	return link >= b.linkBase && link < b.linkBase+b.links
}

// paneModel renders one timeline. It owns the viewport scroll state, the
// link focus and one inspector per assistant message that has results.
type paneModel struct {
	side  chat.Pane
	title string
	vp    viewport.Model

	width, height    int // outer, including border
	originX, originY int // outer top-left on screen
	screenW, screenH int
	focused          bool

	messages   []chat.Message
	results    func(id string) []backend.Result
	busy       bool
	spinner    string
	content    *layout
	blocks     []block
	focusLink  int
	inspectors map[string]inspect.Model
	offset     int
	inspectW   int
}

func newPane(side chat.Pane, offset, inspectW int) paneModel {
	title := leftTitle
	if side == chat.PaneRight {
		title = rightTitle
	}
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = false
	return paneModel{
		side:       side,
		title:      title,
		vp:         vp,
		content:    newLayout(),
		focusLink:  -1,
		inspectors: make(map[string]inspect.Model),
		offset:     offset,
		inspectW:   inspectW,
	}
}

// contentWidth is the text area width inside border and padding.
func (p paneModel) contentWidth() int {
	return limitMin(p.width-PaneBorder.GetHorizontalFrameSize(), 1)
}

// contentHeight is the viewport height: inside the border, below the title.
func (p paneModel) contentHeight() int {
	return limitMin(p.height-PaneBorder.GetVerticalFrameSize()-1, 1)
}

// contentOrigin is the screen cell of the viewport's top-left.
func (p paneModel) contentOrigin() (x, y int) {
	return p.originX + PaneBorder.GetBorderLeftSize() + PaneBorder.GetPaddingLeft(),
		p.originY + PaneBorder.GetBorderTopSize() + 1
}

func (p *paneModel) resize(x, y, w, h, screenW, screenH int) {
	p.originX, p.originY = x, y
	p.width, p.height = w, h
	p.screenW, p.screenH = screenW, screenH
	p.vp.Width = p.contentWidth()
	p.vp.Height = p.contentHeight()
	p.rebuild()
}

// setTimeline replaces the pane's messages. The view follows the newest
// message whenever the timeline grows.
func (p *paneModel) setTimeline(msgs []chat.Message, results func(string) []backend.Result) {
	grew := len(msgs) != len(p.messages)
	p.messages = msgs
	p.results = results
	if grew {
		p.focusLink = -1
	}
	p.rebuild()
	if grew {
		p.vp.GotoBottom()
		p.syncBounds()
	}
}

func (p *paneModel) setBusy(busy bool, spinner string) {
	p.busy, p.spinner = busy, spinner
	atBottom := p.vp.AtBottom()
	p.rebuild()
	if busy && atBottom {
		p.vp.GotoBottom()
		p.syncBounds()
	}
}

// rebuild re-renders every message at the current width and focus.
func (p *paneModel) rebuild() {
	w := p.contentWidth()
	content := newLayout()
	p.blocks = nil

	if len(p.messages) == 0 && !p.busy {
		content.text(InspectHint.Render("Ask a question to compare answers."))
	}

	for _, m := range p.messages {
		b := block{msg: m, start: len(content.lines), linkBase: len(content.links)}

		var body *layout
		switch m.Role {
		case chat.RoleUser:
			content.text(RoleUser.Render("You"))
			body = renderSpans(plainSpans(m.Content), w, bodyIndent, lipgloss.NewStyle(), -1)
		default:
			label := RoleAssistant.Render("Assistant")
			if n := len(p.resultsFor(m.ID)); n > 0 {
				label += InspectHint.Render(resultHint(n))
			}
			content.text(label)
			body = renderAnswer(cite.Parse(m.Content), w, bodyIndent, p.focusLink-b.linkBase)
		}

		base := len(content.lines)
		b.anchors = make(map[string]int, len(body.anchors))
		for a, line := range body.anchors {
			b.anchors[a] = line + base
		}
		content.append(body)
		b.end = len(content.lines)
		b.links = len(content.links) - b.linkBase
		p.blocks = append(p.blocks, b)
		p.ensureInspector(m)

		content.text("")
	}

	if p.busy {
		content.text(p.spinner + " " + InspectHint.Render("Thinking..."))
	}

	p.content = content
	if p.focusLink >= len(content.links) {
		p.focusLink = -1
	}
	p.vp.SetContent(strings.Join(content.lines, "\n"))
	p.syncBounds()
}

func resultHint(n int) string {
	if n == 1 {
		return "  (hover for 1 result)"
	}
	return "  (hover for " + strconv.Itoa(n) + " results)"
}

func (p *paneModel) resultsFor(id string) []backend.Result {
	if p.results == nil {
		return nil
	}
	return p.results(id)
}

func (p *paneModel) ensureInspector(m chat.Message) {
	if m.Role != chat.RoleAssistant {
		return
	}
	if _, ok := p.inspectors[m.ID]; ok {
		return
	}
	p.inspectors[m.ID] = inspect.New(p.resultsFor(m.ID)).WithOffset(p.offset).WithWidth(p.inspectW)
}

// syncBounds points every inspector at the on-screen part of its block.
// Blocks scrolled out of view get an empty rect.
func (p *paneModel) syncBounds() {
	cx, cy := p.contentOrigin()
	top, bottom := p.vp.YOffset, p.vp.YOffset+p.vp.Height
	for _, b := range p.blocks {
		insp, ok := p.inspectors[b.msg.ID]
		if !ok {
			continue
		}
		first, last := b.start, b.end
		if first < top {
			first = top
		}
		if last > bottom {
			last = bottom
		}
		r := inspect.Rect{}
		if last > first {
			r = inspect.Rect{X: cx, Y: cy + first - top, W: p.vp.Width, H: last - first}
		}
		insp.SetBounds(r)
		insp.SetScreen(p.screenW, p.screenH)
		p.inspectors[b.msg.ID] = insp
	}
}

// contains reports whether a screen cell lies in the pane's outer box.
func (p paneModel) contains(x, y int) bool {
	return x >= p.originX && x < p.originX+p.width && y >= p.originY && y < p.originY+p.height
}

// cellAt maps a screen cell to a content line and column.
func (p paneModel) cellAt(x, y int) (line, col int, ok bool) {
	cx, cy := p.contentOrigin()
	col, row := x-cx, y-cy
	if col < 0 || row < 0 || col >= p.vp.Width || row >= p.vp.Height {
		return 0, 0, false
	}
	return row + p.vp.YOffset, col, true
}

// linkAt returns the index of the link under a screen cell, or -1.
func (p paneModel) linkAt(x, y int) int {
	line, col, ok := p.cellAt(x, y)
	if !ok {
		return -1
	}
	return p.content.linkAt(line, col)
}

// hover forwards pointer movement to every inspector. It reports the
// message IDs whose inspector became visible.
func (p *paneModel) hover(msg tea.MouseMsg) []string {
	var shown []string
	for id, insp := range p.inspectors {
		was := insp.Visible()
		insp, _ = insp.Update(msg)
		p.inspectors[id] = insp
		if insp.Visible() && !was {
			shown = append(shown, id)
		}
	}
	return shown
}

func (p *paneModel) leave() {
	for id, insp := range p.inspectors {
		insp.Leave()
		p.inspectors[id] = insp
	}
}

func (p *paneModel) scroll(delta int) {
	if delta < 0 {
		p.vp.LineUp(-delta)
	} else {
		p.vp.LineDown(delta)
	}
	p.syncBounds()
}

func (p *paneModel) page(dir int) {
	p.scroll(dir * limitMin(p.vp.Height-1, 1))
}

// cycleLink moves link focus by delta, wrapping, and scrolls the focused
// link into view. It returns false when the pane has no links.
func (p *paneModel) cycleLink(delta int) bool {
	n := len(p.content.links)
	if n == 0 {
		p.focusLink = -1
		return false
	}
	switch {
	case p.focusLink < 0 && delta > 0:
		p.focusLink = 0
	case p.focusLink < 0:
		p.focusLink = n - 1
	default:
		p.focusLink = ((p.focusLink+delta)%n + n) % n
	}
	p.rebuild()
	p.reveal(p.content.links[p.focusLink].line)
	return true
}

// reveal scrolls so that line is visible, centering it when it was not.
func (p *paneModel) reveal(line int) {
	if line >= p.vp.YOffset && line < p.vp.YOffset+p.vp.Height {
		return
	}
	p.vp.SetYOffset(line - p.vp.Height/2)
	p.syncBounds()
}

// focusedHref returns the focused link and its index, or ("", -1).
func (p paneModel) focusedHref() (string, int) {
	if p.focusLink < 0 || p.focusLink >= len(p.content.links) {
		return "", -1
	}
	return p.content.links[p.focusLink].href, p.focusLink
}

// href returns the target of link i.
func (p paneModel) href(i int) string {
	if i < 0 || i >= len(p.content.links) {
		return ""
	}
	return p.content.links[i].href
}

// jump scrolls to the source entry an anchor link names. Anchors resolve
// only within the answer that holds the link. It reports whether the
// anchor was found.
func (p *paneModel) jump(link int, href string) bool {
	anchor := strings.TrimPrefix(href, "#")
	for _, b := range p.blocks {
		if !b.owns(link) {
			continue
		}
		line, ok := b.anchors[anchor]
		if !ok {
			return false
		}
		p.vp.SetYOffset(line)
		p.syncBounds()
		return true
	}
	return false
}

// overlay composites visible inspector boxes onto the screen.
func (p paneModel) overlay(screen string) string {
	for _, b := range p.blocks {
		if insp, ok := p.inspectors[b.msg.ID]; ok && insp.Visible() {
			screen = insp.Overlay(screen)
		}
	}
	return screen
}

func (p paneModel) View() string {
	border := PaneBorder
	if p.focused {
		border = PaneBorderFocused
	}
	title := PaneTitle.Render(truncateRunes(p.title, p.contentWidth()))
	inner := lipgloss.JoinVertical(lipgloss.Left, title, p.vp.View())
	return border.
		Width(limitMin(p.width-border.GetHorizontalBorderSize(), 1)).
		Height(limitMin(p.height-border.GetVerticalBorderSize(), 1)).
		MaxHeight(p.height).
		Render(inner)
}

func limitMin(n, lo int) int {
	if n < lo {
		return lo
	}
	return n
}
