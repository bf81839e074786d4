// Package inspect shows the full retrieval results behind an answer in a
// floating box while the pointer rests on that answer.
//
// Each rendered answer owns its own Model. Hover state never leaves the
// model, so two inspectors on screen cannot interfere.
package inspect

import (
	"fmt"
	"strings"

	"github.com/abelbrown/duet/internal/backend"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	DefaultOffset = 2
	DefaultWidth  = 64
)

// Rect is a screen region in cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Model is one inspector.
type Model struct {
	results []backend.Result
	bounds  Rect
	offset  int
	width   int

	screenW, screenH int

	hovering bool
	px, py   int
}

// New creates an inspector over results, kept in the order given.
func New(results []backend.Result) Model {
	return Model{
		results: results,
		offset:  DefaultOffset,
		width:   DefaultWidth,
	}
}

// WithOffset sets the horizontal gap between pointer and box.
func (m Model) WithOffset(n int) Model {
	if n >= 0 {
		m.offset = n
	}
	return m
}

// WithWidth sets the box width, border included.
func (m Model) WithWidth(n int) Model {
	if n > 4 {
		m.width = n
	}
	return m
}

// SetBounds sets the screen region of the content being inspected.
// Moving the region out from under the pointer hides the box.
func (m *Model) SetBounds(r Rect) {
	m.bounds = r
	if m.hovering && !r.Contains(m.px, m.py) {
		m.hovering = false
	}
}

// Bounds returns the inspected region.
func (m Model) Bounds() Rect {
	return m.bounds
}

// SetScreen records the terminal size used for clamping.
func (m *Model) SetScreen(w, h int) {
	m.screenW, m.screenH = w, h
}

// Results returns the inspected results.
func (m Model) Results() []backend.Result {
	return m.results
}

// Update tracks the pointer. Any mouse event inside the bounds shows the box
// at the pointer; any event outside hides it.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		if m.bounds.Contains(msg.X, msg.Y) {
			m.hovering = true
			m.px, m.py = msg.X, msg.Y
		} else {
			m.hovering = false
		}
	case tea.WindowSizeMsg:
		m.SetScreen(msg.Width, msg.Height)
	}
	return m, nil
}

// Leave hides the box.
func (m *Model) Leave() {
	m.hovering = false
}

// Hovering reports whether the pointer is over the inspected content.
func (m Model) Hovering() bool {
	return m.hovering
}

// Visible reports whether the box is shown. An inspector without results is
// never visible.
func (m Model) Visible() bool {
	return m.hovering && len(m.results) > 0
}

// Content is the unstyled box text: every result in order with score,
// optional rerank score, passage, title and source.
func (m Model) Content() string {
	if len(m.results) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range m.results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatResult(r))
	}
	return b.String()
}

// FormatResult renders one result as text.
func FormatResult(r backend.Result) string {
	var lines []string
	score := fmt.Sprintf("Score: %.4f", r.Score)
	if r.RerankScore != nil {
		score += fmt.Sprintf("  Rerank: %.4f", *r.RerankScore)
	}
	if r.ScoreSpread != nil {
		score += fmt.Sprintf("  Spread: %.4f", *r.ScoreSpread)
	}
	lines = append(lines, score)
	if r.Metadata.Text != "" {
		lines = append(lines, r.Metadata.Text)
	}
	title := r.Metadata.Title
	if title == "" {
		title = "No title"
	}
	lines = append(lines, "Title: "+title)
	if r.Metadata.Source != "" {
		lines = append(lines, "Source: "+r.Metadata.Source)
	}
	return strings.Join(lines, "\n")
}

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	metaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Box renders the styled box, or "" when not visible. The box is no wider
// than the screen and no taller than it; overflowing lines are cut.
func (m Model) Box() string {
	if !m.Visible() {
		return ""
	}
	width := m.width
	if m.screenW > 0 && width > m.screenW {
		width = m.screenW
	}
	// Border and padding take four columns.
	inner := width - 4
	if inner < 1 {
		inner = 1
	}

	var parts []string
	for _, r := range m.results {
		parts = append(parts, styleResult(r))
	}
	body := lipgloss.NewStyle().Width(inner).Render(strings.Join(parts, "\n\n"))

	if m.screenH > 2 {
		lines := strings.Split(body, "\n")
		if limit := m.screenH - 2; len(lines) > limit {
			lines = append(lines[:limit-1], metaStyle.Render("…"))
			body = strings.Join(lines, "\n")
		}
	}
	return boxStyle.Render(body)
}

func styleResult(r backend.Result) string {
	lines := strings.Split(FormatResult(r), "\n")
	lines[0] = scoreStyle.Render(lines[0])
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "Title: ") || strings.HasPrefix(lines[i], "Source: ") {
			lines[i] = metaStyle.Render(lines[i])
		}
	}
	return strings.Join(lines, "\n")
}

// Position returns the top-left cell for a box of the given size: right of
// the pointer by the offset, vertically centered on it, clamped on screen.
func (m Model) Position(boxW, boxH int) (x, y int) {
	x = m.px + m.offset
	y = m.py - boxH/2
	if m.screenW > 0 && x+boxW > m.screenW {
		x = m.screenW - boxW
	}
	if m.screenH > 0 && y+boxH > m.screenH {
		y = m.screenH - boxH
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

// Overlay draws the box over bg when visible and returns bg unchanged
// otherwise.
func (m Model) Overlay(bg string) string {
	box := m.Box()
	if box == "" {
		return bg
	}
	x, y := m.Position(lipgloss.Width(box), lipgloss.Height(box))
	return Place(bg, box, x, y)
}
