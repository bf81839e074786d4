package ui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abelbrown/duet/internal/cite"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// linkBox is the clickable region of one link on one rendered line.
// Columns are cells, end exclusive. A link wrapped over two lines has two
// boxes with the same index.
type linkBox struct {
	line, start, end int
	index            int
}

// link is a target in rendered content, numbered in reading order.
type link struct {
	href string
	line int // first line, for scrolling to a focused link
}

// layout is wrapped, styled content plus what a click needs to resolve.
type layout struct {
	lines   []string
	boxes   []linkBox
	links   []link
	anchors map[string]int // source anchor -> line of its entry
}

func newLayout() *layout {
	return &layout{anchors: make(map[string]int)}
}

// append adds another layout below l, shifting its lines and link indexes.
func (l *layout) append(o *layout) {
	lineBase, linkBase := len(l.lines), len(l.links)
	l.lines = append(l.lines, o.lines...)
	for _, b := range o.boxes {
		b.line += lineBase
		b.index += linkBase
		l.boxes = append(l.boxes, b)
	}
	for _, k := range o.links {
		k.line += lineBase
		l.links = append(l.links, k)
	}
	for a, line := range o.anchors {
		if _, ok := l.anchors[a]; !ok {
			l.anchors[a] = line + lineBase
		}
	}
}

// text adds plain lines.
func (l *layout) text(lines ...string) {
	l.lines = append(l.lines, lines...)
}

// linkAt returns the index of the link covering the cell, or -1.
func (l *layout) linkAt(line, col int) int {
	for _, b := range l.boxes {
		if b.line == line && col >= b.start && col < b.end {
			return b.index
		}
	}
	return -1
}

// frag is a piece of one span placed on one line.
type frag struct {
	text string
	span int
}

// wrapSpans word-wraps spans to width cells. Newlines inside spans force a
// break; runs of spaces at a wrap point are dropped; words wider than the
// line are split.
func wrapSpans(spans []cite.Span, width int) [][]frag {
	if width < 1 {
		width = 1
	}
	var lines [][]frag
	var cur []frag
	curW := 0
	wrapped := false

	push := func(text string, span int) {
		if n := len(cur); n > 0 && cur[n-1].span == span {
			cur[n-1].text += text
		} else {
			cur = append(cur, frag{text: text, span: span})
		}
		curW += ansi.StringWidth(text)
	}
	breakLine := func(soft bool) {
		lines = append(lines, cur)
		cur, curW, wrapped = nil, 0, soft
	}

	for si, sp := range spans {
		for pi, part := range strings.Split(sp.Text, "\n") {
			if pi > 0 {
				breakLine(false)
			}
			for _, tok := range tokenize(part) {
				w := ansi.StringWidth(tok)
				if isSpace(tok) {
					if curW == 0 && wrapped {
						continue
					}
					if curW+w > width {
						breakLine(true)
						continue
					}
					push(tok, si)
					continue
				}
				if curW > 0 && curW+w > width {
					breakLine(true)
				}
				for w > width-curW {
					head, tail := splitCells(tok, width-curW)
					if head == "" {
						if curW > 0 {
							breakLine(true)
							continue
						}
						// A single rune wider than the line still has to go somewhere.
						_, size := utf8.DecodeRuneInString(tok)
						head, tail = tok[:size], tok[size:]
					}
					push(head, si)
					breakLine(true)
					tok = tail
					w = ansi.StringWidth(tok)
				}
				if tok != "" {
					push(tok, si)
				}
			}
		}
	}
	if len(cur) > 0 || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}

// tokenize splits s into alternating runs of spaces and non-spaces.
func tokenize(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if i == start {
			continue
		}
		prev, _ := utf8.DecodeLastRuneInString(s[:i])
		if unicode.IsSpace(prev) != unicode.IsSpace(r) {
			out = append(out, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isSpace(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsSpace(r)
}

// splitCells cuts s after at most n cells.
func splitCells(s string, n int) (head, tail string) {
	w := 0
	for i, r := range s {
		rw := ansi.StringWidth(string(r))
		if w+rw > n {
			return s[:i], s[i:]
		}
		w += rw
	}
	return s, ""
}

// renderSpans lays out spans at width with every line indented by indent
// cells. Links get consecutive indexes from 0; focus is the index drawn as
// selected (-1 for none). base styles non-link text.
func renderSpans(spans []cite.Span, width, indent int, base lipgloss.Style, focus int) *layout {
	l := newLayout()
	pad := strings.Repeat(" ", indent)

	linkIndex := make([]int, len(spans))
	for i, sp := range spans {
		linkIndex[i] = -1
		if sp.Href != "" {
			linkIndex[i] = len(l.links)
			l.links = append(l.links, link{href: sp.Href, line: -1})
		}
	}

	for lineNo, frags := range wrapSpans(spans, width-indent) {
		var b strings.Builder
		b.WriteString(pad)
		col := indent
		for _, f := range frags {
			sp := spans[f.span]
			style := base
			if idx := linkIndex[f.span]; idx >= 0 {
				style = LinkStyle
				if idx == focus {
					style = LinkFocused
				}
				w := ansi.StringWidth(f.text)
				l.boxes = append(l.boxes, linkBox{line: lineNo, start: col, end: col + w, index: idx})
				if l.links[idx].line < 0 {
					l.links[idx].line = lineNo
				}
			}
			if sp.Bold {
				style = style.Bold(true)
			}
			b.WriteString(style.Render(f.text))
			col += ansi.StringWidth(f.text)
		}
		l.lines = append(l.lines, b.String())
	}
	return l
}

// renderAnswer lays out a parsed answer: the body, then, when there are
// sources, a divider and one entry per source in the muted style. focus
// counts links across body and sources.
func renderAnswer(a cite.Answer, width, indent, focus int) *layout {
	l := renderSpans(a.Spans, width, indent, lipgloss.NewStyle(), focus)
	if !a.HasSources() {
		return l
	}

	dividerW := width - indent
	if dividerW < 1 {
		dividerW = 1
	}
	l.text(strings.Repeat(" ", indent) + SourceDivider.Render(strings.Repeat("─", dividerW)))

	for _, src := range a.Sources {
		entry := renderSpans(src.Spans, width, indent, SourceText, focus-len(l.links))
		anchorLine := len(l.lines)
		l.append(entry)
		if _, ok := l.anchors[src.Anchor]; !ok {
			l.anchors[src.Anchor] = anchorLine
		}
	}
	return l
}

func plainSpans(s string) []cite.Span {
	return []cite.Span{{Text: s}}
}

// truncateRunes shortens s to at most n runes, marking the cut with "…".
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
