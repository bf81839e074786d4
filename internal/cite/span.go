package cite

import (
	"net/url"
	"strings"
)

// LinkKind classifies a span's target.
type LinkKind int

const (
	LinkNone LinkKind = iota
	LinkAnchor
	LinkExternal
)

func (k LinkKind) String() string {
	switch k {
	case LinkAnchor:
		return "anchor"
	case LinkExternal:
		return "external"
	default:
		return "none"
	}
}

// Span is a run of text with uniform styling. Text may contain newlines.
type Span struct {
	Text string
	Bold bool
	Href string
}

// Kind reports whether the span links to an anchor, an external target, or
// nothing.
func (s Span) Kind() LinkKind {
	switch {
	case s.Href == "":
		return LinkNone
	case strings.HasPrefix(s.Href, "#"):
		return LinkAnchor
	default:
		return LinkExternal
	}
}

// Anchor returns the anchor name without its "#", or "" for other kinds.
func (s Span) Anchor() string {
	if s.Kind() != LinkAnchor {
		return ""
	}
	return strings.TrimPrefix(s.Href, "#")
}

// Opens reports whether an external target may be handed to the browser.
// Only absolute http and https URLs and mailto addresses qualify.
func Opens(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto":
		return u.Opaque != "" || u.Path != ""
	}
	return false
}

// Spans breaks inline markdown into spans. Unmatched markup is kept as
// literal text.
func Spans(text string) []Span {
	p := &spanParser{}
	p.parse(text, false, "")
	p.flush()
	return p.out
}

type spanParser struct {
	out  []Span
	buf  strings.Builder
	bold bool
	href string
}

func (p *spanParser) flush() {
	if p.buf.Len() == 0 {
		return
	}
	text := p.buf.String()
	p.buf.Reset()
	if n := len(p.out); n > 0 && p.out[n-1].Bold == p.bold && p.out[n-1].Href == p.href {
		p.out[n-1].Text += text
		return
	}
	p.out = append(p.out, Span{Text: text, Bold: p.bold, Href: p.href})
}

func (p *spanParser) setStyle(bold bool, href string) {
	if bold == p.bold && href == p.href {
		return
	}
	p.flush()
	p.bold = bold
	p.href = href
}

// parse walks s with bold starting as given. Inside a link label href is set
// and nested links are treated as text.
func (p *spanParser) parse(s string, bold bool, href string) {
	p.setStyle(bold, href)
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "**"):
			if bold || strings.Contains(s[i+2:], "**") {
				bold = !bold
				p.setStyle(bold, href)
				i += 2
				continue
			}
		case s[i] == '[' && href == "":
			if label, target, n, ok := matchLink(s[i:]); ok {
				p.parse(label, bold, target)
				p.setStyle(bold, href)
				i += n
				continue
			}
		}
		p.buf.WriteByte(s[i])
		i++
	}
	p.setStyle(bold, href)
}

// matchLink recognizes "[label](target)" at the start of s, allowing
// balanced brackets in the label and balanced parentheses in the target.
func matchLink(s string) (label, target string, n int, ok bool) {
	closeLabel := matchBalanced(s, '[', ']')
	if closeLabel < 0 || closeLabel+1 >= len(s) || s[closeLabel+1] != '(' {
		return "", "", 0, false
	}
	rest := s[closeLabel+1:]
	closeTarget := matchBalanced(rest, '(', ')')
	if closeTarget < 0 {
		return "", "", 0, false
	}
	target = strings.TrimSpace(rest[1:closeTarget])
	if target == "" || strings.ContainsAny(target, " \n") {
		return "", "", 0, false
	}
	label = s[1:closeLabel]
	if label == "" {
		label = target
	}
	return label, target, closeLabel + 1 + closeTarget + 1, true
}

func matchBalanced(s string, open, close byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		case '\n':
			return -1
		}
	}
	return -1
}
