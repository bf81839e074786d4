// Package cite splits an assistant answer into its body and source list and
// breaks both into styled spans with link targets.
//
// The source list starts at the last line that follows a blank line and reads
// "Sources:". Matching ignores case, an optional trailing colon, and markdown
// decoration such as "**Sources:**" or "### Sources". Every non-blank line
// after the label is one entry; a leading "- ", "* " or "• " bullet is
// dropped. An answer without such a line is all body.
//
// Inline links use markdown syntax, [label](target). Targets beginning with
// "#" are anchors into the source list (the backend cites as [[N]](#N));
// anything else is external. "**bold**" is the only other markup honored.
package cite

import (
	"regexp"
	"strconv"
	"strings"
)

// Answer is a parsed assistant message.
type Answer struct {
	Body    string
	Spans   []Span
	Sources []Source
}

// Source is one entry of the source list.
type Source struct {
	// Anchor is the entry's citation number: the target of a leading anchor
	// link, a leading "1." style number, or else its 1-based position.
	Anchor string
	Text   string
	Spans  []Span
}

// HasSources reports whether a source region was found.
func (a Answer) HasSources() bool {
	return len(a.Sources) > 0
}

// SourceIndex returns the position of the entry with the given anchor.
// A leading "#" on anchor is ignored.
func (a Answer) SourceIndex(anchor string) (int, bool) {
	anchor = strings.TrimPrefix(anchor, "#")
	for i, s := range a.Sources {
		if s.Anchor == anchor {
			return i, true
		}
	}
	return -1, false
}

// Parse splits content into body and sources. It never fails.
func Parse(content string) Answer {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	label := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if !isSourcesLabel(lines[i]) {
			continue
		}
		if i == 0 || strings.TrimSpace(lines[i-1]) == "" {
			label = i
			break
		}
	}

	if label < 0 {
		body := strings.TrimRight(content, " \t\n")
		return Answer{Body: body, Spans: Spans(body)}
	}

	body := strings.TrimRight(strings.Join(lines[:label], "\n"), " \t\n")
	a := Answer{Body: body, Spans: Spans(body)}

	for _, line := range lines[label+1:] {
		entry := stripBullet(strings.TrimSpace(line))
		if entry == "" {
			continue
		}
		spans := Spans(entry)
		a.Sources = append(a.Sources, Source{
			Anchor: entryAnchor(entry, spans, len(a.Sources)+1),
			Text:   entry,
			Spans:  spans,
		})
	}
	return a
}

func isSourcesLabel(line string) bool {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#")
	s = strings.Trim(s, " \t*_")
	s = strings.TrimSuffix(s, ":")
	s = strings.Trim(s, " \t*_")
	return strings.EqualFold(s, "sources")
}

func stripBullet(s string) string {
	for _, b := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(s, b) {
			return strings.TrimSpace(s[len(b):])
		}
	}
	return s
}

var leadingNumber = regexp.MustCompile(`^\[?(\d+)[\].):]`)

func entryAnchor(entry string, spans []Span, position int) string {
	if len(spans) > 0 && spans[0].Kind() == LinkAnchor {
		if a := spans[0].Anchor(); a != "" {
			return a
		}
	}
	if m := leadingNumber.FindStringSubmatch(entry); m != nil {
		return m[1]
	}
	return strconv.Itoa(position)
}
