package cite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSplitsSources(t *testing.T) {
	a := Parse("Answer text.\n\nSources:\n- A\n- B")

	assert.Equal(t, "Answer text.", a.Body)
	require.Len(t, a.Sources, 2)
	assert.Equal(t, "A", a.Sources[0].Text)
	assert.Equal(t, "B", a.Sources[1].Text)
	assert.Equal(t, "1", a.Sources[0].Anchor)
	assert.Equal(t, "2", a.Sources[1].Anchor)
	assert.True(t, a.HasSources())
}

func TestParseWithoutDelimiter(t *testing.T) {
	inputs := []string{
		"",
		"Just an answer.",
		"Multi\nline\n\nanswer",
		"Sources: are cited inline here.",
		"No blank line before\nSources:\n- A",
	}
	for _, in := range inputs {
		a := Parse(in)
		assert.False(t, a.HasSources(), "input %q", in)
		assert.Equal(t, in, a.Body, "input %q", in)
	}
}

func TestParseLabelVariants(t *testing.T) {
	labels := []string{"Sources:", "sources:", "SOURCES", "**Sources:**", "### Sources", "## **Sources**", "  Sources:  "}
	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			a := Parse("Body.\n\n" + label + "\n* one\n• two")
			assert.Equal(t, "Body.", a.Body)
			require.Len(t, a.Sources, 2)
			assert.Equal(t, "one", a.Sources[0].Text)
			assert.Equal(t, "two", a.Sources[1].Text)
		})
	}
}

func TestParseUsesLastLabel(t *testing.T) {
	content := "Intro.\n\nSources:\nis a word I mention.\n\nMore body.\n\nSources:\n- real"
	a := Parse(content)

	assert.Equal(t, "Intro.\n\nSources:\nis a word I mention.\n\nMore body.", a.Body)
	require.Len(t, a.Sources, 1)
	assert.Equal(t, "real", a.Sources[0].Text)
}

func TestParseSkipsBlankEntries(t *testing.T) {
	a := Parse("Body\r\n\r\nSources:\r\n\r\n- A\r\n   \r\n- B\r\n\r\n")
	assert.Equal(t, "Body", a.Body)
	require.Len(t, a.Sources, 2)
	assert.Equal(t, "B", a.Sources[1].Text)
}

func TestParseBackendFormat(t *testing.T) {
	content := "MONAI is a medical imaging framework [[1]](#1). AWS uses it [[2]](#2).\n\n" +
		"Sources:\n" +
		"[[2]](#2) [AWS HealthImaging](https://aws.example.com/monai)\n" +
		"[[1]](#1) [MONAI docs](https://monai.io)"

	a := Parse(content)
	require.Len(t, a.Sources, 2)
	assert.Equal(t, "2", a.Sources[0].Anchor)
	assert.Equal(t, "1", a.Sources[1].Anchor)

	i, ok := a.SourceIndex("#1")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = a.SourceIndex("7")
	assert.False(t, ok)

	var links []Span
	for _, s := range a.Spans {
		if s.Kind() != LinkNone {
			links = append(links, s)
		}
	}
	require.Len(t, links, 2)
	assert.Equal(t, "[1]", links[0].Text)
	assert.Equal(t, LinkAnchor, links[0].Kind())
	assert.Equal(t, "1", links[0].Anchor())

	src := a.Sources[1].Spans
	require.Len(t, src, 3)
	assert.Equal(t, Span{Text: "[1]", Href: "#1"}, src[0])
	assert.Equal(t, Span{Text: " "}, src[1])
	assert.Equal(t, Span{Text: "MONAI docs", Href: "https://monai.io"}, src[2])
	assert.Equal(t, LinkExternal, src[2].Kind())
	assert.Equal(t, "", src[2].Anchor())
}

func TestEntryAnchorFromNumber(t *testing.T) {
	a := Parse("x\n\nSources:\n3. Third\n[5] Fifth\nunnumbered")
	require.Len(t, a.Sources, 3)
	assert.Equal(t, "3", a.Sources[0].Anchor)
	assert.Equal(t, "5", a.Sources[1].Anchor)
	assert.Equal(t, "3", a.Sources[2].Anchor)
}

func TestSpans(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Span
	}{
		{"plain", "hello", []Span{{Text: "hello"}}},
		{"empty", "", nil},
		{"bold", "a **b** c", []Span{{Text: "a "}, {Text: "b", Bold: true}, {Text: " c"}}},
		{"unclosed bold", "a ** b", []Span{{Text: "a ** b"}}},
		{"link", "see [docs](https://x.io)!", []Span{{Text: "see "}, {Text: "docs", Href: "https://x.io"}, {Text: "!"}}},
		{"bold link", "**[x](#1)**", []Span{{Text: "x", Bold: true, Href: "#1"}}},
		{"not a link", "[x] (y)", []Span{{Text: "[x] (y)"}}},
		{"unclosed link", "[x](y", []Span{{Text: "[x](y"}}},
		{"parens in url", "[w](https://en.wikipedia.org/wiki/Go_(lang))", []Span{{Text: "w", Href: "https://en.wikipedia.org/wiki/Go_(lang)"}}},
		{"newline kept", "a\nb", []Span{{Text: "a\nb"}}},
		{"empty label", "[](https://x.io)", []Span{{Text: "https://x.io", Href: "https://x.io"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Spans(tt.in))
		})
	}
}

func TestOpens(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"https://monai.io", true},
		{"http://example.com/a?b=c", true},
		{"HTTPS://EXAMPLE.COM", true},
		{"mailto:team@example.com", true},
		{"#1", false},
		{"javascript:alert(1)", false},
		{"file:///etc/passwd", false},
		{"https://", false},
		{"relative/path", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Opens(tt.href), tt.href)
	}
}

func TestOpenRejectsUnsafeTargets(t *testing.T) {
	assert.Error(t, Open("javascript:alert(1)"))
	assert.Error(t, Open("#2"))
}

func TestLinkKindString(t *testing.T) {
	assert.Equal(t, "anchor", LinkAnchor.String())
	assert.Equal(t, "external", LinkExternal.String())
	assert.Equal(t, "none", LinkNone.String())
}
