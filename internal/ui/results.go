package ui

import (
	"fmt"
	"strings"

	"github.com/abelbrown/duet/internal/backend"
	"github.com/charmbracelet/lipgloss"
)

const (
	vectorColumnTitle   = "Vector Search Results"
	rerankedColumnTitle = "Reranked Results"
)

// ScorePercent formats a score in [0, 1] as a percentage with one decimal.
func ScorePercent(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

// resultCard is the text of one card: label, score and passage.
type resultCard struct {
	label string
	score string
	text  string
}

func resultCards(results []backend.Result, reranked bool) []resultCard {
	cards := make([]resultCard, len(results))
	for i, r := range results {
		s := r.Score
		if reranked {
			s = r.DisplayScore()
		}
		cards[i] = resultCard{
			label: fmt.Sprintf("Result %d", i+1),
			score: "Score: " + ScorePercent(s),
			text:  r.Metadata.Text,
		}
	}
	return cards
}

// renderColumn draws a header and one bordered card per result.
func renderColumn(title string, results []backend.Result, reranked bool, width int) string {
	cardW := limitMin(width-ResultCard.GetHorizontalBorderSize(), 4)
	textW := limitMin(cardW-ResultCard.GetHorizontalPadding(), 1)

	parts := []string{ColumnHeader.Render(truncateRunes(title, width))}
	if len(results) == 0 {
		parts = append(parts, InspectHint.Render("No results"))
	}
	for _, c := range resultCards(results, reranked) {
		passage := renderSpans(plainSpans(c.text), textW, 0, lipgloss.NewStyle(), -1)
		body := lipgloss.JoinVertical(lipgloss.Left,
			ResultLabel.Render(c.label),
			c.score,
			strings.Join(passage.lines, "\n"),
		)
		parts = append(parts, ResultCard.Width(cardW).Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderSearchResults lays out a search response as two columns under a
// latency line.
func renderSearchResults(resp backend.SearchResponse, width int) string {
	colW := limitMin((width-1)/2, 10)
	left := renderColumn(vectorColumnTitle, resp.VectorResults, false, colW)
	right := renderColumn(rerankedColumnTitle, resp.RerankedResults, true, colW)

	latency := InspectHint.Render(fmt.Sprintf("Latency: %.3f", resp.Latency))
	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(colW).Render(left),
		" ",
		lipgloss.NewStyle().Width(colW).Render(right),
	)
	return lipgloss.JoinVertical(lipgloss.Left, latency, "", columns)
}

// PlainResults renders a search response as unstyled text, one column after
// the other.
func PlainResults(resp backend.SearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Latency: %.3f\n", resp.Latency)
	write := func(title string, results []backend.Result, reranked bool) {
		fmt.Fprintf(&b, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))
		if len(results) == 0 {
			b.WriteString("No results\n")
		}
		for _, c := range resultCards(results, reranked) {
			fmt.Fprintf(&b, "\n%s  %s\n", c.label, c.score)
			if c.text != "" {
				fmt.Fprintf(&b, "  %s\n", strings.ReplaceAll(c.text, "\n", "\n  "))
			}
		}
	}
	write(vectorColumnTitle, resp.VectorResults, false)
	write(rerankedColumnTitle, resp.RerankedResults, true)
	return b.String()
}
