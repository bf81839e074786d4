package ui

import (
	"strings"
	"testing"

	"github.com/abelbrown/duet/internal/backend"
	"github.com/charmbracelet/x/ansi"
)

func TestScorePercent(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "0.0%"},
		{0.5, "50.0%"},
		{0.8766, "87.7%"},
		{1, "100.0%"},
	}
	for _, tt := range tests {
		if got := ScorePercent(tt.score); got != tt.want {
			t.Errorf("ScorePercent(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestResultCardsUseRerankScore(t *testing.T) {
	rerank := 0.25
	results := []backend.Result{
		{ID: "a", Score: 0.9, RerankScore: &rerank},
		{ID: "b", Score: 0.7},
	}

	vector := resultCards(results, false)
	if vector[0].score != "Score: 90.0%" {
		t.Errorf("vector card should use the similarity score, got %q", vector[0].score)
	}

	reranked := resultCards(results, true)
	if reranked[0].score != "Score: 25.0%" {
		t.Errorf("reranked card should use the rerank score, got %q", reranked[0].score)
	}
	if reranked[1].score != "Score: 70.0%" {
		t.Errorf("reranked card without rerank score should fall back, got %q", reranked[1].score)
	}
	if reranked[1].label != "Result 2" {
		t.Errorf("label = %q, want Result 2", reranked[1].label)
	}
}

func TestRenderSearchResultsEmpty(t *testing.T) {
	out := ansi.Strip(renderSearchResults(backend.SearchResponse{}, 80))
	if strings.Count(out, "No results") != 2 {
		t.Errorf("both columns should say No results:\n%s", out)
	}
}

func TestPlainResults(t *testing.T) {
	rerank := 0.6
	resp := backend.SearchResponse{
		VectorResults:   []backend.Result{{ID: "1", Score: 0.4, Metadata: backend.Metadata{Text: "alpha\nbeta"}}},
		RerankedResults: []backend.Result{{ID: "1", Score: 0.4, RerankScore: &rerank, Metadata: backend.Metadata{Text: "alpha"}}},
		Latency:         1.5,
	}
	out := PlainResults(resp)

	for _, want := range []string{
		"Latency: 1.500",
		vectorColumnTitle,
		rerankedColumnTitle,
		"Result 1  Score: 40.0%",
		"Result 1  Score: 60.0%",
		"  alpha\n  beta",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("PlainResults should contain %q:\n%s", want, out)
		}
	}
	if strings.Index(out, vectorColumnTitle) > strings.Index(out, rerankedColumnTitle) {
		t.Error("vector results should come first")
	}
}
