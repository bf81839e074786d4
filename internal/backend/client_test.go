package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what is MONAI?", req.Message)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"vectorResponse": "vector answer",
			"rerankedResponse": "reranked answer",
			"rerankedResults": [{"id": "a", "score": 0.5, "rerank_score": 0.9, "metadata": {"text": "t"}}]
		}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", 0)
	reply, err := c.Chat(context.Background(), "what is MONAI?")
	require.NoError(t, err)

	assert.Equal(t, "vector answer", reply.VectorResponse)
	assert.Equal(t, "reranked answer", reply.RerankedResponse)
	assert.Empty(t, reply.VectorResults)
	require.Len(t, reply.RerankedResults, 1)
	require.NotNil(t, reply.RerankedResults[0].RerankScore)
	assert.InDelta(t, 0.9, *reply.RerankedResults[0].RerankScore, 1e-9)
}

func TestChatEmptyAnswersAreNotMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"vectorResponse": "", "rerankedResponse": ""}`))
	}))
	defer server.Close()

	reply, err := NewClient(server.URL, 0).Chat(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "", reply.VectorResponse)
}

func TestChatFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
		code   int
	}{
		{"server error", http.StatusInternalServerError, `{"error":"Failed to chat"}`, ErrStatus, 500},
		{"not found", http.StatusNotFound, `nope`, ErrStatus, 404},
		{"not json", http.StatusOK, `<html>`, ErrMalformed, 0},
		{"missing reranked", http.StatusOK, `{"vectorResponse":"v"}`, ErrMalformed, 0},
		{"missing both", http.StatusOK, `{}`, ErrMalformed, 0},
		{"wrong type", http.StatusOK, `{"vectorResponse":1,"rerankedResponse":"r"}`, ErrMalformed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL, 0).Chat(context.Background(), "q")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "want %v, got %v", tt.kind, err)

			var be *Error
			require.True(t, errors.As(err, &be))
			assert.Equal(t, "chat", be.Op)
			assert.Equal(t, tt.code, be.StatusCode)
		})
	}
}

func TestChatTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, 0).Chat(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrStatus)
}

func TestChatCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL, 0).Chat(ctx, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "reranking", req.Query)
		assert.Equal(t, 5, req.TopK)

		w.Write([]byte(`{
			"vector_results": [{"id":"1","score":0.81,"metadata":{"text":"a","title":"A","source":"https://a"}}],
			"reranked_results": [],
			"latency": 12.5
		}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL, 0).Search(context.Background(), SearchRequest{Query: "reranking", TopK: 5})
	require.NoError(t, err)
	require.Len(t, resp.VectorResults, 1)
	assert.Equal(t, "A", resp.VectorResults[0].Metadata.Title)
	assert.Empty(t, resp.RerankedResults)
	assert.InDelta(t, 12.5, resp.Latency, 1e-9)
}

func TestSearchMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 0).Search(context.Background(), SearchRequest{Query: "q"})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDisplayScore(t *testing.T) {
	r := Result{Score: 0.4}
	assert.InDelta(t, 0.4, r.DisplayScore(), 1e-9)

	rs := 0.75
	r.RerankScore = &rs
	assert.InDelta(t, 0.75, r.DisplayScore(), 1e-9)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Op: "chat", Kind: ErrStatus, StatusCode: 502}
	assert.Equal(t, "chat: backend returned non-success status (status 502)", err.Error())

	err = &Error{Op: "search", Kind: ErrMalformed, Cause: errors.New("eof")}
	assert.Equal(t, "search: malformed backend response: eof", err.Error())
}
