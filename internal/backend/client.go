package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abelbrown/duet/internal/logging"
)

// maxResponseBody caps how much of a response is read into memory.
const maxResponseBody = 8 << 20

// Client calls the chat and search endpoints of a backend.
// There are no retries here: a failed call is reported once and the caller
// decides whether to resubmit.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the backend at baseURL (e.g.
// "http://127.0.0.1:5328"). A zero timeout leaves calls unbounded.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends one user message and returns both answer variants.
// A reply missing either answer string is ErrMalformed.
func (c *Client) Chat(ctx context.Context, message string) (ChatReply, error) {
	body, err := c.post(ctx, "chat", "/api/chat", ChatRequest{Message: message})
	if err != nil {
		return ChatReply{}, err
	}

	var wire chatWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return ChatReply{}, &Error{Op: "chat", Kind: ErrMalformed, Body: truncateBody(body), Cause: err}
	}
	if wire.VectorResponse == nil || wire.RerankedResponse == nil {
		return ChatReply{}, &Error{
			Op:    "chat",
			Kind:  ErrMalformed,
			Body:  truncateBody(body),
			Cause: fmt.Errorf("missing vectorResponse or rerankedResponse"),
		}
	}

	return ChatReply{
		VectorResponse:   *wire.VectorResponse,
		RerankedResponse: *wire.RerankedResponse,
		VectorResults:    wire.VectorResults,
		RerankedResults:  wire.RerankedResults,
	}, nil
}

// Search runs the results-only query. Missing result arrays decode as empty.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	body, err := c.post(ctx, "search", "/api/search", req)
	if err != nil {
		return SearchResponse{}, err
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return SearchResponse{}, &Error{Op: "search", Kind: ErrMalformed, Body: truncateBody(body), Cause: err}
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	logging.Debug("backend request", "op", op, "url", req.URL.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrTransport, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrTransport, Cause: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.Error("backend error", "op", op, "status", resp.StatusCode, "body", truncateBody(body))
		return nil, &Error{Op: op, Kind: ErrStatus, StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}

	logging.Debug("backend response", "op", op, "status", resp.StatusCode, "bytes", len(body), "dur", time.Since(start))
	return body, nil
}
