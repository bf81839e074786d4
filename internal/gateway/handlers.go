package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/abelbrown/duet/internal/backend"
	"github.com/abelbrown/duet/internal/logging"
)

// Fixed client-facing failure messages. Upstream detail is logged, never
// relayed.
const (
	msgChatFailed   = "Failed to chat"
	msgSearchFailed = "Failed to search"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		logging.Error("encode error response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// upstreamError is a non-2xx reply from the backend.
type upstreamError struct {
	status int
	body   string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.status, e.body)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	info := infoFrom(r.Context())
	fail := func(err error) {
		info.err = err
		logging.Error("chat error", "id", info.id, "error", err)
		writeJSONError(w, msgChatFailed, http.StatusInternalServerError)
	}

	raw, err := readBody(r)
	if err != nil {
		fail(err)
		return
	}
	info.requestBytes = len(raw)

	var req backend.ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(fmt.Errorf("decode chat request: %w", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		fail(fmt.Errorf("invalid chat request: %w", err))
		return
	}

	// Only the message is forwarded; anything else in the body is dropped.
	payload, err := json.Marshal(backend.ChatRequest{Message: req.Message})
	if err != nil {
		fail(err)
		return
	}

	body, err := s.forward(r.Context(), "/api/chat", payload)
	if err != nil {
		fail(err)
		return
	}
	writeJSON(w, body)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	info := infoFrom(r.Context())
	fail := func(err error) {
		info.err = err
		var ue *upstreamError
		if errors.As(err, &ue) {
			logging.Error("search error response", "id", info.id, "status", ue.status, "body", ue.body)
		} else {
			logging.Error("search error", "id", info.id, "error", err)
		}
		writeJSONError(w, msgSearchFailed, http.StatusInternalServerError)
	}

	raw, err := readBody(r)
	if err != nil {
		fail(err)
		return
	}
	info.requestBytes = len(raw)

	// The payload is passed through untouched but must be JSON.
	if !json.Valid(raw) {
		fail(errors.New("search request is not valid JSON"))
		return
	}
	logging.Debug("search route received", "id", info.id, "bytes", len(raw))

	body, err := s.forward(r.Context(), "/api/search", raw)
	if err != nil {
		fail(err)
		return
	}
	writeJSON(w, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []byte(`{"status":"ok"}`))
}

func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return raw, nil
}

// forward posts payload to the upstream path after waiting on the rate
// limiter. It returns the body of a 2xx JSON reply.
func (s *Server) forward(ctx context.Context, path string, payload []byte) ([]byte, error) {
	info := infoFrom(ctx)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.upstream+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if info.id != "" {
		req.Header.Set(RequestIDHeader, info.id)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()
	info.upstreamStatus = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &upstreamError{status: resp.StatusCode, body: truncate(string(body), 512)}
	}
	if !json.Valid(body) {
		return nil, errors.New("upstream response is not valid JSON")
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
