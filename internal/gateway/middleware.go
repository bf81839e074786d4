package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/abelbrown/duet/internal/journal"
	"github.com/abelbrown/duet/internal/logging"
	"github.com/abelbrown/duet/internal/otel"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// RequestIDHeader carries the per-request correlation ID in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const infoKey ctxKey = iota

// requestInfo is filled in by handlers and read back by the record middleware.
type requestInfo struct {
	id             string
	requestBytes   int
	upstreamStatus int
	err            error
}

func infoFrom(ctx context.Context) *requestInfo {
	if info, ok := ctx.Value(infoKey).(*requestInfo); ok {
		return info
	}
	return &requestInfo{}
}

// RequestID returns the request's correlation ID, or "".
func RequestID(ctx context.Context) string {
	return infoFrom(ctx).id
}

// requestID reuses an incoming X-Request-ID or assigns a fresh UUID.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		info := &requestInfo{id: id}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), infoKey, info)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// record logs, emits and journals every routed request.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		info := infoFrom(r.Context())
		dur := time.Since(start)
		entry := journal.Entry{
			RequestID:      info.id,
			Route:          route,
			Status:         sw.status,
			UpstreamStatus: info.upstreamStatus,
			Dur:            dur,
			RequestBytes:   info.requestBytes,
			ResponseBytes:  sw.bytes,
			At:             start,
		}
		if info.err != nil {
			entry.Err = info.err.Error()
		}

		logging.Info("request", "id", info.id, "method", r.Method, "route", route, "status", sw.status, "dur", dur)

		if s.events != nil {
			ev := otel.Event{
				Level:  otel.LevelInfo,
				Kind:   otel.KindProxyRequest,
				Comp:   "gateway",
				TurnID: info.id,
				Dur:    dur,
				Status: sw.status,
				Msg:    route,
				Err:    entry.Err,
			}
			if entry.Failed() {
				ev.Level = otel.LevelError
				ev.Kind = otel.KindProxyError
			}
			s.events.Emit(ev)
		}

		if s.journal != nil {
			// The client is gone by now; journal with a fresh context.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := s.journal.Record(ctx, entry); err != nil {
				logging.Warn("journal write failed", "id", info.id, "error", err)
			}
			cancel()
		}
	})
}
