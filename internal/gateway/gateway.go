// Package gateway is the HTTP proxy between clients and the retrieval
// backend. It forwards /api/chat and /api/search upstream, collapsing every
// failure into a fixed 500 body, and journals request metadata.
package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/abelbrown/duet/internal/journal"
	"github.com/abelbrown/duet/internal/otel"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// maxBody caps request and upstream response bodies.
const maxBody = 8 << 20

// Recorder stores request metadata. *journal.Journal satisfies it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Options configures a Server.
type Options struct {
	// Upstream is the backend root, e.g. "http://127.0.0.1:5328".
	Upstream string
	// Client defaults to an http.Client with no timeout.
	Client *http.Client
	// RatePerSecond limits upstream calls; 0 means unlimited.
	RatePerSecond float64
	Burst         int
	Journal       Recorder     // optional
	Events        *otel.Logger // optional
}

// Server proxies the chat and search endpoints.
type Server struct {
	upstream string
	client   *http.Client
	limiter  *rate.Limiter
	journal  Recorder
	events   *otel.Logger
	validate *validator.Validate
	router   *mux.Router
}

// New builds a Server and its routes.
func New(opts Options) *Server {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}

	limit := rate.Inf
	burst := opts.Burst
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	s := &Server{
		upstream: strings.TrimRight(opts.Upstream, "/"),
		client:   client,
		limiter:  rate.NewLimiter(limit, burst),
		journal:  opts.Journal,
		events:   opts.Events,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID, s.record)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// NewHTTPServer wraps s in an http.Server with conservative header timeouts.
// Write timeouts are left to the upstream call, which can be slow.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
