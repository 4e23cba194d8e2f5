// Package http exposes the tracker over a small JSON API. Reports are
// served as text and charts as SVG.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kharcha/internal/core"
	applog "kharcha/internal/log"
	"kharcha/internal/services"
)

// Tracker is the service behind the handlers.
type Tracker interface {
	Open(ctx context.Context, name string) (services.Summary, error)
	Summary(ctx context.Context, name string) (services.Summary, error)
	SetInitialBudget(ctx context.Context, name string, amount float64) (services.Summary, error)
	ModifyBudget(ctx context.Context, name string, amount float64) (services.Summary, error)
	AddExpense(ctx context.Context, name, category string, amount float64) (services.Summary, error)
	Reports(ctx context.Context, name string) ([]string, error)
	Report(ctx context.Context, name, report string) ([]byte, error)
	Charts(ctx context.Context, name string) (core.ChartPaths, error)
}

var _ Tracker = (*services.TrackerService)(nil)

// Options tune the server. Zero values pick defaults.
type Options struct {
	// RateLimit is the number of mutating requests per client per minute.
	RateLimit int
	// Ready is consulted by /readyz; nil means always ready.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	tracker     Tracker
	logger      *applog.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	ready       func(context.Context) error

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, tracker Tracker, logger *applog.Logger, opts Options) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		tracker:     tracker,
		logger:      logger,
		rateLimiter: newRateLimiter(opts.RateLimit),
		metrics:     &securityMetrics{},
		ready:       opts.Ready,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /users/{name}/session", s.handleOpen)
	mux.HandleFunc("GET /users/{name}/summary", s.handleSummary)
	mux.HandleFunc("POST /users/{name}/budget", s.handleSetBudget)
	mux.HandleFunc("PUT /users/{name}/budget", s.handleModifyBudget)
	mux.HandleFunc("POST /users/{name}/expenses", s.handleAddExpense)
	mux.HandleFunc("GET /users/{name}/reports", s.handleListReports)
	mux.HandleFunc("GET /users/{name}/reports/{report}", s.handleReadReport)
	mux.HandleFunc("GET /users/{name}/charts/{kind}", s.handleChart)

	var h http.Handler = s.withSecurityHeaders(mux)
	h = applog.RequestIDMiddleware(func(r *http.Request) string { return r.Header.Get(requestIDHeader) })(h)
	h = applog.Middleware(logger)(h)
	s.Handler = withRequestID(h)

	return s
}

// withRequestID makes sure every request and response carries an id.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r)
		r.Header.Set(requestIDHeader, id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// withSecurityHeaders rate limits mutating requests, sets security headers
// and logs each request.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)
		access := applog.NewStructuredLogger(applog.FromContext(ctx))

		access.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			applog.FromContext(ctx).WarnContext(ctx, "Suspicious request",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead && !s.rateLimiter.allow(clientIP, s.metrics) {
			applog.FromContext(ctx).WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
			access.LogHTTPEnd(ctx, r, http.StatusTooManyRequests, time.Since(start).Milliseconds(), clientIP)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		access.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		rateLimited, suspicious := s.metrics.snapshot()
		s.logger.InfoContext(ctx, "HTTP server shutting down",
			"rate_limited_requests", rateLimited,
			"suspicious_requests", suspicious)
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
