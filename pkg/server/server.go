package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/batchstore"
	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/loop"
)

// ConnObserver is told about websocket connections. *telemetry.Metrics
// implements it.
type ConnObserver interface {
	ConnOpened()
	ConnClosed()
}

// Config configures a Server.
type Config[S any] struct {
	// Store is the store being served. Required.
	Store *batchstore.Store[S]

	// Loop runs every store call. Required; the caller runs it.
	Loop *loop.Loop

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Gatherer backs GET /metrics. If nil, the route is not mounted.
	Gatherer prometheus.Gatherer

	// Conns observes websocket connections. Optional.
	Conns ConnObserver

	// SendBuffer is the number of states buffered per websocket client
	// before the client is dropped as too slow (default: 16).
	SendBuffer int

	// RequestTimeout bounds how long a request waits for the loop
	// (default: 5s).
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration
}

// Server serves a Store.
type Server[S any] struct {
	config Config[S]
	store  *batchstore.Store[S]
	loop   *loop.Loop
	logger *slog.Logger
	hub    *hub[S]
	router chi.Router
}

// New creates a Server. It fails when the store or loop is missing.
func New[S any](config Config[S]) (*Server[S], error) {
	if config.Store == nil || config.Loop == nil {
		return nil, errors.Newf("E050", "server needs a store and a loop")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = 16
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 5 * time.Second
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	s := &Server[S]{
		config: config,
		store:  config.Store,
		loop:   config.Loop,
		logger: config.Logger,
	}
	s.hub = newHub(s)
	s.router = s.routes()
	return s, nil
}

func (s *Server[S]) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Get("/state", s.handleState)
	r.Post("/dispatch", s.handleDispatch)
	r.Get("/channels", s.handleChannels)
	r.Route("/queue", func(r chi.Router) {
		r.Delete("/", s.handleClear)
		r.Get("/{channel}", s.handleQueue)
		r.Delete("/{channel}", s.handleClear)
		r.Post("/{channel}/flush", s.handleFlush)
	})
	r.Get("/ws", s.hub.handleWebSocket)
	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server[S]) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server[S]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and closes every websocket client.
func (s *Server[S]) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.New("E060").Wrap(err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server[S]) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.hub.closeAll()
		if err != http.ErrServerClosed {
			return errors.New("E060").Wrap(err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
		defer cancel()
		s.hub.closeAll()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.New("E060").Wrap(err)
		}
		return nil
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server[S]) Clients() int {
	return s.hub.count()
}

// do runs fn on the loop, bounded by the request timeout.
func (s *Server[S]) do(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()
	return s.loop.Do(ctx, fn)
}
