package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/onflow/proof-relay/module"
	"github.com/onflow/proof-relay/module/component"
	"github.com/onflow/proof-relay/module/irrecoverable"
	"github.com/onflow/proof-relay/module/metrics"
)

const shutdownTimeout = 5 * time.Second

// Server serves the proof API. It is a component: the listener is opened
// on start and the server is shut down when the start context is cancelled.
type Server struct {
	*component.ComponentManager
	log    zerolog.Logger
	server *http.Server

	addr chan net.Addr
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	rateLimit rate.Limit
	burst     int
	metrics   module.RestMetrics
}

// WithRateLimit limits the API to limit requests per second, with bursts of
// up to burst requests. A non-positive limit disables rate limiting.
func WithRateLimit(limit float64, burst int) ServerOption {
	return func(o *serverOptions) {
		o.rateLimit = rate.Limit(limit)
		o.burst = burst
	}
}

// WithRestMetrics records the served requests with collector.
func WithRestMetrics(collector module.RestMetrics) ServerOption {
	return func(o *serverOptions) {
		o.metrics = collector
	}
}

// NewServer returns a server listening on listenAddress once started.
func NewServer(log zerolog.Logger, listenAddress string, handler *APIHandler, opts ...ServerOption) *Server {
	options := &serverOptions{metrics: metrics.NewNoopCollector()}
	for _, apply := range opts {
		apply(options)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
			http.MethodHead},
	})

	log = log.With().Str("component", "rest_server").Str("address", listenAddress).Logger()
	middleware := []mux.MiddlewareFunc{LoggingMiddleware(log), MetricsMiddleware(options.metrics)}
	if options.rateLimit > 0 {
		burst := options.burst
		if burst < 1 {
			burst = 1
		}
		middleware = append(middleware, RateLimitMiddleware(rate.NewLimiter(options.rateLimit, burst)))
	}

	s := &Server{
		log: log,
		server: &http.Server{
			Addr:              listenAddress,
			Handler:           c.Handler(NewRouter(handler, middleware...)),
			WriteTimeout:      time.Second * 15,
			ReadTimeout:       time.Second * 15,
			ReadHeaderTimeout: time.Second * 10,
			IdleTimeout:       time.Second * 60,
		},
		addr: make(chan net.Addr, 1),
	}
	s.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(s.serve).
		Build()

	return s
}

// Addr returns the address the server listens on. It blocks until the server
// has started listening or ctx is done.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case addr := <-s.addr:
		// keep the address available for later callers
		s.addr <- addr
		return addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Server) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not listen on %s: %w", s.server.Addr, err))
	}
	s.addr <- listener.Addr()

	go func() {
		if err := s.server.Serve(listener); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				s.log.Debug().Err(err).Msg("rest server shutdown")
			} else {
				s.log.Err(err).Msg("error running rest server")
			}
		}
	}()
	s.log.Info().Str("listen_address", listener.Addr().String()).Msg("rest server started")
	ready()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("rest server did not shut down gracefully")
	}
}
