package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mercator-hq/keyport/pkg/config"
	"mercator-hq/keyport/pkg/security/expiry"
	securityTLS "mercator-hq/keyport/pkg/security/tls"
	"mercator-hq/keyport/pkg/server/middleware"
	"mercator-hq/keyport/pkg/telemetry/health"
	"mercator-hq/keyport/pkg/telemetry/metrics"
	"mercator-hq/keyport/pkg/telemetry/tracing"
)

// BindError reports an address the listener could not bind.
type BindError struct {
	Address string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind %s: %v", e.Address, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Options configures a Server.
type Options struct {
	Settings config.Settings
	Logger   *slog.Logger

	// Metrics backs the metrics route and the request metrics. May be nil.
	Metrics *metrics.Collector

	// Tracer records a span per request. May be nil.
	Tracer *tracing.Tracer

	// Version is reported by the health endpoint.
	Version string
}

// Server is the HTTPS listener. A Server serves once.
type Server struct {
	settings config.Settings
	logger   *slog.Logger
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	version  string

	httpServer   *http.Server
	monitor      *expiry.Monitor
	addr         net.Addr
	shutdownChan chan struct{}
	stopOnce     sync.Once
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server. Zero-valued settings fall back to their defaults.
func New(opts Options) *Server {
	settings := opts.Settings
	config.ApplyDefaults(&settings)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		settings:     settings,
		logger:       logger,
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
		version:      opts.Version,
		shutdownChan: make(chan struct{}),
	}
}

// Serve binds the configured address on port, serves TLS with tlsCtx and
// blocks until shutdown. It returns nil after a graceful shutdown. Port 0
// binds an ephemeral port, reported by Addr.
func (s *Server) Serve(ctx context.Context, tlsCtx *securityTLS.ServerContext, port int) error {
	if tlsCtx == nil {
		return errors.New("server: nil TLS context")
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("server is already running")
	}

	address := net.JoinHostPort(s.settings.Server.Address, strconv.Itoa(port))
	ln, err := net.Listen("tcp", address)
	if err != nil {
		s.mu.Unlock()
		return &BindError{Address: address, Err: err}
	}

	s.isRunning = true
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:           s.routes(tlsCtx),
		TLSConfig:         tlsCtx.Config(),
		ReadHeaderTimeout: s.settings.Server.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	s.startMonitor(monitorCtx, tlsCtx)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting https server",
			"address", ln.Addr().String(),
			"subject", tlsCtx.Leaf().Subject.String(),
		)
		s.logger.Info(fmt.Sprintf("navigate to https://127.0.0.1:%d/", tcpPort(ln.Addr(), port)))

		if err := httpServer.Serve(tls.NewListener(ln, httpServer.TLSConfig)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a running Serve to shut down and return.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.shutdownChan) })
}

// Shutdown gracefully shuts down the server. Only the first call has an
// effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		httpServer := s.httpServer
		monitor := s.monitor
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.settings.Server.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.settings.Server.ShutdownTimeout)
		defer cancel()

		if monitor != nil {
			monitor.Stop()
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("https server stopped")
	})

	return shutdownErr
}

// IsRunning returns true while Serve is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address, or nil before Serve binds.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the routed and wrapped HTTP handler for tlsCtx.
func (s *Server) Handler(tlsCtx *securityTLS.ServerContext) http.Handler {
	return s.routes(tlsCtx)
}

// routes configures HTTP routes and the middleware chain.
func (s *Server) routes(tlsCtx *securityTLS.ServerContext) http.Handler {
	mux := http.NewServeMux()

	checker := health.New(5*time.Second, s.version)
	checker.RegisterCheck("tls_certificate", health.CertificateCheck(tlsCtx.Leaf(), nil))

	mux.Handle("/", echoHandler())
	mux.Handle(s.settings.Health.Path, checker.Handler())
	if s.settings.Metrics.Enabled && s.metrics.Enabled() {
		mux.Handle(s.settings.Metrics.Path, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.Metrics(s.metrics)(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.Tracing(s.tracer)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(s.logger)(handler)

	return handler
}

func (s *Server) startMonitor(ctx context.Context, tlsCtx *securityTLS.ServerContext) {
	var recorder expiry.Recorder
	if s.metrics.Enabled() {
		recorder = s.metrics
	}

	monitor := expiry.NewMonitor(expiry.Config{
		Schedule: s.settings.Expiry.Schedule,
		WarnDays: s.settings.Expiry.WarnDays,
	}, tlsCtx.Leaf(), recorder, s.logger)

	if err := monitor.Start(ctx); err != nil {
		s.logger.Warn("certificate expiry monitor not started", "error", err)
		return
	}

	s.mu.Lock()
	s.monitor = monitor
	s.mu.Unlock()
}

func tlsSummary(r *http.Request) string {
	summary := tls.VersionName(r.TLS.Version) + " " + tls.CipherSuiteName(r.TLS.CipherSuite)
	if r.TLS.ServerName != "" {
		summary += " sni=" + r.TLS.ServerName
	}
	return summary
}

func tcpPort(addr net.Addr, fallback int) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return fallback
}
