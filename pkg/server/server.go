package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Server represents an HTTP server with graceful shutdown.
type Server struct {
	log        *zap.Logger
	server     *http.Server
	tlsEnabled bool
	mu         sync.RWMutex
	started    bool
	listener   net.Listener
}

// Config holds server configuration.
type Config struct {
	Addr         string
	Handler      http.Handler
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// TLSCert and TLSKey enable TLS. Setting one requires the other.
	TLSCert string
	TLSKey  string
	Logger  *zap.Logger
}

// New creates a new HTTP server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		log: log,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           cfg.Handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ErrorLog:          zap.NewStdLog(log),
		},
	}

	if cfg.TLSCert != "" || cfg.TLSKey != "" {
		certs, err := (&TLSConfig{CertFile: cfg.TLSCert, KeyFile: cfg.TLSKey}).LoadCertificates()
		if err != nil {
			return nil, err
		}
		s.server.TLSConfig = ServerTLSConfig(certs)
		s.tlsEnabled = true
	}
	return s, nil
}

// ListenAndServe starts the server and listens for connections. It
// returns nil after a graceful shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}
	s.started = true
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("starting server", zap.String("addr", ln.Addr().String()), zap.Bool("tls", s.tlsEnabled))

	var err error
	if s.tlsEnabled {
		err = s.server.ServeTLS(ln, "", "")
	} else {
		err = s.server.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server. A server shut down before
// Serve is called never accepts connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.server.Shutdown(ctx)
}

// Close closes the server immediately.
func (s *Server) Close() error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil
	}
	return s.server.Close()
}

// Addr returns the listening address once started, else the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Started returns whether the server has been started.
func (s *Server) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// TLSEnabled reports whether the server serves TLS.
func (s *Server) TLSEnabled() bool {
	return s.tlsEnabled
}

// HealthHandler returns a handler for health checks.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
}

// ReadyHandler returns a handler for readiness checks. A nil check is
// always ready.
func ReadyHandler(check func(ctx context.Context) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
}
