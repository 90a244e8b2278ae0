package smtpingress

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"

	"github.com/sendgate/sendgate/pkg/logger"
)

// Server is the inbound SMTP listener that receives DSN and ARF reports
// on the return-path domain
type Server struct {
	server   *smtp.Server
	backend  *Backend
	logger   logger.Logger
	addr     string
	listener net.Listener
	mu       sync.Mutex
}

// ServerConfig holds the configuration for the feedback listener
type ServerConfig struct {
	Host        string
	Port        int
	Domain      string
	TLSCertFile string
	TLSKeyFile  string
	Logger      logger.Logger
}

// NewServer creates a new feedback listener with the given configuration
func NewServer(cfg ServerConfig, backend *Backend) (*Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s := smtp.NewServer(backend)
	s.Addr = addr
	s.Domain = cfg.Domain
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 10 * time.Second
	s.MaxMessageBytes = 10 * 1024 * 1024 // 10 MB max
	s.MaxRecipients = 10

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
		}

		s.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		s.AllowInsecureAuth = false

		cfg.Logger.WithFields(map[string]interface{}{
			"cert_file": cfg.TLSCertFile,
			"key_file":  cfg.TLSKeyFile,
		}).Info("Feedback listener: STARTTLS configured")
	} else {
		// Without TLS the listener still accepts reports, but AUTH on a
		// plaintext connection is only acceptable outside production.
		s.AllowInsecureAuth = true
		cfg.Logger.Warn("Feedback listener: No TLS certificates provided - AUTH will travel in plaintext")
	}

	cfg.Logger.WithFields(map[string]interface{}{
		"addr":   addr,
		"domain": cfg.Domain,
	}).Info("Feedback listener initialized")

	return &Server{
		server:  s,
		backend: backend,
		logger:  cfg.Logger,
		addr:    addr,
	}, nil
}

// Start starts the listener. It blocks until the listener is closed.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.addr).Info("Starting feedback listener")

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.WithField("addr", s.addr).Info("Feedback listener accepting connections")

	// Serve returns when the listener is closed
	err = s.server.Serve(listener)

	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()

	// Shutdown closes the listener before the server, so both exits count
	// as a clean stop
	if err != nil && err != smtp.ErrServerClosed && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("SMTP server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the listener
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down feedback listener")

	// Close the listener first, which causes Serve() to return
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		_ = listener.Close()
	}

	done := make(chan error, 1)
	go func() {
		done <- s.server.Close()
	}()

	select {
	case err := <-done:
		// server.Close() reports the listener we already closed
		if err != nil && listener != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				s.logger.Info("Feedback listener shut down")
				return nil
			}
			s.logger.WithField("error", err.Error()).Error("Error during feedback listener shutdown")
			return err
		}
		s.logger.Info("Feedback listener shut down")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Feedback listener shutdown timeout exceeded")
		return ctx.Err()
	}
}
