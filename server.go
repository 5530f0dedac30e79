package tn5250

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Handler runs one negotiated session's application flow. When it returns
// the session is closed. The context is cancelled when the server shuts
// down.
type Handler func(ctx context.Context, session *Session)

// ServerConfig carries the optional knobs for a Server. The zero value
// works.
type ServerConfig struct {
	// Session is applied to every accepted session
	Session SessionConfig

	Logger *slog.Logger
}

// Server accepts terminal connections and hands each one to the handler on
// its own goroutine. Sessions are fully isolated from each other: each gets
// its own Session, negotiator, and screen state, with no shared locks.
type Server struct {
	handler Handler
	config  SessionConfig
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	sessions map[uuid.UUID]*Session

	wg sync.WaitGroup
}

// NewServer creates a server that runs handler for every accepted terminal.
func NewServer(handler Handler, config ServerConfig) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sessionConfig := config.Session
	if sessionConfig.Logger == nil {
		sessionConfig.Logger = logger
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		handler:  handler,
		config:   sessionConfig,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// ListenAndServe listens on a TCP address and serves until Shutdown.
func (s *Server) ListenAndServe(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	return s.Serve(listener)
}

// Serve accepts connections from the listener until Shutdown closes it. It
// always returns a non-nil error; after Shutdown the error is net.ErrClosed.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("listening", "addr", listener.Addr().String())

	for {
		transport, err := listener.Accept()
		if err != nil {
			return err
		}

		session := NewSession(transport, s.config)

		s.mu.Lock()
		s.sessions[session.ID()] = session
		s.mu.Unlock()

		s.wg.Add(1)
		go s.runSession(session)
	}
}

// runSession drives one session from negotiation through the handler,
// removing it and releasing its transport on every exit path.
func (s *Server) runSession(session *Session) {
	defer s.wg.Done()
	defer func() {
		_ = session.Close()

		s.mu.Lock()
		delete(s.sessions, session.ID())
		s.mu.Unlock()
	}()

	logger := s.logger.With("session", session.ID().String())
	logger.Info("terminal connected", "remote", session.RemoteAddr().String())

	if err := session.Negotiate(s.ctx); err != nil {
		logger.Warn("negotiation failed", "err", err)
		return
	}

	s.handler(s.ctx, session)
	logger.Info("terminal disconnected")
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Shutdown stops accepting, closes every live session, and waits for their
// handlers to return or the context to expire. Errors from the individual
// teardowns are aggregated.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	var result *multierror.Error

	s.mu.Lock()
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, err)
		}
	}

	for _, session := range s.sessions {
		if err := session.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, err)
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		result = multierror.Append(result, ctx.Err())
	}

	return result.ErrorOrNil()
}
