package tn5250

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
)

// SessionConfig carries the optional knobs for a host-side session. The zero
// value works.
type SessionConfig struct {
	// Rows and Cols choose the screen geometry pushed to the terminal.
	// Default 24x80.
	Rows int
	Cols int

	// IdleTimeout tears the session down when the terminal sends nothing for
	// this long. Defaults to DefaultIdleTimeout.
	IdleTimeout time.Duration
	// NegotiationTimeout and NegotiationRounds bound the negotiation phase
	NegotiationTimeout time.Duration
	NegotiationRounds  int

	Logger *slog.Logger
}

// Session is the host side of one accepted terminal connection: it demands
// the telnet options 5250 requires, pushes built screen records, and parses
// the AID responses that come back. Every session owns its own negotiator
// and field state; sessions share nothing.
//
// All methods must be called from the session's own goroutine, except Close.
type Session struct {
	id     uuid.UUID
	link   *link
	logger *slog.Logger

	rows int
	cols int

	negotiationTimeout time.Duration
	negotiationRounds  int

	state ConnState

	// fields placed by the most recent screen write, for matching the next
	// response's values back to names
	fields []FieldLocation
}

// NewSession wraps an accepted transport in a host-side session. The Session
// takes responsibility for closing the transport.
func NewSession(transport net.Conn, config SessionConfig) *Session {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	id := uuid.New()
	logger = logger.With("session", id.String())

	rows, cols := config.Rows, config.Cols
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}

	negotiator := NewNegotiator(SideServer, NegotiatorConfig{Logger: logger})

	return &Session{
		id:     id,
		link:   newLink(transport, negotiator, logger, config.IdleTimeout),
		logger: logger,

		rows: rows,
		cols: cols,

		negotiationTimeout: config.NegotiationTimeout,
		negotiationRounds:  config.NegotiationRounds,

		state: StateConnecting,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the session's lifecycle state.
func (s *Session) State() ConnState {
	return s.state
}

// RemoteAddr returns the terminal's network address.
func (s *Session) RemoteAddr() net.Addr {
	return s.link.transport.RemoteAddr()
}

// TerminalType returns the terminal type the remote reported, or the empty
// string if it never did.
func (s *Session) TerminalType() string {
	return s.link.negotiator.TerminalType()
}

// DeviceName returns the device name the remote reported through
// NEW-ENVIRON, or the empty string.
func (s *Session) DeviceName() string {
	return s.link.negotiator.DeviceName()
}

// NewBuilder returns a screen builder matching this session's geometry.
func (s *Session) NewBuilder() *Builder {
	return NewBuilderSize(s.rows, s.cols)
}

func (s *Session) fail(err error) error {
	_ = s.link.close()
	s.state = StateClosed

	return err
}

// Negotiate demands the options the host requires (binary record mode and
// the terminal's identity) and waits for the terminal to answer. A terminal
// that stalls is tolerated with whatever was agreed.
func (s *Session) Negotiate(ctx context.Context) error {
	if s.state != StateConnecting {
		return fmt.Errorf("cannot negotiate from the %s state", s.state)
	}

	s.state = StateNegotiating

	if err := s.link.negotiate(ctx, s.negotiationRounds, s.negotiationTimeout); err != nil {
		return s.fail(err)
	}

	s.state = StateInteractive
	s.logger.Debug("session interactive",
		"terminalType", s.TerminalType(), "deviceName", s.DeviceName())

	return nil
}

// WriteScreen pushes a built screen record to the terminal and remembers the
// builder's field locations so the next response can be matched back to
// logical names.
func (s *Session) WriteScreen(builder *Builder) error {
	if s.state != StateInteractive {
		return fmt.Errorf("cannot write a screen from the %s state", s.state)
	}

	record, err := builder.Build()
	if err != nil {
		return err
	}

	if err := s.link.write(record); err != nil {
		return s.fail(err)
	}

	s.fields = builder.Fields()
	return nil
}

// ReadResponse blocks until the terminal sends an AID response record, then
// parses it against the fields of the last written screen.
func (s *Session) ReadResponse(ctx context.Context) (Response, error) {
	if s.state != StateInteractive {
		return Response{}, fmt.Errorf("cannot read a response from the %s state", s.state)
	}

	record, err := s.link.nextRecord(ctx)
	if err != nil {
		return Response{}, s.fail(err)
	}

	response, err := ParseResponse(record, s.fields)
	if err != nil {
		// a garbled record is not fatal to the session
		s.logger.Warn("discarding malformed response record", "err", err)
		return Response{}, err
	}

	s.logger.Debug("response received", "key", response.Key, "fields", len(response.Fields))
	return response, nil
}

// Close releases the transport. Safe to call from any goroutine, repeatedly.
func (s *Session) Close() error {
	err := s.link.close()
	s.state = StateClosed

	return err
}
