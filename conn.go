package tn5250

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

// ConnState is one step in a connection's lifecycle.
type ConnState int

const (
	// StateConnecting - the transport is up but nothing has been exchanged
	StateConnecting ConnState = iota
	// StateNegotiating - telnet options are being agreed
	StateNegotiating
	// StateInteractive - 5250 records are flowing
	StateInteractive
	// StateClosed - the transport has been released; terminal
	StateClosed
	// StateError - a failure absorbed the connection; terminal
	StateError
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateNegotiating:
		return "Negotiating"
	case StateInteractive:
		return "Interactive"
	case StateClosed:
		return "Closed"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
}

// ConnEventHooks passes pre-registered event hooks to NewConn.
type ConnEventHooks struct {
	StateChanged     []StateChangeHandler
	EncounteredError []ErrorHandler
}

// ConnConfig carries the optional knobs for a client connection. The zero
// value works.
type ConnConfig struct {
	// TerminalType reported during negotiation. Defaults to
	// DefaultTerminalType.
	TerminalType string
	// DeviceName reported through NEW-ENVIRON, if any
	DeviceName string
	// Rows and Cols choose the screen geometry. Default 24x80.
	Rows int
	Cols int

	// IdleTimeout tears the connection down when nothing arrives for this
	// long. Defaults to DefaultIdleTimeout.
	IdleTimeout time.Duration
	// NegotiationTimeout and NegotiationRounds bound the negotiation phase
	NegotiationTimeout time.Duration
	NegotiationRounds  int

	Logger     *slog.Logger
	EventHooks ConnEventHooks
}

// Conn is the terminal side of a 5250 connection: it negotiates the telnet
// options, decodes host-pushed screen records into its Screen, and sends
// AID-keyed responses carrying the modified fields back to the host.
//
// All methods must be called from a single goroutine; a Conn shares nothing
// with other connections. Close is the exception and may be called from
// anywhere to tear the connection down.
type Conn struct {
	link    *link
	screen  *Screen
	decoder *Decoder
	logger  *slog.Logger

	negotiationTimeout time.Duration
	negotiationRounds  int

	state ConnState

	stateChanged     *EventPublisher[StateChangeEvent]
	encounteredError *EventPublisher[error]
}

// NewConn wraps an established transport in a client-side connection. The
// caller keeps responsibility for having opened the transport; the Conn
// takes responsibility for closing it.
func NewConn(transport net.Conn, config ConnConfig) *Conn {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	negotiator := NewNegotiator(SideClient, NegotiatorConfig{
		TerminalType: config.TerminalType,
		DeviceName:   config.DeviceName,
		Logger:       logger,
	})

	screen := NewScreenSize(config.Rows, config.Cols)

	return &Conn{
		link:    newLink(transport, negotiator, logger, config.IdleTimeout),
		screen:  screen,
		decoder: NewDecoder(screen, logger),
		logger:  logger,

		negotiationTimeout: config.NegotiationTimeout,
		negotiationRounds:  config.NegotiationRounds,

		state: StateConnecting,

		stateChanged:     NewPublisher(config.EventHooks.StateChanged),
		encounteredError: NewPublisher(config.EventHooks.EncounteredError),
	}
}

// State returns the connection's lifecycle state.
func (c *Conn) State() ConnState {
	return c.state
}

// Screen returns the connection's screen. Local input handling (typing,
// field navigation) goes through it directly.
func (c *Conn) Screen() *Screen {
	return c.screen
}

// TerminalType returns the terminal type this connection reports.
func (c *Conn) TerminalType() string {
	return c.link.negotiator.TerminalType()
}

// DeviceName returns the device name this connection reports, if any.
func (c *Conn) DeviceName() string {
	return c.link.negotiator.DeviceName()
}

func (c *Conn) setState(newState ConnState) {
	if c.state == newState {
		return
	}

	oldState := c.state
	c.state = newState
	c.logger.Debug("connection state changed", "from", oldState.String(), "to", newState.String())
	c.stateChanged.Fire(StateChangeEvent{OldState: oldState, NewState: newState})
}

// fail absorbs an error: the transport is released on the spot and the
// connection lands in Closed for ordinary transport loss, Error for
// everything else.
func (c *Conn) fail(err error) error {
	c.encounteredError.Fire(err)
	_ = c.link.close()

	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, ErrConnClosed) {
		c.setState(StateClosed)
	} else {
		c.setState(StateError)
	}

	return err
}

// Negotiate drives telnet option negotiation to completion, or as far as the
// host is willing to take it. A stalled exchange still lands in Interactive:
// hosts tolerate partial negotiation in practice.
func (c *Conn) Negotiate(ctx context.Context) error {
	if c.state != StateConnecting {
		return fmt.Errorf("cannot negotiate from the %s state", c.state)
	}

	c.setState(StateNegotiating)

	if err := c.link.negotiate(ctx, c.negotiationRounds, c.negotiationTimeout); err != nil {
		return c.fail(err)
	}

	c.setState(StateInteractive)
	return nil
}

// ReadScreen blocks until one complete screen record arrives from the host,
// then applies it to the Screen. After it returns, the cursor sits at the
// caret rest position the host requested.
func (c *Conn) ReadScreen(ctx context.Context) error {
	if c.state != StateInteractive {
		return fmt.Errorf("cannot read a screen from the %s state", c.state)
	}

	record, err := c.link.nextRecord(ctx)
	if err != nil {
		return c.fail(err)
	}

	c.decoder.Decode(record)
	c.screen.SetCursor(c.screen.Caret())

	return nil
}

// SendAID sends the response record for an AID key press, carrying the
// cursor position and every modified field.
func (c *Conn) SendAID(aid byte) error {
	if c.state != StateInteractive {
		return fmt.Errorf("cannot send input from the %s state", c.state)
	}

	if err := c.link.write(EncodeResponse(c.screen, aid)); err != nil {
		return c.fail(err)
	}

	return nil
}

// SendKey sends the response record for a logical key name ("ENTER",
// "F3"...). Unknown names are reported to the caller without touching the
// connection.
func (c *Conn) SendKey(name string) error {
	aid, err := KeyAID(name)
	if err != nil {
		return err
	}

	return c.SendAID(aid)
}

// Close releases the transport. It is safe to call from any goroutine and
// on every exit path, repeatedly.
func (c *Conn) Close() error {
	err := c.link.close()
	c.setState(StateClosed)

	return err
}
