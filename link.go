package tn5250

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Connection lifecycle defaults
const (
	// DefaultIdleTimeout tears down a session that has received nothing for
	// this long
	DefaultIdleTimeout = 5 * time.Minute
	// DefaultNegotiationTimeout bounds one read during option negotiation.
	// Negotiation that stalls past it proceeds with whatever was agreed.
	DefaultNegotiationTimeout = 5 * time.Second
	// DefaultNegotiationRounds bounds how many read/answer exchanges the
	// negotiation phase attempts. There is no done signal on the wire.
	DefaultNegotiationRounds = 8
)

// ErrIdleTimeout is returned when the idle read deadline expires. The
// connection is torn down; the engine never reconnects on its own.
var ErrIdleTimeout = errors.New("connection idle timeout")

// ErrConnClosed is returned by operations attempted after the connection has
// been closed.
var ErrConnClosed = errors.New("connection is closed")

// link is the transport plumbing shared by the client Conn and the host
// Session: it owns the socket, pushes raw bytes through the negotiator,
// answers telnet traffic, and assembles EOR-delimited records across partial
// reads. A link belongs to exactly one goroutine at a time.
type link struct {
	transport  net.Conn
	negotiator *Negotiator
	logger     *slog.Logger

	idleTimeout time.Duration
	records     recordBuffer
	readBuf     []byte

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

func newLink(transport net.Conn, negotiator *Negotiator, logger *slog.Logger, idleTimeout time.Duration) *link {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &link{
		transport:   transport,
		negotiator:  negotiator,
		logger:      logger,
		idleTimeout: idleTimeout,
		readBuf:     make([]byte, 4096),
	}
}

// write sends raw bytes to the transport.
func (l *link) write(data []byte) error {
	if l.closed.Load() {
		return ErrConnClosed
	}
	if len(data) == 0 {
		return nil
	}

	_, err := l.transport.Write(data)
	if err != nil {
		return fmt.Errorf("transport write: %w", err)
	}

	return nil
}

// readChunk performs one transport read bounded by the idle timeout and the
// context, feeds the bytes through the negotiator, answers any telnet
// traffic, and buffers the payload for record assembly.
func (l *link) readChunk(ctx context.Context, timeout time.Duration) error {
	if l.closed.Load() {
		return ErrConnClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, hasDeadline := ctx.Deadline(); hasDeadline && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := l.transport.SetReadDeadline(deadline); err != nil {
		return fmt.Errorf("transport deadline: %w", err)
	}

	// a context cancelled mid-read unblocks the read immediately
	stopWatch := context.AfterFunc(ctx, func() {
		_ = l.transport.SetReadDeadline(time.Now())
	})
	defer stopWatch()

	n, err := l.transport.Read(l.readBuf)
	if n > 0 {
		reply, payload := l.negotiator.Process(l.readBuf[:n])
		l.records.write(payload)

		if writeErr := l.write(reply); writeErr != nil {
			return writeErr
		}
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w after %s", ErrIdleTimeout, timeout)
		}

		return fmt.Errorf("transport read: %w", err)
	}

	return nil
}

// nextRecord blocks until one complete EOR-delimited record is available.
// No record is handed up on a partial read.
func (l *link) nextRecord(ctx context.Context) ([]byte, error) {
	for {
		if record, available := l.records.next(); available {
			return record, nil
		}

		if err := l.readChunk(ctx, l.idleTimeout); err != nil {
			return nil, err
		}
	}
}

// negotiate writes this side's opening offer and exchanges answers until the
// negotiator is satisfied or the attempts run out. A stalled exchange
// is degraded-but-continue, not an error: 5250 endpoints tolerate partial
// negotiation.
func (l *link) negotiate(ctx context.Context, rounds int, timeout time.Duration) error {
	if rounds <= 0 {
		rounds = DefaultNegotiationRounds
	}
	if timeout <= 0 {
		timeout = DefaultNegotiationTimeout
	}

	if err := l.write(l.negotiator.OpeningOffer()); err != nil {
		return err
	}

	for round := 0; round < rounds && !l.negotiator.Complete(); round++ {
		err := l.readChunk(ctx, timeout)
		if errors.Is(err, ErrIdleTimeout) {
			l.logger.Debug("negotiation stalled, continuing with what was agreed", "round", round)
			break
		}
		if err != nil {
			return err
		}
	}

	l.logger.Debug("negotiation finished",
		"complete", l.negotiator.Complete(),
		"binary", l.negotiator.BinaryMode(),
		"endOfRecord", l.negotiator.EndOfRecord(),
		"terminalType", l.negotiator.TerminalType(),
		"deviceName", l.negotiator.DeviceName())

	return nil
}

// close releases the transport exactly once. Safe to call on every exit
// path.
func (l *link) close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		l.closeErr = l.transport.Close()
	})

	return l.closeErr
}
