package tn5250

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignOnScenario(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	type hostResult struct {
		response     Response
		terminalType string
		deviceName   string
		err          error
	}
	results := make(chan hostResult, 1)

	server := NewServer(func(ctx context.Context, session *Session) {
		builder := session.NewBuilder().
			WriteToDisplay(true, true).
			CenterText(0, "SIGN ON").
			TextAt(8, 30, "USER . . .").
			InputField("user", 8, 42, 10).
			InsertCursor(8, 43)

		if err := session.WriteScreen(builder); err != nil {
			results <- hostResult{err: err}
			return
		}

		response, err := session.ReadResponse(ctx)
		results <- hostResult{
			response:     response,
			terminalType: session.TerminalType(),
			deviceName:   session.DeviceName(),
			err:          err,
		}
	}, ServerConfig{})

	go func() { _ = server.Serve(listener) }()
	defer func() { _ = server.Shutdown(context.Background()) }()

	transport, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)

	conn := NewConn(transport, ConnConfig{DeviceName: "DSP01"})
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, conn.Negotiate(ctx))
	assert.Equal(t, StateInteractive, conn.State())

	require.NoError(t, conn.ReadScreen(ctx))

	screen := conn.Screen()
	assert.Contains(t, screen.RowText(0), "SIGN ON")
	assert.Contains(t, screen.RowText(8), "USER . . .")

	row, col := screen.Cursor()
	assert.Equal(t, []int{8, 43}, []int{row, col}, "the cursor should rest where the host asked")

	for _, r := range "DEMO" {
		require.True(t, screen.TypeRune(r))
	}
	require.NoError(t, conn.SendKey("ENTER"))

	select {
	case result := <-results:
		require.NoError(t, result.err)
		assert.Equal(t, "ENTER", result.response.Key)
		assert.Equal(t, AIDEnter, result.response.AID)
		assert.Equal(t, map[string]string{"user": "DEMO"}, result.response.Fields)
		assert.Equal(t, DefaultTerminalType, result.terminalType)
		assert.Equal(t, "DSP01", result.deviceName)
	case <-ctx.Done():
		t.Fatal("host never received the response")
	}
}

func TestNegotiationTimeoutProceedsToInteractive(t *testing.T) {
	// a listener that accepts but never answers negotiation
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()

	transport, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)

	conn := NewConn(transport, ConnConfig{
		NegotiationTimeout: 50 * time.Millisecond,
		NegotiationRounds:  2,
	})
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.Negotiate(context.Background()))
	assert.Equal(t, StateInteractive, conn.State(), "partial negotiation is degraded-but-continue")
}

func TestIdleTimeoutTearsConnectionDown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()

	transport, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)

	var seenErrors []error
	conn := NewConn(transport, ConnConfig{
		IdleTimeout:        100 * time.Millisecond,
		NegotiationTimeout: 50 * time.Millisecond,
		NegotiationRounds:  1,
		EventHooks: ConnEventHooks{
			EncounteredError: []ErrorHandler{func(err error) {
				seenErrors = append(seenErrors, err)
			}},
		},
	})

	require.NoError(t, conn.Negotiate(context.Background()))

	err = conn.ReadScreen(context.Background())
	assert.ErrorIs(t, err, ErrIdleTimeout)
	assert.Equal(t, StateError, conn.State())
	require.Len(t, seenErrors, 1)
	assert.ErrorIs(t, seenErrors[0], ErrIdleTimeout)

	// the transport was released; further I/O refuses immediately
	assert.Error(t, conn.SendAID(AIDEnter))
}

func TestConnStateGuards(t *testing.T) {
	client, server := net.Pipe()
	defer func() { _ = server.Close() }()

	conn := NewConn(client, ConnConfig{})

	assert.Error(t, conn.ReadScreen(context.Background()), "reading before negotiation is caller misuse")
	assert.Error(t, conn.SendAID(AIDEnter))

	require.NoError(t, conn.Close())
	assert.Equal(t, StateClosed, conn.State())
	assert.NoError(t, conn.Close(), "close is idempotent")
	assert.Error(t, conn.Negotiate(context.Background()))
}

func TestSendKeyUnknownNameDoesNotTouchConnection(t *testing.T) {
	client, server := net.Pipe()
	defer func() { _ = server.Close() }()
	defer func() { _ = client.Close() }()

	conn := NewConn(client, ConnConfig{})

	err := conn.SendKey("BOGUS")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Equal(t, StateConnecting, conn.State())
}

func TestConnStateChangeHooks(t *testing.T) {
	client, server := net.Pipe()
	defer func() { _ = server.Close() }()

	var transitions []StateChangeEvent
	conn := NewConn(client, ConnConfig{
		EventHooks: ConnEventHooks{
			StateChanged: []StateChangeHandler{func(event StateChangeEvent) {
				transitions = append(transitions, event)
			}},
		},
	})

	require.NoError(t, conn.Close())
	require.Len(t, transitions, 1)
	assert.Equal(t, StateConnecting, transitions[0].OldState)
	assert.Equal(t, StateClosed, transitions[0].NewState)
}

func TestServerShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := NewServer(func(ctx context.Context, session *Session) {
		<-ctx.Done()
	}, ServerConfig{
		Session: SessionConfig{
			NegotiationTimeout: 50 * time.Millisecond,
			NegotiationRounds:  1,
		},
	})

	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(listener) }()

	transport, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	defer func() { _ = transport.Close() }()

	require.Eventually(t, func() bool { return server.SessionCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, server.Shutdown(ctx))
	assert.Zero(t, server.SessionCount())

	select {
	case err := <-serveDone:
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-ctx.Done():
		t.Fatal("serve loop never exited")
	}
}
