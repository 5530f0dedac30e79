package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/term"
	"github.com/urfave/cli"

	"github.com/moodclient/tn5250"
)

func main() {
	app := cli.NewApp()
	app.Name = "tn5250"
	app.Usage = "5250 terminal emulator over telnet"
	app.ArgsUsage = "<host>:<port>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "terminal-type, t",
			Value:  tn5250.DefaultTerminalType,
			Usage:  "terminal type reported to the host",
			EnvVar: "TN5250_TERMTYPE",
		},
		cli.StringFlag{
			Name:   "devname, d",
			Usage:  "device name reported to the host",
			EnvVar: "TN5250_DEVNAME",
		},
		cli.StringFlag{
			Name:   "log",
			Usage:  "write a debug log to this file",
			EnvVar: "TN5250_LOG",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("syntax: tn5250 <host>:<port>")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if path := c.String("log"); path != "" {
		logFile, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() { _ = logFile.Close() }()

		logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	transport, err := net.Dial("tcp", c.Args().First())
	if err != nil {
		return err
	}

	stdin := os.Stdin
	lipgloss.EnableLegacyWindowsANSI(os.Stdout)
	lipgloss.EnableLegacyWindowsANSI(stdin)

	state, err := term.MakeRaw(stdin.Fd())
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() {
		_ = term.Restore(stdin.Fd(), state)
		fmt.Println("\x1b[0m")
	}()

	conn := tn5250.NewConn(transport, tn5250.ConnConfig{
		TerminalType: c.String("terminal-type"),
		DeviceName:   c.String("devname"),
		Logger:       logger,
	})
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	negotiateCtx, negotiateCancel := context.WithTimeout(ctx, 30*time.Second)
	defer negotiateCancel()

	if err := conn.Negotiate(negotiateCtx); err != nil {
		return err
	}

	return interact(ctx, conn, bufio.NewReader(stdin))
}

// interact drives the block-mode input cycle: the host pushes a screen, the
// operator edits fields locally, and an AID key sends the changes back and
// waits for the next screen.
func interact(ctx context.Context, conn *tn5250.Conn, keyboard *bufio.Reader) error {
	display := newRenderer(os.Stdout)
	screen := conn.Screen()

	if err := conn.ReadScreen(ctx); err != nil {
		return readError(err)
	}

	for {
		display.render(screen)

		event, err := readKey(keyboard)
		if errors.Is(err, errUnknownSequence) {
			continue
		}
		if err != nil {
			return err
		}

		switch event.kind {
		case keyQuit:
			return nil
		case keyRune:
			screen.TypeRune(event.r)
		case keyBackspace:
			screen.Backspace()
		case keyTab:
			screen.NextInputField()
		case keyBackTab:
			screen.PrevInputField()
		case keyArrow:
			moveCursor(screen, event.dir)
		case keyAID:
			if err := conn.SendKey(event.name); err != nil {
				return err
			}
			if err := conn.ReadScreen(ctx); err != nil {
				return readError(err)
			}
		}
	}
}

// readError turns the host hanging up into a clean exit.
func readError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, tn5250.ErrConnClosed) {
		return nil
	}

	return err
}

func moveCursor(screen *tn5250.Screen, dir arrowDir) {
	row, col := screen.Cursor()

	switch dir {
	case arrowUp:
		row--
	case arrowDown:
		row++
	case arrowLeft:
		col--
	case arrowRight:
		col++
	}

	if row < 0 || col < 0 || row >= screen.Rows() || col >= screen.Cols() {
		return
	}

	screen.SetCursor(row, col)
}
