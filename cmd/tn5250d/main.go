package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/moodclient/tn5250"
)

func main() {
	app := cli.NewApp()
	app.Name = "tn5250d"
	app.Usage = "AS/400-style demo host speaking 5250 over telnet"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "bind, b",
			Value:  ":2023",
			Usage:  "TCP address to listen on",
			EnvVar: "TN5250D_BIND",
		},
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "path to a YAML config file",
			EnvVar: "TN5250D_CONFIG",
		},
		cli.BoolFlag{
			Name:   "debug, D",
			Usage:  "log at debug level",
			EnvVar: "TN5250D_DEBUG",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	config, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	server := tn5250.NewServer(handleSession(config, logger), tn5250.ServerConfig{
		Session: tn5250.SessionConfig{
			IdleTimeout: config.IdleTimeout,
		},
		Logger: logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveDone := make(chan error, 1)
	go func() { serveDone <- server.ListenAndServe(c.String("bind")) }()

	select {
	case err := <-serveDone:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-serveDone; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
