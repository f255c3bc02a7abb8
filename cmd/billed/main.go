// Command billed is a terminal client for the Billed expense-report service.
// Every command drives the same pages and controllers a browser session would.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"billed/internal/app"
	"billed/internal/backend"
	"billed/internal/cli"
	applog "billed/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd, ok := lookup(os.Args[1])
	if !ok {
		fmt.Fprintf(os.Stderr, "billed: unknown command %q\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := backend.NewFactory(logger).Create(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.Backend)
		os.Exit(1)
	}

	e := &env{
		app: app.New(app.Options{
			Session: res.Session,
			Bills:   res.Bills,
			Auth:    res.Auth,
			Logger:  logger,
		}),
		backend: res,
		out:     os.Stdout,
	}

	err = cmd.run(ctx, e, os.Args[2:])
	if cerr := res.Close(); cerr != nil {
		logger.Warn("Failed to close backend", "error", cerr)
	}
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "billed %s: %v\n", cmd.name, err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: billed <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.usage)
	}
}
