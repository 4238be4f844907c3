// Command keyloop puts the terminal in raw mode and runs a key loop:
// End quits, h redraws the headers.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kungfusheep/keyloop"
)

func main() {
	args := parseFlags()

	path := args.config
	if path == "" {
		path = keyloop.ConfigPath()
	}
	cfg, err := keyloop.LoadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "keyloop:", err)
		os.Exit(1)
	}

	closeLog, err := setupLogging(args, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "keyloop:", err)
		os.Exit(1)
	}
	defer closeLog()

	tty := keyloop.Stdio()
	app, err := keyloop.New(cfg, tty, os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "keyloop:", err)
		os.Exit(1)
	}

	hdr := newHeaders(os.Stdout, tty.Size, app.Registry)
	if err := app.BindDefaults(keyloop.HandlerFunc(hdr.Draw)); err != nil {
		fmt.Fprintln(os.Stderr, "keyloop:", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		closeLog()
		fmt.Fprintln(os.Stderr, "keyloop:", err)
		os.Exit(1)
	}
}

// setupLogging routes library logs to a file. Without -log nothing is
// logged: the terminal is raw for the life of the process.
func setupLogging(args cliArgs, cfg keyloop.Config) (func(), error) {
	if args.logTo == "" {
		return func() {}, nil
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if args.debug {
		level = slog.LevelDebug
	}

	f, err := os.OpenFile(args.logTo, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	keyloop.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return func() { f.Close() }, nil
}
