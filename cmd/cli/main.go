package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/ocrbridge/internal/app"
	"github.com/vk/ocrbridge/internal/cli"
	"github.com/vk/ocrbridge/internal/hcl"
	"github.com/vk/ocrbridge/internal/yamlconf"
)

// main is the entrypoint for the ocrbridge service.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, in io.Reader, outW io.Writer, args []string) (err error) {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	if opts.ReportPath != "" {
		return parseReport(in, outW, opts.ReportPath)
	}

	// The app panics on critical config errors; turn that into a clean error.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	service := app.NewApp(outW, opts.App, hcl.NewLoader(),
		app.WithDecoders(hcl.NewDecoder(), yamlconf.NewDecoder()),
	)
	return service.Run(ctx)
}

func parseReport(in io.Reader, outW io.Writer, path string) error {
	if path == "-" {
		return app.ParseReport(in, outW)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()
	return app.ParseReport(f, outW)
}
