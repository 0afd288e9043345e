package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/ocrbridge/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options is the outcome of a successful parse. Exactly one of App and
// ReportPath is set.
type Options struct {
	App        *app.Config
	ReportPath string // "-" reads stdin
}

// Parse processes command-line arguments. It returns the populated Options,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("ocrbridge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
ocrbridge - Adapter between an OCR engine and a job scheduler.

Usage:
  ocrbridge [options] [SETTINGS_PATH]
  ocrbridge -parse-report FILE

Arguments:
  SETTINGS_PATH
    Path to the service settings file (.hcl or .json).

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the service settings file.")
	cFlag := flagSet.String("c", "", "Path to the service settings file (shorthand).")
	resourcesFlag := flagSet.String("resources", "", "Directory whose descriptors shadow the embedded ones. Overrides the settings file.")
	listenFlag := flagSet.String("listen", ":8080", "Address of the HTTP API. Empty disables it.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	reportFlag := flagSet.String("parse-report", "", "Parse an evaluation report from FILE ('-' for stdin), print it as JSON and exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if report := strings.TrimSpace(*reportFlag); report != "" {
		return &Options{ReportPath: report}, false, nil
	}

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Settings path determined.", "path", path)

	if path == "" {
		slog.Debug("No settings path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		SettingsPath:  path,
		ResourcesPath: *resourcesFlag,
		Listen:        *listenFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return &Options{App: config}, false, nil
}
