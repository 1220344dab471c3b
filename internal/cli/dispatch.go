// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"taskchat/internal/commands"
	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/service"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	in       io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
// Commands read from os.Stdin unless WithInput is used.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
		in:       os.Stdin,
	}
}

// WithInput sets the reader commands use for prompts and interactive input.
func (d *Dispatcher) WithInput(r io.Reader) *Dispatcher {
	d.in = r
	return d
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	apiURL    string
	timeout   time.Duration
	quiet     bool
	debug     bool
}

func (f *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configDir, "config", "", "config directory")
	fs.StringVar(&f.apiURL, "api", "", "backend base URL")
	fs.DurationVar(&f.timeout, "timeout", 0, "request timeout")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "suppress informational output")
	fs.BoolVar(&f.debug, "debug", false, "print debug logs to stderr")
}

// Run parses arguments and dispatches to the appropriate command.
// With no arguments the task list is shown. Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		args = []string{"list"}
	}

	cmdName := args[0]
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n\nFlags:\n%s", cmd.Synopsis(), cmd.Usage(), fs.FlagUsages())
			return exitcode.Success
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}

	cfg, err := config.New(common.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	if common.apiURL != "" {
		cfg.BaseURL = strings.TrimRight(common.apiURL, "/")
	}
	if fs.Changed("timeout") {
		if common.timeout <= 0 {
			fmt.Fprintf(errOut, "error: invalid timeout: %s\n", common.timeout)
			return exitcode.UserError
		}
		cfg.Timeout = common.timeout
	}
	cfg.Quiet = common.quiet
	cfg.Debug = cfg.Debug || common.debug
	cfg.Logger = newLogger(errOut, cfg.Debug)

	var svc service.Service
	if cmd.NeedsBackend() && d.factory != nil {
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
	}

	cfg.Logger.Debug("dispatch", "command", cmd.Name(), "api", cfg.BaseURL, "timeout", cfg.Timeout)
	return cmd.Run(ctx, cfg, svc, fs.Args(), d.in, out, errOut)
}

// newLogger writes text logs to w. Only errors are shown unless debug is set.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelError
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
