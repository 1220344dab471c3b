// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"taskchat/internal/config"
	"taskchat/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsBackend returns true if the command talks to the backend.
	// Commands like help, version, login, logout return false.
	NeedsBackend() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, logger).
	// svc is nil if NeedsBackend() returns false.
	// args contains positional arguments after flag parsing.
	// in is read for confirmations and interactive input.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int
}
