package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskchat/internal/auth"
	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command. The backend issues bearer tokens
// out of band; login stores one so later commands send it.
type LoginCmd struct{}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Store an access token" }
func (c *LoginCmd) Usage() string      { return "taskchat login [token]" }
func (c *LoginCmd) NeedsBackend() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}

	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		if !cfg.Quiet {
			fmt.Fprint(errOut, "token: ")
		}
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			fmt.Fprintf(errOut, "error: failed to read token: %v\n", err)
			return exitcode.UserError
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		fmt.Fprintln(errOut, "error: token required")
		return exitcode.UserError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := auth.SaveToken(cfg.TokenPath(), auth.NewToken(token)); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
