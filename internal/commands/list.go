package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/output"
	"taskchat/internal/service"
	"taskchat/internal/tasks"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskchat` (no args) and `taskchat list [location]`, where
// location is a query string such as "status=pending&sort=title".
type ListCmd struct {
	query queryFlags
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "taskchat list [--status <s>] [--sort <s>] [location]" }
func (c *ListCmd) NeedsBackend() bool { return true }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.query.register(fs)
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
	location := ""
	if len(args) == 1 {
		location = args[0]
	}

	q, err := c.query.resolve(location)
	if err != nil {
		return report(errOut, err)
	}

	list := tasks.NewController(svc, cfg.Log())
	if err := list.Navigate(ctx, q); err != nil {
		return report(errOut, err)
	}
	cfg.Log().Debug("task view", "location", list.Location())

	state := list.State()
	if len(state.Tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	output.New(out, nil).Tasks(state.Tasks)
	return exitcode.Success
}
