package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/service"
	"taskchat/internal/tasks"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It toggles the completed flag, so
// running it on a completed task reopens it.
type DoneCmd struct {
	query queryFlags
}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string   { return "Toggle a task between pending and completed" }
func (c *DoneCmd) Usage() string      { return "taskchat done [--status <s>] [--sort <s>] <n>" }
func (c *DoneCmd) NeedsBackend() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.query.register(fs)
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	num, err := parseTaskNumber(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	q, err := c.query.resolve("")
	if err != nil {
		return report(errOut, err)
	}

	list := tasks.NewController(svc, cfg.Log())
	task, err := findTaskByNumber(ctx, list, q, num)
	if err != nil {
		return report(errOut, err)
	}

	updated, err := tasks.NewMutations(svc, list).Toggle(ctx, task.ID)
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		if updated.Completed {
			fmt.Fprintln(out, "ok: completed")
		} else {
			fmt.Fprintln(out, "ok: pending")
		}
	}
	return exitcode.Success
}
