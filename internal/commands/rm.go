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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	query queryFlags
	yes   bool
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "taskchat rm [--yes] [--status <s>] [--sort <s>] <n>" }
func (c *RmCmd) NeedsBackend() bool { return true }

func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.query.register(fs)
	fs.BoolVarP(&c.yes, "yes", "y", false, "do not ask for confirmation")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
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

	err = tasks.NewMutations(svc, list).Delete(ctx, task.ID, confirmer(c.yes, in, errOut))
	if cancelled(err) {
		return exitcode.Success
	}
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
