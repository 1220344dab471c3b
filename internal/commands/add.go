package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/service"
	"taskchat/internal/tasks"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	due         string
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "taskchat add [--description <text>] [--due <time>] <title...>" }
func (c *AddCmd) NeedsBackend() bool { return true }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.description, "description", "d", "", "task description")
	fs.StringVar(&c.due, "due", "", "due date, e.g. 2026-03-01T09:30")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	list := tasks.NewController(svc, cfg.Log())
	flows := tasks.NewMutations(svc, list)

	task, err := flows.Create(ctx, tasks.Form{
		Title:       strings.Join(args, " "),
		Description: c.description,
		DueDate:     c.due,
	})
	if err != nil {
		return report(errOut, err)
	}
	cfg.Log().Debug("task created", "id", string(task.ID), "tasks", len(list.State().Tasks))

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
