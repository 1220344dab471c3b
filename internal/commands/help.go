package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "taskchat help [command]" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) > 0 {
		cmd, ok := DefaultRegistry.Find(args[0])
		if !ok {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
			return exitcode.UserError
		}
		fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n", cmd.Synopsis(), cmd.Usage())
		return exitcode.Success
	}
	fmt.Fprint(out, HelpText)
	return exitcode.Success
}

// HelpText is the top-level usage message.
const HelpText = `Usage:
  taskchat                                          List tasks
  taskchat list [--status <s>] [--sort <s>] [location]
  taskchat add [-d <description>] [--due <date>] <title...>
  taskchat done [--status <s>] [--sort <s>] <n>     Toggle completion of task n
  taskchat rm [--yes] [--status <s>] [--sort <s>] <n>
  taskchat chats                                    List conversations
  taskchat newchat [title...]
  taskchat rmchat [--yes] [id]
  taskchat messages [id]
  taskchat say [--chat <id>] <text...>
  taskchat chat [--chat <id>]                       Interactive chat
  taskchat login [token]
  taskchat logout
  taskchat help [command]
  taskchat version

Task queries:
  --status all|pending|completed   (default all)
  --sort created|title|due_date    (default created)
  A location such as "?status=pending&sort=title" selects the same view.

Common flags:
  --config <dir>     Override config directory
  --api <url>        Backend base URL
  --timeout <dur>    Request timeout (default 10s)
  -q, --quiet        Suppress informational output
  --debug            Print debug logs to stderr
`
