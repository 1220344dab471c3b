package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/output"
	"taskchat/internal/service"
)

func init() {
	Register(&MessagesCmd{})
	Register(&SayCmd{})
}

// MessagesCmd implements the messages command.
type MessagesCmd struct{}

func (c *MessagesCmd) Name() string       { return "messages" }
func (c *MessagesCmd) Aliases() []string  { return []string{"history"} }
func (c *MessagesCmd) Synopsis() string   { return "Show the messages of a conversation" }
func (c *MessagesCmd) Usage() string      { return "taskchat messages [id]" }
func (c *MessagesCmd) NeedsBackend() bool { return true }

func (c *MessagesCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *MessagesCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	id, err := parseConversationID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctrl, err := openChat(ctx, cfg, svc, id)
	if err != nil {
		return report(errOut, err)
	}
	if _, ok := ctrl.Selected(); !ok {
		fmt.Fprintln(errOut, "error: no conversation selected")
		return exitcode.UserError
	}
	rememberSelection(cfg, ctrl)

	msgs := ctrl.Messages()
	if len(msgs) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no messages")
		}
		return exitcode.Success
	}
	output.New(out, nil).Messages(msgs)
	return exitcode.Success
}

// SayCmd implements the say command: send one message and print the reply.
type SayCmd struct {
	chatID int64
}

func (c *SayCmd) Name() string       { return "say" }
func (c *SayCmd) Aliases() []string  { return []string{"send"} }
func (c *SayCmd) Synopsis() string   { return "Send a chat message" }
func (c *SayCmd) Usage() string      { return "taskchat say [--chat <id>] <text...>" }
func (c *SayCmd) NeedsBackend() bool { return true }

func (c *SayCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.Int64VarP(&c.chatID, "chat", "c", 0, "conversation id")
}

func (c *SayCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if c.chatID < 0 {
		fmt.Fprintf(errOut, "error: invalid conversation id: %d\n", c.chatID)
		return exitcode.UserError
	}
	content := strings.TrimSpace(strings.Join(args, " "))
	if content == "" {
		fmt.Fprintln(errOut, "error: message required")
		return exitcode.UserError
	}

	ctrl, err := openChat(ctx, cfg, svc, c.chatID)
	if err != nil {
		return report(errOut, err)
	}

	before := len(ctrl.Messages())
	_, err = ctrl.Send(ctx, content)
	rememberSelection(cfg, ctrl)
	if err != nil {
		return report(errOut, err)
	}

	// Everything after our own message is new: the bot reply, and anything
	// else the backend added meanwhile.
	if msgs := ctrl.Messages(); len(msgs) > before+1 {
		output.New(out, nil).Messages(msgs[before+1:])
	}
	return exitcode.Success
}
