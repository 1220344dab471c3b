package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"taskchat/internal/chat"
	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/output"
	"taskchat/internal/service"
)

func init() {
	Register(&ChatsCmd{})
	Register(&NewChatCmd{})
	Register(&RmChatCmd{})
}

// openChat loads the conversation list and selects id, or the conversation
// remembered from the last run when id is 0. A remembered conversation
// that no longer exists is ignored.
func openChat(ctx context.Context, cfg *config.Config, svc service.Service, id int64) (*chat.Controller, error) {
	ctrl := chat.NewController(svc, cfg.Log())
	if err := ctrl.Load(ctx); err != nil {
		return nil, err
	}

	if id == 0 {
		st, err := cfg.LoadState()
		if err != nil {
			cfg.Log().Warn("ignoring saved state", "error", err)
		}
		if _, err := ctrl.Find(st.Conversation); err == nil {
			id = st.Conversation
		}
	} else if _, err := ctrl.Find(id); err != nil {
		return nil, err
	}

	if id != 0 {
		if err := ctrl.Select(ctx, id); err != nil {
			return nil, err
		}
	}
	return ctrl, nil
}

// rememberSelection stores the selected conversation for the next run.
func rememberSelection(cfg *config.Config, ctrl *chat.Controller) {
	id, _ := ctrl.Selected()
	if err := cfg.SaveState(config.State{Conversation: id}); err != nil {
		cfg.Log().Warn("failed to save state", "error", err)
	}
}

// parseConversationID parses an optional conversation id argument.
func parseConversationID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected argument: %s", args[1])
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid conversation id: %s", args[0])
	}
	return id, nil
}

// ChatsCmd implements the chats command.
type ChatsCmd struct{}

func (c *ChatsCmd) Name() string       { return "chats" }
func (c *ChatsCmd) Aliases() []string  { return []string{"conversations"} }
func (c *ChatsCmd) Synopsis() string   { return "List conversations" }
func (c *ChatsCmd) Usage() string      { return "taskchat chats" }
func (c *ChatsCmd) NeedsBackend() bool { return true }

func (c *ChatsCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ChatsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	ctrl, err := openChat(ctx, cfg, svc, 0)
	if err != nil {
		return report(errOut, err)
	}

	convs := ctrl.Conversations()
	if len(convs) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no conversations")
		}
		return exitcode.Success
	}

	selected, _ := ctrl.Selected()
	p := output.New(out, nil)
	for _, conv := range convs {
		p.Conversation(conv, conv.ID == selected)
	}
	return exitcode.Success
}

// NewChatCmd implements the newchat command.
type NewChatCmd struct{}

func (c *NewChatCmd) Name() string       { return "newchat" }
func (c *NewChatCmd) Aliases() []string  { return nil }
func (c *NewChatCmd) Synopsis() string   { return "Start a conversation and select it" }
func (c *NewChatCmd) Usage() string      { return "taskchat newchat [title...]" }
func (c *NewChatCmd) NeedsBackend() bool { return true }

func (c *NewChatCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *NewChatCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	ctrl, err := openChat(ctx, cfg, svc, 0)
	if err != nil {
		return report(errOut, err)
	}

	conv, err := ctrl.Create(ctx, strings.TrimSpace(strings.Join(args, " ")))
	if conv.ID != 0 {
		rememberSelection(cfg, ctrl)
	}
	if err != nil {
		return report(errOut, err)
	}

	if !cfg.Quiet {
		output.New(out, nil).Conversation(conv, true)
	}
	return exitcode.Success
}

// RmChatCmd implements the rmchat command.
type RmChatCmd struct {
	yes bool
}

func (c *RmChatCmd) Name() string       { return "rmchat" }
func (c *RmChatCmd) Aliases() []string  { return nil }
func (c *RmChatCmd) Synopsis() string   { return "Delete a conversation" }
func (c *RmChatCmd) Usage() string      { return "taskchat rmchat [--yes] [id]" }
func (c *RmChatCmd) NeedsBackend() bool { return true }

func (c *RmChatCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.yes, "yes", "y", false, "do not ask for confirmation")
}

func (c *RmChatCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	id, err := parseConversationID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctrl, err := openChat(ctx, cfg, svc, 0)
	if err != nil {
		return report(errOut, err)
	}
	if id == 0 {
		var ok bool
		if id, ok = ctrl.Selected(); !ok {
			fmt.Fprintln(errOut, "error: no conversation selected")
			return exitcode.UserError
		}
	}
	if _, err := ctrl.Find(id); err != nil {
		return report(errOut, err)
	}

	err = ctrl.Delete(ctx, id, confirmer(c.yes, in, errOut))
	if cancelled(err) {
		return exitcode.Success
	}
	if err != nil {
		return report(errOut, err)
	}
	rememberSelection(cfg, ctrl)

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
