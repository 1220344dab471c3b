package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskchat/internal/chat"
	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/output"
	"taskchat/internal/service"
)

func init() {
	Register(&ChatCmd{})
}

// transcript prints messages as the displayed list grows. It resets when
// the selected conversation changes and steps back when an entry is
// removed, so each entry is printed once.
type transcript struct {
	p        *output.Printer
	ctrl     *chat.Controller
	conv     int64
	shown    int
	attached bool
}

func (t *transcript) update(msgs []service.Message) {
	id, _ := t.ctrl.Selected()
	if !t.attached || id != t.conv {
		t.attached = true
		t.conv = id
		t.shown = 0
	}
	if len(msgs) < t.shown {
		t.shown = len(msgs)
		return
	}
	t.p.Messages(msgs[t.shown:])
	t.shown = len(msgs)
}

// ChatCmd implements the interactive chat command. Each input line is sent
// as a message; "/new" starts a conversation and "/quit" exits.
type ChatCmd struct {
	chatID int64
}

func (c *ChatCmd) Name() string       { return "chat" }
func (c *ChatCmd) Aliases() []string  { return nil }
func (c *ChatCmd) Synopsis() string   { return "Chat interactively" }
func (c *ChatCmd) Usage() string      { return "taskchat chat [--chat <id>]" }
func (c *ChatCmd) NeedsBackend() bool { return true }

func (c *ChatCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.Int64VarP(&c.chatID, "chat", "c", 0, "conversation id")
}

func (c *ChatCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	ctrl := chat.NewController(svc, cfg.Log())
	t := &transcript{p: output.New(out, nil), ctrl: ctrl}
	ctrl.OnMessages(t.update)

	if err := ctrl.Load(ctx); err != nil {
		return report(errOut, err)
	}
	id := c.chatID
	if id == 0 {
		if st, err := cfg.LoadState(); err == nil {
			if _, err := ctrl.Find(st.Conversation); err == nil {
				id = st.Conversation
			}
		}
	} else if _, err := ctrl.Find(id); err != nil {
		return report(errOut, err)
	}
	if id != 0 {
		if err := ctrl.Select(ctx, id); err != nil {
			return report(errOut, err)
		}
	}
	defer rememberSelection(cfg, ctrl)

	if !cfg.Quiet {
		fmt.Fprintln(errOut, `type a message, "/new" for a new conversation, "/quit" to exit`)
	}

	lines, readErr := readLines(ctx, in)
	for {
		var line string
		select {
		case <-ctx.Done():
			return exitcode.Success
		case l, ok := <-lines:
			if !ok {
				if err := *readErr; err != nil {
					fmt.Fprintf(errOut, "error: %v\n", err)
					return exitcode.UserError
				}
				return exitcode.Success
			}
			line = strings.TrimSpace(l)
		}

		switch {
		case line == "":
		case line == "/quit" || line == "/exit":
			return exitcode.Success
		case line == "/new":
			conv, err := ctrl.Create(ctx, "")
			if err != nil {
				report(errOut, err)
				continue
			}
			if !cfg.Quiet {
				fmt.Fprintf(errOut, "conversation %d\n", conv.ID)
			}
		case strings.HasPrefix(line, "/"):
			fmt.Fprintf(errOut, "error: unknown chat command: %s\n", line)
		default:
			if _, err := ctrl.Send(ctx, line); err != nil {
				report(errOut, err)
			}
		}
	}
}

// readLines feeds lines from in until EOF or ctx is done. The channel is
// closed when reading stops; the error is valid once it is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, *error) {
	lines := make(chan string)
	readErr := new(error)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		*readErr = scanner.Err()
	}()
	return lines, readErr
}
