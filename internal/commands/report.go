package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"taskchat/internal/chat"
	"taskchat/internal/exitcode"
	"taskchat/internal/service"
	"taskchat/internal/tasks"
	"taskchat/internal/validation"
)

// report prints err to errOut and returns the matching exit code.
func report(errOut io.Writer, err error) int {
	switch {
	case validation.IsValidationError(err),
		errors.Is(err, tasks.ErrInvalidQuery),
		errors.Is(err, tasks.ErrTaskNotFound),
		errors.Is(err, ErrTaskNumberOutOfRange),
		errors.Is(err, chat.ErrConversationNotFound),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrSendInProgress):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case service.IsAuthError(err):
		fmt.Fprintf(errOut, "error: auth error: %v (run: taskchat login)\n", err)
		return exitcode.AuthError
	case service.IsNotFound(err):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case service.IsNetworkError(err):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// cancelled reports whether err means the user declined a confirmation.
func cancelled(err error) bool {
	return errors.Is(err, tasks.ErrCancelled) || errors.Is(err, chat.ErrCancelled)
}

// confirmer returns a yes/no prompt reading answers from in. When yes is
// set it returns nil, which the flows treat as already confirmed.
func confirmer(yes bool, in io.Reader, errOut io.Writer) func(prompt string) bool {
	if yes {
		return nil
	}
	return func(prompt string) bool {
		fmt.Fprintf(errOut, "%s [y/N] ", prompt)
		line, _ := bufio.NewReader(in).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
