package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"taskchat/internal/service"
	"taskchat/internal/tasks"
)

var (
	// ErrTaskNumberRequired indicates no task number was provided.
	ErrTaskNumberRequired = errors.New("task number required")

	// ErrTaskNumberOutOfRange indicates a number past the end of the list.
	ErrTaskNumberOutOfRange = errors.New("task number out of range")
)

// queryFlags are the status/sort flags shared by the task commands.
// Empty values mean the default selection.
type queryFlags struct {
	status string
	sort   string
}

func (q *queryFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&q.status, "status", "s", "", "all, pending or completed")
	fs.StringVar(&q.sort, "sort", "", "created, title or due_date")
}

// resolve builds the selection from an optional location string, with
// explicit flags taking precedence.
func (q *queryFlags) resolve(location string) (service.TaskQuery, error) {
	sel, err := tasks.ParseLocation(location)
	if err != nil {
		return service.TaskQuery{}, err
	}
	if q.status != "" {
		sel.Status = q.status
	}
	if q.sort != "" {
		sel.Sort = q.sort
	}
	if err := tasks.CheckQuery(sel); err != nil {
		return service.TaskQuery{}, err
	}
	return sel.Normalize(), nil
}

// parseTaskNumber parses a 1-based task number from args.
func parseTaskNumber(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskNumberRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected argument: %s", args[1])
	}
	num, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid task number: %s", args[0])
	}
	if num < 1 {
		return 0, fmt.Errorf("%w: %d", ErrTaskNumberOutOfRange, num)
	}
	return num, nil
}

// findTaskByNumber loads the selection into list and returns the task at
// the 1-based position num, counted in the order the backend returned.
func findTaskByNumber(ctx context.Context, list *tasks.Controller, q service.TaskQuery, num int) (service.Task, error) {
	if err := list.Navigate(ctx, q); err != nil {
		return service.Task{}, err
	}
	loaded := list.State().Tasks
	if num > len(loaded) {
		return service.Task{}, fmt.Errorf("%w: %d", ErrTaskNumberOutOfRange, num)
	}
	return loaded[num-1], nil
}
