package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"taskchat/internal/service"
)

// Phase is the render state of the task list.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrSuperseded is returned by a fetch whose result was discarded because
// a newer query started after it.
var ErrSuperseded = errors.New("superseded by a newer task query")

// State is a snapshot of the controller. Exactly one of the loading,
// error or list views applies, selected by Phase. Tasks is only set in
// PhaseSuccess and may be empty.
type State struct {
	Phase Phase
	Query service.TaskQuery
	Tasks []service.Task
	Err   error
}

// Controller fetches the task list for the current status/sort selection.
// The backend order is kept as-is.
type Controller struct {
	svc    service.Service
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
}

// NewController creates an idle controller on the default selection.
func NewController(svc service.Service, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		svc:    svc,
		logger: logger,
		state:  State{Phase: PhaseIdle, Query: service.DefaultTaskQuery()},
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.Tasks != nil {
		s.Tasks = append([]service.Task(nil), s.Tasks...)
	}
	return s
}

// Query returns the current selection.
func (c *Controller) Query() service.TaskQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Query
}

// Location returns the canonical query string of the current selection.
func (c *Controller) Location() string {
	return Location(c.Query())
}

// Navigate switches to q and fetches it. Selecting the query that is
// already loaded or loading does nothing.
func (c *Controller) Navigate(ctx context.Context, q service.TaskQuery) error {
	if err := CheckQuery(q); err != nil {
		return err
	}
	q = q.Normalize()

	c.mu.Lock()
	same := c.state.Query == q && (c.state.Phase == PhaseSuccess || c.state.Phase == PhaseLoading)
	c.mu.Unlock()
	if same {
		return nil
	}
	return c.fetch(ctx, q)
}

// NavigateLocation parses a query string and navigates to it.
func (c *Controller) NavigateLocation(ctx context.Context, raw string) error {
	q, err := ParseLocation(raw)
	if err != nil {
		return err
	}
	return c.Navigate(ctx, q)
}

// SetStatus changes the status filter by rewriting the location.
func (c *Controller) SetStatus(ctx context.Context, status string) error {
	q := c.Query()
	q.Status = status
	return c.NavigateLocation(ctx, Location(q))
}

// SetSort changes the sort order by rewriting the location.
func (c *Controller) SetSort(ctx context.Context, sort string) error {
	q := c.Query()
	q.Sort = sort
	return c.NavigateLocation(ctx, Location(q))
}

// Refresh re-fetches the current selection unconditionally.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, c.Query())
}

// fetch loads q. A fetch already in flight is cancelled, and a result that
// arrives after a newer fetch started is dropped.
func (c *Controller) fetch(ctx context.Context, q service.TaskQuery) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.state = State{Phase: PhaseLoading, Query: q}
	c.mu.Unlock()

	c.logger.Debug("fetching tasks", "location", Location(q))
	tasks, err := c.svc.ListTasks(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.Debug("dropping stale task list", "location", Location(q))
		return ErrSuperseded
	}
	c.cancel = nil
	if err != nil {
		c.state = State{Phase: PhaseError, Query: q, Err: err}
		return err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	c.state = State{Phase: PhaseSuccess, Query: q, Tasks: tasks}
	return nil
}

// task returns the cached task with id.
func (c *Controller) task(id service.TaskID) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.state.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// replaceTask swaps the cached task with the same id for t.
// The slice is copied so earlier snapshots are unaffected.
func (c *Controller) replaceTask(t service.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.state.Tasks {
		if c.state.Tasks[i].ID == t.ID {
			tasks := append([]service.Task(nil), c.state.Tasks...)
			tasks[i] = t
			c.state.Tasks = tasks
			return true
		}
	}
	return false
}
