package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskchat/internal/service"
	"taskchat/internal/validation"
)

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled")

// ErrTaskNotFound is returned when a task is not in the loaded list.
var ErrTaskNotFound = errors.New("task not found")

// DeletePrompt is the confirmation question for a task delete.
const DeletePrompt = "Delete this task?"

// Confirmer asks the user a yes/no question.
type Confirmer func(prompt string) bool

// Form is the raw create-form input.
type Form struct {
	Title       string
	Description string
	DueDate     string
}

// Mutations are the write flows for tasks. Each successful write leaves
// the controller showing committed server state.
type Mutations struct {
	svc  service.Service
	list *Controller

	// Location is the zone for due dates written without an offset.
	Location *time.Location
}

// NewMutations creates mutation flows that refresh list after writes.
func NewMutations(svc service.Service, list *Controller) *Mutations {
	return &Mutations{svc: svc, list: list, Location: time.Local}
}

// Create validates form, creates the task and re-fetches the list.
// Invalid input returns a *validation.ValidationError and sends nothing.
// A failed re-fetch after a successful create is left in the controller
// state rather than returned, since the task itself was committed.
func (m *Mutations) Create(ctx context.Context, form Form) (service.Task, error) {
	payload, err := validation.ValidateNewTask(form.Title, form.Description, form.DueDate, m.Location)
	if err != nil {
		return service.Task{}, err
	}

	task, err := m.svc.CreateTask(ctx, payload)
	if err != nil {
		return service.Task{}, err
	}

	m.refresh(ctx, "create")
	return task, nil
}

// Toggle flips the completed flag of a loaded task. The cached task is
// flipped before the request is sent and restored if it fails.
func (m *Mutations) Toggle(ctx context.Context, id service.TaskID) (service.Task, error) {
	old, ok := m.list.task(id)
	if !ok {
		return service.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	flipped := old
	flipped.Completed = !old.Completed
	m.list.replaceTask(flipped)

	completed := flipped.Completed
	updated, err := m.svc.UpdateTask(ctx, id, service.TaskUpdate{Completed: &completed})
	if err != nil {
		m.list.replaceTask(old)
		return service.Task{}, err
	}

	// An empty response body means the update was applied as sent.
	if updated == (service.Task{}) {
		updated = flipped
	}
	// The response may omit the id; the cache keeps its own.
	if updated.ID == "" {
		updated.ID = id
	}
	m.list.replaceTask(updated)
	return updated, nil
}

// Delete removes a task after confirmation and re-fetches the list.
// Declining returns ErrCancelled without contacting the backend.
// A nil confirm means the caller already confirmed.
func (m *Mutations) Delete(ctx context.Context, id service.TaskID, confirm Confirmer) error {
	if confirm != nil && !confirm(DeletePrompt) {
		return ErrCancelled
	}

	if err := m.svc.DeleteTask(ctx, id); err != nil {
		return err
	}

	m.refresh(ctx, "delete")
	return nil
}

func (m *Mutations) refresh(ctx context.Context, after string) {
	if err := m.list.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		m.list.logger.Warn("task list refresh failed", "after", after, "error", err)
	}
}
