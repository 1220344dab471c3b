// Package chat tracks the conversation list, the selected conversation and
// its messages, and runs the message send exchange.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"taskchat/internal/service"
)

var (
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled")

	// ErrConversationNotFound is returned for an id missing from the loaded list.
	ErrConversationNotFound = errors.New("conversation not found")
)

// DeletePrompt is the confirmation question for a conversation delete.
const DeletePrompt = "Delete this conversation?"

// Confirmer asks the user a yes/no question.
type Confirmer func(prompt string) bool

// Listener is called with the displayed messages every time they change.
type Listener func(messages []service.Message)

// Controller holds the client-side chat state. At most one conversation is
// selected; Messages always belong to it.
type Controller struct {
	svc    service.Service
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	loaded        bool
	conversations []service.Conversation
	selected      int64
	messages      []service.Message
	sending       bool
	lastErr       error
	listeners     []Listener
}

// NewController creates a controller with nothing loaded or selected.
func NewController(svc service.Service, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		svc:    svc,
		logger: logger,
		now:    time.Now,
	}
}

// OnMessages registers a listener for message list changes.
func (c *Controller) OnMessages(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Conversations returns the loaded conversations in server order, with
// locally created ones in front.
func (c *Controller) Conversations() []service.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]service.Conversation(nil), c.conversations...)
}

// Selected returns the selected conversation id, or false when none is.
func (c *Controller) Selected() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != 0
}

// Messages returns the displayed messages of the selected conversation.
func (c *Controller) Messages() []service.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]service.Message(nil), c.messages...)
}

// Err returns the error of the last failed operation, cleared when the
// next operation starts.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Load fetches the conversation list the first time it is called.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

// Reload fetches the conversation list again.
func (c *Controller) Reload(ctx context.Context) error {
	c.setErr(nil)
	convs, err := c.svc.ListConversations(ctx)
	if err != nil {
		return c.setErr(err)
	}

	c.mu.Lock()
	c.conversations = convs
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Create creates a conversation, puts it first in the list and selects it.
// An empty title leaves the choice to the backend.
func (c *Controller) Create(ctx context.Context, title string) (service.Conversation, error) {
	c.setErr(nil)
	conv, err := c.svc.CreateConversation(ctx, title)
	if err != nil {
		return service.Conversation{}, c.setErr(err)
	}
	if conv.ID == 0 {
		return service.Conversation{}, c.setErr(ErrNoConversation)
	}

	c.prepend(conv)
	if err := c.Select(ctx, conv.ID); err != nil {
		return conv, err
	}
	return conv, nil
}

// Delete deletes a conversation after confirmation. When the selected
// conversation is deleted, the first remaining one is selected, or the
// selection is cleared if none remain.
func (c *Controller) Delete(ctx context.Context, id int64, confirm Confirmer) error {
	if confirm != nil && !confirm(DeletePrompt) {
		return ErrCancelled
	}

	c.setErr(nil)
	if err := c.svc.DeleteConversation(ctx, id); err != nil {
		return c.setErr(err)
	}

	c.mu.Lock()
	remaining := make([]service.Conversation, 0, len(c.conversations))
	for _, conv := range c.conversations {
		if conv.ID != id {
			remaining = append(remaining, conv)
		}
	}
	c.conversations = remaining
	wasSelected := c.selected == id
	var next int64
	if wasSelected && len(remaining) > 0 {
		next = remaining[0].ID
	}
	c.mu.Unlock()

	if !wasSelected {
		return nil
	}
	if next != 0 {
		return c.Select(ctx, next)
	}
	c.clearSelection()
	return nil
}

// Select switches to a conversation and replaces the displayed messages
// with the server's list for it.
func (c *Controller) Select(ctx context.Context, id int64) error {
	if id == 0 {
		c.clearSelection()
		return nil
	}

	c.mu.Lock()
	changed := c.selected != id
	c.selected = id
	if changed {
		c.messages = nil
	}
	c.lastErr = nil
	c.mu.Unlock()

	msgs, err := c.svc.ListMessages(ctx, id)
	if err != nil {
		if changed {
			c.notify()
		}
		return c.setErr(fmt.Errorf("load messages: %w", err))
	}

	c.mu.Lock()
	if c.selected != id {
		c.mu.Unlock()
		return nil
	}
	c.messages = msgs
	c.mu.Unlock()
	c.notify()
	return nil
}

// Find returns the loaded conversation with id.
func (c *Controller) Find(id int64) (service.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conv := range c.conversations {
		if conv.ID == id {
			return conv, nil
		}
	}
	return service.Conversation{}, fmt.Errorf("%w: %d", ErrConversationNotFound, id)
}

func (c *Controller) clearSelection() {
	c.mu.Lock()
	c.selected = 0
	c.messages = nil
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) prepend(conv service.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversations = append([]service.Conversation{conv}, c.conversations...)
}

// setErr records err as the last error and returns it.
func (c *Controller) setErr(err error) error {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	if err != nil {
		c.logger.Debug("chat operation failed", "error", err)
	}
	return err
}

// notify calls every listener with a copy of the current messages.
func (c *Controller) notify() {
	c.mu.Lock()
	msgs := append([]service.Message(nil), c.messages...)
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l(msgs)
	}
}
