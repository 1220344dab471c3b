package chat

import (
	"context"
	"errors"
	"strings"

	"taskchat/internal/service"
)

// DefaultTitle names a conversation created implicitly by a send.
const DefaultTitle = "Task Chat"

var (
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendInProgress is returned while an earlier send is outstanding.
	ErrSendInProgress = errors.New("a message is already being sent")

	// ErrNoConversation is returned when a created conversation has no usable id.
	ErrNoConversation = errors.New("failed to create conversation")
)

// Sending reports whether a send is outstanding.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Send posts content to the selected conversation, creating one first if
// none is selected. The user message is shown immediately with a local id;
// once the backend accepts it the displayed list is replaced by the
// server's. On failure the local message is removed again and the error
// is returned. The bot reply is returned when the backend sends one.
//
// Sends do not overlap: a second call while one is outstanding returns
// ErrSendInProgress.
func (c *Controller) Send(ctx context.Context, content string) (*service.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return nil, ErrSendInProgress
	}
	c.sending = true
	c.lastErr = nil
	convID := c.selected
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	if convID == 0 {
		conv, err := c.svc.CreateConversation(ctx, DefaultTitle)
		if err != nil {
			return nil, c.setErr(err)
		}
		if conv.ID == 0 {
			return nil, c.setErr(ErrNoConversation)
		}
		c.prepend(conv)
		c.mu.Lock()
		c.selected = conv.ID
		c.mu.Unlock()
		convID = conv.ID
		c.logger.Debug("created conversation for send", "conversation", conv.ID)
	}

	now := c.now()
	pending := service.Message{
		ID:        now.UnixMilli(),
		Content:   content,
		Sender:    service.SenderUser,
		CreatedAt: now,
	}
	c.mu.Lock()
	c.messages = append(append([]service.Message(nil), c.messages...), pending)
	c.mu.Unlock()
	c.notify()

	reply, err := c.svc.SendMessage(ctx, convID, content)
	if err != nil {
		return nil, c.rollback(pending, err)
	}

	msgs, err := c.svc.ListMessages(ctx, convID)
	if err != nil {
		return nil, c.rollback(pending, err)
	}

	c.mu.Lock()
	current := c.selected == convID
	if current {
		c.messages = msgs
	}
	c.mu.Unlock()
	if current {
		c.notify()
	}
	return reply, nil
}

// rollback removes the pending message if it is still the last one shown,
// records err and returns it.
func (c *Controller) rollback(pending service.Message, err error) error {
	c.mu.Lock()
	removed := false
	if n := len(c.messages); n > 0 && c.messages[n-1] == pending {
		c.messages = append([]service.Message(nil), c.messages[:n-1]...)
		removed = true
	}
	c.mu.Unlock()
	if removed {
		c.notify()
	}
	c.logger.Warn("send failed", "error", err)
	return c.setErr(err)
}
