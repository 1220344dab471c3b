// Package service defines the backend-agnostic interface for task and chat operations.
package service

import "context"

// Service defines the interface for backend operations.
// All REST calls go through this interface.
// Commands and controllers never import the HTTP adapter directly.
type Service interface {
	// ListTasks returns tasks for the selection in backend order.
	// The backend is the only authority on filtering and ordering.
	ListTasks(ctx context.Context, q TaskQuery) ([]Task, error)

	// CreateTask creates a task and returns the stored version.
	CreateTask(ctx context.Context, t NewTask) (Task, error)

	// UpdateTask applies a partial update. A zero Task is returned when the
	// backend answers without a body.
	UpdateTask(ctx context.Context, id TaskID, u TaskUpdate) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id TaskID) error

	// ListConversations returns conversations in backend order.
	ListConversations(ctx context.Context) ([]Conversation, error)

	// CreateConversation creates a conversation. An empty title lets the
	// backend choose one.
	CreateConversation(ctx context.Context, title string) (Conversation, error)

	// DeleteConversation deletes a conversation and its messages.
	DeleteConversation(ctx context.Context, id int64) error

	// ListMessages returns the messages of a conversation, oldest first.
	ListMessages(ctx context.Context, conversationID int64) ([]Message, error)

	// SendMessage posts a user message. The returned message is the
	// backend's reply (typically the bot message) and may be nil.
	SendMessage(ctx context.Context, conversationID int64, content string) (*Message, error)
}
