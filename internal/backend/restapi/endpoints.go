package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"taskchat/internal/service"
)

var _ service.Service = (*Client)(nil)

// ListTasks returns tasks for q in backend order.
// Default selections are omitted from the query string.
func (c *Client) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	path := "/api/tasks"
	if v := q.Values(); len(v) > 0 {
		path += "?" + v.Encode()
	}

	var tasks []service.Task
	if err := c.call(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// CreateTask creates a new task.
func (c *Client) CreateTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	var task service.Task
	if err := c.call(ctx, http.MethodPost, "/api/tasks", t, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, id service.TaskID, u service.TaskUpdate) (service.Task, error) {
	var task service.Task
	if err := c.call(ctx, http.MethodPut, taskPath(id), u, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id service.TaskID) error {
	return c.call(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// ListConversations returns the user's conversations.
func (c *Client) ListConversations(ctx context.Context) ([]service.Conversation, error) {
	var convs []service.Conversation
	if err := c.call(ctx, http.MethodGet, "/api/chat/conversations", nil, &convs); err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []service.Conversation{}
	}
	return convs, nil
}

// CreateConversation creates a conversation.
func (c *Client) CreateConversation(ctx context.Context, title string) (service.Conversation, error) {
	body := struct {
		Title string `json:"title,omitempty"`
	}{Title: title}

	var conv service.Conversation
	if err := c.call(ctx, http.MethodPost, "/api/chat/conversations", body, &conv); err != nil {
		return service.Conversation{}, err
	}
	return conv, nil
}

// DeleteConversation deletes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, conversationPath(id), nil, nil)
}

// ListMessages returns the messages in a conversation.
func (c *Client) ListMessages(ctx context.Context, conversationID int64) ([]service.Message, error) {
	var msgs []service.Message
	if err := c.call(ctx, http.MethodGet, conversationPath(conversationID)+"/messages", nil, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []service.Message{}
	}
	return msgs, nil
}

// SendMessage posts a user message and returns the backend's reply, if any.
func (c *Client) SendMessage(ctx context.Context, conversationID int64, content string) (*service.Message, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}

	res, err := c.Request(ctx, http.MethodPost, conversationPath(conversationID)+"/messages", body)
	if err != nil {
		return nil, err
	}
	if res == nil || res.JSON == nil {
		return nil, nil
	}
	var msg service.Message
	if err := res.Decode(&msg); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &msg, nil
}

// call performs a request and decodes a JSON body into out when out is non-nil.
// An empty response leaves out untouched.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	res, err := c.Request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || res == nil {
		return nil
	}
	if res.JSON == nil {
		return fmt.Errorf("%s %s: unexpected non-JSON response", method, path)
	}
	if err := res.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func taskPath(id service.TaskID) string {
	return "/api/tasks/" + url.PathEscape(string(id))
}

func conversationPath(id int64) string {
	return "/api/chat/conversations/" + service.FormatConversationID(id)
}
