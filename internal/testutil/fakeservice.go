// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskchat/internal/service"
)

// BaseTime is the clock start of every FakeService. Each created entity
// advances the clock by one minute so ordering is deterministic.
var BaseTime = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = &service.RequestError{Kind: service.KindHTTP, Status: 404, Message: "Not found"}

// BotReply is the content of every fake bot message.
const BotReply = "I can help you with tasks!"

// FakeService is an in-memory implementation of service.Service for testing.
// It mimics the backend's filtering and ordering.
type FakeService struct {
	mu       sync.Mutex
	now      time.Time
	nextID   int64
	tasks    []service.Task
	convs    []service.Conversation
	messages map[int64][]service.Message
	calls    []string

	// Error injection for testing
	ListTasksErr          error
	CreateTaskErr         error
	UpdateTaskErr         error
	DeleteTaskErr         error
	ListConversationsErr  error
	CreateConversationErr error
	DeleteConversationErr error
	ListMessagesErr       error
	SendMessageErr        error

	// ZeroConversationID makes CreateConversation answer with id 0.
	ZeroConversationID bool

	// NoBotReply makes SendMessage store only the user message and return nil.
	NoBotReply bool

	// BeforeListTasks, if set, runs at the start of ListTasks. Returning
	// an error fails the call.
	BeforeListTasks func(ctx context.Context, q service.TaskQuery) error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		now:      BaseTime,
		messages: make(map[int64][]service.Message),
	}
}

// Calls returns the log of service calls in order, e.g.
// "ListTasks status=pending" or "SendMessage 3".
func (f *FakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// ResetCalls clears the call log.
func (f *FakeService) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeService) record(format string, args ...any) {
	f.calls = append(f.calls, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (f *FakeService) tick() time.Time {
	f.now = f.now.Add(time.Minute)
	return f.now
}

func (f *FakeService) id() int64 {
	f.nextID++
	return f.nextID
}

// AddTask adds a task and returns it. due may be nil.
func (f *FakeService) AddTask(title string, completed bool, due *time.Time) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	created := f.tick()
	t := service.Task{
		ID:        service.TaskID(strconv.FormatInt(f.id(), 10)),
		Title:     title,
		Completed: completed,
		CreatedAt: &created,
		DueDate:   due,
	}
	f.tasks = append(f.tasks, t)
	return t
}

// AddConversation adds a conversation and returns it.
func (f *FakeService) AddConversation(title string) service.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addConversation(title)
}

func (f *FakeService) addConversation(title string) service.Conversation {
	now := f.tick()
	c := service.Conversation{ID: f.id(), Title: title, CreatedAt: now, UpdatedAt: now}
	f.convs = append(f.convs, c)
	return c
}

// AddMessage appends a message to a conversation and returns it.
func (f *FakeService) AddMessage(conversationID int64, sender service.Sender, content string) service.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addMessage(conversationID, sender, content)
}

func (f *FakeService) addMessage(conversationID int64, sender service.Sender, content string) service.Message {
	now := f.tick()
	m := service.Message{ID: f.id(), Content: content, Sender: sender, CreatedAt: now}
	f.messages[conversationID] = append(f.messages[conversationID], m)
	for i := range f.convs {
		if f.convs[i].ID == conversationID {
			f.convs[i].UpdatedAt = now
		}
	}
	return m
}

// Tasks returns all stored tasks in insertion order.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks...)
}

// Messages returns the stored messages of a conversation.
func (f *FakeService) Messages(conversationID int64) []service.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Message(nil), f.messages[conversationID]...)
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, q service.TaskQuery) ([]service.Task, error) {
	f.mu.Lock()
	f.record("ListTasks %s", q.Values().Encode())
	hook := f.BeforeListTasks
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, q); err != nil {
			return nil, err
		}
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	q = q.Normalize()
	result := []service.Task{}
	for _, t := range f.tasks {
		switch {
		case q.Status == service.StatusPending && t.Completed:
			continue
		case q.Status == service.StatusCompleted && !t.Completed:
			continue
		}
		result = append(result, t)
	}

	switch q.Sort {
	case service.SortTitle:
		sort.SliceStable(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	case service.SortDueDate:
		sort.SliceStable(result, func(i, j int) bool {
			a, b := result[i].DueDate, result[j].DueDate
			if a == nil || b == nil {
				return a != nil
			}
			return a.Before(*b)
		})
	default:
		sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(*result[j].CreatedAt) })
	}
	return result, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTask %s", t.Title)
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}

	var due *time.Time
	if t.DueDate != "" {
		d, err := time.Parse(time.RFC3339, t.DueDate)
		if err != nil {
			return service.Task{}, &service.RequestError{Kind: service.KindHTTP, Status: 422, Message: "invalid due_date"}
		}
		due = &d
	}
	created := f.tick()
	task := service.Task{
		ID:          service.TaskID(strconv.FormatInt(f.id(), 10)),
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   &created,
		DueDate:     due,
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id service.TaskID, u service.TaskUpdate) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateTask %s", id)
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}

	for i := range f.tasks {
		if f.tasks[i].ID != id {
			continue
		}
		if u.Title != nil {
			f.tasks[i].Title = *u.Title
		}
		if u.Description != nil {
			f.tasks[i].Description = *u.Description
		}
		if u.Completed != nil {
			f.tasks[i].Completed = *u.Completed
		}
		return f.tasks[i], nil
	}
	return service.Task{}, ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id service.TaskID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask %s", id)
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ListConversations implements service.Service.
// Conversations are ordered most recently updated first.
func (f *FakeService) ListConversations(ctx context.Context) ([]service.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListConversations")
	if f.ListConversationsErr != nil {
		return nil, f.ListConversationsErr
	}

	result := append([]service.Conversation{}, f.convs...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

// CreateConversation implements service.Service.
func (f *FakeService) CreateConversation(ctx context.Context, title string) (service.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateConversation %s", title)
	if f.CreateConversationErr != nil {
		return service.Conversation{}, f.CreateConversationErr
	}
	if title == "" {
		title = "New Conversation"
	}
	c := f.addConversation(title)
	if f.ZeroConversationID {
		c.ID = 0
	}
	return c, nil
}

// DeleteConversation implements service.Service.
func (f *FakeService) DeleteConversation(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteConversation %d", id)
	if f.DeleteConversationErr != nil {
		return f.DeleteConversationErr
	}

	for i, c := range f.convs {
		if c.ID == id {
			f.convs = append(f.convs[:i], f.convs[i+1:]...)
			delete(f.messages, id)
			return nil
		}
	}
	return ErrNotFound
}

// ListMessages implements service.Service.
func (f *FakeService) ListMessages(ctx context.Context, conversationID int64) ([]service.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListMessages %d", conversationID)
	if f.ListMessagesErr != nil {
		return nil, f.ListMessagesErr
	}
	return append([]service.Message{}, f.messages[conversationID]...), nil
}

// SendMessage implements service.Service. The user message is stored
// followed by a canned bot reply, which is returned.
func (f *FakeService) SendMessage(ctx context.Context, conversationID int64, content string) (*service.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SendMessage %d", conversationID)
	if f.SendMessageErr != nil {
		return nil, f.SendMessageErr
	}

	found := false
	for _, c := range f.convs {
		if c.ID == conversationID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	f.addMessage(conversationID, service.SenderUser, content)
	if f.NoBotReply {
		return nil, nil
	}
	reply := f.addMessage(conversationID, service.SenderBot, BotReply)
	return &reply, nil
}
