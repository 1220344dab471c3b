package service

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// Task status filters accepted by the backend.
const (
	StatusAll       = "all"
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Task sort orders accepted by the backend.
const (
	SortCreated = "created"
	SortTitle   = "title"
	SortDueDate = "due_date"
)

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// TaskID is an opaque task identifier. The backend emits integers;
// both JSON numbers and strings are accepted.
type TaskID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *TaskID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = TaskID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = TaskID(n.String())
	return nil
}

// Task represents a single task item.
type Task struct {
	ID          TaskID     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// Conversation is a chat thread.
type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single chat message within a conversation.
type Message struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTask is the payload for task creation.
// DueDate is an ISO-8601 string; empty means no due date.
type NewTask struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// TaskUpdate is a partial task update. Only non-nil fields are sent.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// TaskQuery is the filter/sort selection for a task listing.
type TaskQuery struct {
	Status string
	Sort   string
}

// DefaultTaskQuery returns the selection used when nothing is specified.
func DefaultTaskQuery() TaskQuery {
	return TaskQuery{Status: StatusAll, Sort: SortCreated}
}

// Normalize fills empty fields with their defaults.
func (q TaskQuery) Normalize() TaskQuery {
	if q.Status == "" {
		q.Status = StatusAll
	}
	if q.Sort == "" {
		q.Sort = SortCreated
	}
	return q
}

// Values returns the canonical query parameters: a field equal to its
// default is omitted, so one selection maps to exactly one query string.
func (q TaskQuery) Values() url.Values {
	q = q.Normalize()
	v := url.Values{}
	if q.Status != StatusAll {
		v.Set("status", q.Status)
	}
	if q.Sort != SortCreated {
		v.Set("sort", q.Sort)
	}
	return v
}

// FormatConversationID renders a conversation id for paths and output.
func FormatConversationID(id int64) string {
	return strconv.FormatInt(id, 10)
}
