package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	"taskchat/internal/service"
)

// Limits enforced on task input.
const (
	TitleMaxLength       = 200
	DescriptionMaxLength = 1000
)

// Field names used in FieldError.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldDueDate     = "due_date"
)

// dueLayouts are tried in order. Layouts without a zone are read in the
// caller's location.
var dueLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ValidateNewTask checks create-form input and builds the request payload.
// The title is trimmed, the description is sent only when non-empty and
// a due date is normalized to RFC 3339 UTC. loc defaults to time.Local.
func ValidateNewTask(title, description, due string, loc *time.Location) (service.NewTask, error) {
	ve := &ValidationError{}

	title = strings.TrimSpace(title)
	if n := utf8.RuneCountInString(title); n < 1 || n > TitleMaxLength {
		typ := ErrorTypeInvalidLength
		if n == 0 {
			typ = ErrorTypeRequired
		}
		ve.Add(FieldTitle, typ, "Title must be 1-200 characters")
	}

	if utf8.RuneCountInString(description) > DescriptionMaxLength {
		ve.Add(FieldDescription, ErrorTypeInvalidLength, "Description must be at most 1000 characters")
	}

	var dueDate string
	if due = strings.TrimSpace(due); due != "" {
		t, err := ParseDueDate(due, loc)
		if err != nil {
			ve.Add(FieldDueDate, ErrorTypeInvalidFormat, "Invalid due date")
		} else {
			dueDate = t.UTC().Format(time.RFC3339)
		}
	}

	if ve.HasErrors() {
		return service.NewTask{}, ve
	}
	return service.NewTask{
		Title:       title,
		Description: description,
		DueDate:     dueDate,
	}, nil
}

// ParseDueDate parses a due date in any accepted layout.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	var err error
	for _, layout := range dueLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}
