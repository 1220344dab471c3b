// Package tasks holds the task list state: the query controller that
// follows the status/sort location and the create, toggle and delete flows.
package tasks

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"taskchat/internal/service"
)

// ErrInvalidQuery is returned for an unknown status or sort value.
var ErrInvalidQuery = errors.New("invalid task query")

// ParseLocation reads the status and sort selection from a query string
// such as "?status=pending&sort=title". Missing parameters take their
// defaults.
func ParseLocation(raw string) (service.TaskQuery, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "?")
	values, err := url.ParseQuery(raw)
	if err != nil {
		return service.TaskQuery{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	q := service.TaskQuery{
		Status: values.Get("status"),
		Sort:   values.Get("sort"),
	}
	if err := CheckQuery(q); err != nil {
		return service.TaskQuery{}, err
	}
	return q.Normalize(), nil
}

// Location renders the canonical query string for q. Parameters equal to
// their default are omitted, so the default selection renders as "".
func Location(q service.TaskQuery) string {
	values := q.Values()
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// CheckQuery returns an error naming the first unknown field of q.
func CheckQuery(q service.TaskQuery) error {
	q = q.Normalize()
	switch q.Status {
	case service.StatusAll, service.StatusPending, service.StatusCompleted:
	default:
		return fmt.Errorf("%w: unknown status %q (want all, pending or completed)", ErrInvalidQuery, q.Status)
	}
	switch q.Sort {
	case service.SortCreated, service.SortTitle, service.SortDueDate:
	default:
		return fmt.Errorf("%w: unknown sort %q (want created, title or due_date)", ErrInvalidQuery, q.Sort)
	}
	return nil
}
