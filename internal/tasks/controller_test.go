package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskchat/internal/service"
	"taskchat/internal/tasks"
	"taskchat/internal/testutil"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw     string
		want    service.TaskQuery
		wantErr bool
	}{
		{raw: "", want: service.TaskQuery{Status: "all", Sort: "created"}},
		{raw: "?", want: service.TaskQuery{Status: "all", Sort: "created"}},
		{raw: "?status=pending", want: service.TaskQuery{Status: "pending", Sort: "created"}},
		{raw: "sort=due_date&status=completed", want: service.TaskQuery{Status: "completed", Sort: "due_date"}},
		{raw: "?status=all&sort=created", want: service.TaskQuery{Status: "all", Sort: "created"}},
		{raw: "?status=done", wantErr: true},
		{raw: "?sort=priority", wantErr: true},
		{raw: "?status=%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := tasks.ParseLocation(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, tasks.ErrInvalidQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocation_Canonical(t *testing.T) {
	assert.Equal(t, "", tasks.Location(service.DefaultTaskQuery()))
	assert.Equal(t, "", tasks.Location(service.TaskQuery{}))
	assert.Equal(t, "?status=pending", tasks.Location(service.TaskQuery{Status: "pending", Sort: "created"}))
	assert.Equal(t, "?sort=due_date&status=pending", tasks.Location(service.TaskQuery{Status: "pending", Sort: "due_date"}))

	for _, raw := range []string{"", "?sort=title", "?sort=due_date&status=completed"} {
		q, err := tasks.ParseLocation(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, tasks.Location(q))
	}
}

func TestController_NavigateForwardsParams(t *testing.T) {
	fake := testutil.NewFakeService()
	c := tasks.NewController(fake, nil)
	ctx := context.Background()

	assert.Equal(t, tasks.PhaseIdle, c.State().Phase)

	require.NoError(t, c.Navigate(ctx, service.TaskQuery{Status: "pending", Sort: "due_date"}))
	require.NoError(t, c.Navigate(ctx, service.DefaultTaskQuery()))

	assert.Equal(t, []string{
		"ListTasks sort=due_date&status=pending",
		"ListTasks",
	}, fake.Calls())
}

func TestController_StatesAreExclusive(t *testing.T) {
	fake := testutil.NewFakeService()
	c := tasks.NewController(fake, nil)
	ctx := context.Background()

	require.NoError(t, c.Navigate(ctx, service.DefaultTaskQuery()))
	s := c.State()
	assert.Equal(t, tasks.PhaseSuccess, s.Phase)
	assert.NotNil(t, s.Tasks)
	assert.Empty(t, s.Tasks)
	assert.NoError(t, s.Err)

	fake.ListTasksErr = errors.New("boom")
	err := c.SetStatus(ctx, service.StatusPending)
	assert.EqualError(t, err, "boom")
	s = c.State()
	assert.Equal(t, tasks.PhaseError, s.Phase)
	assert.Nil(t, s.Tasks)
	assert.EqualError(t, s.Err, "boom")
	assert.Equal(t, service.StatusPending, s.Query.Status)
}

func TestController_SameSelectionIsNoop(t *testing.T) {
	fake := testutil.NewFakeService()
	c := tasks.NewController(fake, nil)
	ctx := context.Background()

	require.NoError(t, c.NavigateLocation(ctx, "?sort=title"))
	require.NoError(t, c.NavigateLocation(ctx, "?status=all&sort=title"))
	require.NoError(t, c.SetSort(ctx, service.SortTitle))
	assert.Len(t, fake.Calls(), 1)

	require.NoError(t, c.Refresh(ctx))
	assert.Len(t, fake.Calls(), 2)
}

func TestController_RetryAfterError(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.ListTasksErr = errors.New("down")
	c := tasks.NewController(fake, nil)
	ctx := context.Background()

	require.Error(t, c.Navigate(ctx, service.DefaultTaskQuery()))
	fake.ListTasksErr = nil
	require.NoError(t, c.Navigate(ctx, service.DefaultTaskQuery()))
	assert.Equal(t, tasks.PhaseSuccess, c.State().Phase)
}

func TestController_SetStatusAndSort(t *testing.T) {
	fake := testutil.NewFakeService()
	c := tasks.NewController(fake, nil)
	ctx := context.Background()

	require.NoError(t, c.SetStatus(ctx, service.StatusCompleted))
	require.NoError(t, c.SetSort(ctx, service.SortDueDate))
	assert.Equal(t, "?sort=due_date&status=completed", c.Location())

	require.NoError(t, c.SetStatus(ctx, service.StatusAll))
	assert.Equal(t, "?sort=due_date", c.Location())

	err := c.SetSort(ctx, "priority")
	assert.ErrorIs(t, err, tasks.ErrInvalidQuery)
	assert.Equal(t, "?sort=due_date", c.Location())
}

func TestController_ServerOrderKept(t *testing.T) {
	fake := testutil.NewFakeService()
	d := func(day int) *time.Time {
		v := time.Date(2026, 2, day, 0, 0, 0, 0, time.UTC)
		return &v
	}
	fake.AddTask("Task A", false, d(5))
	fake.AddTask("Task B", false, d(1))
	fake.AddTask("Task C", false, d(3))

	c := tasks.NewController(fake, nil)
	require.NoError(t, c.SetSort(context.Background(), service.SortDueDate))

	var titles []string
	for _, task := range c.State().Tasks {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"Task B", "Task C", "Task A"}, titles)
}

func TestController_StaleResponseDropped(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("only", true, nil)

	started := make(chan struct{})
	fake.BeforeListTasks = func(ctx context.Context, q service.TaskQuery) error {
		if q.Status != service.StatusPending {
			return nil
		}
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}

	c := tasks.NewController(fake, nil)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() {
		slow <- c.Navigate(ctx, service.TaskQuery{Status: service.StatusPending})
	}()
	<-started

	require.NoError(t, c.Navigate(ctx, service.TaskQuery{Status: service.StatusCompleted}))

	select {
	case err := <-slow:
		assert.ErrorIs(t, err, tasks.ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("stale fetch was not cancelled")
	}

	s := c.State()
	assert.Equal(t, tasks.PhaseSuccess, s.Phase)
	assert.Equal(t, service.StatusCompleted, s.Query.Status)
	require.Len(t, s.Tasks, 1)
	assert.Equal(t, "only", s.Tasks[0].Title)
}

func TestController_SnapshotIsCopy(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("a", false, nil)
	c := tasks.NewController(fake, nil)
	require.NoError(t, c.Refresh(context.Background()))

	s := c.State()
	s.Tasks[0].Title = "mutated"
	assert.Equal(t, "a", c.State().Tasks[0].Title)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", tasks.PhaseIdle.String())
	assert.Equal(t, "loading", tasks.PhaseLoading.String())
	assert.Equal(t, "success", tasks.PhaseSuccess.String())
	assert.Equal(t, "error", tasks.PhaseError.String())
}
