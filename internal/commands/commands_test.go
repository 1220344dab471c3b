package commands_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskchat/internal/commands"
	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/service"
	"taskchat/internal/testutil"
)

// runCommand parses args with the command's flags and runs it against svc.
// stdin feeds confirmations and interactive input.
func runCommand(t *testing.T, cfg *config.Config, cmd commands.Command, svc service.Service, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()

	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	cmd.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))

	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(context.Background(), cfg, svc, fs.Args(), strings.NewReader(stdin), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{Dir: t.TempDir()}
}

var (
	unauthorized = &service.RequestError{Kind: service.KindHTTP, Status: 401, Message: "Not authenticated"}
	unreachable  = &service.RequestError{Kind: service.KindNetwork, Message: "Network error: Unable to connect to http://localhost:8000. Make sure the backend server is running."}
)

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, newConfig(t), &commands.VersionCmd{}, nil, "")

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "taskchat 0.1.0\n", stdout)
}

func TestHelpCommand(t *testing.T) {
	stdout, _, code := runCommand(t, newConfig(t), &commands.HelpCmd{}, nil, "")
	assert.Equal(t, exitcode.Success, code)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "taskchat say")

	stdout, _, code = runCommand(t, newConfig(t), &commands.HelpCmd{}, nil, "", "rm")
	assert.Equal(t, exitcode.Success, code)
	assert.Contains(t, stdout, "taskchat rm [--yes]")

	_, stderr, code := runCommand(t, newConfig(t), &commands.HelpCmd{}, nil, "", "bogus")
	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unknown command: bogus\n", stderr)
}

func TestRegistry_AliasesResolve(t *testing.T) {
	for alias, name := range map[string]string{
		"ls":     "list",
		"create": "add",
		"toggle": "done",
		"delete": "rm",
		"send":   "say",
	} {
		cmd, ok := commands.DefaultRegistry.Find(alias)
		require.True(t, ok, alias)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := commands.NewRegistry()
	require.NoError(t, r.Register(&commands.ListCmd{}))
	assert.Error(t, r.Register(&commands.ListCmd{}))
	assert.Len(t, r.All(), 1)
}

func TestListCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false, nil)
	svc.AddTask("Call mom", true, nil)

	stdout, stderr, code := runCommand(t, newConfig(t), &commands.ListCmd{}, svc, "")

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "   1  [x] Call mom\n   2  [ ] Buy milk\n", stdout)
	assert.Equal(t, []string{"ListTasks"}, svc.Calls())
}

func TestListCommand_Query(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"location", []string{"?status=pending&sort=title"}, "ListTasks sort=title&status=pending"},
		{"flags", []string{"--status", "pending", "--sort", "title"}, "ListTasks sort=title&status=pending"},
		{"flag overrides location", []string{"-s", "completed", "status=pending"}, "ListTasks status=completed"},
		{"defaults omitted", []string{"status=all&sort=created"}, "ListTasks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			_, _, code := runCommand(t, newConfig(t), &commands.ListCmd{}, svc, "", tt.args...)
			assert.Equal(t, exitcode.Success, code)
			assert.Equal(t, []string{tt.want}, svc.Calls())
		})
	}
}

func TestListCommand_Empty(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, _, code := runCommand(t, newConfig(t), &commands.ListCmd{}, svc, "")
	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "no tasks found\n", stdout)

	cfg := newConfig(t)
	cfg.Quiet = true
	stdout, _, code = runCommand(t, cfg, &commands.ListCmd{}, svc, "")
	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stdout)
}

func TestListCommand_InvalidQuery(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := runCommand(t, newConfig(t), &commands.ListCmd{}, svc, "", "--sort", "priority")

	assert.Equal(t, exitcode.UserError, code)
	assert.Contains(t, stderr, "priority")
	assert.Empty(t, svc.Calls())
}

func TestListCommand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		stderr string
	}{
		{"auth", unauthorized, exitcode.AuthError, "error: auth error: Not authenticated (run: taskchat login)\n"},
		{"network", unreachable, exitcode.BackendError, "error: " + unreachable.Message + "\n"},
		{"server", &service.RequestError{Kind: service.KindHTTP, Status: 500, Message: "boom"}, exitcode.BackendError, "error: backend error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.ListTasksErr = tt.err

			stdout, stderr, code := runCommand(t, newConfig(t), &commands.ListCmd{}, svc, "")
			assert.Equal(t, tt.code, code)
			assert.Empty(t, stdout)
			assert.Equal(t, tt.stderr, stderr)
		})
	}
}

func TestAddCommand(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := runCommand(t, newConfig(t), &commands.AddCmd{}, svc, "",
		"-d", "2 litres", "--due", "2026-03-01", "Buy", "milk")

	require.Equal(t, exitcode.Success, code, stderr)
	assert.Equal(t, "ok\n", stdout)
	assert.Equal(t, []string{"CreateTask Buy milk", "ListTasks"}, svc.Calls())

	stored := svc.Tasks()
	require.Len(t, stored, 1)
	assert.Equal(t, "Buy milk", stored[0].Title)
}

func TestAddCommand_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"no title", nil, "error: title required\n"},
		{"blank title", []string{"   "}, "error: Title must be 1-200 characters\n"},
		{"long title", []string{strings.Repeat("x", 201)}, "error: Title must be 1-200 characters\n"},
		{"bad due date", []string{"--due", "someday", "Buy milk"}, "error: Invalid due date\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			_, stderr, code := runCommand(t, newConfig(t), &commands.AddCmd{}, svc, "", tt.args...)
			assert.Equal(t, exitcode.UserError, code)
			assert.Equal(t, tt.stderr, stderr)
			assert.Empty(t, svc.Calls())
		})
	}
}

func TestAddCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.CreateTaskErr = &service.RequestError{Kind: service.KindHTTP, Status: 422, Message: "title: field required"}

	_, stderr, code := runCommand(t, newConfig(t), &commands.AddCmd{}, svc, "", "Buy milk")

	assert.Equal(t, exitcode.BackendError, code)
	assert.Equal(t, "error: backend error: title: field required\n", stderr)
	assert.Equal(t, []string{"CreateTask Buy milk"}, svc.Calls())
}

func TestDoneCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	milk := svc.AddTask("Buy milk", false, nil)

	stdout, _, code := runCommand(t, newConfig(t), &commands.DoneCmd{}, svc, "", "1")
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok: completed\n", stdout)
	assert.Equal(t, []string{"ListTasks", "UpdateTask " + string(milk.ID)}, svc.Calls())
	assert.True(t, svc.Tasks()[0].Completed)

	stdout, _, code = runCommand(t, newConfig(t), &commands.DoneCmd{}, svc, "", "1")
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok: pending\n", stdout)
	assert.False(t, svc.Tasks()[0].Completed)
}

func TestDoneCommand_NumberedWithinQuery(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false, nil)
	svc.AddTask("Call mom", true, nil)
	svc.AddTask("Walk dog", false, nil)

	_, _, code := runCommand(t, newConfig(t), &commands.DoneCmd{}, svc, "", "--status", "pending", "--sort", "title", "2")
	require.Equal(t, exitcode.Success, code)

	for _, task := range svc.Tasks() {
		assert.Equal(t, task.Title != "Buy milk", task.Completed, task.Title)
	}
}

func TestDoneCommand_BadNumber(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"missing", nil, "error: task number required\n"},
		{"not a number", []string{"abc"}, "error: invalid task number: abc\n"},
		{"zero", []string{"0"}, "error: task number out of range: 0\n"},
		{"past the end", []string{"5"}, "error: task number out of range: 5\n"},
		{"extra argument", []string{"1", "2"}, "error: unexpected argument: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.AddTask("Buy milk", false, nil)

			_, stderr, code := runCommand(t, newConfig(t), &commands.DoneCmd{}, svc, "", tt.args...)
			assert.Equal(t, exitcode.UserError, code)
			assert.Equal(t, tt.stderr, stderr)
		})
	}
}

func TestDoneCommand_BackendErrorLeavesTask(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false, nil)
	svc.UpdateTaskErr = unreachable

	_, _, code := runCommand(t, newConfig(t), &commands.DoneCmd{}, svc, "", "1")

	assert.Equal(t, exitcode.BackendError, code)
	assert.False(t, svc.Tasks()[0].Completed)
}

func TestRmCommand_Confirmation(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		deleted bool
		stdout  string
		stderr  string
	}{
		{"declined", "n\n", []string{"1"}, false, "", "Delete this task? [y/N] "},
		{"no answer", "", []string{"1"}, false, "", "Delete this task? [y/N] "},
		{"confirmed", "y\n", []string{"1"}, true, "ok\n", "Delete this task? [y/N] "},
		{"yes flag", "", []string{"--yes", "1"}, true, "ok\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			svc.AddTask("Buy milk", false, nil)

			stdout, stderr, code := runCommand(t, newConfig(t), &commands.RmCmd{}, svc, tt.stdin, tt.args...)
			assert.Equal(t, exitcode.Success, code)
			assert.Equal(t, tt.stdout, stdout)
			assert.Equal(t, tt.stderr, stderr)
			assert.Equal(t, tt.deleted, len(svc.Tasks()) == 0)
		})
	}
}

func TestRmCommand_Refreshes(t *testing.T) {
	svc := testutil.NewFakeService()
	milk := svc.AddTask("Buy milk", false, nil)

	_, _, code := runCommand(t, newConfig(t), &commands.RmCmd{}, svc, "", "-y", "-s", "pending", "1")

	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, []string{
		"ListTasks status=pending",
		"DeleteTask " + string(milk.ID),
		"ListTasks status=pending",
	}, svc.Calls())
}

func TestRmCommand_NotFound(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false, nil)
	svc.DeleteTaskErr = testutil.ErrNotFound

	_, stderr, code := runCommand(t, newConfig(t), &commands.RmCmd{}, svc, "", "--yes", "1")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: Not found\n", stderr)
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
