package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskchat/internal/cli"
	"taskchat/internal/commands"
	"taskchat/internal/config"
	"taskchat/internal/exitcode"
	"taskchat/internal/service"
	"taskchat/internal/testutil"
)

// testFactory creates a service factory that returns the given FakeService
// and records the config it was called with.
func testFactory(svc *testutil.FakeService, seen **config.Config) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		if seen != nil {
			*seen = cfg
		}
		return svc, nil
	}
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{config.EnvBaseURL, config.EnvTimeout, config.EnvDebug, config.EnvToken} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	isolate(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, d, "unknowncmd")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unknown command: unknowncmd\n", stderr)
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	isolate(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, d, "--quiet")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: unknown command: --quiet\n", stderr)
}

func TestDispatcher_NoArgsListsTasks(t *testing.T) {
	isolate(t)
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false, nil)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil))

	stdout, stderr, code := run(t, d)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "   1  [ ] Buy milk\n", stdout)
}

func TestDispatcher_HelpAndVersionSkipBackend(t *testing.T) {
	isolate(t)
	called := false
	d := cli.NewDispatcher(commands.DefaultRegistry, func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		called = true
		return nil, errors.New("unreachable")
	})

	stdout, _, code := run(t, d, "help")
	assert.Equal(t, exitcode.Success, code)
	assert.Contains(t, stdout, "Usage:")

	stdout, _, code = run(t, d, "version")
	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "taskchat 0.1.0\n", stdout)
	assert.False(t, called)
}

func TestDispatcher_CommandHelpFlag(t *testing.T) {
	isolate(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), nil))

	stdout, _, code := run(t, d, "add", "--help")

	assert.Equal(t, exitcode.Success, code)
	assert.Contains(t, stdout, "taskchat add")
	assert.Contains(t, stdout, "--description")
	assert.Contains(t, stdout, "--timeout")
}

func TestDispatcher_FlagErrors(t *testing.T) {
	isolate(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), nil))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"list", "--unknown"}, "unknown flag: --unknown"},
		{"missing value", []string{"list", "--status"}, "flag needs an argument: --status"},
		{"bad duration", []string{"list", "--timeout", "soon"}, "--timeout"},
		{"non-positive timeout", []string{"list", "--timeout", "0s"}, "error: invalid timeout: 0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := run(t, d, tt.args...)
			assert.Equal(t, exitcode.UserError, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestDispatcher_CommonFlagsReachConfig(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	var seen *config.Config
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), &seen))

	stdout, _, code := run(t, d, "ls", "--config", dir, "--api", "http://example.test:9000/", "--timeout", "3s", "-q")

	require.Equal(t, exitcode.Success, code)
	assert.Empty(t, stdout)
	require.NotNil(t, seen)
	assert.Equal(t, dir, seen.Dir)
	assert.Equal(t, "http://example.test:9000", seen.BaseURL)
	assert.Equal(t, 3*time.Second, seen.Timeout)
	assert.True(t, seen.Quiet)
	assert.NotNil(t, seen.Logger)
}

func TestDispatcher_DebugLogsToStderr(t *testing.T) {
	isolate(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, d, "list", "--debug")

	assert.Equal(t, exitcode.Success, code)
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "command=list")
}

func TestDispatcher_FactoryError(t *testing.T) {
	isolate(t)
	d := cli.NewDispatcher(commands.DefaultRegistry, func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return nil, errors.New("bad endpoint")
	})

	_, stderr, code := run(t, d, "chats")

	assert.Equal(t, exitcode.BackendError, code)
	assert.Equal(t, "error: backend error: bad endpoint\n", stderr)
}

func TestDispatcher_InvalidSettings(t *testing.T) {
	dir := isolate(t)
	cfgDir := filepath.Join(dir, config.AppName)
	require.NoError(t, os.MkdirAll(cfgDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, config.SettingsFile), []byte("timeout: [\n"), 0600))
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, d, "list")

	assert.Equal(t, exitcode.UserError, code)
	assert.True(t, strings.HasPrefix(stderr, "error: "))
}

func TestDispatcher_InputReachesCommand(t *testing.T) {
	isolate(t)
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk", false, nil)
	d := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc, nil)).
		WithInput(strings.NewReader("yes\n"))

	stdout, stderr, code := run(t, d, "delete", "1")

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok\n", stdout)
	assert.Equal(t, "Delete this task? [y/N] ", stderr)
	assert.Empty(t, svc.Tasks())
}

func TestDispatcher_LoginThenLogout(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	d := cli.NewDispatcher(commands.DefaultRegistry, nil).WithInput(strings.NewReader("secret-token\n"))

	stdout, _, code := run(t, d, "login", "--config", dir, "-q")
	require.Equal(t, exitcode.Success, code)
	assert.Empty(t, stdout)
	assert.FileExists(t, filepath.Join(dir, config.TokenFile))

	stdout, _, code = run(t, d, "logout", "--config", dir)
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok\n", stdout)
	assert.NoFileExists(t, filepath.Join(dir, config.TokenFile))

	stdout, _, code = run(t, d, "logout", "--config", dir)
	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "not logged in\n", stdout)
}
