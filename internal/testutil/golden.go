package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set.
const UpdateGoldenEnv = "TASKCHAT_UPDATE_GOLDEN"

// Golden compares got with testdata/<name>.golden in the calling package.
func Golden(t *testing.T, name string, got []byte) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")
	if os.Getenv(UpdateGoldenEnv) != "" {
		require.NoError(t, os.MkdirAll("testdata", 0755))
		require.NoError(t, os.WriteFile(path, got, 0644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "missing golden file; rerun with %s=1", UpdateGoldenEnv)
	assert.Equal(t, string(want), string(got), "output differs from %s", path)
}
