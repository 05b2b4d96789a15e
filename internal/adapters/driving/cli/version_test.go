package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	original := version
	SetVersion(v)
	t.Cleanup(func() { version = original })
}

func TestVersionCmd_PrintsBuildInfo(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()
	withVersion(t, "1.2.3")

	out, err := execute(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "sercha-rag 1.2.3")
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCmd_Short(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()
	withVersion(t, "dev")

	out, err := execute(t, "", "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	cleanup := setupTestServices(t)
	defer cleanup()

	_, err := execute(t, "", "version", "extra")

	assert.Error(t, err)
}
