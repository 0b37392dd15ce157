package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TimestampFirst(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Info("idle trigger fired", "trigger", "timeout")

	line := strings.TrimSpace(buf.String())
	require.True(t, strings.HasPrefix(line, "time="), line)

	stamp := strings.TrimPrefix(strings.Fields(line)[0], "time=")
	_, err := time.Parse(time.RFC3339, stamp)
	assert.NoError(t, err)
	assert.Contains(t, line, `msg="idle trigger fired"`)
	assert.Contains(t, line, "trigger=timeout")
}

func TestOpen_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sway-lock.log")

	for _, msg := range []string{"first", "second"} {
		f, err := Open(path)
		require.NoError(t, err)
		f.Logger.Info(msg)
		require.NoError(t, f.Close())
		require.NoError(t, f.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "msg=first")
	assert.Contains(t, lines[1], "msg=second")
}

func TestOpen_FallsBack(t *testing.T) {
	f, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	require.Error(t, err)
	require.NotNil(t, f.Logger)
	assert.NoError(t, f.Close())
}
