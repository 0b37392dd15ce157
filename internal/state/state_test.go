package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T) *LockState {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "sway-lock.mutex"), filepath.Join(dir, "sway-lock-idle.pid"))
}

func TestAcquire_Exclusive(t *testing.T) {
	first := newState(t)
	second := New(first.LockPath, first.PIDPath)

	require.NoError(t, first.Acquire())
	assert.True(t, first.Held())

	err := second.Acquire()
	assert.ErrorIs(t, err, ErrLocked)
	assert.False(t, second.Held())

	// re-acquire by the holder is a no-op
	require.NoError(t, first.Acquire())

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
	require.NoError(t, second.Release())
	require.NoError(t, second.Release())
}

func TestAcquire_ContentionLeavesPIDFileAlone(t *testing.T) {
	holder := newState(t)
	require.NoError(t, holder.Acquire())
	t.Cleanup(func() { _ = holder.Release() })
	require.NoError(t, holder.WritePID(4242))

	other := New(holder.LockPath, holder.PIDPath)
	require.ErrorIs(t, other.Acquire(), ErrLocked)

	pid, err := holder.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)
}

func TestPIDFile_RoundTrip(t *testing.T) {
	s := newState(t)

	_, err := s.ReadPID()
	assert.ErrorIs(t, err, ErrNoPID)
	assert.False(t, s.PIDFileExists())

	require.NoError(t, s.WritePID(31337))
	assert.True(t, s.PIDFileExists())

	raw, err := os.ReadFile(s.PIDPath)
	require.NoError(t, err)
	assert.Equal(t, "31337\n", string(raw))

	pid, err := s.ReadPID()
	require.NoError(t, err)
	assert.Equal(t, 31337, pid)

	require.NoError(t, s.RemovePID())
	require.NoError(t, s.RemovePID())
	assert.False(t, s.PIDFileExists())
}

func TestReadPID_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		noPID   bool
	}{
		{name: "empty", content: "", noPID: true},
		{name: "whitespace", content: " \n", noPID: true},
		{name: "garbage", content: "swayidle"},
		{name: "negative", content: "-5"},
		{name: "zero", content: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t)
			require.NoError(t, os.WriteFile(s.PIDPath, []byte(tt.content), 0o644))

			_, err := s.ReadPID()
			require.Error(t, err)
			if tt.noPID {
				assert.ErrorIs(t, err, ErrNoPID)
			} else {
				assert.NotErrorIs(t, err, ErrNoPID)
			}
		})
	}
}
