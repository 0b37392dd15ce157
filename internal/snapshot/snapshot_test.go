package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scienceol/sessionctl/internal/procfs"
	"github.com/scienceol/sessionctl/internal/sway"
)

type fakeIPC struct {
	tree       *sway.Node
	workspaces []sway.Workspace
	outputs    []sway.Output
	commands   []string
	failOn     string
}

func (f *fakeIPC) GetTree(context.Context) (*sway.Node, error) { return f.tree, nil }
func (f *fakeIPC) GetWorkspaces(context.Context) ([]sway.Workspace, error) {
	return f.workspaces, nil
}
func (f *fakeIPC) GetOutputs(context.Context) ([]sway.Output, error) { return f.outputs, nil }
func (f *fakeIPC) Run(_ context.Context, command string) error {
	f.commands = append(f.commands, command)
	if command == f.failOn {
		return errors.New("boom")
	}
	return nil
}

func fakeProc(t *testing.T, cmdlines map[int]string) procfs.FS {
	t.Helper()
	root := t.TempDir()
	for pid, cmd := range cmdlines {
		dir := filepath.Join(root, fmt.Sprint(pid))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), []byte(cmd), 0o644))
	}
	return procfs.FS{Root: root}
}

func sampleTree() *sway.Node {
	return &sway.Node{Type: "root", Name: "root", Nodes: []sway.Node{
		{Type: "output", Name: "__i3", Nodes: []sway.Node{
			{Type: "workspace", Name: "__i3_scratch"},
		}},
		{Type: "output", Name: "eDP-1", Nodes: []sway.Node{
			{Type: "workspace", Name: "1", Nodes: []sway.Node{
				{Type: "con", Name: "foot", PID: 101, AppID: "foot", Marks: []string{"a"}},
				{Type: "con", Name: "split", Nodes: []sway.Node{
					{Type: "con", Name: "Firefox", PID: 102, WindowProperties: &sway.WindowProperties{Class: "firefox"}},
				}},
			}},
		}},
		{Type: "output", Name: "DP-2", Nodes: []sway.Node{
			{Type: "workspace", Name: "web", Nodes: []sway.Node{
				{Type: "con", Name: "gone", PID: 103},
			}},
		}},
	}}
}

func TestCapture(t *testing.T) {
	ipc := &fakeIPC{
		tree: sampleTree(),
		workspaces: []sway.Workspace{
			{Name: "1", Output: "eDP-1", Focused: true},
			{Name: "web", Output: "DP-2"},
		},
	}
	m := &Manager{
		IPC:  ipc,
		Proc: fakeProc(t, map[int]string{101: "foot\x00", 102: "firefox\x00--new-window\x00"}),
		Now:  func() time.Time { return time.Unix(1700000000, 500000000) },
	}

	st, err := m.Capture(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 1700000000.5, st.SavedAt, 1e-6)
	assert.Equal(t, []Workspace{{Name: "1", Output: "eDP-1", Focused: true}, {Name: "web", Output: "DP-2"}}, st.Workspaces)
	assert.Equal(t, []Window{
		{Workspace: "1", Output: "eDP-1", PID: 101, AppID: "foot", Title: "foot", Cmd: "foot", Marks: []string{"a"}},
		{Workspace: "1", Output: "eDP-1", PID: 102, WMClass: "firefox", Title: "Firefox", Cmd: "firefox --new-window", Marks: []string{}},
		{Workspace: "web", Output: "DP-2", PID: 103, Title: "gone", Marks: []string{}},
	}, st.Windows)
}

func TestSaveWritesIndentedJSON(t *testing.T) {
	ipc := &fakeIPC{tree: &sway.Node{Type: "root"}}
	path := filepath.Join(t.TempDir(), "nested", "sway-session.json")
	m := &Manager{IPC: ipc}

	_, err := m.Save(context.Background(), path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "saved_at")
	assert.Contains(t, doc, "workspaces")
	assert.Contains(t, string(data), "\n  \"windows\": []")
}

func TestRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sway-session.json")
	require.NoError(t, Write(path, &State{
		Workspaces: []Workspace{
			{Name: "1", Output: "eDP-1"},
			{Name: "web", Output: "HDMI-A-1"},
			{Name: "free"},
			{Name: ""},
		},
		Windows: []Window{
			{Workspace: "1", Cmd: "foot"},
			{Workspace: "web", Cmd: "firefox --new-window"},
			{Workspace: "1", Cmd: ""},
			{Workspace: "", Cmd: "orphan"},
		},
	}))

	ipc := &fakeIPC{outputs: []sway.Output{{Name: "eDP-1"}}}
	var notes []string
	m := &Manager{IPC: ipc, Notify: func(f string, a ...any) { notes = append(notes, fmt.Sprintf(f, a...)) }}

	require.NoError(t, m.Restore(context.Background(), path))

	assert.Equal(t, []string{
		`workspace "1"`,
		`move workspace to output "eDP-1"`,
		`workspace "free"`,
		`workspace "1"`,
		`exec -- foot`,
		`workspace "web"`,
		`exec -- firefox --new-window`,
	}, ipc.commands)
	assert.Equal(t, []string{"Skipping workspace web: output HDMI-A-1 not present"}, notes)
}

func TestRestore_ContinuesPastErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sway-session.json")
	require.NoError(t, Write(path, &State{
		Windows: []Window{{Workspace: "1", Cmd: "foot"}, {Workspace: "2", Cmd: "mpv"}},
	}))
	ipc := &fakeIPC{failOn: "exec -- foot"}

	err := (&Manager{IPC: ipc}).Restore(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, ipc.commands, "exec -- mpv")
}

func TestRestore_MissingFile(t *testing.T) {
	err := (&Manager{IPC: &fakeIPC{}}).Restore(context.Background(), filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state file not found")
}
