// Package snapshot saves the tiling layout of a sway session to disk and
// relaunches it later: workspaces on their outputs, and the command line of
// every window that had a process behind it. Restoring is best effort;
// windows come back where sway places them on their workspace.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/scienceol/sessionctl/internal/procfs"
	"github.com/scienceol/sessionctl/internal/sway"
)

// State is the on-disk document.
type State struct {
	SavedAt    float64     `json:"saved_at"`
	Workspaces []Workspace `json:"workspaces"`
	Windows    []Window    `json:"windows"`
}

type Workspace struct {
	Name    string `json:"name"`
	Output  string `json:"output"`
	Focused bool   `json:"focused"`
}

type Window struct {
	Workspace string   `json:"workspace"`
	Output    string   `json:"output"`
	PID       int      `json:"pid"`
	AppID     string   `json:"app_id"`
	WMClass   string   `json:"wm_class"`
	Title     string   `json:"title"`
	Cmd       string   `json:"cmd"`
	Marks     []string `json:"marks"`
}

// IPC is the part of the sway client the snapshot needs.
type IPC interface {
	GetTree(ctx context.Context) (*sway.Node, error)
	GetWorkspaces(ctx context.Context) ([]sway.Workspace, error)
	GetOutputs(ctx context.Context) ([]sway.Output, error)
	Run(ctx context.Context, command string) error
}

// Notifier receives progress messages meant for the user.
type Notifier func(format string, args ...any)

type Manager struct {
	IPC  IPC
	Proc procfs.FS
	Now  func() time.Time
	// Notify may be nil.
	Notify Notifier
}

func (m *Manager) notify(format string, args ...any) {
	if m.Notify != nil {
		m.Notify(format, args...)
	}
}

// Capture reads the current session from sway.
func (m *Manager) Capture(ctx context.Context) (*State, error) {
	tree, err := m.IPC.GetTree(ctx)
	if err != nil {
		return nil, err
	}
	workspaces, err := m.IPC.GetWorkspaces(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	st := &State{
		SavedAt:    float64(now().UnixNano()) / float64(time.Second),
		Workspaces: make([]Workspace, 0, len(workspaces)),
		Windows:    m.collectWindows(tree),
	}
	for _, ws := range workspaces {
		st.Workspaces = append(st.Workspaces, Workspace{Name: ws.Name, Output: ws.Output, Focused: ws.Focused})
	}
	return st, nil
}

// collectWindows walks the tiling tree depth first, tracking the enclosing
// output and workspace. Floating windows are not part of a snapshot.
func (m *Manager) collectWindows(root *sway.Node) []Window {
	windows := []Window{}

	var walk func(n *sway.Node, output, workspace string)
	walk = func(n *sway.Node, output, workspace string) {
		switch n.Type {
		case "output":
			output = n.Name
		case "workspace":
			workspace = n.Name
		}

		if n.PID != 0 && n.Type == "con" {
			w := Window{
				Workspace: workspace,
				Output:    output,
				PID:       n.PID,
				AppID:     n.AppID,
				Title:     n.Name,
				Cmd:       m.Proc.Cmdline(n.PID),
				Marks:     n.Marks,
			}
			if w.Marks == nil {
				w.Marks = []string{}
			}
			if n.WindowProperties != nil {
				w.WMClass = n.WindowProperties.Class
			}
			windows = append(windows, w)
		}

		for i := range n.Nodes {
			walk(&n.Nodes[i], output, workspace)
		}
	}
	walk(root, "", "")
	return windows
}

// Save captures the session and writes it to path, creating parent
// directories as needed.
func (m *Manager) Save(ctx context.Context, path string) (*State, error) {
	st, err := m.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if err := Write(path, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Restore recreates workspaces on their recorded outputs and relaunches
// every saved window command on its workspace.
func (m *Manager) Restore(ctx context.Context, path string) error {
	st, err := Read(path)
	if err != nil {
		return err
	}

	outputs, err := m.IPC.GetOutputs(ctx)
	if err != nil {
		return err
	}
	available := make(map[string]bool, len(outputs))
	for _, o := range outputs {
		available[o.Name] = true
	}

	var errs []error
	for _, ws := range st.Workspaces {
		if ws.Name == "" {
			continue
		}
		if ws.Output != "" && !available[ws.Output] {
			m.notify("Skipping workspace %s: output %s not present", ws.Name, ws.Output)
			continue
		}
		if err := m.IPC.Run(ctx, "workspace "+strconv.Quote(ws.Name)); err != nil {
			errs = append(errs, err)
			continue
		}
		if ws.Output != "" {
			if err := m.IPC.Run(ctx, "move workspace to output "+strconv.Quote(ws.Output)); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, w := range st.Windows {
		if w.Cmd == "" || w.Workspace == "" {
			continue
		}
		if err := m.IPC.Run(ctx, "workspace "+strconv.Quote(w.Workspace)); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := m.IPC.Run(ctx, "exec -- "+w.Cmd); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Read loads a state file.
func Read(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("state file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", path, err)
	}
	return &st, nil
}

// Write stores st as indented JSON.
func Write(path string, st *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
