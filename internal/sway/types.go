package sway

// Node is a container in the tree returned by "swaymsg -t get_tree".
// Only the fields sessionctl reads are decoded.
type Node struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	PID              int               `json:"pid,omitempty"`
	AppID            string            `json:"app_id,omitempty"`
	Marks            []string          `json:"marks,omitempty"`
	WindowProperties *WindowProperties `json:"window_properties,omitempty"`
	Nodes            []Node            `json:"nodes"`
	FloatingNodes    []Node            `json:"floating_nodes"`
}

// WindowProperties is only present for Xwayland windows.
type WindowProperties struct {
	Class    string `json:"class"`
	Instance string `json:"instance"`
	Title    string `json:"title"`
}

// Workspace is one entry of "swaymsg -t get_workspaces".
type Workspace struct {
	Num     int    `json:"num"`
	Name    string `json:"name"`
	Output  string `json:"output"`
	Focused bool   `json:"focused"`
	Visible bool   `json:"visible"`
}

// Output is one entry of "swaymsg -t get_outputs".
type Output struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Power  bool   `json:"power"`
}

// CommandReply is one element of the array sway answers a command with.
type CommandReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
