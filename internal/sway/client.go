// Package sway talks to the compositor through its IPC command line tool.
package sway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/scienceol/sessionctl/internal/runner"
)

// Client runs swaymsg. Command defaults to "swaymsg".
type Client struct {
	Runner  runner.Runner
	Command string
}

func NewClient(r runner.Runner, command string) *Client {
	return &Client{Runner: r, Command: command}
}

func (c *Client) command() string {
	if c.Command == "" {
		return "swaymsg"
	}
	return c.Command
}

// Run sends a sway command such as `workspace "3"`. A reply with
// success=false is returned as an error.
func (c *Client) Run(ctx context.Context, command string) error {
	res := c.Runner.Run(ctx, runner.Cmd{Name: c.command(), Args: []string{command}})
	if err := res.Error(); err != nil {
		return fmt.Errorf("swaymsg %q: %w", command, err)
	}

	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return nil
	}
	var replies []CommandReply
	if err := json.Unmarshal([]byte(out), &replies); err != nil {
		// older swaymsg prints nothing machine readable on success
		return nil
	}
	var errs []error
	for _, r := range replies {
		if !r.Success {
			errs = append(errs, errors.New(r.Error))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("swaymsg %q: %w", command, errors.Join(errs...))
	}
	return nil
}

// SetOutputPower toggles DPMS on every output.
func (c *Client) SetOutputPower(ctx context.Context, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	res := c.Runner.Run(ctx, runner.Cmd{
		Name: c.command(),
		Args: []string{"output", "*", "power", state},
	})
	if err := res.Error(); err != nil {
		return fmt.Errorf("output power %s: %w", state, err)
	}
	return nil
}

// Exit ends the sway session.
func (c *Client) Exit(ctx context.Context) error {
	res := c.Runner.Run(ctx, runner.Cmd{Name: c.command(), Args: []string{"exit"}})
	if err := res.Error(); err != nil {
		return fmt.Errorf("swaymsg exit: %w", err)
	}
	return nil
}

func (c *Client) GetTree(ctx context.Context) (*Node, error) {
	var n Node
	if err := c.query(ctx, "get_tree", &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) GetWorkspaces(ctx context.Context) ([]Workspace, error) {
	var ws []Workspace
	if err := c.query(ctx, "get_workspaces", &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (c *Client) GetOutputs(ctx context.Context) ([]Output, error) {
	var outs []Output
	if err := c.query(ctx, "get_outputs", &outs); err != nil {
		return nil, err
	}
	return outs, nil
}

func (c *Client) query(ctx context.Context, msgType string, v any) error {
	res := c.Runner.Run(ctx, runner.Cmd{
		Name: c.command(),
		Args: []string{"-r", "-t", msgType},
	})
	if err := res.Error(); err != nil {
		return fmt.Errorf("swaymsg -t %s: %w", msgType, err)
	}
	if err := json.Unmarshal([]byte(res.Stdout), v); err != nil {
		return fmt.Errorf("decode %s reply: %w", msgType, err)
	}
	return nil
}
