// Package runnertest provides a recording runner.Runner for tests.
package runnertest

import (
	"context"
	"io"
	"sync"

	"github.com/scienceol/sessionctl/internal/runner"
)

// Call is one recorded invocation. Stdin holds whatever the command was fed.
type Call struct {
	Cmd   runner.Cmd
	Stdin string
}

// Recorder records every command and answers with canned results.
// Respond, when set, takes precedence over Results.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	Results map[string]runner.Result
	Respond func(ctx context.Context, c runner.Cmd) runner.Result
}

func (r *Recorder) Run(ctx context.Context, c runner.Cmd) runner.Result {
	var stdin string
	if c.Stdin != nil {
		b, _ := io.ReadAll(c.Stdin)
		stdin = string(b)
	}

	r.mu.Lock()
	r.calls = append(r.calls, Call{Cmd: c, Stdin: stdin})
	respond := r.Respond
	res, ok := r.Results[c.String()]
	r.mu.Unlock()

	if respond != nil {
		return respond(ctx, c)
	}
	if ok {
		return res
	}
	return runner.Result{}
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Commands returns the recorded command lines.
func (r *Recorder) Commands() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Cmd.String()
	}
	return out
}

// Count returns how many times the command line was run.
func (r *Recorder) Count(line string) int {
	n := 0
	for _, c := range r.Commands() {
		if c == line {
			n++
		}
	}
	return n
}
