// Package processtest provides a scripted [process.Runner] for tests.
package processtest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.jacobcolvin.com/cargo-heaptrack/process"
)

// Response is the scripted result of one command.
type Response struct {
	Err    error
	Stdout []byte

	// Hook runs when the command is invoked, before the response is returned.
	Hook func(process.Command)
}

// Call records one invocation made through a [Fake].
type Call struct {
	Command process.Command
	// Captured is true for [Fake.Output] calls.
	Captured bool
}

// Fake is a [process.Runner] that never starts processes.
//
// Responses are matched first on "<name> <first arg>", then on "<name>".
// Commands without a response succeed with empty output. Safe for concurrent
// use.
type Fake struct {
	responses map[string]Response
	paths     map[string]string
	calls     []Call
	mu        sync.Mutex
}

// New returns an empty [Fake].
func New() *Fake {
	return &Fake{
		responses: map[string]Response{},
		paths:     map[string]string{},
	}
}

// On scripts the response for commands matching key.
func (f *Fake) On(key string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses[key] = resp

	return f
}

// Install makes [Fake.LookPath] resolve name to path.
func (f *Fake) Install(name, path string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paths[name] = path

	return f
}

// Output implements [process.Runner].
func (f *Fake) Output(_ context.Context, cmd process.Command) ([]byte, error) {
	resp := f.record(cmd, true)
	if resp.Hook != nil {
		resp.Hook(cmd)
	}

	return resp.Stdout, resp.Err
}

// Run implements [process.Runner].
func (f *Fake) Run(_ context.Context, cmd process.Command) error {
	resp := f.record(cmd, false)
	if resp.Hook != nil {
		resp.Hook(cmd)
	}

	return resp.Err
}

// LookPath implements [process.Runner].
func (f *Fake) LookPath(file string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, ok := f.paths[file]
	if !ok {
		return "", fmt.Errorf("%w: %s", process.ErrNotFound, file)
	}

	return path, nil
}

// Calls returns every recorded invocation in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.calls)
}

// CallsTo returns the recorded commands whose name is name.
func (f *Fake) CallsTo(name string) []process.Command {
	var out []process.Command
	for _, c := range f.Calls() {
		if c.Command.Name == name {
			out = append(out, c.Command)
		}
	}

	return out
}

// Exit returns the error a runner reports for a child exiting with code.
func Exit(name string, code int) error {
	return &process.ExitError{Command: name, Code: code}
}

func (f *Fake) record(cmd process.Command, captured bool) Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, Call{Command: cmd, Captured: captured})

	if len(cmd.Args) > 0 {
		if resp, ok := f.responses[cmd.Name+" "+cmd.Args[0]]; ok {
			return resp
		}
	}

	return f.responses[cmd.Name]
}
