// Package commandtest provides a recording command.Runner for adapter tests
package commandtest

import (
	"context"
	"sync"
)

// Call is one recorded invocation
type Call struct {
	Name string
	Args []string
}

// Runner records invocations and returns canned results
type Runner struct {
	mu        sync.Mutex
	Calls     []Call
	RunErr    error
	OutputErr error
	Out       []byte

	// FailFor makes Run fail only when the predicate matches
	FailFor func(args []string) bool
}

// Run implements command.Runner
func (r *Runner) Run(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, Call{Name: name, Args: append([]string(nil), args...)})
	if r.FailFor != nil && !r.FailFor(args) {
		return nil
	}
	return r.RunErr
}

// Output implements command.Runner
func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, Call{Name: name, Args: append([]string(nil), args...)})
	return r.Out, r.OutputErr
}

// Recorded returns a copy of the calls made so far
func (r *Runner) Recorded() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.Calls...)
}
