package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// maxErrorOutput bounds how much tool output is attached to an error
const maxErrorOutput = 512

// Runner defines the interface for running external commands
// This allows mocking exec.Command in tests
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner is the production implementation using os/exec.
// Output of concurrent tools is captured rather than interleaved on the terminal.
type ExecRunner struct{}

// Run executes a command and returns any error with the tail of its output
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if tail := lastBytes(out.String(), maxErrorOutput); tail != "" {
			return fmt.Errorf("%w: %s", err, tail)
		}
		return err
	}
	return nil
}

// Output executes a command and returns its output
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

func lastBytes(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

// Ensure ExecRunner implements Runner
var _ Runner = (*ExecRunner)(nil)
