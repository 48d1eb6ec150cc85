package process

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the program could not be found in PATH.
	ErrNotFound = errors.New("executable not found")
	// ErrStart indicates the program could not be started.
	ErrStart = errors.New("start process")
)

// ExitError reports a child process that ran and exited with a non-zero
// status.
type ExitError struct {
	Command string
	Code    int
}

// Error implements error.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// ExitCode returns the child's exit status.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// ExitCode maps err to a process exit status: 0 for nil, the child's status
// when err wraps a failed child process, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) && coder.ExitCode() > 0 {
		return coder.ExitCode()
	}

	return 1
}
