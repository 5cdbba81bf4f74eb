package githistory

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a git command in dir and returns its standard output.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary found on PATH.
type ExecRunner struct{}

// Run executes git with non-ASCII path quoting disabled.
func (ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-c", "core.quotepath=off"}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	cmd.Dir = dir

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			// An empty repository has no history; that is not a failure.
			if strings.Contains(stderr, "does not have any commits") {
				return "", nil
			}
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, stderr)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(output), nil
}
