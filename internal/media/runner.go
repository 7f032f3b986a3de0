package media

import (
	"context"
	"errors"
	"os"
	"os/exec"
)

// CommandRunner executes an external binary and returns its combined output.
// Tests substitute a fake that writes the expected output files.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ExitCode extracts the process exit status, or -1 when the command never ran.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// nonEmptyFile reports whether path is a regular file with content.
func nonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

func trimOutput(out []byte) string {
	const limit = 2048
	s := string(out)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}
