// SPDX-License-Identifier: MPL-2.0

// Package launch spawns the provisioned artifact under its host runtime
// and forwards the child's exit status unchanged.
package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrRuntimeNotFound indicates the host runtime binary (e.g. node) could
// not be located on PATH.
var ErrRuntimeNotFound = errors.New("host runtime not found")

// Invoker runs `<runtime> <artifact-path> <args...>` as a subprocess with
// inherited stdio.
type Invoker struct {
	// Runtime is the host interpreter binary.
	Runtime string
	// ArtifactPath is the cached artifact passed as the first argument.
	ArtifactPath string
	// Dir overrides the child's working directory when non-empty.
	Dir string
}

// Invoke spawns the runtime with the artifact and the forwarded args,
// waits for completion, and returns the child's exit code unchanged.
// A non-zero child exit is not an error; only launch failures (missing
// runtime, permission problems) return a non-nil error, with exit code 1.
func (i *Invoker) Invoke(ctx context.Context, args []string) (int, error) {
	if _, err := exec.LookPath(i.Runtime); err != nil {
		return 1, fmt.Errorf("%w: %s: %v", ErrRuntimeNotFound, i.Runtime, err)
	}

	argv := append([]string{i.ArtifactPath}, args...)
	cmd := exec.CommandContext(ctx, i.Runtime, argv...)

	if i.Dir != "" {
		cmd.Dir = i.Dir
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("failed to launch %s: %w", i.Runtime, err)
	}

	return 0, nil
}
