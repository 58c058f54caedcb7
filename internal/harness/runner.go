// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type (
	// Result is the outcome of a child runner execution.
	Result struct {
		ExitCode int
		Error    error
	}

	// IO bundles the child runner's standard streams.
	IO struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runner executes the child test-runner process and reports its exit
	// code. A non-zero child exit is a normal Result, not an Error.
	Runner interface {
		// Name identifies the runner mode.
		Name() string
		// Run executes the child in dir with the given extra environment
		// (KEY=VALUE entries appended to the inherited environment).
		Run(ctx context.Context, dir string, extraEnv []string, stdio IO) *Result
	}

	// NativeRunner spawns the child argv directly.
	NativeRunner struct {
		Argv []string
	}

	// VirtualRunner interprets a shell command line with the embedded
	// mvdan/sh interpreter, so harness invocations behave identically on
	// hosts without a POSIX shell.
	VirtualRunner struct {
		Script string
	}
)

// Name returns the runner mode name.
func (r *NativeRunner) Name() string { return "native" }

// Run executes the child argv with exec, mapping exec.ExitError to the
// child's exit code.
func (r *NativeRunner) Run(ctx context.Context, dir string, extraEnv []string, stdio IO) *Result {
	if len(r.Argv) == 0 {
		return &Result{ExitCode: 1, Error: errors.New("no runner command given")}
	}

	cmd := exec.CommandContext(ctx, r.Argv[0], r.Argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{ExitCode: exitErr.ExitCode()}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to run %s: %w", r.Argv[0], err)}
	}

	return &Result{ExitCode: 0}
}

// Name returns the runner mode name.
func (r *VirtualRunner) Name() string { return "virtual" }

// Run parses and interprets the shell command line.
func (r *VirtualRunner) Run(ctx context.Context, dir string, extraEnv []string, stdio IO) *Result {
	if strings.TrimSpace(r.Script) == "" {
		return &Result{ExitCode: 1, Error: errors.New("no runner script given")}
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(r.Script), "runner")
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to parse runner script: %w", err)}
	}

	env := append(os.Environ(), extraEnv...)
	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(stdio.Stdin, stdio.Stdout, stdio.Stderr),
	)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("failed to create interpreter: %w", err)}
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: int(exitStatus)}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("runner script failed: %w", err)}
	}

	return &Result{ExitCode: 0}
}
