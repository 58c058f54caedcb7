// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
)

func testIO(out, errw *bytes.Buffer) IO {
	return IO{Stdin: strings.NewReader(""), Stdout: out, Stderr: errw}
}

func TestNativeRunnerExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	tests := []struct {
		name string
		argv []string
		want int
	}{
		{name: "success", argv: []string{"sh", "-c", "exit 0"}, want: 0},
		{name: "failure", argv: []string{"sh", "-c", "exit 7"}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, errw bytes.Buffer
			r := &NativeRunner{Argv: tt.argv}

			res := r.Run(context.Background(), t.TempDir(), nil, testIO(&out, &errw))
			if res.Error != nil {
				t.Fatalf("Run() error: %v", res.Error)
			}
			if res.ExitCode != tt.want {
				t.Errorf("ExitCode = %d, want %d", res.ExitCode, tt.want)
			}
		})
	}
}

func TestNativeRunnerMissingCommand(t *testing.T) {
	var out, errw bytes.Buffer
	r := &NativeRunner{Argv: []string{"definitely-not-a-real-binary"}}

	res := r.Run(context.Background(), t.TempDir(), nil, testIO(&out, &errw))
	if res.Error == nil {
		t.Error("Run() with missing binary: want Error, got nil")
	}
	if res.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", res.ExitCode)
	}
}

func TestNativeRunnerEmptyArgv(t *testing.T) {
	var out, errw bytes.Buffer
	r := &NativeRunner{}

	res := r.Run(context.Background(), t.TempDir(), nil, testIO(&out, &errw))
	if res.Error == nil {
		t.Error("Run() with empty argv: want Error, got nil")
	}
}

func TestNativeRunnerReceivesExtraEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	var out, errw bytes.Buffer
	r := &NativeRunner{Argv: []string{"sh", "-c", `test "$HARNESS_PROBE" = "on"`}}

	res := r.Run(context.Background(), t.TempDir(), []string{"HARNESS_PROBE=on"}, testIO(&out, &errw))
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0 (env var not visible to child)", res.ExitCode)
	}
}

func TestVirtualRunnerExitCode(t *testing.T) {
	var out, errw bytes.Buffer
	r := &VirtualRunner{Script: "exit 5"}

	res := r.Run(context.Background(), t.TempDir(), nil, testIO(&out, &errw))
	if res.Error != nil {
		t.Fatalf("Run() error: %v", res.Error)
	}
	if res.ExitCode != 5 {
		t.Errorf("ExitCode = %d, want 5", res.ExitCode)
	}
}

func TestVirtualRunnerOutput(t *testing.T) {
	var out, errw bytes.Buffer
	r := &VirtualRunner{Script: "echo harness-says-hi"}

	res := r.Run(context.Background(), t.TempDir(), nil, testIO(&out, &errw))
	if res.Error != nil {
		t.Fatalf("Run() error: %v", res.Error)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if got := strings.TrimSpace(out.String()); got != "harness-says-hi" {
		t.Errorf("stdout = %q, want harness-says-hi", got)
	}
}

func TestVirtualRunnerParseError(t *testing.T) {
	var out, errw bytes.Buffer
	r := &VirtualRunner{Script: "if then fi (("}

	res := r.Run(context.Background(), t.TempDir(), nil, testIO(&out, &errw))
	if res.Error == nil {
		t.Error("Run() with broken script: want Error, got nil")
	}
}

func TestVirtualRunnerEmptyScript(t *testing.T) {
	var out, errw bytes.Buffer
	r := &VirtualRunner{Script: "   "}

	res := r.Run(context.Background(), t.TempDir(), nil, testIO(&out, &errw))
	if res.Error == nil {
		t.Error("Run() with empty script: want Error, got nil")
	}
}
