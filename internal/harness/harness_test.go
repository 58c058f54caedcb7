// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// listenURL binds a listener on an ephemeral port, keeps accepting for the
// test's lifetime, and returns the matching server URL. The harness's
// readiness probe connects to this listener while the "server" subprocess
// just sleeps.
func listenURL(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("binding listener: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, acceptErr := ln.Accept()
			if acceptErr != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	return fmt.Sprintf("http://%s", ln.Addr())
}

func testOptions(t *testing.T, runner Runner) Options {
	t.Helper()

	return Options{
		ServerCmd:     []string{"sleep", "30"},
		ServerURL:     listenURL(t),
		Token:         "secret-token",
		ConfigRelPath: filepath.Join("build", "injector.json"),
		ReadyTimeout:  5 * time.Second,
		Runner:        runner,
		Logger:        log.New(io.Discard),
	}
}

func TestRunPropagatesRunnerExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh and sleep")
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
			opts := testOptions(t, &NativeRunner{Argv: tt.argv})

			code, err := Run(context.Background(), opts)
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if code != tt.want {
				t.Errorf("Run() = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestRunInjectsConfig(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh and sleep")
	}

	// The runner copies the injected config out of the sandbox so the test
	// can inspect it after the sandbox is gone.
	captured := filepath.Join(t.TempDir(), "captured.json")
	runner := &NativeRunner{Argv: []string{
		"sh", "-c", fmt.Sprintf(`cp "$%s" %q`, ConfigEnvVar, captured),
	}}

	opts := testOptions(t, runner)
	opts.ExtraConfig = map[string]string{"terminalsAvailable": "true"}

	code, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if code != 0 {
		t.Fatalf("Run() = %d, want 0", code)
	}

	data, err := os.ReadFile(captured)
	if err != nil {
		t.Fatalf("reading captured config: %v", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("decoding captured config: %v", err)
	}
	if entries["baseUrl"] != opts.ServerURL {
		t.Errorf("baseUrl = %s, want %s", entries["baseUrl"], opts.ServerURL)
	}
	if entries["token"] != "secret-token" {
		t.Errorf("token = %s, want secret-token", entries["token"])
	}
	if entries["terminalsAvailable"] != "true" {
		t.Errorf("terminalsAvailable = %s, want true", entries["terminalsAvailable"])
	}
}

func TestRunRemovesSandbox(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh and sleep")
	}

	// The runner records its working directory (the sandbox) so the test
	// can assert it is removed on every exit path, including a failing run.
	recorded := filepath.Join(t.TempDir(), "cwd.txt")
	runner := &NativeRunner{Argv: []string{
		"sh", "-c", fmt.Sprintf("pwd > %q; exit 9", recorded),
	}}

	code, err := Run(context.Background(), testOptions(t, runner))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if code != 9 {
		t.Fatalf("Run() = %d, want 9", code)
	}

	data, err := os.ReadFile(recorded)
	if err != nil {
		t.Fatalf("reading recorded cwd: %v", err)
	}
	sandboxDir := string(data[:len(data)-1]) // trim trailing newline

	if _, err := os.Stat(sandboxDir); !os.IsNotExist(err) {
		t.Errorf("sandbox %s still exists after Run()", sandboxDir)
	}
}

func TestRunServerNotReady(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sleep")
	}

	// Nobody listens on this URL; grab a port and release it immediately.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("binding listener: %v", err)
	}
	url := fmt.Sprintf("http://%s", ln.Addr())
	_ = ln.Close()

	opts := Options{
		ServerCmd:     []string{"sleep", "30"},
		ServerURL:     url,
		ConfigRelPath: "injector.json",
		ReadyTimeout:  300 * time.Millisecond,
		Runner:        &NativeRunner{Argv: []string{"true"}},
		Logger:        log.New(io.Discard),
	}

	code, runErr := Run(context.Background(), opts)
	if !errors.Is(runErr, ErrServerNotReady) {
		t.Fatalf("Run() error = %v, want ErrServerNotReady", runErr)
	}
	if code != 1 {
		t.Errorf("Run() = %d, want 1", code)
	}
}

func TestRunValidatesOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{
			name:   "missing server command",
			mutate: func(o *Options) { o.ServerCmd = nil },
		},
		{
			name:   "missing server url",
			mutate: func(o *Options) { o.ServerURL = "" },
		},
		{
			name:   "absolute config path",
			mutate: func(o *Options) { o.ConfigRelPath = string(os.PathSeparator) + "abs.json" },
		},
		{
			name:   "missing runner",
			mutate: func(o *Options) { o.Runner = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{
				ServerCmd:     []string{"sleep", "30"},
				ServerURL:     "http://127.0.0.1:1",
				ConfigRelPath: "injector.json",
				Runner:        &NativeRunner{Argv: []string{"true"}},
				Logger:        log.New(io.Discard),
			}
			tt.mutate(&opts)

			code, err := Run(context.Background(), opts)
			if err == nil {
				t.Error("Run() with invalid options: want error, got nil")
			}
			if code != 1 {
				t.Errorf("Run() = %d, want 1", code)
			}
		})
	}
}

func TestSandboxWriteConfig(t *testing.T) {
	sandbox, err := NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox() error: %v", err)
	}
	defer sandbox.Remove()

	path, err := sandbox.WriteConfig(filepath.Join("nested", "cfg.json"), map[string]string{
		"baseUrl": "http://127.0.0.1:8888",
	})
	if err != nil {
		t.Fatalf("WriteConfig() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("decoding config: %v", err)
	}
	if entries["baseUrl"] != "http://127.0.0.1:8888" {
		t.Errorf("baseUrl = %s", entries["baseUrl"])
	}
}

func TestSandboxRemove(t *testing.T) {
	sandbox, err := NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox() error: %v", err)
	}

	// Seeded tree exists before removal.
	if _, err := os.Stat(filepath.Join(sandbox.Dir, "src", "seed.txt")); err != nil {
		t.Fatalf("seed file missing: %v", err)
	}

	sandbox.Remove()
	if _, err := os.Stat(sandbox.Dir); !os.IsNotExist(err) {
		t.Error("sandbox dir still exists after Remove()")
	}

	// Remove is idempotent.
	sandbox.Remove()
}

func TestProbeAddress(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "http://127.0.0.1:8888", want: "127.0.0.1:8888"},
		{url: "http://localhost", want: "localhost:80"},
		{url: "https://localhost", want: "localhost:443"},
		{url: "not a url at all", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := probeAddress(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("probeAddress(%q): want error, got %q", tt.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("probeAddress(%q) error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("probeAddress(%q) = %s, want %s", tt.url, got, tt.want)
			}
		})
	}
}
