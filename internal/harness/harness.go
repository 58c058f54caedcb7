// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// readyPollInterval is how often the server port is probed.
	readyPollInterval = 100 * time.Millisecond

	// stopGracePeriod is how long the server gets to exit after an
	// interrupt before it is killed.
	stopGracePeriod = 5 * time.Second

	// ConfigEnvVar tells the server and the child runner where the
	// injected JSON config was written.
	ConfigEnvVar = "YARNPIN_HARNESS_CONFIG"
)

// ErrServerNotReady indicates the server did not accept connections
// before the readiness timeout.
var ErrServerNotReady = errors.New("harness server not ready")

// Options configures one harness run.
type Options struct {
	// ServerCmd is the server subprocess argv. Required.
	ServerCmd []string
	// ServerURL is the single source for both the injected baseUrl and
	// the readiness probe address. Required.
	ServerURL string
	// Token is the auth token injected into the config ("" allowed).
	Token string
	// ExtraConfig entries are merged into the injected config.
	ExtraConfig map[string]string
	// ConfigRelPath is where the JSON config is written, relative to the
	// sandbox. Required.
	ConfigRelPath string
	// ReadyTimeout bounds the wait for the server port to accept
	// connections.
	ReadyTimeout time.Duration
	// Runner executes the child test runner. Required.
	Runner Runner
	// IO is the child's stdio. Zero-value fields fall back to the
	// process streams.
	IO IO
	// Logger reports harness lifecycle events; defaults to stderr.
	Logger *log.Logger
}

// Run executes the harness session and returns the child runner's exit
// code. The server is always stopped and the sandbox always removed, on
// success, error, and cancellation paths alike.
func Run(ctx context.Context, opts Options) (int, error) {
	if err := validate(&opts); err != nil {
		return 1, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "harness",
		})
	}

	probeAddr, err := probeAddress(opts.ServerURL)
	if err != nil {
		return 1, err
	}

	sandbox, err := NewSandbox()
	if err != nil {
		return 1, err
	}
	defer sandbox.Remove()

	entries := map[string]string{
		"baseUrl": opts.ServerURL,
		"token":   opts.Token,
	}
	for k, v := range opts.ExtraConfig {
		entries[k] = v
	}

	configPath, err := sandbox.WriteConfig(opts.ConfigRelPath, entries)
	if err != nil {
		return 1, err
	}

	logger.Info("starting server", "cmd", opts.ServerCmd[0], "sandbox", sandbox.Dir)

	server := exec.CommandContext(ctx, opts.ServerCmd[0], opts.ServerCmd[1:]...)
	server.Dir = sandbox.Dir
	server.Env = append(os.Environ(), ConfigEnvVar+"="+configPath)
	server.Stdout = stderrOrDefault(opts.IO.Stderr)
	server.Stderr = stderrOrDefault(opts.IO.Stderr)

	if err := server.Start(); err != nil {
		return 1, fmt.Errorf("starting server %s: %w", opts.ServerCmd[0], err)
	}
	defer stopServer(server, logger)

	if err := waitReady(ctx, probeAddr, opts.ReadyTimeout); err != nil {
		return 1, err
	}

	logger.Info("server ready, starting runner", "mode", opts.Runner.Name())

	// The child runs in its own goroutine and signals completion over a
	// channel; the main loop reacts to that signal or to cancellation.
	resultCh := make(chan *Result, 1)
	go func() {
		resultCh <- opts.Runner.Run(ctx, sandbox.Dir, []string{ConfigEnvVar + "=" + configPath}, stdioOrDefault(opts.IO))
	}()

	select {
	case res := <-resultCh:
		if res.Error != nil {
			return res.ExitCode, res.Error
		}
		logger.Info("runner finished", "exit_code", res.ExitCode)
		return res.ExitCode, nil
	case <-ctx.Done():
		return 1, fmt.Errorf("harness canceled: %w", ctx.Err())
	}
}

func validate(opts *Options) error {
	if len(opts.ServerCmd) == 0 {
		return errors.New("harness: server command is required")
	}
	if opts.ServerURL == "" {
		return errors.New("harness: server url is required")
	}
	if opts.ConfigRelPath == "" || filepath.IsAbs(opts.ConfigRelPath) {
		return errors.New("harness: config path must be relative to the sandbox")
	}
	if opts.Runner == nil {
		return errors.New("harness: runner is required")
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 30 * time.Second
	}
	return nil
}

// probeAddress derives the TCP readiness address from the server URL.
func probeAddress(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parsing server url %s: %w", serverURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("server url %s has no host", serverURL)
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}
	return net.JoinHostPort(host, port), nil
}

// waitReady polls the server address until a TCP connection succeeds.
func waitReady(ctx context.Context, addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var dialer net.Dialer

	for {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %v", ErrServerNotReady, addr, ctx.Err())
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s after %s", ErrServerNotReady, addr, timeout)
		}
		time.Sleep(readyPollInterval)
	}
}

// stopServer interrupts the server and kills it after a grace period.
func stopServer(server *exec.Cmd, logger *log.Logger) {
	if server.Process == nil {
		return
	}

	logger.Debug("stopping server", "pid", server.Process.Pid)

	// os.Interrupt is not implemented on Windows; fall back to Kill there.
	if err := server.Process.Signal(os.Interrupt); err != nil {
		_ = server.Process.Kill()
		_ = server.Wait()
		return
	}

	done := make(chan struct{})
	go func() {
		_ = server.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopGracePeriod):
		logger.Warn("server did not exit, killing", "pid", server.Process.Pid)
		_ = server.Process.Kill()
		<-done
	}
}

func stderrOrDefault(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stderr
}

func stdioOrDefault(stdio IO) IO {
	if stdio.Stdin == nil {
		stdio.Stdin = os.Stdin
	}
	if stdio.Stdout == nil {
		stdio.Stdout = os.Stdout
	}
	if stdio.Stderr == nil {
		stdio.Stderr = os.Stderr
	}
	return stdio
}
