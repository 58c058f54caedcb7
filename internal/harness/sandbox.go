// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Sandbox is a scoped temporary working directory for one harness run. It
// is created before the server starts and removed by the caller's deferred
// Remove on every exit path, replacing the remove-at-process-exit pattern.
type Sandbox struct {
	// Dir is the sandbox root.
	Dir string
}

// NewSandbox creates the sandbox directory, seeded with a small content
// tree (src/seed.txt) so servers that list directory contents have
// something to serve.
func NewSandbox() (*Sandbox, error) {
	dir, err := os.MkdirTemp("", "yarnpin-harness-")
	if err != nil {
		return nil, fmt.Errorf("creating sandbox directory: %w", err)
	}

	srcDir := filepath.Join(dir, "src")
	if err := os.Mkdir(srcDir, 0o755); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("seeding sandbox: %w", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "seed.txt"), []byte("hello"), 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("seeding sandbox: %w", err)
	}

	return &Sandbox{Dir: dir}, nil
}

// Remove deletes the sandbox tree. Safe to call more than once.
func (s *Sandbox) Remove() {
	if s.Dir != "" {
		_ = os.RemoveAll(s.Dir)
	}
}

// WriteConfig marshals entries as JSON and writes the injected config file
// at relPath inside the sandbox, creating parent directories as needed.
// Returns the absolute config path.
func (s *Sandbox) WriteConfig(relPath string, entries map[string]string) (string, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encoding injected config: %w", err)
	}

	path := filepath.Join(s.Dir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing injected config: %w", err)
	}

	return path, nil
}
