// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/mod/semver"
)

// Pinned Yarn release. Overridable via a yarnpin.toml pin file; the hash
// pins the exact upstream single-file distribution.
const (
	DefaultName        = "yarn"
	DefaultVersion     = "1.2.1"
	DefaultSHA256      = "ae8e3e01f151161ec9cc5d5f887a7b3dbaa1e0119371bb6baa66a40b2233112b"
	DefaultURLTemplate = "https://github.com/yarnpkg/yarn/releases/download/v{version}/{filename}"
	DefaultRuntime     = "node"
)

var (
	// ErrInvalidDescriptor is the sentinel wrapped by all descriptor
	// validation failures.
	ErrInvalidDescriptor = errors.New("invalid artifact descriptor")

	//nolint:gochecknoglobals // Test seam for the platform cache directory.
	cacheDirOverride = ""
)

// Descriptor identifies one provisioned release: what to download, how to
// verify it, and which host runtime executes it. Values are fixed at load
// time and never mutated.
type Descriptor struct {
	// Name is the tool name, used as the cache subdirectory.
	Name string
	// Version is the pinned release version (semver, no "v" prefix).
	Version string
	// SHA256 is the expected lowercase hex digest of the release file.
	SHA256 string
	// URLTemplate is the download location with {version} and {filename}
	// placeholders.
	URLTemplate string
	// Runtime is the host interpreter the artifact runs under.
	Runtime string
}

// Default returns the built-in pinned Yarn descriptor.
func Default() Descriptor {
	return Descriptor{
		Name:        DefaultName,
		Version:     DefaultVersion,
		SHA256:      strings.ToLower(DefaultSHA256),
		URLTemplate: DefaultURLTemplate,
		Runtime:     DefaultRuntime,
	}
}

// Filename returns the release file name for this descriptor, e.g.
// "yarn-1.2.1.js".
func (d Descriptor) Filename() string {
	return fmt.Sprintf("%s-%s.js", d.Name, d.Version)
}

// URL renders the download URL template with the descriptor's version and
// filename.
func (d Descriptor) URL() string {
	url := strings.ReplaceAll(d.URLTemplate, "{version}", d.Version)
	return strings.ReplaceAll(url, "{filename}", d.Filename())
}

// Validate checks the descriptor invariants: every field non-empty, the
// version acceptable to semver after "v"-normalization, and the hash a
// 64-character hex SHA256 digest.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidDescriptor)
	}
	if d.Version == "" {
		return fmt.Errorf("%w: version must not be empty", ErrInvalidDescriptor)
	}
	if !semver.IsValid("v" + d.Version) {
		return fmt.Errorf("%w: version %q is not a valid semantic version", ErrInvalidDescriptor, d.Version)
	}
	if !IsValidHexDigest(d.SHA256) {
		return fmt.Errorf("%w: sha256 must be a 64-character hex digest", ErrInvalidDescriptor)
	}
	if !strings.Contains(d.URLTemplate, "{version}") && !strings.Contains(d.URLTemplate, "{filename}") {
		return fmt.Errorf("%w: url template has neither {version} nor {filename} placeholder", ErrInvalidDescriptor)
	}
	if d.Runtime == "" {
		return fmt.Errorf("%w: runtime must not be empty", ErrInvalidDescriptor)
	}
	return nil
}

// CachePath returns the local cache location for this descriptor:
// <cache-dir>/<name>/<filename>. When cacheDir is empty, the platform
// cache directory is used.
func (d Descriptor) CachePath(cacheDir string) (string, error) {
	if cacheDir == "" {
		dir, err := CacheDir()
		if err != nil {
			return "", err
		}
		cacheDir = dir
	}
	return filepath.Join(cacheDir, d.Name, d.Filename()), nil
}

// CacheDir returns the yarnpin cache directory using platform conventions:
// Windows uses %LOCALAPPDATA%, macOS uses ~/Library/Caches, and
// Linux/others use $XDG_CACHE_HOME (defaulting to ~/.cache).
func CacheDir() (string, error) {
	if cacheDirOverride != "" {
		return cacheDirOverride, nil
	}

	var cacheDir string

	switch runtime.GOOS {
	case "windows":
		cacheDir = os.Getenv("LOCALAPPDATA")
		if cacheDir == "" {
			cacheDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		cacheDir = filepath.Join(home, "Library", "Caches")
	default: // Linux and others
		cacheDir = os.Getenv("XDG_CACHE_HOME")
		if cacheDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			cacheDir = filepath.Join(home, ".cache")
		}
	}

	return filepath.Join(cacheDir, "yarnpin"), nil
}

// SetCacheDirOverride forces CacheDir to return the given path. Pass ""
// to restore platform lookup. Intended for tests and the --cache-dir flag.
func SetCacheDirOverride(dir string) {
	cacheDirOverride = dir
}

// IsValidHexDigest checks if s is a valid 64-character hex-encoded SHA256
// digest.
func IsValidHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
