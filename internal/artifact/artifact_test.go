// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDescriptorIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
}

func TestDescriptorFilenameAndURL(t *testing.T) {
	d := Default()

	if got, want := d.Filename(), "yarn-1.2.1.js"; got != want {
		t.Errorf("Filename() = %s, want %s", got, want)
	}

	wantURL := "https://github.com/yarnpkg/yarn/releases/download/v1.2.1/yarn-1.2.1.js"
	if got := d.URL(); got != wantURL {
		t.Errorf("URL() = %s, want %s", got, wantURL)
	}
}

func TestDescriptorValidate(t *testing.T) {
	valid := Default()

	tests := []struct {
		name   string
		mutate func(*Descriptor)
		wantOK bool
	}{
		{
			name:   "default is valid",
			mutate: func(*Descriptor) {},
			wantOK: true,
		},
		{
			name:   "empty name",
			mutate: func(d *Descriptor) { d.Name = "" },
		},
		{
			name:   "empty version",
			mutate: func(d *Descriptor) { d.Version = "" },
		},
		{
			name:   "non-semver version",
			mutate: func(d *Descriptor) { d.Version = "latest" },
		},
		{
			name:   "short hash",
			mutate: func(d *Descriptor) { d.SHA256 = "abc123" },
		},
		{
			name:   "non-hex hash",
			mutate: func(d *Descriptor) { d.SHA256 = strings.Repeat("z", 64) },
		},
		{
			name:   "template without placeholders",
			mutate: func(d *Descriptor) { d.URLTemplate = "https://example.com/fixed" },
		},
		{
			name:   "empty runtime",
			mutate: func(d *Descriptor) { d.Runtime = "" },
		},
		{
			name:   "uppercase hash accepted",
			mutate: func(d *Descriptor) { d.SHA256 = strings.ToUpper(d.SHA256) },
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)

			err := d.Validate()
			if tt.wantOK {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("Validate() error = %v, want ErrInvalidDescriptor", err)
			}
		})
	}
}

func TestCachePathWithExplicitDir(t *testing.T) {
	d := Default()

	got, err := d.CachePath("/var/cache/yarnpin")
	if err != nil {
		t.Fatalf("CachePath() error: %v", err)
	}
	want := filepath.Join("/var/cache/yarnpin", "yarn", "yarn-1.2.1.js")
	if got != want {
		t.Errorf("CachePath() = %s, want %s", got, want)
	}
}

func TestCacheDirOverride(t *testing.T) {
	t.Cleanup(func() { SetCacheDirOverride("") })

	dir := t.TempDir()
	SetCacheDirOverride(dir)

	got, err := CacheDir()
	if err != nil {
		t.Fatalf("CacheDir() error: %v", err)
	}
	if got != dir {
		t.Errorf("CacheDir() = %s, want %s", got, dir)
	}

	path, err := Default().CachePath("")
	if err != nil {
		t.Fatalf("CachePath() error: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("CachePath() = %s, want prefix %s", path, dir)
	}
}

func TestIsValidHexDigest(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{strings.Repeat("a", 64), true},
		{strings.Repeat("A", 64), true},
		{strings.Repeat("a", 63), false},
		{strings.Repeat("a", 65), false},
		{strings.Repeat("g", 64), false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidHexDigest(tt.in); got != tt.want {
			t.Errorf("IsValidHexDigest(%q) = %t, want %t", tt.in, got, tt.want)
		}
	}
}
