// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// PinFileName is the per-project pin file searched in the working directory.
const PinFileName = "yarnpin.toml"

// ErrNoPinFile indicates no pin file exists at the requested path.
var ErrNoPinFile = errors.New("no pin file found")

// PinFile is the TOML representation of a per-project descriptor override.
// Empty fields inherit from the built-in default descriptor.
type PinFile struct {
	Name        string `toml:"name,omitempty"`
	Version     string `toml:"version,omitempty"`
	SHA256      string `toml:"sha256,omitempty"`
	URLTemplate string `toml:"url_template,omitempty"`
	Runtime     string `toml:"runtime,omitempty"`
}

// LoadPinFile reads and parses the pin file at path. Returns ErrNoPinFile
// when the file does not exist.
func LoadPinFile(path string) (*PinFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoPinFile, path)
		}
		return nil, fmt.Errorf("reading pin file %s: %w", path, err)
	}

	var pf PinFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing pin file %s: %w", path, err)
	}

	return &pf, nil
}

// SavePinFile writes the pin file to path in TOML form.
func SavePinFile(path string, pf *PinFile) error {
	data, err := toml.Marshal(pf)
	if err != nil {
		return fmt.Errorf("encoding pin file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing pin file %s: %w", path, err)
	}

	return nil
}

// Apply overlays the pin file's non-empty fields onto base and validates
// the result.
func (pf *PinFile) Apply(base Descriptor) (Descriptor, error) {
	d := base
	if pf.Name != "" {
		d.Name = pf.Name
	}
	if pf.Version != "" {
		d.Version = pf.Version
	}
	if pf.SHA256 != "" {
		d.SHA256 = strings.ToLower(pf.SHA256)
	}
	if pf.URLTemplate != "" {
		d.URLTemplate = pf.URLTemplate
	}
	if pf.Runtime != "" {
		d.Runtime = pf.Runtime
	}

	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}

	return d, nil
}

// Resolve returns the effective descriptor for the working directory dir:
// the built-in default overlaid with the directory's pin file when one
// exists. The second return reports whether a pin file was applied.
func Resolve(dir string) (Descriptor, bool, error) {
	path := filepath.Join(dir, PinFileName)

	pf, err := LoadPinFile(path)
	if err != nil {
		if errors.Is(err, ErrNoPinFile) {
			return Default(), false, nil
		}
		return Descriptor{}, false, err
	}

	d, err := pf.Apply(Default())
	if err != nil {
		return Descriptor{}, false, err
	}

	return d, true, nil
}
