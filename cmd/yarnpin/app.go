// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"

	"yarnpin/internal/artifact"
	"yarnpin/internal/launch"
	"yarnpin/internal/provision"
)

// effectiveCacheDir resolves the cache directory precedence:
// --cache-dir flag, then config file, then platform default (empty).
func effectiveCacheDir() string {
	if cacheDirFlag != "" {
		return cacheDirFlag
	}
	return cfg.CacheDir
}

// resolveArtifact returns the effective descriptor for the working
// directory: the built-in pin overlaid with yarnpin.toml when present.
// The bool reports whether a pin file was applied.
func resolveArtifact() (artifact.Descriptor, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return artifact.Descriptor{}, false, fmt.Errorf("resolving working directory: %w", err)
	}
	return artifact.Resolve(cwd)
}

// buildProvisioner wires the descriptor, cache path, and logger into a
// Provisioner plus the matching Invoker.
func buildProvisioner() (*provision.Provisioner, *launch.Invoker, artifact.Descriptor, error) {
	desc, _, err := resolveArtifact()
	if err != nil {
		return nil, nil, artifact.Descriptor{}, err
	}

	cachePath, err := desc.CachePath(effectiveCacheDir())
	if err != nil {
		return nil, nil, artifact.Descriptor{}, err
	}

	prov := provision.New(desc, cachePath, provision.WithLogger(logger))
	inv := &launch.Invoker{
		Runtime:      desc.Runtime,
		ArtifactPath: cachePath,
	}

	return prov, inv, desc, nil
}
