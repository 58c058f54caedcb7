// SPDX-License-Identifier: MPL-2.0

// Package artifact describes the external tool release that yarnpin
// provisions: an immutable descriptor (name, version, expected SHA256,
// download URL template, host runtime) plus the on-disk cache location
// derived from it.
//
// The built-in descriptor pins a single-file Yarn release. Projects can
// override it with a yarnpin.toml pin file in the working directory.
package artifact
