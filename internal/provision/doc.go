// SPDX-License-Identifier: MPL-2.0

// Package provision ensures the pinned artifact is present in the local
// cache: it downloads the release, verifies the SHA-256 digest against the
// pin before anything touches the cache path, and writes the file with a
// temp-file-then-rename so a partially written artifact can never be
// observed as present.
//
// The cache is trust-on-first-fetch: Ensure treats an existing cache entry
// as valid without re-hashing. Verify re-checks an entry on demand.
package provision
