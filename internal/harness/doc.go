// SPDX-License-Identifier: MPL-2.0

// Package harness runs an integration-test session: it starts a server
// subprocess, injects a generated JSON configuration file into a scoped
// sandbox directory, runs a child test-runner subprocess, and propagates
// the child's exit code once the server has been stopped.
//
// The sandbox is removed on every exit path via deferred cleanup, and the
// child runner reports completion over a channel that the main loop
// selects on together with context cancellation.
package harness
