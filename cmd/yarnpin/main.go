// SPDX-License-Identifier: MPL-2.0

// yarnpin provisions a pinned, checksum-verified single-file Yarn release
// and forwards command-line arguments to it under Node.
package main

func main() {
	Execute()
}
