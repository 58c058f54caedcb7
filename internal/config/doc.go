// SPDX-License-Identifier: MPL-2.0

// Package config loads the yarnpin tool configuration: a CUE file in the
// platform config directory (or the working directory), validated against
// an embedded schema and merged over built-in defaults via viper.
//
// Tool configuration is distinct from the per-project pin file handled by
// package artifact: config tunes how yarnpin itself behaves, the pin file
// selects what it provisions.
package config
