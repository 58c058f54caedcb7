// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// It defines a catalog of yarnpin's known failure classes (download,
// integrity, missing runtime, configuration, harness startup) rendered as
// Markdown guidance, plus ActionableError, a structured error carrying the
// failed operation, the resource involved, and remediation steps.
package issue
