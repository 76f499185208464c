// SPDX-License-Identifier: EPL-2.0

// Package state decodes legacy JSON preset payloads into a StateSnapshot:
// one linear float32 per parameter, per-layer instrument choices, an
// optional impulse-response id and the effect ordering.
//
// Most of the package is cross-version compatibility: legacy parameter
// names resolve to current parameters or to retired tags, retired
// parameter groups are translated into their modern equivalents with the
// exact formulas older releases shipped, missing parameters are backfilled
// with defaults, and version-gated patches reproduce bug-compatible
// behavior for presets saved by old builds. These values live inside user
// DAW projects, so none of the formulas here may drift.
package state
