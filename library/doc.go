// SPDX-License-Identifier: EPL-2.0

// Package library defines the in-memory model of a sample library:
// a Library owning Instruments (which own Regions) and ImpulseResponses,
// plus the identifiers used to address them from presets and from the
// sample-library server.
//
// The model is format-neutral. The readers under formats/ populate it from
// either the legacy MDATA container or the modern Lua script format; after
// either reader returns, Finalize computes the derived state (sorted views
// and per-instrument loop overviews).
package library
