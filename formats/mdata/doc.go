// SPDX-License-Identifier: EPL-2.0

// Package mdata reads the legacy chunked binary sample-library container
// used by older Floe/Mirage releases.
//
// An .mdata file is little-endian throughout: a master header (magic
// "MDTA", a 64-byte null-padded name, a u32 version), an INFO chunk whose
// payload is a JSON object, then a sequence of {id u32, size i32} chunks.
// The STRG string pool must precede any chunk that indexes into it; any
// other chunk may be absent, and unknown chunks are skipped by size.
//
// The reader produces a library.Library. It also performs the legacy value
// translations old presets depend on: MIDI velocity ranges remapped to the
// 0..100 domain, looping-mode translation, velocity-layer feathering, and
// the deterministic instrument renames for colliding names.
package mdata
