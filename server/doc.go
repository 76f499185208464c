// SPDX-License-Identifier: EPL-2.0

// Package server is the long-running sample-library service. It scans
// configured folders for libraries, watches them for changes, keeps a
// catalog keyed by (author, name) deduplicated by content hash, and
// loads instrument audio asynchronously on a worker pool on behalf of
// any number of client connections.
//
// Clients interact through a Connection: they submit load requests for
// instruments or impulse responses and receive LoadResults through a
// callback once every audio buffer the asset needs has been decoded.
// Loads that are no longer wanted are cancelled cooperatively; audio
// still needed by another request always completes. Libraries,
// instruments and audio buffers are reference counted, and a handle
// keeps its target alive until released.
//
// All catalog mutation happens on one server goroutine. Client calls
// only touch short mutexes and atomics.
package server
