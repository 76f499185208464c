// SPDX-License-Identifier: EPL-2.0

package server

import (
	"sync"
	"sync/atomic"
)

// ScanState is the lifecycle of one scan folder.
type ScanState uint32

const (
	ScanNotScanned ScanState = iota
	ScanRescanRequested
	ScanScanning
	ScanScannedSuccessfully
	ScanFailed
)

// scanFolderSource distinguishes folders the server always scans from
// folders the client configured.
type scanFolderSource uint8

const (
	alwaysScanned scanFolderSource = iota
	extraFolder
)

type scanFolder struct {
	path   string
	source scanFolderSource
	state  atomic.Uint32

	// removed folders stay in the list until the server sweeps them;
	// in-flight scan jobs may still reference the node.
	removed atomic.Bool
}

func (f *scanFolder) scanState() ScanState { return ScanState(f.state.Load()) }
func (f *scanFolder) setState(s ScanState) { f.state.Store(uint32(s)) }
func (f *scanFolder) casState(from, to ScanState) bool {
	return f.state.CompareAndSwap(uint32(from), uint32(to))
}

// scanFolderList is the thread-safe set of scan folders. Structural
// changes hold the mutex; per-node state is atomic.
type scanFolderList struct {
	mu   sync.Mutex
	list []*scanFolder
}

func newScanFolderList(always []string) *scanFolderList {
	l := &scanFolderList{}
	for _, path := range always {
		l.list = append(l.list, &scanFolder{path: path, source: alwaysScanned})
	}
	return l
}

// setExtra replaces the extra folders wholesale. Folders no longer
// listed are flagged removed; existing nodes for kept paths survive so
// their scan state is preserved.
func (l *scanFolderList) setExtra(paths []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[p] = true
	}

	existing := make(map[string]bool)
	for _, f := range l.list {
		if f.source != extraFolder || f.removed.Load() {
			continue
		}
		if !keep[f.path] {
			f.removed.Store(true)
			continue
		}
		existing[f.path] = true
	}
	for _, p := range paths {
		if !existing[p] {
			l.list = append(l.list, &scanFolder{path: p, source: extraFolder})
		}
	}
}

// snapshot returns the live folders.
func (l *scanFolderList) snapshot() []*scanFolder {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*scanFolder, 0, len(l.list))
	for _, f := range l.list {
		if !f.removed.Load() {
			out = append(out, f)
		}
	}
	return out
}

// requestUnscanned moves NotScanned folders to RescanRequested and
// reports whether any transition happened. Client-facing catalog reads
// call this so the first lookup kicks off scanning.
func (l *scanFolderList) requestUnscanned() bool {
	any := false
	for _, f := range l.snapshot() {
		if f.casState(ScanNotScanned, ScanRescanRequested) {
			any = true
		}
	}
	return any
}

// sweepRemoved drops removed nodes. Server goroutine only.
func (l *scanFolderList) sweepRemoved() {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.list[:0]
	for _, f := range l.list {
		if !f.removed.Load() {
			kept = append(kept, f)
		}
	}
	l.list = kept
}

// folderContaining returns the live folder whose path is a prefix of p,
// or nil.
func (l *scanFolderList) folderContaining(p string) *scanFolder {
	for _, f := range l.snapshot() {
		if pathWithin(f.path, p) {
			return f
		}
	}
	return nil
}
