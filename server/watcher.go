// SPDX-License-Identifier: EPL-2.0

package server

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/floe-audio/samplelib/formats/lualib"
	"github.com/floe-audio/samplelib/formats/mdata"
	"github.com/floe-audio/samplelib/library"
)

// watchAction is what the server should do in response to one
// filesystem event.
type watchAction uint8

const (
	watchIgnore watchAction = iota
	// watchReadLibrary reads the library file at actionPath.
	watchReadLibrary
	// watchRemoveLibrary removes the library identified by actionID.
	watchRemoveLibrary
	// watchRescanFolder marks the enclosing scan folder RescanRequested.
	watchRescanFolder
)

type classified struct {
	action watchAction
	path   string
	id     library.LibraryID
}

// knownLibrary is the watcher's view of one catalog entry: the main
// file path, and for Lua libraries the directory whose auxiliary files
// also matter.
type knownLibrary struct {
	id       library.LibraryID
	mainPath string
	luaDir   string // empty for mdata libraries
}

// classifyEvent maps a filesystem event onto a server action, by
// matching the path against known library files, Lua library
// directories, and scan folder paths.
func classifyEvent(ev fsnotify.Event, known []knownLibrary, inScanFolder bool) classified {
	path := filepath.Clean(ev.Name)

	if ev.Op.Has(fsnotify.Rename) {
		return classified{action: watchRescanFolder, path: path}
	}

	var owner *knownLibrary
	for i := range known {
		k := &known[i]
		if k.mainPath == path {
			owner = k
			break
		}
		if k.luaDir != "" && pathWithin(k.luaDir, path) {
			owner = k
			break
		}
	}

	switch {
	case ev.Op.Has(fsnotify.Remove):
		if owner == nil {
			return classified{action: watchIgnore}
		}
		if owner.mainPath == path {
			return classified{action: watchRemoveLibrary, id: owner.id}
		}
		// An auxiliary file inside a Lua library's directory went away;
		// re-read so the model drops its references.
		return classified{action: watchReadLibrary, path: owner.mainPath}

	case ev.Op.Has(fsnotify.Write):
		if owner == nil {
			return classified{action: watchIgnore}
		}
		return classified{action: watchReadLibrary, path: owner.mainPath}

	case ev.Op.Has(fsnotify.Create):
		if owner != nil {
			return classified{action: watchReadLibrary, path: owner.mainPath}
		}
		if !inScanFolder {
			return classified{action: watchIgnore}
		}
		base := filepath.Base(path)
		if lualib.IsLibraryFilename(base) || strings.EqualFold(filepath.Ext(base), mdata.Extension) {
			return classified{action: watchReadLibrary, path: path}
		}
		return classified{action: watchIgnore}
	}
	return classified{action: watchIgnore}
}

// pathWithin reports whether p is dir or inside dir.
func pathWithin(dir, p string) bool {
	dir = filepath.Clean(dir)
	p = filepath.Clean(p)
	if p == dir {
		return true
	}
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// watcher wraps fsnotify. A nil watcher (creation failed) degrades to
// no live reloads; the server keeps running.
type watcher struct {
	fs *fsnotify.Watcher
}

func newWatcher() (*watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &watcher{fs: fs}, nil
}

// watch registers a path, ignoring failures: a folder may simply not
// exist yet.
func (w *watcher) watch(path string) {
	if w == nil {
		return
	}
	_ = w.fs.Add(path)
}

// drain returns the events accumulated since the last call without
// blocking.
func (w *watcher) drain() []fsnotify.Event {
	if w == nil {
		return nil
	}
	var out []fsnotify.Event
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-w.fs.Errors:
			// Watch errors downgrade to "no live reload for this path".
		default:
			return out
		}
	}
}

func (w *watcher) close() {
	if w != nil {
		_ = w.fs.Close()
	}
}
