// SPDX-License-Identifier: EPL-2.0

package server

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/floe-audio/samplelib/formats/lualib"
	"github.com/floe-audio/samplelib/formats/mdata"
	"github.com/floe-audio/samplelib/library"
)

// scanResult is the outcome of listing one scan folder: the main file
// path of every library found in it.
type scanResult struct {
	folder       *scanFolder
	libraryPaths []string
	err          error
}

// readResult is the outcome of reading one library file.
type readResult struct {
	path string
	lib  *library.Library
	err  error
}

// scanFolderJob lists a folder's immediate entries. Runs on a worker.
func scanFolderJob(folder *scanFolder) scanResult {
	entries, err := os.ReadDir(folder.path)
	if err != nil {
		return scanResult{folder: folder, err: err}
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			script, err := lualib.FindScript(filepath.Join(folder.path, name))
			if err == nil {
				paths = append(paths, script)
			}
			continue
		}
		if strings.EqualFold(filepath.Ext(name), mdata.Extension) {
			paths = append(paths, filepath.Join(folder.path, name))
		}
	}
	return scanResult{folder: folder, libraryPaths: paths}
}

// readLibraryJob parses one library file by format. Runs on a worker.
func readLibraryJob(path string) readResult {
	var (
		lib *library.Library
		err error
	)
	if strings.EqualFold(filepath.Ext(path), mdata.Extension) {
		lib, err = mdata.ReadFile(path)
	} else {
		lib, err = lualib.Read(path, lualib.Options{})
	}
	return readResult{path: path, lib: lib, err: err}
}

// suppressScanError reports whether a scan failure should not be
// surfaced: folders the server always scans are allowed to simply not
// exist.
func suppressScanError(folder *scanFolder, err error) bool {
	return folder.source == alwaysScanned && errors.Is(err, fs.ErrNotExist)
}
