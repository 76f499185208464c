// SPDX-License-Identifier: EPL-2.0

package samplelib

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/floe-audio/samplelib/formats/lualib"
	"github.com/floe-audio/samplelib/formats/mdata"
	"github.com/floe-audio/samplelib/library"
)

// Format identifies an on-disk library format.
type Format int

const (
	FormatUnknown Format = iota
	FormatMdata
	FormatLua
)

func (f Format) String() string {
	switch f {
	case FormatMdata:
		return "mdata"
	case FormatLua:
		return "lua"
	default:
		return "unknown"
	}
}

// ErrUnknownFormat is returned when a path names neither an MDATA file
// nor a Lua library.
var ErrUnknownFormat = errors.New("samplelib: unknown library format")

// DetectFormat reports the library format a path refers to, judged by
// the filename alone. A directory always detects as FormatLua; whether
// it actually contains a library script is only known once it is read.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), mdata.Extension) {
		return FormatMdata
	}
	if lualib.IsLibraryFilename(path) {
		return FormatLua
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return FormatLua
	}
	return FormatUnknown
}

// ReadLibrary reads the library at path, picking the format from the
// path: an .mdata file, a library script, or a directory containing
// one.
func ReadLibrary(path string) (*library.Library, error) {
	switch DetectFormat(path) {
	case FormatMdata:
		return mdata.ReadFile(path)
	case FormatLua:
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return lualib.ReadDir(path, lualib.Options{})
		}
		return lualib.Read(path, lualib.Options{})
	default:
		return nil, ErrUnknownFormat
	}
}
