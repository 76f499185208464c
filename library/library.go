// SPDX-License-Identifier: EPL-2.0

package library

import (
	"github.com/zeebo/xxh3"

	"github.com/floe-audio/samplelib/sample"
)

// MaxNameSize bounds author, library, instrument and IR names.
const MaxNameSize = 64

// LibraryID uniquely identifies a library by author and name.
type LibraryID struct {
	Author string
	Name   string
}

func (id LibraryID) String() string { return id.Author + "/" + id.Name }

// Hash returns a stable 64-bit hash of the id, used for notification ids
// and map seeds.
func (id LibraryID) Hash() uint64 {
	return xxh3.HashString(id.Author + "\x00" + id.Name)
}

// InstrumentID identifies an instrument within a library.
type InstrumentID struct {
	Library LibraryID
	Name    string
}

func (id InstrumentID) String() string { return id.Library.String() + "/" + id.Name }

// IrID identifies an impulse response within a library.
type IrID struct {
	Library LibraryID
	Name    string
}

func (id IrID) String() string { return id.Library.String() + "/" + id.Name }

// OpenFunc opens a library-internal relative path as a byte source.
type OpenFunc func(libraryPath string) (*sample.Reader, error)

// FileFormat is the tagged union of format-private state attached to a
// Library. Exactly one concrete representation is present; the formats
// packages provide the implementations.
type FileFormat interface {
	// FileFormatName returns "mdata" or "lua".
	FileFormatName() string
}

// Attribution records licensing information for a file inside a library,
// keyed by library-relative path on the Library.
type Attribution struct {
	Title        string
	AttributedTo string
	License      string
	LicenseURL   string
	URL          string
}

// Library is the uniform in-memory model of a sample library.
type Library struct {
	ID           LibraryID
	Tagline      string
	URL          string
	Description  string
	MinorVersion uint32

	IconPath            string
	BackgroundImagePath string

	Insts map[string]*Instrument
	IRs   map[string]*ImpulseResponse

	// SortedInsts and SortedIRs are stable ordered views built by Finalize:
	// folderless items first, then by folder, then by name.
	SortedInsts []*Instrument
	SortedIRs   []*ImpulseResponse

	Attributions map[string]Attribution

	NumInstrumentSamples uint32
	NumRegions           uint32

	// Path is the absolute path of the library's main file (the .mdata
	// file, or the directory containing floe.lua).
	Path string

	// Hash is a content hash of the library file computed at read time,
	// used to detect duplicates and no-op reloads.
	Hash uint64

	// Open resolves a library-internal relative path to a byte source.
	Open OpenFunc

	FileFormat FileFormat
}

// FindInstrument returns the named instrument, or nil.
func (l *Library) FindInstrument(name string) *Instrument { return l.Insts[name] }

// FindIR returns the named impulse response, or nil.
func (l *Library) FindIR(name string) *ImpulseResponse { return l.IRs[name] }
