// SPDX-License-Identifier: EPL-2.0

package mdata

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/floe-audio/samplelib/library"
	"github.com/floe-audio/samplelib/sample"
)

// Author is the vendor every MDATA library is attributed to. The format
// predates author fields.
const Author = "FrozenPlain"

// Extension is the filename extension of MDATA containers.
const Extension = ".mdata"

// Specifics is the MDATA-private state attached to a Library.
type Specifics struct {
	StringPool         []byte
	FileDataPoolOffset int64

	// Embedded holds the whole container when the library was read from a
	// compiled-in byte span rather than a file on disk.
	Embedded []byte

	filesByPath map[string]fileInfo
}

func (*Specifics) FileFormatName() string { return "mdata" }

// ReadFile reads the .mdata file at path into a Library.
func ReadFile(filePath string) (*library.Library, error) {
	r, err := sample.NewFileReader(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	return parse(data, filePath, false)
}

// Read parses an already-opened container. filePath is used as the
// library's path and to reopen file sections for audio.
func Read(r *sample.Reader, filePath string) (*library.Library, error) {
	data, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	return parse(data, filePath, false)
}

// ReadEmbedded parses a compiled-in container. The library's Open serves
// sections of data directly; data must stay alive and unmodified.
func ReadEmbedded(data []byte, name string) (*library.Library, error) {
	return parse(data, name, true)
}

type infoPayload struct {
	Description string `json:"description"`
	URL         string `json:"url"`
}

func parse(data []byte, filePath string, embedded bool) (*library.Library, error) {
	if len(data) < masterHeaderSize {
		return nil, fmt.Errorf("%w: truncated header", ErrInvalidFileFormat)
	}
	if !bytes.Equal(data[magicOffset:magicOffset+4], []byte("MDTA")) {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidFileFormat)
	}

	name := string(bytes.TrimRight(data[nameOffset:nameOffset+nameSize], "\x00"))
	version := binary.LittleEndian.Uint32(data[versionOffset:])

	spec := &Specifics{}
	lib := &library.Library{
		ID:           library.LibraryID{Author: Author, Name: name},
		MinorVersion: version,
		Insts:        map[string]*library.Instrument{},
		IRs:          map[string]*library.ImpulseResponse{},
		Attributions: map[string]library.Attribution{},
		Path:         filePath,
		Hash:         xxh3.Hash(data),
		FileFormat:   spec,
	}
	if embedded {
		spec.Embedded = data
	}

	var (
		instRecords []instrumentInfo
		extRecords  []extInstrumentInfo
		regRecords  []samplerRegionInfo
		fileRecords []fileInfo
		sawINFO     bool
	)

	pos := masterHeaderSize
	for pos+chunkHeaderSize <= len(data) {
		id := binary.LittleEndian.Uint32(data[pos:])
		size := int(int32(binary.LittleEndian.Uint32(data[pos+4:])))
		pos += chunkHeaderSize

		if size <= 0 {
			continue // tolerated: nothing follows
		}
		if pos+size > len(data) {
			return nil, fmt.Errorf("%w: chunk overruns file", ErrInvalidFileFormat)
		}
		payload := data[pos : pos+size]

		// The INFO chunk must come first.
		if !sawINFO {
			if id != chunkINFO {
				return nil, fmt.Errorf("%w: missing INFO chunk", ErrInvalidFileFormat)
			}
			var info infoPayload
			if err := json.Unmarshal(payload, &info); err != nil {
				return nil, fmt.Errorf("%w: INFO: %v", ErrInvalidFileFormat, err)
			}
			lib.Tagline = info.Description
			lib.URL = info.URL
			sawINFO = true
			pos += size
			continue
		}

		switch id {
		case chunkSTRG:
			// Copied: the raw-audio retag rewrites pool bytes in place.
			spec.StringPool = append([]byte(nil), payload...)

		case chunkFILE:
			// Individual files are read lazily through Open; only the
			// pool's position in the container is remembered.
			spec.FileDataPoolOffset = int64(pos)

		case chunkINST:
			if spec.StringPool == nil {
				return nil, fmt.Errorf("%w: INST before STRG", ErrInvalidFileFormat)
			}
			n := size / instrumentInfoSize
			for i := 0; i < n; i++ {
				instRecords = append(instRecords, readInstrumentInfo(payload[i*instrumentInfoSize:]))
			}

		case chunkINSX:
			n := size / extInstrumentInfoSize
			for i := 0; i < n; i++ {
				extRecords = append(extRecords, readExtInstrumentInfo(payload[i*extInstrumentInfoSize:]))
			}

		case chunkSMPL:
			if spec.StringPool == nil {
				return nil, fmt.Errorf("%w: SMPL before STRG", ErrInvalidFileFormat)
			}
			n := size / samplerRegionInfoSize
			for i := 0; i < n; i++ {
				regRecords = append(regRecords, readSamplerRegionInfo(payload[i*samplerRegionInfoSize:]))
			}

		case chunkASST:
			if spec.StringPool == nil {
				return nil, fmt.Errorf("%w: ASST before STRG", ErrInvalidFileFormat)
			}
			n := size / fileInfoSize
			for i := 0; i < n; i++ {
				fileRecords = append(fileRecords, readFileInfo(payload[i*fileInfoSize:]))
			}

		case chunkDIRL, chunkROOT:
			// obsolete, skipped

		default:
			// unknown chunks are skipped by size
		}

		pos += size
	}

	if !sawINFO {
		return nil, fmt.Errorf("%w: missing INFO chunk", ErrInvalidFileFormat)
	}

	if err := processFileTable(lib, spec, fileRecords); err != nil {
		return nil, err
	}
	if err := buildInstruments(lib, spec, instRecords, extRecords, regRecords, fileRecords); err != nil {
		return nil, err
	}

	lib.Open = spec.openFunc(filePath)

	library.Finalize(lib)
	return lib, nil
}

// poolStr resolves a string-pool reference.
func (s *Specifics) poolStr(ps poolString) (string, error) {
	end := int(ps.Offset) + int(ps.Size)
	if end > len(s.StringPool) || int(ps.Offset) > end {
		return "", fmt.Errorf("%w: string pool reference out of range", ErrInvalidFileFormat)
	}
	return string(bytes.TrimRight(s.StringPool[ps.Offset:end], "\x00")), nil
}

// processFileTable runs the three ASST post-passes: the raw-audio retag,
// icon/background detection, and the files-by-path index. It also creates
// an ImpulseResponse for every file in the IRs folder.
func processFileTable(lib *library.Library, spec *Specifics, files []fileInfo) error {
	// Pass 1: raw-audio files are stored headerless, so their virtual
	// ".wav" name is rewritten to ".r16" in place inside the pool (the
	// field is a fixed-width buffer, and the two suffixes are the same
	// length).
	for _, fi := range files {
		if fi.AudioFormat != audioRaw16Pcm {
			continue
		}
		if fi.NumChannels != 2 || fi.SampleRate < 44099 || fi.SampleRate > 44101 {
			return fmt.Errorf("%w: raw audio must be stereo 44.1kHz", ErrInvalidFileFormat)
		}
		end := int(fi.Filepath.Offset) + int(fi.Filepath.Size)
		if end > len(spec.StringPool) {
			return fmt.Errorf("%w: string pool reference out of range", ErrInvalidFileFormat)
		}
		field := spec.StringPool[fi.Filepath.Offset:end]
		trimmed := bytes.TrimRight(field, "\x00")
		if bytes.HasSuffix(trimmed, []byte(".wav")) {
			copy(trimmed[len(trimmed)-4:], ".r16")
		}
	}

	// Pass 2: icon and background live under the files folder.
	for _, fi := range files {
		if fi.FolderType != folderFiles {
			continue
		}
		p, err := spec.poolStr(fi.Filepath)
		if err != nil {
			return err
		}
		base := path.Base(p)
		switch {
		case base == "icon.png":
			lib.IconPath = p
		case strings.HasPrefix(base, "background"):
			lib.BackgroundImagePath = p
		}
	}

	// Pass 3: path index, skipping placeholder audio.
	spec.filesByPath = make(map[string]fileInfo, len(files))
	for _, fi := range files {
		if fi.AudioFormat == audioSpecial {
			continue
		}
		p, err := spec.poolStr(fi.Filepath)
		if err != nil {
			return err
		}
		spec.filesByPath[p] = fi
	}

	for _, fi := range files {
		if fi.FolderType != folderIRs {
			continue
		}
		p, err := spec.poolStr(fi.Filepath)
		if err != nil {
			return err
		}
		irName := stem(path.Base(p))
		lib.IRs[irName] = &library.ImpulseResponse{
			Library: lib,
			Name:    irName,
			Path:    p,
			Folder:  stripFolderPrefix(path.Dir(p), "irs"),
		}
	}

	return nil
}

func buildInstruments(lib *library.Library, spec *Specifics,
	insts []instrumentInfo, exts []extInstrumentInfo,
	regions []samplerRegionInfo, files []fileInfo) error {

	flagsByInst := make(map[uint32]uint32, len(exts))
	for _, ext := range exts {
		flagsByInst[ext.InstIndex] = ext.Flags
	}

	uniqueSamples := map[string]struct{}{}

	for instIndex, info := range insts {
		flags := flagsByInst[uint32(instIndex)]

		// Instruments that were white-noise generators in disguise are
		// discarded; the player supplies its own waveforms.
		if flags&(flagWhiteNoiseStereo|flagWhiteNoiseMono) != 0 {
			continue
		}

		filepath, err := spec.poolStr(info.Filepath)
		if err != nil {
			return err
		}

		inst := &library.Instrument{
			Library: lib,
			Name:    uniqueInstName(lib, stem(path.Base(filepath))),
			Folder:  stripFolderPrefix(path.Dir(filepath), "sampler"),
		}

		xfadeLayers := flags&flagGroupsAreXfadeLayers != 0
		discard := false

		for _, reg := range regions {
			if reg.Inst != uint32(instIndex) {
				continue
			}
			if int(reg.File) >= len(files) {
				return fmt.Errorf("%w: region references missing file", ErrInvalidFileFormat)
			}
			fi := files[reg.File]

			if fi.AudioFormat == audioSpecial {
				// Placeholder audio only ever appears on its own.
				discard = true
				continue
			}

			region, err := buildRegion(spec, flags, xfadeLayers, reg, fi)
			if err != nil {
				return err
			}
			inst.Regions = append(inst.Regions, region)
		}

		if discard {
			if len(inst.Regions) != 0 {
				return fmt.Errorf("%w: placeholder audio mixed with real regions", ErrInvalidFileFormat)
			}
			continue
		}
		if len(inst.Regions) == 0 {
			continue
		}

		inst.WaveformAudioPath = waveformRegionPath(inst.Regions)
		featherVelocityLayers(inst)

		for i := range inst.Regions {
			uniqueSamples[inst.Regions[i].Path] = struct{}{}
		}

		lib.Insts[inst.Name] = inst
	}

	lib.NumInstrumentSamples = uint32(len(uniqueSamples))
	return nil
}

func buildRegion(spec *Specifics, flags uint32, xfadeLayers bool,
	reg samplerRegionInfo, fi fileInfo) (library.Region, error) {

	audioPath, err := spec.poolStr(fi.Filepath)
	if err != nil {
		return library.Region{}, err
	}

	region := library.Region{
		Path:    audioPath,
		RootKey: uint8(reg.RootNote),
		Trigger: library.TriggerCriteria{
			Event:           library.TriggerNoteOn,
			KeyRange:        library.Range{Start: int(reg.LowNote), End: int(reg.HighNote) + 1},
			VelocityRange:   RemapVelocity(int(reg.LowVelo), int(reg.HighVelo)),
			RoundRobinIndex: library.NoRoundRobin,
			FeatherOverlappingVelocityLayers: flags&flagFeatherVelocityLayers != 0,
		},
	}
	if flags&flagTriggerOnRelease != 0 {
		region.Trigger.Event = library.TriggerNoteOff
	}

	switch reg.LoopingMode {
	case loopingDefault:
		region.Loop.Requirement = library.LoopRequirementDefault

	case loopingAlwaysAnyRegion, loopingAlwaysSetRegion:
		region.Loop.Builtin = &library.BuiltinLoop{
			StartFrame:      int64(reg.LoopStart),
			EndFrame:        int64(reg.LoopEnd),
			CrossfadeFrames: reg.LoopCrossfade,
			Mode:            library.LoopStandard,
			LockLoopPoints:  reg.LoopingMode == loopingAlwaysSetRegion,
		}
		region.Loop.Requirement = library.LoopRequirementAlways

	case loopingAlwaysWholeRegion:
		region.Loop.Builtin = &library.BuiltinLoop{
			StartFrame:     0,
			EndFrame:       int64(fi.NumFrames),
			Mode:           library.LoopStandard,
			LockLoopPoints: true,
		}
		region.Loop.Requirement = library.LoopRequirementAlways

	default:
		return library.Region{}, fmt.Errorf("%w: unknown looping mode %d",
			ErrInvalidFileFormat, reg.LoopingMode)
	}

	if xfadeLayers {
		// Crossfade groups became the timbre knob. The old knob applied a
		// fixed 10dB taper to the first layer; replicate it as region gain.
		switch reg.Group {
		case 0:
			region.TimbreLayerRange = &library.Range{Start: 0, End: 90}
			region.GainDb = -10.0
		case 1:
			region.TimbreLayerRange = &library.Range{Start: 10, End: 100}
		default:
			return library.Region{}, fmt.Errorf("%w: crossfade group %d out of range",
				ErrInvalidFileFormat, reg.Group)
		}
	} else if reg.GroupRRIndex != -1 {
		region.Trigger.RoundRobinIndex = int(reg.GroupRRIndex)
	}

	return region, nil
}

// uniqueInstName appends " 2", " 3", ... until the name is free. Old
// presets refer to the renamed instruments, so the algorithm is part of the
// on-disk contract.
func uniqueInstName(lib *library.Library, base string) string {
	name := base
	for n := 2; ; n++ {
		if _, taken := lib.Insts[name]; !taken {
			return name
		}
		name = fmt.Sprintf("%s %d", base, n)
	}
}

// waveformRegionPath picks the audio drawn as the GUI waveform: the region
// whose root key is closest to middle C, ties broken by encounter order.
// The container's own gui-waveform field gives unexpected results and is
// ignored.
func waveformRegionPath(regions []library.Region) string {
	best := 0
	bestDist := 128
	for i := range regions {
		dist := int(regions[i].RootKey) - 60
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return regions[best].Path
}

func (s *Specifics) openFunc(filePath string) library.OpenFunc {
	return func(libraryPath string) (*sample.Reader, error) {
		fi, ok := s.filesByPath[libraryPath]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFileNotInLibrary, libraryPath)
		}

		start := s.FileDataPoolOffset + int64(fi.PoolOffset)
		size := int64(fi.SizeBytes)

		if s.Embedded != nil {
			if start+size > int64(len(s.Embedded)) {
				return nil, fmt.Errorf("%w: file data out of range", ErrInvalidFileFormat)
			}
			return sample.NewMemReader(s.Embedded[start : start+size]), nil
		}
		return sample.NewFileSectionReader(filePath, start, size)
	}
}

func stem(base string) string {
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// stripFolderPrefix removes the leading folder-type segment (for example
// "sampler") plus surrounding slashes from a virtual directory path.
func stripFolderPrefix(dir, prefix string) string {
	dir = strings.Trim(dir, "/")
	if dir == "." {
		return ""
	}
	if dir == prefix {
		return ""
	}
	dir = strings.TrimPrefix(dir, prefix+"/")
	return strings.Trim(dir, "/")
}
