// SPDX-License-Identifier: EPL-2.0

package libtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Writer-side mirror of the MDATA on-disk layout. Kept independent of the
// reader package so the decode tests exercise real bytes.

// Folder types.
const (
	FolderSampler uint32 = 0
	FolderIRs     uint32 = 1
	FolderFiles   uint32 = 2
)

// Audio formats.
const (
	AudioNone      uint32 = 0
	AudioWavOrFlac uint32 = 1
	AudioRaw16Pcm  uint32 = 2
	AudioSpecial   uint32 = 3
)

// Looping modes.
const (
	LoopingDefault          uint32 = 0
	LoopingAlwaysAnyRegion  uint32 = 1
	LoopingAlwaysSetRegion  uint32 = 2
	LoopingAlwaysWholeRegion uint32 = 3
)

// Instrument flags.
const (
	FlagGroupsAreXfadeLayers  = 1 << 0
	FlagFeatherVelocityLayers = 1 << 1
	FlagTriggerOnRelease      = 1 << 2
	FlagWhiteNoiseStereo      = 1 << 3
	FlagWhiteNoiseMono        = 1 << 4
)

// MdataFile is one entry of the ASST table plus its FILE-pool payload.
type MdataFile struct {
	Path        string
	FolderType  uint32
	AudioFormat uint32
	Channels    uint32
	SampleRate  float32
	NumFrames   uint32
	Data        []byte
}

// MdataInstrument is one INST record plus its INSX flags.
type MdataInstrument struct {
	Filepath  string
	Flags     uint32
	NumGroups uint32
}

// MdataRegion is one SMPL record; indexes refer to the builder's
// instrument and file slices.
type MdataRegion struct {
	Inst, File       int
	Group            int32
	GroupRR          int32 // -1 = none
	RootNote         int32
	LowNote, HighNote int32
	LowVelo, HighVelo int32
	LoopingMode      uint32
	LoopStart        uint32
	LoopEnd          uint32
	LoopXfade        uint32
}

// MdataSpec describes a whole fixture container.
type MdataSpec struct {
	Name        string
	Version     uint32
	Description string
	URL         string
	Insts       []MdataInstrument
	Regions     []MdataRegion
	Files       []MdataFile
}

// BuildMdata serializes spec into valid MDATA bytes.
func BuildMdata(spec MdataSpec) []byte {
	var out bytes.Buffer

	// master header
	out.WriteString("MDTA")
	name := make([]byte, 64)
	copy(name, spec.Name)
	out.Write(name)
	binary.Write(&out, binary.LittleEndian, spec.Version)

	writeChunk := func(id string, payload []byte) {
		out.WriteString(id)
		binary.Write(&out, binary.LittleEndian, int32(len(payload)))
		out.Write(payload)
	}

	// INFO
	info := fmt.Sprintf(`{"description": %q, "url": %q}`, spec.Description, spec.URL)
	writeChunk("INFO", []byte(info))

	// string pool: every instrument filepath and file path, in order
	var pool bytes.Buffer
	type poolRef struct{ off, size uint32 }
	intern := func(s string) poolRef {
		ref := poolRef{off: uint32(pool.Len()), size: uint32(len(s))}
		pool.WriteString(s)
		return ref
	}
	instRefs := make([]poolRef, len(spec.Insts))
	for i, inst := range spec.Insts {
		instRefs[i] = intern(inst.Filepath)
	}
	fileRefs := make([]poolRef, len(spec.Files))
	for i, f := range spec.Files {
		fileRefs[i] = intern(f.Path)
	}
	writeChunk("STRG", pool.Bytes())

	// INST
	var inst bytes.Buffer
	for i := range spec.Insts {
		binary.Write(&inst, binary.LittleEndian, instRefs[i].off)
		binary.Write(&inst, binary.LittleEndian, instRefs[i].size)
		binary.Write(&inst, binary.LittleEndian, int32(-1)) // gui waveform region, unreliable
		binary.Write(&inst, binary.LittleEndian, spec.Insts[i].NumGroups)
	}
	writeChunk("INST", inst.Bytes())

	// INSX
	var insx bytes.Buffer
	for i := range spec.Insts {
		binary.Write(&insx, binary.LittleEndian, uint32(i))
		binary.Write(&insx, binary.LittleEndian, spec.Insts[i].Flags)
	}
	writeChunk("INSX", insx.Bytes())

	// SMPL
	var smpl bytes.Buffer
	for _, r := range spec.Regions {
		binary.Write(&smpl, binary.LittleEndian, uint32(r.Inst))
		binary.Write(&smpl, binary.LittleEndian, r.Group)
		binary.Write(&smpl, binary.LittleEndian, r.GroupRR)
		binary.Write(&smpl, binary.LittleEndian, uint32(r.File))
		binary.Write(&smpl, binary.LittleEndian, r.RootNote)
		binary.Write(&smpl, binary.LittleEndian, r.LowNote)
		binary.Write(&smpl, binary.LittleEndian, r.HighNote)
		binary.Write(&smpl, binary.LittleEndian, r.LowVelo)
		binary.Write(&smpl, binary.LittleEndian, r.HighVelo)
		binary.Write(&smpl, binary.LittleEndian, r.LoopingMode)
		binary.Write(&smpl, binary.LittleEndian, r.LoopStart)
		binary.Write(&smpl, binary.LittleEndian, r.LoopEnd)
		binary.Write(&smpl, binary.LittleEndian, r.LoopXfade)
		binary.Write(&smpl, binary.LittleEndian, uint32(0)) // padding
	}
	writeChunk("SMPL", smpl.Bytes())

	// ASST
	var fileData bytes.Buffer
	var asst bytes.Buffer
	for i, f := range spec.Files {
		poolOffset := uint64(fileData.Len())
		fileData.Write(f.Data)

		binary.Write(&asst, binary.LittleEndian, fileRefs[i].off)
		binary.Write(&asst, binary.LittleEndian, fileRefs[i].size)
		binary.Write(&asst, binary.LittleEndian, poolOffset)
		binary.Write(&asst, binary.LittleEndian, uint64(len(f.Data)))
		binary.Write(&asst, binary.LittleEndian, f.FolderType)
		binary.Write(&asst, binary.LittleEndian, f.AudioFormat)
		binary.Write(&asst, binary.LittleEndian, f.Channels)
		binary.Write(&asst, binary.LittleEndian, math.Float32bits(f.SampleRate))
		binary.Write(&asst, binary.LittleEndian, f.NumFrames)
		binary.Write(&asst, binary.LittleEndian, uint32(0)) // padding
	}
	writeChunk("ASST", asst.Bytes())

	// FILE pool last so lazy reads exercise real offsets
	writeChunk("FILE", fileData.Bytes())

	return out.Bytes()
}

// SimpleMdata builds a one-instrument library named libName with a single
// WAV region rooted at MIDI 60, for tests that just need something
// loadable. instPath is the instrument's virtual filepath, e.g.
// "sampler/Piano/Piano.wav".
func SimpleMdata(libName, instPath string) []byte {
	wavBytes := BuildWAV16(44100, 2, SineInt16(44100, 2, 400, 261.6))
	return BuildMdata(MdataSpec{
		Name:        libName,
		Version:     1,
		Description: "test library",
		Insts:       []MdataInstrument{{Filepath: instPath, NumGroups: 1}},
		Regions: []MdataRegion{{
			Inst: 0, File: 0, Group: 0, GroupRR: -1,
			RootNote: 60, LowNote: 0, HighNote: 127,
			LowVelo: 1, HighVelo: 127,
			LoopingMode: LoopingDefault,
		}},
		Files: []MdataFile{{
			Path:        instPath,
			FolderType:  FolderSampler,
			AudioFormat: AudioWavOrFlac,
			Channels:    2,
			SampleRate:  44100,
			NumFrames:   400,
			Data:        wavBytes,
		}},
	})
}
