// SPDX-License-Identifier: EPL-2.0

package mdata

import (
	"encoding/binary"
	"math"
)

// fourCC packs a 4-character chunk id the way it appears on disk when read
// as a little-endian u32.
func fourCC(s string) uint32 {
	return binary.LittleEndian.Uint32([]byte(s))
}

var (
	chunkINFO = fourCC("INFO")
	chunkSTRG = fourCC("STRG")
	chunkFILE = fourCC("FILE")
	chunkINST = fourCC("INST")
	chunkINSX = fourCC("INSX")
	chunkSMPL = fourCC("SMPL")
	chunkASST = fourCC("ASST")
	chunkDIRL = fourCC("DIRL")
	chunkROOT = fourCC("ROOT")
)

// Master header: magic(4) + name(64, null padded) + version(u32).
const (
	magicOffset   = 0
	nameOffset    = 4
	nameSize      = 64
	versionOffset = 68

	masterHeaderSize = 72
	chunkHeaderSize  = 8 // id u32 + size i32
)

// The record layouts below are fixed on-disk contracts; every field offset
// is pinned here and verified by tests. Struct readers must not be replaced
// with reflective decoding: the sizes must stay byte-for-byte stable.

// poolString: a (offset, size) reference into the STRG pool.
const (
	poolStringOffsetOff = 0
	poolStringSizeOff   = 4
	poolStringSize      = 8
)

type poolString struct {
	Offset uint32
	Size   uint32
}

func readPoolString(b []byte) poolString {
	return poolString{
		Offset: binary.LittleEndian.Uint32(b[poolStringOffsetOff:]),
		Size:   binary.LittleEndian.Uint32(b[poolStringSizeOff:]),
	}
}

// instrumentInfo: one INST record.
const (
	instFilepathOff     = 0  // poolString: virtual filepath
	instGuiRegionOff    = 8  // i32: sampler region index for the GUI waveform
	instNumGroupsOff    = 12 // u32
	instrumentInfoSize  = 16
)

type instrumentInfo struct {
	Filepath poolString

	// GuiWaveformRegion is ignored: the field gives unexpected results in
	// shipping libraries, so the region closest to MIDI note 60 is used
	// instead.
	GuiWaveformRegion int32

	NumGroups uint32
}

func readInstrumentInfo(b []byte) instrumentInfo {
	return instrumentInfo{
		Filepath:          readPoolString(b[instFilepathOff:]),
		GuiWaveformRegion: int32(binary.LittleEndian.Uint32(b[instGuiRegionOff:])),
		NumGroups:         binary.LittleEndian.Uint32(b[instNumGroupsOff:]),
	}
}

// extInstrumentInfo: one INSX record carrying per-instrument flags.
const (
	exInstIndexOff          = 0 // u32
	exInstFlagsOff          = 4 // u32
	extInstrumentInfoSize   = 8
)

const (
	flagGroupsAreXfadeLayers  = 1 << 0
	flagFeatherVelocityLayers = 1 << 1
	flagTriggerOnRelease      = 1 << 2
	flagWhiteNoiseStereo      = 1 << 3
	flagWhiteNoiseMono        = 1 << 4
)

type extInstrumentInfo struct {
	InstIndex uint32
	Flags     uint32
}

func readExtInstrumentInfo(b []byte) extInstrumentInfo {
	return extInstrumentInfo{
		InstIndex: binary.LittleEndian.Uint32(b[exInstIndexOff:]),
		Flags:     binary.LittleEndian.Uint32(b[exInstFlagsOff:]),
	}
}

// samplerRegionInfo: one SMPL record.
const (
	regInstOff          = 0  // u32
	regGroupOff         = 4  // i32
	regGroupRRIndexOff  = 8  // i32, -1 = no round robin / xfade position
	regFileOff          = 12 // u32: index into the ASST table
	regRootNoteOff      = 16 // i32
	regLowNoteOff       = 20 // i32
	regHighNoteOff      = 24 // i32, inclusive
	regLowVeloOff       = 28 // i32, MIDI domain [1, 127] inclusive
	regHighVeloOff      = 32 // i32
	regLoopingModeOff   = 36 // u32
	regLoopStartOff     = 40 // u32
	regLoopEndOff       = 44 // u32
	regLoopCrossfadeOff = 48 // u32
	regPaddingOff       = 52

	samplerRegionInfoSize = 56
)

// looping_mode values.
const (
	loopingDefault uint32 = iota
	loopingAlwaysAnyRegion
	loopingAlwaysSetRegion
	loopingAlwaysWholeRegion
)

type samplerRegionInfo struct {
	Inst          uint32
	Group         int32
	GroupRRIndex  int32
	File          uint32
	RootNote      int32
	LowNote       int32
	HighNote      int32
	LowVelo       int32
	HighVelo      int32
	LoopingMode   uint32
	LoopStart     uint32
	LoopEnd       uint32
	LoopCrossfade uint32
}

func readSamplerRegionInfo(b []byte) samplerRegionInfo {
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(b[off:]) }
	return samplerRegionInfo{
		Inst:          u32(regInstOff),
		Group:         int32(u32(regGroupOff)),
		GroupRRIndex:  int32(u32(regGroupRRIndexOff)),
		File:          u32(regFileOff),
		RootNote:      int32(u32(regRootNoteOff)),
		LowNote:       int32(u32(regLowNoteOff)),
		HighNote:      int32(u32(regHighNoteOff)),
		LowVelo:       int32(u32(regLowVeloOff)),
		HighVelo:      int32(u32(regHighVeloOff)),
		LoopingMode:   u32(regLoopingModeOff),
		LoopStart:     u32(regLoopStartOff),
		LoopEnd:       u32(regLoopEndOff),
		LoopCrossfade: u32(regLoopCrossfadeOff),
	}
}

// fileInfo: one ASST record.
const (
	fileFilepathOff    = 0  // poolString: virtual filepath, fixed-width buffer in the pool
	filePoolOffsetOff  = 8  // u64: offset inside the FILE pool
	fileSizeBytesOff   = 16 // u64
	fileFolderTypeOff  = 24 // u32
	fileAudioFormatOff = 28 // u32
	fileNumChannelsOff = 32 // u32
	fileSampleRateOff  = 36 // f32
	fileNumFramesOff   = 40 // u32
	filePaddingOff     = 44

	fileInfoSize = 48
)

// folder_type values.
const (
	folderSampler uint32 = iota
	folderIRs
	folderFiles
)

// audio_format values.
const (
	audioNone uint32 = iota
	audioWavOrFlac
	audioRaw16Pcm
	audioSpecial // SpecialAudioData: placeholder audio, never loaded
)

type fileInfo struct {
	Filepath    poolString
	PoolOffset  uint64
	SizeBytes   uint64
	FolderType  uint32
	AudioFormat uint32
	NumChannels uint32
	SampleRate  float32
	NumFrames   uint32
}

func readFileInfo(b []byte) fileInfo {
	return fileInfo{
		Filepath:    readPoolString(b[fileFilepathOff:]),
		PoolOffset:  binary.LittleEndian.Uint64(b[filePoolOffsetOff:]),
		SizeBytes:   binary.LittleEndian.Uint64(b[fileSizeBytesOff:]),
		FolderType:  binary.LittleEndian.Uint32(b[fileFolderTypeOff:]),
		AudioFormat: binary.LittleEndian.Uint32(b[fileAudioFormatOff:]),
		NumChannels: binary.LittleEndian.Uint32(b[fileNumChannelsOff:]),
		SampleRate:  math.Float32frombits(binary.LittleEndian.Uint32(b[fileSampleRateOff:])),
		NumFrames:   binary.LittleEndian.Uint32(b[fileNumFramesOff:]),
	}
}
