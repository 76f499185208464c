// SPDX-License-Identifier: EPL-2.0

package server

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/floe-audio/samplelib/library"
	"github.com/floe-audio/samplelib/sample"
	"github.com/floe-audio/samplelib/utils"
)

// The built-in library ships inside the binary and is registered into
// every Server as an always-present catalog node. It carries the stock
// waveform instrument and a couple of impulse responses so convolution
// works without any installed library.

var (
	builtinOnce sync.Once
	builtinLib  *library.Library
)

// BuiltinLibraryID identifies the compiled-in library.
var BuiltinLibraryID = library.LibraryID{Author: "Floe", Name: "Built-in"}

type builtinFormat struct{}

func (builtinFormat) FileFormatName() string { return "builtin" }

func builtinLibrary() *library.Library {
	builtinOnce.Do(func() { builtinLib = buildBuiltinLibrary() })
	return builtinLib
}

func buildBuiltinLibrary() *library.Library {
	assets := map[string][]byte{
		"waveforms/sine.wav": sineWAV(float64(utils.MidiNoteToHz(57)), 44100, 4096),
		"irs/small-room.wav": impulseWAV(44100, 2048, 0.35),
		"irs/large-hall.wav": impulseWAV(44100, 8192, 0.12),
	}

	var hash uint64
	for _, b := range assets {
		hash ^= xxh3.Hash(b)
	}

	lib := &library.Library{
		ID:      BuiltinLibraryID,
		Tagline: "Stock waveforms and impulse responses",
		Insts:   make(map[string]*library.Instrument),
		IRs:     make(map[string]*library.ImpulseResponse),
		Hash:    hash,
		Open: func(path string) (*sample.Reader, error) {
			b, ok := assets[path]
			if !ok {
				return nil, ErrNotFound
			}
			return sample.NewMemReader(b), nil
		},
		FileFormat: builtinFormat{},
	}

	inst := &library.Instrument{
		Library:           lib,
		Name:              "Sine",
		WaveformAudioPath: "waveforms/sine.wav",
		Regions: []library.Region{{
			Path:    "waveforms/sine.wav",
			RootKey: 57,
			Trigger: library.TriggerCriteria{
				KeyRange:        library.Range{Start: 0, End: 128},
				VelocityRange:   library.Range{Start: 0, End: 100},
				RoundRobinIndex: library.NoRoundRobin,
			},
			Loop: library.RegionLoop{
				Builtin: &library.BuiltinLoop{
					StartFrame: 0,
					EndFrame:   4096,
					Mode:       library.LoopStandard,
				},
				Requirement: library.LoopRequirementAlways,
			},
		}},
	}
	lib.Insts[inst.Name] = inst

	for name, path := range map[string]string{
		"Small Room": "irs/small-room.wav",
		"Large Hall": "irs/large-hall.wav",
	} {
		lib.IRs[name] = &library.ImpulseResponse{Library: lib, Name: name, Path: path}
	}

	library.Finalize(lib)
	return lib
}

// sineWAV renders one 16-bit mono sine cycle set.
func sineWAV(freq float64, sampleRate, frames int) []byte {
	samples := make([]int16, frames)
	for i := range samples {
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
		samples[i] = utils.Float32ToInt16(float32(v * 0.8))
	}
	return monoWAV16(sampleRate, samples)
}

// impulseWAV renders a decaying noise burst usable as a room response.
func impulseWAV(sampleRate, frames int, decay float64) []byte {
	samples := make([]int16, frames)
	seed := uint64(0x9e3779b97f4a7c15)
	for i := range samples {
		seed = seed*6364136223846793005 + 1442695040888963407
		noise := float64(int32(seed>>33))/float64(1<<31) - 0.5
		env := math.Exp(-decay * float64(i) / float64(sampleRate) * 100)
		samples[i] = utils.Float32ToInt16(float32(noise * env))
	}
	return monoWAV16(sampleRate, samples)
}

func monoWAV16(sampleRate int, samples []int16) []byte {
	dataSize := len(samples) * 2
	buf := make([]byte, 44+dataSize)
	le := binary.LittleEndian

	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], 16)
	le.PutUint16(buf[20:22], 1) // PCM
	le.PutUint16(buf[22:24], 1) // mono
	le.PutUint32(buf[24:28], uint32(sampleRate))
	le.PutUint32(buf[28:32], uint32(sampleRate*2))
	le.PutUint16(buf[32:34], 2)
	le.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], uint32(dataSize))
	for i, s := range samples {
		le.PutUint16(buf[44+i*2:], uint16(s))
	}
	return buf
}
