// SPDX-License-Identifier: EPL-2.0

// Package libtest builds in-memory library and audio fixtures for tests.
// It depends on nothing outside the standard library so every package in
// the module can use it without import cycles.
package libtest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// BuildWAV16 returns the bytes of a canonical 44-byte-header PCM 16-bit
// WAV file containing the given interleaved samples.
func BuildWAV16(sampleRate, channels int, samples []int16) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	byteRate := sampleRate * channels * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2)) // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}

	return buf.Bytes()
}

// BuildAIFF16 returns the bytes of a PCM 16-bit AIFF file containing the
// given interleaved samples. AIFF is big-endian throughout; the sample
// rate is stored as an 80-bit extended float in the COMM chunk.
func BuildAIFF16(sampleRate, channels int, samples []int16) []byte {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	// COMM body (18) + SSND body (8 + data), each with an 8-byte chunk
	// header, plus the FORM type.
	formSize := 4 + 8 + 18 + 8 + 8 + dataSize

	buf.WriteString("FORM")
	binary.Write(&buf, binary.BigEndian, uint32(formSize))
	buf.WriteString("AIFF")

	buf.WriteString("COMM")
	binary.Write(&buf, binary.BigEndian, uint32(18))
	binary.Write(&buf, binary.BigEndian, uint16(channels))
	binary.Write(&buf, binary.BigEndian, uint32(len(samples)/channels))
	binary.Write(&buf, binary.BigEndian, uint16(16))
	rate := extendedFloat(sampleRate)
	buf.Write(rate[:])

	buf.WriteString("SSND")
	binary.Write(&buf, binary.BigEndian, uint32(8+dataSize))
	binary.Write(&buf, binary.BigEndian, uint32(0)) // offset
	binary.Write(&buf, binary.BigEndian, uint32(0)) // block size
	for _, s := range samples {
		binary.Write(&buf, binary.BigEndian, s)
	}

	return buf.Bytes()
}

// extendedFloat encodes a positive integer as an 80-bit IEEE 754
// extended-precision float: 15-bit exponent biased by 16383, then a
// 64-bit mantissa with an explicit leading one bit.
func extendedFloat(v int) [10]byte {
	var b [10]byte
	if v <= 0 {
		return b
	}
	m := uint64(v)
	e := 16383 + 63
	for m&(1<<63) == 0 {
		m <<= 1
		e--
	}
	binary.BigEndian.PutUint16(b[0:2], uint16(e))
	binary.BigEndian.PutUint64(b[2:10], m)
	return b
}

// BuildR16 returns headerless interleaved 16-bit little-endian PCM bytes.
func BuildR16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// SineInt16 generates n samples of a sine wave at the given frequency,
// duplicated across channels.
func SineInt16(sampleRate, channels, n int, freq float64) []int16 {
	out := make([]int16, n*channels)
	for i := 0; i < n; i++ {
		v := int16(math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)) * 16000)
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}
	return out
}
