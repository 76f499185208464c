// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// Int16ToFloat32 converts a signed 16-bit PCM sample to float32 in [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// Float32ToInt16 converts a float32 sample to signed 16-bit PCM. Values
// outside [-1, 1] clamp to the symmetric range [-32767, 32767].
func Float32ToInt16(x float32) int16 {
	switch {
	case x >= 1:
		return 32767
	case x <= -1:
		return -32767
	}
	return int16(x * 32767)
}

// DbToAmp converts decibels to a linear amplitude factor.
func DbToAmp(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// HzToMidiNote converts a frequency in Hz to a fractional MIDI note number
// (A4 = 440 Hz = note 69).
func HzToMidiNote(hz float32) float32 {
	if hz <= 0 {
		return 0
	}
	return float32(69 + 12*math.Log2(float64(hz)/440))
}

// MidiNoteToHz converts a fractional MIDI note number to Hz.
func MidiNoteToHz(note float32) float32 {
	return float32(440 * math.Pow(2, (float64(note)-69)/12))
}
