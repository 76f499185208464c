// SPDX-License-Identifier: EPL-2.0

// Package sample provides the byte-source and audio decoding layer of the
// sample-library subsystem.
//
// A Reader is a uniform byte source over either a whole file, a bounded
// section of a file, or an in-memory span. Library formats hand out Readers
// for the files they contain; the decoder consumes them.
//
// Decode turns a Reader into an AudioData: interleaved float32 samples plus
// channel count, sample rate, frame count and a 64-bit content hash. The
// container is selected by file extension:
//
//   - .flac: streaming FLAC decode, hash taken from the stream MD5
//   - .wav: PCM decode, hash is XXH3-64 of the decoded float32 bytes
//   - .r16: headerless 16-bit stereo 44.1kHz PCM, same hashing as WAV
//   - .ogg: Ogg Vorbis (modern libraries only)
//   - .mp3: MPEG layer 3 (modern libraries only)
//
// Decoders register themselves in a Registry keyed by extension; Decode
// consults the package default.
package sample
