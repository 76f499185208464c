// SPDX-License-Identifier: EPL-2.0

package sample

import (
	"encoding/binary"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/zeebo/xxh3"

	"github.com/floe-audio/samplelib/utils"
)

// AudioData is a fully decoded audio file. It is immutable for its
// lifetime; the server shares one AudioData between any number of
// instruments via reference counting.
type AudioData struct {
	Interleaved []float32
	Channels    uint8 // 1 or 2
	SampleRate  float32
	NumFrames   uint32
	Hash        uint64 // content hash of the decoded audio
}

// Decode reads all of r and decodes it into an AudioData. filenameForExt is
// only used to select the container by extension; it does not have to name
// a real file.
//
// Returns ErrUnsupportedContainer for unknown extensions,
// ErrNotMonoOrStereo for more than 2 channels, and ErrInvalidData for any
// decoder failure.
func Decode(r *Reader, filenameForExt string) (*AudioData, error) {
	ext := strings.ToLower(filepath.Ext(filenameForExt))

	fn, ok := defaultRegistry.Get(ext)
	if !ok {
		return nil, ErrUnsupportedContainer
	}

	return fn(r)
}

// f32LEBytes returns the little-endian byte image of samples, used for
// content hashing of non-FLAC audio.
func f32LEBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

func decodeFLAC(r *Reader) (*AudioData, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, ErrInvalidData
	}

	info := stream.Info
	if info.NChannels != 1 && info.NChannels != 2 {
		return nil, ErrNotMonoOrStereo
	}
	if info.BitsPerSample == 0 || info.BitsPerSample > 32 {
		return nil, ErrInvalidData
	}

	channels := int(info.NChannels)
	scale := 1.0 / float32(int64(1)<<(info.BitsPerSample-1))
	samples := make([]float32, 0, int(info.NSamples)*channels)

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ErrInvalidData
		}
		if len(frame.Subframes) != channels {
			return nil, ErrInvalidData
		}

		n := int(frame.BlockSize)
		for i := 0; i < n; i++ {
			for _, sub := range frame.Subframes {
				if i >= len(sub.Samples) {
					return nil, ErrInvalidData
				}
				samples = append(samples, float32(sub.Samples[i])*scale)
			}
		}
	}

	return &AudioData{
		Interleaved: samples,
		Channels:    uint8(channels),
		SampleRate:  float32(info.SampleRate),
		NumFrames:   uint32(len(samples) / channels),
		// The stream carries an MD5 of the decoded audio; fold its first
		// eight bytes into the 64-bit content hash.
		Hash: binary.LittleEndian.Uint64(info.MD5sum[:8]),
	}, nil
}

func decodeWAV(r *Reader) (*AudioData, error) {
	dec := wav.NewDecoder(r)

	buf, err := dec.FullPCMBuffer()
	if err != nil || buf == nil || buf.Format == nil {
		return nil, ErrInvalidData
	}

	channels := buf.Format.NumChannels
	if channels != 1 && channels != 2 {
		if channels <= 0 {
			return nil, ErrInvalidData
		}
		return nil, ErrNotMonoOrStereo
	}

	bits := buf.SourceBitDepth
	if bits == 0 {
		bits = int(dec.BitDepth)
	}
	if bits <= 0 || bits > 32 {
		return nil, ErrInvalidData
	}

	samples := intBufferToFloat32(buf, bits)

	return &AudioData{
		Interleaved: samples,
		Channels:    uint8(channels),
		SampleRate:  float32(buf.Format.SampleRate),
		NumFrames:   uint32(len(samples) / channels),
		Hash:        xxh3.Hash(f32LEBytes(samples)),
	}, nil
}

func decodeAIFF(r *Reader) (*AudioData, error) {
	dec := aiff.NewDecoder(r)

	buf, err := dec.FullPCMBuffer()
	if err != nil || buf == nil || buf.Format == nil {
		return nil, ErrInvalidData
	}

	channels := buf.Format.NumChannels
	if channels != 1 && channels != 2 {
		if channels <= 0 {
			return nil, ErrInvalidData
		}
		return nil, ErrNotMonoOrStereo
	}

	bits := buf.SourceBitDepth
	if bits == 0 {
		bits = int(dec.BitDepth)
	}
	if bits <= 0 || bits > 32 {
		return nil, ErrInvalidData
	}

	samples := intBufferToFloat32(buf, bits)

	return &AudioData{
		Interleaved: samples,
		Channels:    uint8(channels),
		SampleRate:  float32(buf.Format.SampleRate),
		NumFrames:   uint32(len(samples) / channels),
		Hash:        xxh3.Hash(f32LEBytes(samples)),
	}, nil
}

// intBufferToFloat32 scales integer PCM samples to -1..1 by the source
// bit depth.
func intBufferToFloat32(buf *gaudio.IntBuffer, bits int) []float32 {
	scale := 1.0 / float32(int64(1)<<(bits-1))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) * scale
	}
	return out
}

// decodeR16 interprets the whole stream as headerless interleaved
// 16-bit little-endian PCM, stereo, 44.1kHz. MDATA libraries store
// their raw audio pool in this shape.
func decodeR16(r *Reader) (*AudioData, error) {
	raw, err := r.ReadAll()
	if err != nil {
		return nil, ErrInvalidData
	}
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, ErrInvalidData
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = utils.Int16ToFloat32(v)
	}

	return &AudioData{
		Interleaved: samples,
		Channels:    2,
		SampleRate:  44100,
		NumFrames:   uint32(len(samples) / 2),
		Hash:        xxh3.Hash(f32LEBytes(samples)),
	}, nil
}

func decodeVorbis(r *Reader) (*AudioData, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, ErrInvalidData
	}
	if format.Channels != 1 && format.Channels != 2 {
		return nil, ErrNotMonoOrStereo
	}

	return &AudioData{
		Interleaved: data,
		Channels:    uint8(format.Channels),
		SampleRate:  float32(format.SampleRate),
		NumFrames:   uint32(len(data) / format.Channels),
		Hash:        xxh3.Hash(f32LEBytes(data)),
	}, nil
}

func decodeMP3(r *Reader) (*AudioData, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, ErrInvalidData
	}

	// go-mp3 always produces 16-bit little-endian stereo
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, ErrInvalidData
	}
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, ErrInvalidData
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = utils.Int16ToFloat32(v)
	}

	return &AudioData{
		Interleaved: samples,
		Channels:    2,
		SampleRate:  float32(dec.SampleRate()),
		NumFrames:   uint32(len(samples) / 2),
		Hash:        xxh3.Hash(f32LEBytes(samples)),
	}, nil
}
