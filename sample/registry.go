// SPDX-License-Identifier: EPL-2.0

package sample

import "sync"

// DecodeFunc decodes an entire Reader into an AudioData.
type DecodeFunc func(r *Reader) (*AudioData, error)

// Registry maps file extensions (lower-case, with leading dot) to decoders.
type Registry struct {
	codecs map[string]DecodeFunc

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]DecodeFunc),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(ext string, fn DecodeFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[ext] = fn
}

func (r *Registry) Get(ext string) (DecodeFunc, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	fn, ok := r.codecs[ext]
	return fn, ok
}

// defaultRegistry holds the built-in container decoders used by Decode.
var defaultRegistry = func() *Registry {
	reg := NewRegistry()
	reg.Register(".flac", decodeFLAC)
	reg.Register(".wav", decodeWAV)
	reg.Register(".r16", decodeR16)
	reg.Register(".ogg", decodeVorbis)
	reg.Register(".mp3", decodeMP3)
	reg.Register(".aiff", decodeAIFF)
	reg.Register(".aif", decodeAIFF)
	return reg
}()
