// SPDX-License-Identifier: EPL-2.0

package server

import (
	"sync/atomic"

	"github.com/floe-audio/samplelib/library"
	"github.com/floe-audio/samplelib/sample"
)

// NumLayers is the number of sampler layers a connection can load
// instruments into.
const NumLayers = 3

// RequestID identifies a load request within a server.
type RequestID uint64

// LoadRequest is either a LoadInstrument or a LoadIR.
type LoadRequest interface{ isLoadRequest() }

// LoadInstrument asks for an instrument to be resolved and its audio
// decoded, destined for one of the connection's layers.
type LoadInstrument struct {
	Instrument library.InstrumentID
	Layer      int
}

// LoadIR asks for an impulse response's audio.
type LoadIR struct {
	IR library.IrID
}

func (LoadInstrument) isLoadRequest() {}
func (LoadIR) isLoadRequest() {}

// ResultCode is the outcome of a load request.
type ResultCode uint8

const (
	LoadCompleted ResultCode = iota
	LoadFailed
	LoadCancelled
)

// LoadResult is delivered through the connection's callback. Exactly
// one of Instrument or Audio is set when Code is LoadCompleted; the
// receiver owns the handle and must Release it when done.
type LoadResult struct {
	ID   RequestID
	Code ResultCode
	Err  error

	Instrument *RefCounted[LoadedInstrument]
	Audio      *RefCounted[sample.AudioData]
}

// Connection is a client's handle to the server. Closing it does not
// free it immediately; the server sweeps dead connections each
// iteration.
type Connection struct {
	server *Server

	used atomic.Bool

	sink     ErrorSink
	callback func(LoadResult)

	// desired holds the most recently requested instrument per layer.
	// A pending load whose instrument has diverged from this is
	// cancelled.
	desired [NumLayers]atomic.Pointer[library.InstrumentID]

	// loadingPercents is -1 when a layer is idle, else the integer
	// progress of the active load. Monotone while a load is running.
	loadingPercents [NumLayers]atomic.Int32
}

// LoadingPercent returns a layer's load progress, or -1 when idle.
func (c *Connection) LoadingPercent(layer int) int32 {
	return c.loadingPercents[layer].Load()
}

func (c *Connection) setPercent(layer int, percent int32) {
	// Keep progress monotone while the load is active; -1 resets.
	if percent >= 0 && percent < c.loadingPercents[layer].Load() {
		return
	}
	c.loadingPercents[layer].Store(percent)
}
