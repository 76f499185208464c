// SPDX-License-Identifier: EPL-2.0

package server

import (
	"sync/atomic"

	"github.com/floe-audio/samplelib/library"
	"github.com/floe-audio/samplelib/sample"
)

// audioState is the load lifecycle of one decoded audio buffer.
//
//	PendingLoad -> Loading                 worker picks the job up
//	PendingLoad -> PendingCancel           sole requester gone
//	Loading -> CompletedSuccessfully       decode ok
//	Loading -> CompletedWithError          decode failed
//	PendingCancel -> CompletedCancelled    worker picks the job up
//	PendingCancel -> PendingLoad           re-requested
//	CompletedCancelled -> PendingLoad      re-requested, job resubmitted
type audioState uint32

const (
	audioPendingLoad audioState = iota
	audioLoading
	audioPendingCancel
	audioCompletedSuccessfully
	audioCompletedWithError
	audioCompletedCancelled
)

type audioKey struct {
	Library library.LibraryID
	Path    string
}

// listedAudioData is one audio buffer tracked by the server. State
// transitions are CAS so workers and the server goroutine never race.
// Data and Err are written by the worker before the terminal state
// store, and read only after it is observed.
type listedAudioData struct {
	key   audioKey
	state atomic.Uint32
	refs  atomic.Int32

	data *sample.AudioData
	err  error
}

func (a *listedAudioData) loadState() audioState { return audioState(a.state.Load()) }

func (a *listedAudioData) casState(from, to audioState) bool {
	return a.state.CompareAndSwap(uint32(from), uint32(to))
}

// decode runs on a worker. It resolves the path through the library's
// Open and decodes it, honoring a cancellation requested while the job
// sat in the queue.
func (a *listedAudioData) decode(open library.OpenFunc) {
	// Resolve the starting state in a loop: a cancel request can land
	// between observing PendingLoad and claiming it, and must not strand
	// the entry in PendingCancel with no job in flight.
	for {
		if a.casState(audioPendingCancel, audioCompletedCancelled) {
			return
		}
		if a.casState(audioPendingLoad, audioLoading) {
			break
		}
		switch a.loadState() {
		case audioPendingLoad, audioPendingCancel:
			continue
		default:
			// Another job already claimed or finished this entry.
			return
		}
	}

	r, err := open(a.key.Path)
	if err != nil {
		a.err = err
		a.state.Store(uint32(audioCompletedWithError))
		return
	}
	defer r.Close()

	data, err := sample.Decode(r, a.key.Path)
	if err != nil {
		a.err = err
		a.state.Store(uint32(audioCompletedWithError))
		return
	}
	a.data = data
	a.state.Store(uint32(audioCompletedSuccessfully))
}

// triggerReloadIfCancelled revives an audio data a new request wants.
// PendingCancel flips straight back to PendingLoad; the queued worker
// job will see PendingLoad and proceed. CompletedCancelled needs the
// job resubmitted, reported via the return value.
func (a *listedAudioData) triggerReloadIfCancelled() (resubmit bool) {
	if a.casState(audioPendingCancel, audioPendingLoad) {
		return false
	}
	return a.casState(audioCompletedCancelled, audioPendingLoad)
}

// requestCancel asks for cooperative cancellation. Only an audio data
// nobody else references may be cancelled, and only before a worker
// started decoding it.
func (a *listedAudioData) requestCancel() {
	if a.refs.Load() == 1 {
		a.casState(audioPendingLoad, audioPendingCancel)
	}
}
