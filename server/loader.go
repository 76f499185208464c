// SPDX-License-Identifier: EPL-2.0

package server

import (
	"fmt"

	"github.com/floe-audio/samplelib/sample"
)

// pendingState is the lifecycle of one load request on the server
// goroutine.
type pendingState uint8

const (
	pendingAwaitingLibrary pendingState = iota
	pendingAwaitingAudio
	pendingDone
)

type pendingResult struct {
	id      RequestID
	conn    *Connection
	request LoadRequest
	state   pendingState

	// inst is set for instrument requests once the library resolved.
	inst *listedInstrument
	// irAudio is set for IR requests; the pending result holds one ref
	// on it until terminal.
	irAudio *listedAudioData

	result LoadResult
}

func (p *pendingResult) finish(code ResultCode, err error) {
	p.state = pendingDone
	p.result = LoadResult{ID: p.id, Code: code, Err: err}
	if li, ok := p.request.(LoadInstrument); ok {
		p.conn.setPercent(li.Layer, -1)
	}
	if p.irAudio != nil {
		p.irAudio.refs.Add(-1)
		p.irAudio = nil
	}
}

// processPending advances every non-terminal result one step.
func (s *Server) processPending() {
	for _, p := range s.pending {
		switch p.state {
		case pendingAwaitingLibrary:
			s.resolveLibrary(p)
		case pendingAwaitingAudio:
			s.checkAudio(p)
		}
	}
}

func (s *Server) resolveLibrary(p *pendingResult) {
	switch req := p.request.(type) {
	case LoadInstrument:
		node := s.catalog.findByID(req.Instrument.Library)
		if node == nil {
			s.failIfNothingOutstanding(p, req.Instrument.Library.String())
			return
		}
		li := s.fetchOrCreateInstrument(node, req.Instrument.Name)
		if li == nil {
			s.fail(p, fmt.Errorf("instrument %s: %w", req.Instrument, ErrNotFound),
				"Instrument not found", req.Instrument.String())
			return
		}
		p.inst = li
		p.state = pendingAwaitingAudio

	case LoadIR:
		node := s.catalog.findByID(req.IR.Library)
		if node == nil {
			s.failIfNothingOutstanding(p, req.IR.Library.String())
			return
		}
		ir := node.lib.FindIR(req.IR.Name)
		if ir == nil {
			s.fail(p, fmt.Errorf("impulse response %s: %w", req.IR, ErrNotFound),
				"Impulse response not found", req.IR.String())
			return
		}
		p.irAudio = s.fetchOrCreateAudio(node, ir.Path)
		p.irAudio.refs.Add(1)
		p.state = pendingAwaitingAudio
	}
}

// failIfNothingOutstanding fails a library lookup with NotFound only
// when no scan or read job could still produce the library.
func (s *Server) failIfNothingOutstanding(p *pendingResult, key string) {
	if s.outstandingReads > 0 || s.outstandingScans > 0 {
		return
	}
	if s.folders.requestUnscanned() {
		return
	}
	s.fail(p, fmt.Errorf("library %s: %w", key, ErrNotFound), "Library not found", key)
}

func (s *Server) fail(p *pendingResult, err error, title, key string) {
	p.finish(LoadFailed, err)
	s.notify(p.conn, ErrorNotification{
		ID:      notificationID(title, key),
		Title:   title,
		Message: err.Error(),
		Err:     err,
	})
}

func (s *Server) checkAudio(p *pendingResult) {
	switch req := p.request.(type) {
	case LoadInstrument:
		s.checkInstrumentAudio(p, req)
	case LoadIR:
		s.checkIRAudio(p, req)
	}
}

func (s *Server) checkInstrumentAudio(p *pendingResult, req LoadInstrument) {
	li := p.inst

	// Any buffer in error fails the whole load; the entry stays in its
	// error state so other dependents report the same failure.
	for _, a := range li.uniqueAudio {
		if a.loadState() == audioCompletedWithError {
			s.fail(p, fmt.Errorf("%s: %w", req.Instrument, a.err),
				"Failed to load instrument", req.Instrument.String())
			s.cancelInstrument(p)
			return
		}
	}

	// A newer request for the same layer supersedes this one.
	if desired := p.conn.desired[req.Layer].Load(); desired == nil || *desired != req.Instrument {
		s.cancelInstrument(p)
		p.finish(LoadCancelled, nil)
		return
	}

	completed := 0
	for _, a := range li.uniqueAudio {
		if a.loadState() == audioCompletedSuccessfully {
			completed++
		}
	}
	if completed < len(li.uniqueAudio) {
		p.conn.setPercent(req.Layer, int32(completed*100/len(li.uniqueAudio)))
		return
	}

	// Each handle gets its own payload: earlier handles for the same
	// instrument may be read concurrently by their owners.
	loaded := &LoadedInstrument{
		Instrument:    li.inst,
		AudioByRegion: make([]*sample.AudioData, 0, len(li.audioByRegion)),
	}
	for _, a := range li.audioByRegion {
		loaded.AudioByRegion = append(loaded.AudioByRegion, a.data)
	}

	handle := newRefCounted(loaded, &li.refs, s.signal)
	p.finish(LoadCompleted, nil)
	p.result.Instrument = handle
}

func (s *Server) checkIRAudio(p *pendingResult, req LoadIR) {
	a := p.irAudio
	switch a.loadState() {
	case audioCompletedWithError:
		s.fail(p, fmt.Errorf("%s: %w", req.IR, a.err),
			"Failed to load impulse response", req.IR.String())
	case audioCompletedSuccessfully:
		handle := newRefCounted(a.data, &a.refs, s.signal)
		p.finish(LoadCompleted, nil)
		p.result.Audio = handle
	case audioCompletedCancelled:
		if s.submitDecodeFor(a) {
			return
		}
		p.finish(LoadCancelled, nil)
	}
}

// cancelInstrument cooperatively cancels an instrument's pending audio,
// provided no other pending request wants the same instrument.
func (s *Server) cancelInstrument(p *pendingResult) {
	for _, other := range s.pending {
		if other != p && other.inst == p.inst && other.state != pendingDone {
			return
		}
	}
	for _, a := range p.inst.uniqueAudio {
		a.requestCancel()
	}
}

// fetchOrCreateInstrument returns the node's loaded instrument by name,
// creating it and dispatching decode jobs on first use.
func (s *Server) fetchOrCreateInstrument(node *libraryNode, name string) *listedInstrument {
	if li, ok := node.insts[name]; ok && !li.removed.Load() {
		for _, a := range li.uniqueAudio {
			if a.triggerReloadIfCancelled() {
				s.submitDecode(node, a)
			}
		}
		return li
	}

	inst := node.lib.FindInstrument(name)
	if inst == nil {
		return nil
	}

	li := &listedInstrument{inst: inst, node: node}
	node.refs.Add(1)

	seen := make(map[*listedAudioData]bool, len(inst.Regions))
	for i := range inst.Regions {
		a := s.fetchOrCreateAudio(node, inst.Regions[i].Path)
		li.audioByRegion = append(li.audioByRegion, a)
		if !seen[a] {
			seen[a] = true
			li.uniqueAudio = append(li.uniqueAudio, a)
		}
	}
	for _, a := range li.uniqueAudio {
		a.refs.Add(1)
	}

	node.insts[name] = li
	return li
}

// fetchOrCreateAudio returns the tracked audio for (library, path),
// creating it in PendingLoad and submitting a decode job on first use.
func (s *Server) fetchOrCreateAudio(node *libraryNode, path string) *listedAudioData {
	key := audioKey{Library: node.lib.ID, Path: path}
	if a, ok := s.audio[key]; ok {
		if a.triggerReloadIfCancelled() {
			s.submitDecode(node, a)
		}
		return a
	}
	a := &listedAudioData{key: key}
	s.audio[key] = a
	s.submitDecode(node, a)
	return a
}

func (s *Server) submitDecode(node *libraryNode, a *listedAudioData) {
	open := node.lib.Open
	s.decodeWG.Add(1)
	ok := s.pool.Submit(func() {
		defer s.decodeWG.Done()
		a.decode(open)
		s.signal()
	})
	if !ok {
		s.decodeWG.Done()
	}
}

// submitDecodeFor re-dispatches a cancelled audio for a request that
// still wants it. Reports whether a job was submitted.
func (s *Server) submitDecodeFor(a *listedAudioData) bool {
	node := s.catalog.findByID(a.key.Library)
	if node == nil {
		return false
	}
	if !a.casState(audioCompletedCancelled, audioPendingLoad) {
		return false
	}
	s.submitDecode(node, a)
	return true
}

// deliverTerminal invokes callbacks for done results and drops them
// from the pending list. Results for closed connections release their
// payload instead.
func (s *Server) deliverTerminal() {
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.state != pendingDone {
			kept = append(kept, p)
			continue
		}
		if p.conn.used.Load() {
			p.conn.callback(p.result)
			continue
		}
		if p.result.Instrument != nil {
			p.result.Instrument.Release()
		}
		if p.result.Audio != nil {
			p.result.Audio.Release()
		}
	}
	s.pending = kept
}

// removeUnreferenced frees instruments, audio buffers and libraries
// whose refcounts reached zero and that no pending request still needs.
func (s *Server) removeUnreferenced() {
	pendingInsts := make(map[*listedInstrument]bool)
	pendingAudio := make(map[*listedAudioData]bool)
	for _, p := range s.pending {
		if p.inst != nil {
			pendingInsts[p.inst] = true
		}
		if p.irAudio != nil {
			pendingAudio[p.irAudio] = true
		}
	}

	for _, node := range s.catalog.nodes {
		for name, li := range node.insts {
			if li.refs.Load() != 0 || pendingInsts[li] {
				continue
			}
			li.removed.Store(true)
			delete(node.insts, name)
			for _, a := range li.uniqueAudio {
				a.refs.Add(-1)
			}
			node.refs.Add(-1)
		}
	}

	for key, a := range s.audio {
		if a.refs.Load() != 0 || pendingAudio[a] {
			continue
		}
		if a.loadState() == audioLoading {
			continue
		}
		delete(s.audio, key)
	}

	s.catalog.sweep()
}
