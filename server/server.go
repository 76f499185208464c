// SPDX-License-Identifier: EPL-2.0

package server

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/floe-audio/samplelib/formats/lualib"
	"github.com/floe-audio/samplelib/library"
)

// Config configures a Server. Zero values get sensible defaults.
type Config struct {
	// AlwaysScannedFolders are scanned on first use and on every
	// rescan. Non-existent folders are tolerated silently.
	AlwaysScannedFolders []string

	// Workers is the size of the shared worker pool. Default 4.
	Workers int

	// Logger receives lifecycle logging. Default zap.NewNop().
	Logger *zap.Logger

	// Sink receives error notifications not tied to a connection.
	// Default is a fresh NotificationList.
	Sink ErrorSink
}

// pollInterval bounds how long the server sleeps without being
// signalled.
const pollInterval = 250 * time.Millisecond

type queuedRequest struct {
	id      RequestID
	conn    *Connection
	request LoadRequest
}

// Server is the sample-library service. See the package documentation.
type Server struct {
	log  *zap.Logger
	sink ErrorSink

	pool    *workerPool
	catalog *catalog
	folders *scanFolderList
	watch   *watcher

	requests    chan queuedRequest
	scanResults resultQueue[scanResult]
	readResults resultQueue[readResult]
	signalCh    chan struct{}

	end    atomic.Bool
	nextID atomic.Uint64
	wg     sync.WaitGroup

	connMu sync.Mutex
	conns  []*Connection

	// Server-goroutine state.
	pending          []*pendingResult
	audio            map[audioKey]*listedAudioData
	outstandingScans int
	outstandingReads int
	decodeWG         sync.WaitGroup

	statInsts   atomic.Int64
	statSamples atomic.Int64
	statBytes   atomic.Int64
}

// New starts a server. The built-in library is present in the catalog
// from the start; configured folders are scanned lazily on the first
// catalog read.
func New(cfg Config) *Server {
	s := newServer(cfg)
	s.wg.Add(1)
	go s.run()
	s.log.Info("sample library server started",
		zap.Strings("folders", cfg.AlwaysScannedFolders))
	return s
}

func newServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = NewNotificationList()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	s := &Server{
		log:      log,
		sink:     sink,
		pool:     newWorkerPool(workers),
		catalog:  newCatalog(),
		folders:  newScanFolderList(cfg.AlwaysScannedFolders),
		requests: make(chan queuedRequest, 256),
		signalCh: make(chan struct{}, 1),
		audio:    make(map[audioKey]*listedAudioData),
	}

	s.catalog.insert(builtinLibrary())

	w, err := newWatcher()
	if err != nil {
		log.Warn("filesystem watcher unavailable, live reload disabled", zap.Error(err))
	} else {
		s.watch = w
		for _, f := range s.folders.snapshot() {
			w.watch(f.path)
		}
	}

	return s
}

// Close stops the server. All connections must have been closed first.
func (s *Server) Close() {
	s.end.Store(true)
	s.signal()
	s.wg.Wait()
	s.pool.Close()
	s.watch.close()

	s.connMu.Lock()
	for _, c := range s.conns {
		if c.used.Load() {
			s.connMu.Unlock()
			panic("server: Close called with open connections")
		}
	}
	s.connMu.Unlock()
	s.log.Info("sample library server stopped")
}

// SetExtraScanFolders replaces the client-configured scan folders.
func (s *Server) SetExtraScanFolders(paths []string) {
	s.folders.setExtra(paths)
	for _, p := range paths {
		s.watch.watch(p)
	}
	s.folders.requestUnscanned()
	s.signal()
}

// OpenConnection registers a client. The callback is invoked from the
// server goroutine; it must not block.
func (s *Server) OpenConnection(sink ErrorSink, callback func(LoadResult)) *Connection {
	if sink == nil {
		sink = s.sink
	}
	c := &Connection{server: s, sink: sink, callback: callback}
	c.used.Store(true)
	for i := range c.loadingPercents {
		c.loadingPercents[i].Store(-1)
	}
	s.connMu.Lock()
	s.conns = append(s.conns, c)
	s.connMu.Unlock()
	return c
}

// CloseConnection marks a connection dead. Its pending results are
// dropped without callbacks; the server frees it on its next sweep.
func (s *Server) CloseConnection(c *Connection) {
	c.used.Store(false)
	s.signal()
}

// SendLoadRequest queues a load. Requests from one connection are
// processed in submission order.
func (s *Server) SendLoadRequest(c *Connection, req LoadRequest) RequestID {
	id := RequestID(s.nextID.Add(1))
	if inst, ok := req.(LoadInstrument); ok {
		want := inst.Instrument
		c.desired[inst.Layer].Store(&want)
		c.setPercent(inst.Layer, 0)
	}
	s.requests <- queuedRequest{id: id, conn: c, request: req}
	s.signal()
	return id
}

// FindLibraryRetained looks up a library by id, returning a handle
// that keeps it alive. The first call triggers scanning of folders not
// yet scanned.
func (s *Server) FindLibraryRetained(id library.LibraryID) (*RefCounted[library.Library], bool) {
	if s.folders.requestUnscanned() {
		s.signal()
	}
	h := s.catalog.lookupRetained(id, s.signal)
	return h, h != nil
}

// AllLibrariesRetained snapshots every live library, retained.
func (s *Server) AllLibrariesRetained() []*RefCounted[library.Library] {
	if s.folders.requestUnscanned() {
		s.signal()
	}
	return s.catalog.allRetained(s.signal)
}

// Stats are the server's aggregate load counters.
type Stats struct {
	NumInstsLoaded          int64
	NumSamplesLoaded        int64
	TotalBytesUsedBySamples int64
}

func (s *Server) Stats() Stats {
	return Stats{
		NumInstsLoaded:          s.statInsts.Load(),
		NumSamplesLoaded:        s.statSamples.Load(),
		TotalBytesUsedBySamples: s.statBytes.Load(),
	}
}

func (s *Server) signal() {
	select {
	case s.signalCh <- struct{}{}:
	default:
	}
}

func (s *Server) notify(c *Connection, n ErrorNotification) {
	sink := s.sink
	if c != nil && c.sink != nil {
		sink = c.sink
	}
	sink.Publish(n)
}

func (s *Server) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.signalCh:
		case <-time.After(pollInterval):
		}

		s.iterate()

		if s.end.Load() {
			s.shutdown()
			return
		}
	}
}

// iterate is one pass of the server loop: take in new work, advance
// scanning, advance pending loads, deliver results, sweep.
func (s *Server) iterate() {
	s.drainRequests()
	s.processWatchEvents()
	s.dispatchScans()
	s.drainScanResults()
	s.drainReadResults()

	s.processPending()
	s.deliverTerminal()
	s.publishCounters()

	if len(s.pending) == 0 && s.outstandingReads == 0 && s.outstandingScans == 0 {
		// Quiescent: let in-flight decodes settle, then collect.
		s.decodeWG.Wait()
		s.removeUnreferenced()
		s.sweepConnections()
		s.folders.sweepRemoved()
	}
}

func (s *Server) drainRequests() {
	arrived := false
	for {
		select {
		case q := <-s.requests:
			arrived = true
			s.pending = append(s.pending, &pendingResult{
				id:      q.id,
				conn:    q.conn,
				request: q.request,
				state:   pendingAwaitingLibrary,
			})
		default:
			if arrived {
				s.folders.requestUnscanned()
			}
			return
		}
	}
}

func (s *Server) processWatchEvents() {
	events := s.watch.drain()
	if len(events) == 0 {
		return
	}
	known := s.knownLibraries()
	for _, ev := range events {
		inFolder := s.folders.folderContaining(filepath.Dir(ev.Name)) != nil
		c := classifyEvent(ev, known, inFolder)
		switch c.action {
		case watchReadLibrary:
			s.submitRead(c.path)
		case watchRemoveLibrary:
			if node := s.catalog.findByID(c.id); node != nil {
				s.log.Info("library removed from disk", zap.String("library", c.id.String()))
				s.catalog.remove(node)
			}
		case watchRescanFolder:
			if f := s.folders.folderContaining(c.path); f != nil {
				if f.scanState() != ScanScanning {
					f.setState(ScanRescanRequested)
				}
			}
		}
	}
}

func (s *Server) knownLibraries() []knownLibrary {
	var out []knownLibrary
	for _, node := range s.catalog.nodes {
		if node.removed.Load() || node.lib.Path == "" {
			continue
		}
		k := knownLibrary{id: node.lib.ID, mainPath: node.lib.Path}
		// For Lua libraries Path is the library directory; the file to
		// re-read on change is the script inside it.
		if spec, ok := node.lib.FileFormat.(*lualib.Specifics); ok {
			k.mainPath = spec.ScriptPath
			k.luaDir = node.lib.Path
		}
		out = append(out, k)
	}
	return out
}

func (s *Server) dispatchScans() {
	for _, f := range s.folders.snapshot() {
		if !f.casState(ScanRescanRequested, ScanScanning) {
			continue
		}
		folder := f
		s.outstandingScans++
		ok := s.pool.Submit(func() {
			s.scanResults.push(scanFolderJob(folder))
			s.signal()
		})
		if !ok {
			s.outstandingScans--
			folder.setState(ScanFailed)
		}
	}
}

func (s *Server) drainScanResults() {
	for _, res := range s.scanResults.drain() {
		s.outstandingScans--
		if res.err != nil {
			res.folder.setState(ScanFailed)
			if !suppressScanError(res.folder, res.err) {
				s.notify(nil, ErrorNotification{
					ID:      notificationID("scan-folder", res.folder.path),
					Title:   "Failed to scan folder",
					Message: res.err.Error(),
					Err:     res.err,
				})
			}
			continue
		}
		res.folder.setState(ScanScannedSuccessfully)
		for _, path := range res.libraryPaths {
			s.submitRead(path)
		}
	}
}

func (s *Server) submitRead(path string) {
	s.outstandingReads++
	ok := s.pool.Submit(func() {
		s.readResults.push(readLibraryJob(path))
		s.signal()
	})
	if !ok {
		s.outstandingReads--
	}
}

func (s *Server) drainReadResults() {
	for _, res := range s.readResults.drain() {
		s.outstandingReads--
		s.handleReadResult(res)
	}
}

func (s *Server) handleReadResult(res readResult) {
	if res.err != nil {
		s.log.Warn("failed to read library",
			zap.String("path", res.path), zap.Error(res.err))
		s.notify(nil, ErrorNotification{
			ID:      notificationID("read-library", res.path),
			Title:   "Failed to read library",
			Message: res.err.Error(),
			Err:     res.err,
		})
		return
	}

	lib := res.lib

	// Identical content already present: a duplicate install or a
	// no-op reload. Drop the fresh copy.
	if s.catalog.findByHash(lib.Hash) != nil {
		return
	}
	if node := s.catalog.findByID(lib.ID); node != nil {
		s.catalog.remove(node)
	}
	if node := s.catalog.findByPath(lib.Path); node != nil {
		s.catalog.remove(node)
	}

	s.catalog.insert(lib)
	// Lua libraries are directories: watch the directory itself so edits
	// to the script and its auxiliary files are seen (watches are not
	// recursive). For single-file libraries watch the enclosing folder.
	if _, ok := lib.FileFormat.(*lualib.Specifics); ok {
		s.watch.watch(lib.Path)
	} else {
		s.watch.watch(filepath.Dir(lib.Path))
	}
	s.log.Info("library loaded",
		zap.String("library", lib.ID.String()),
		zap.String("path", lib.Path),
		zap.Int("instruments", len(lib.Insts)))
}

func (s *Server) publishCounters() {
	var insts, samples, bytes int64
	for _, node := range s.catalog.nodes {
		insts += int64(len(node.insts))
	}
	for _, a := range s.audio {
		if a.loadState() == audioCompletedSuccessfully {
			samples++
			bytes += int64(len(a.data.Interleaved)) * 4
		}
	}
	s.statInsts.Store(insts)
	s.statSamples.Store(samples)
	s.statBytes.Store(bytes)
}

func (s *Server) sweepConnections() {
	s.connMu.Lock()
	kept := s.conns[:0]
	for _, c := range s.conns {
		if c.used.Load() {
			kept = append(kept, c)
		}
	}
	s.conns = kept
	s.connMu.Unlock()
}

// shutdown flushes remaining work so no callback is left hanging:
// pending loads finish as Cancelled.
func (s *Server) shutdown() {
	s.drainRequests()
	s.decodeWG.Wait()
	for _, p := range s.pending {
		if p.state != pendingDone {
			p.finish(LoadCancelled, nil)
		}
	}
	s.deliverTerminal()
	s.removeUnreferenced()
}
