// SPDX-License-Identifier: EPL-2.0

package server

import (
	"sync"
	"testing"

	"github.com/floe-audio/samplelib/internal/libtest"
	"github.com/floe-audio/samplelib/sample"
)

func TestScanFolderList_RequestUnscanned(t *testing.T) {
	t.Parallel()

	l := newScanFolderList([]string{"/a", "/b"})
	if !l.requestUnscanned() {
		t.Fatal("first request should transition folders")
	}
	for _, f := range l.snapshot() {
		if f.scanState() != ScanRescanRequested {
			t.Errorf("%s state = %v, want RescanRequested", f.path, f.scanState())
		}
	}
	if l.requestUnscanned() {
		t.Fatal("second request should be a no-op")
	}
}

func TestScanFolderList_SetExtra(t *testing.T) {
	t.Parallel()

	l := newScanFolderList([]string{"/always"})
	l.setExtra([]string{"/x", "/y"})
	if got := len(l.snapshot()); got != 3 {
		t.Fatalf("live folders = %d, want 3", got)
	}

	// Mark /x scanned, then replace extras keeping only /x: its state
	// must survive, /y must be flagged removed.
	var x *scanFolder
	for _, f := range l.snapshot() {
		if f.path == "/x" {
			x = f
		}
	}
	x.setState(ScanScannedSuccessfully)

	l.setExtra([]string{"/x"})
	live := l.snapshot()
	if len(live) != 2 {
		t.Fatalf("live folders = %d, want 2", len(live))
	}
	for _, f := range live {
		if f.path == "/x" && f.scanState() != ScanScannedSuccessfully {
			t.Errorf("/x state reset to %v", f.scanState())
		}
	}

	l.sweepRemoved()
	if got := len(l.snapshot()); got != 2 {
		t.Fatalf("after sweep = %d, want 2", got)
	}
}

func TestScanFolderList_FolderContaining(t *testing.T) {
	t.Parallel()

	l := newScanFolderList([]string{"/libs"})
	if f := l.folderContaining("/libs/piano.mdata"); f == nil || f.path != "/libs" {
		t.Fatalf("folderContaining = %v", f)
	}
	if f := l.folderContaining("/other/piano.mdata"); f != nil {
		t.Fatalf("unexpected match: %v", f)
	}
	// A sibling whose name shares the prefix is not inside.
	if f := l.folderContaining("/libsX/piano.mdata"); f != nil {
		t.Fatalf("prefix sibling matched: %v", f)
	}
}

func TestAudioStateMachine(t *testing.T) {
	t.Parallel()

	a := &listedAudioData{}
	if a.loadState() != audioPendingLoad {
		t.Fatalf("zero state = %v, want PendingLoad", a.loadState())
	}

	// Sole requester cancels before a worker picks it up.
	a.refs.Store(1)
	a.requestCancel()
	if a.loadState() != audioPendingCancel {
		t.Fatalf("state = %v, want PendingCancel", a.loadState())
	}

	// A new request revives it in place; no resubmit needed.
	if resubmit := a.triggerReloadIfCancelled(); resubmit {
		t.Fatal("PendingCancel revival should not need a resubmit")
	}
	if a.loadState() != audioPendingLoad {
		t.Fatalf("state = %v, want PendingLoad", a.loadState())
	}

	// Worker observes the cancel if it lands first.
	a.requestCancel()
	if !a.casState(audioPendingCancel, audioCompletedCancelled) {
		t.Fatal("worker should take PendingCancel to CompletedCancelled")
	}
	if resubmit := a.triggerReloadIfCancelled(); !resubmit {
		t.Fatal("CompletedCancelled revival needs a resubmit")
	}
	if a.loadState() != audioPendingLoad {
		t.Fatalf("state = %v, want PendingLoad", a.loadState())
	}

	// Shared audio is never cancelled.
	a.refs.Store(2)
	a.requestCancel()
	if a.loadState() != audioPendingLoad {
		t.Fatalf("shared audio moved to %v", a.loadState())
	}
}

func TestAudioDecode_ConcurrentCancel(t *testing.T) {
	t.Parallel()

	wav := libtest.BuildWAV16(44100, 1, libtest.SineInt16(44100, 1, 64, 440))
	open := func(string) (*sample.Reader, error) {
		return sample.NewMemReader(wav), nil
	}

	// However the cancel interleaves with the worker claiming the job,
	// the entry must land in a terminal state, never stuck pending.
	for i := 0; i < 200; i++ {
		a := &listedAudioData{key: audioKey{Path: "a.wav"}}
		a.refs.Store(1)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.decode(open)
		}()
		go func() {
			defer wg.Done()
			a.requestCancel()
		}()
		wg.Wait()

		switch a.loadState() {
		case audioCompletedSuccessfully, audioCompletedCancelled:
		default:
			t.Fatalf("iteration %d: state = %d, want a terminal state", i, a.loadState())
		}
	}
}
