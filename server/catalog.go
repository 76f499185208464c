// SPDX-License-Identifier: EPL-2.0

package server

import (
	"sync"
	"sync/atomic"

	"github.com/floe-audio/samplelib/library"
	"github.com/floe-audio/samplelib/sample"
)

// libraryNode owns one Library in the catalog. The node list is only
// mutated on the server goroutine; clients reach nodes through the
// name index under a short mutex and hold them via RefCounted handles.
type libraryNode struct {
	lib *library.Library

	// refs counts outstanding RefCounted[library.Library] handles plus
	// one per loaded instrument that backs onto this library.
	refs atomic.Int32

	// removed marks logical removal; the node is freed by the server
	// sweep once refs reaches zero.
	removed atomic.Bool

	// insts is the node's loaded-instrument table. Server goroutine only.
	insts map[string]*listedInstrument
}

// listedInstrument is a loaded instrument: the model object plus the
// audio buffers its regions resolve to.
type listedInstrument struct {
	inst *library.Instrument
	node *libraryNode

	refs    atomic.Int32
	removed atomic.Bool

	// audioByRegion lines up with inst.Regions. uniqueAudio holds each
	// distinct buffer once; refcounts are taken per unique buffer.
	audioByRegion []*listedAudioData
	uniqueAudio   []*listedAudioData
}

// LoadedInstrument is the payload of a successful instrument load.
// AudioByRegion lines up with Instrument.Regions.
type LoadedInstrument struct {
	Instrument    *library.Instrument
	AudioByRegion []*sample.AudioData
}

type catalog struct {
	mu     sync.Mutex
	byName map[library.LibraryID]*libraryNode

	// nodes is the backing list, server goroutine only.
	nodes []*libraryNode
}

func newCatalog() *catalog {
	return &catalog{byName: make(map[library.LibraryID]*libraryNode)}
}

// lookupRetained finds a live node by id and takes a reference, under
// the short mutex.
func (c *catalog) lookupRetained(id library.LibraryID, signal func()) *RefCounted[library.Library] {
	c.mu.Lock()
	defer c.mu.Unlock()
	node, ok := c.byName[id]
	if !ok || node.removed.Load() {
		return nil
	}
	return newRefCounted(node.lib, &node.refs, signal)
}

// allRetained snapshots every live library, taking a reference on each.
func (c *catalog) allRetained(signal func()) []*RefCounted[library.Library] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*RefCounted[library.Library], 0, len(c.byName))
	for _, node := range c.byName {
		if node.removed.Load() {
			continue
		}
		out = append(out, newRefCounted(node.lib, &node.refs, signal))
	}
	return out
}

// insert adds a node for a freshly read library. Server goroutine only.
func (c *catalog) insert(lib *library.Library) *libraryNode {
	node := &libraryNode{lib: lib, insts: make(map[string]*listedInstrument)}
	c.nodes = append(c.nodes, node)
	c.rebuildIndex()
	return node
}

// remove flags a node; the sweep frees it once unreferenced.
func (c *catalog) remove(node *libraryNode) {
	node.removed.Store(true)
	c.rebuildIndex()
}

// findByHash reports whether any live library has this content hash.
func (c *catalog) findByHash(hash uint64) *libraryNode {
	for _, node := range c.nodes {
		if !node.removed.Load() && node.lib.Hash == hash {
			return node
		}
	}
	return nil
}

// findByID returns the live node with this id, server side.
func (c *catalog) findByID(id library.LibraryID) *libraryNode {
	for _, node := range c.nodes {
		if !node.removed.Load() && node.lib.ID == id {
			return node
		}
	}
	return nil
}

// findByPath returns the live node whose library file is at path.
func (c *catalog) findByPath(path string) *libraryNode {
	for _, node := range c.nodes {
		if !node.removed.Load() && node.lib.Path == path {
			return node
		}
	}
	return nil
}

// rebuildIndex regenerates the name map from the node list under the
// mutex. Called after every structural change.
func (c *catalog) rebuildIndex() {
	c.mu.Lock()
	defer c.mu.Unlock()
	index := make(map[library.LibraryID]*libraryNode, len(c.nodes))
	for _, node := range c.nodes {
		if !node.removed.Load() {
			index[node.lib.ID] = node
		}
	}
	c.byName = index
}

// sweep frees removed nodes that no handle references anymore. It
// returns the nodes that were dropped so the caller can release their
// instruments. Server goroutine only.
func (c *catalog) sweep() []*libraryNode {
	var dropped []*libraryNode
	kept := c.nodes[:0]
	for _, node := range c.nodes {
		if node.removed.Load() && node.refs.Load() == 0 {
			dropped = append(dropped, node)
			continue
		}
		kept = append(kept, node)
	}
	if len(dropped) > 0 {
		c.nodes = kept
		c.rebuildIndex()
	}
	return dropped
}
