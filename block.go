// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabheap

// Block is an opaque handle to an allocated byte range within a Heap:
// {heap, start address, payload size}. A Block never caches a []byte
// slice of its own; Bytes() constructs one on demand against the heap's
// current backing array, so no slice can go stale across a resize.
//
// A Block's lifetime ends at Heap.Free; reading or writing it afterward
// is undefined.
type Block struct {
	heap  *Heap
	start uint32
	size  uint32
}

// Start returns the block's start address within its heap.
func (b Block) Start() uint32 { return b.start }

// Size returns the block's current payload size (post any Shrink).
func (b Block) Size() uint32 { return b.size }

// Heap returns the Heap that owns b.
func (b Block) Heap() *Heap { return b.heap }

// Bytes returns a []byte view over b's payload, [start, start+size), in
// the heap's current backing array.
func (b Block) Bytes() []byte {
	return b.heap.mem[b.start : b.start+b.size]
}

// Valid reports whether b refers to a non-nil heap; the zero Block is
// invalid.
func (b Block) Valid() bool { return b.heap != nil }
