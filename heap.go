// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The storage space management: a thread-safe, stack-style (bump +
// LIFO-trim) allocator over one shared byte region.

package tabheap

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"modernc.org/mathutil"
)

const (
	heapHeaderSize = 16
	minHeapSize    = heapHeaderSize

	offWatermark = 4
	offLock      = 8
)

// HeapOption configures a Heap at construction time using the functional
// options style.
type HeapOption func(*heapConfig)

type heapConfig struct {
	spinBudget int
}

// WithSpinBudget sets how many CAS attempts the allocator lock makes
// before parking on its condition variable. The default is 64.
func WithSpinBudget(n int) HeapOption {
	return func(c *heapConfig) { c.spinBudget = n }
}

// Heap is a fixed-size, contiguous byte region with a 16-byte reserved
// header followed by bump-allocated Blocks. The entire region
// is safe to share and mutate concurrently from multiple goroutines:
// every multi-byte mutation of shared bookkeeping state (the watermark,
// the lock word, and every Block's trailing tag word) goes through
// sync/atomic.
//
// A Heap never relocates or grows its backing array; callers choose its
// final size up front.
type Heap struct {
	mem        []byte
	spinBudget int

	mu   sync.Mutex
	cond *sync.Cond
}

// NewHeap allocates a fresh Heap backed by a zeroed byte region of size
// bytes. size must be a multiple of 4; for size < 16 MiB it must be a
// power of two, for size >= 16 MiB a multiple of 16 MiB.
func NewHeap(size uint32, opts ...HeapOption) (*Heap, error) {
	if err := validateHeapSize(size); err != nil {
		return nil, err
	}
	cfg := heapConfig{spinBudget: 64}
	for _, o := range opts {
		o(&cfg)
	}
	h := &Heap{mem: make([]byte, size), spinBudget: cfg.spinBudget}
	h.cond = sync.NewCond(&h.mu)
	h.setWatermark(heapHeaderSize)
	return h, nil
}

// OpenHeap wraps a pre-existing byte region (e.g. one supplied by an
// external collaborator such as a file converter) as a Heap without
// reinitializing its header. buf's length is taken as the heap size and
// must satisfy the same size invariants as NewHeap.
func OpenHeap(buf []byte, opts ...HeapOption) (*Heap, error) {
	if err := validateHeapSize(uint32(len(buf))); err != nil {
		return nil, err
	}
	cfg := heapConfig{spinBudget: 64}
	for _, o := range opts {
		o(&cfg)
	}
	h := &Heap{mem: buf, spinBudget: cfg.spinBudget}
	h.cond = sync.NewCond(&h.mu)
	return h, nil
}

func validateHeapSize(size uint32) error {
	if size < minHeapSize || size%4 != 0 {
		return &ErrAlloc{Msg: "heap size must be >=16 and a multiple of 4", Requested: size}
	}
	const sixteenMiB = 16 << 20
	if size < sixteenMiB {
		if size&(size-1) != 0 {
			return &ErrAlloc{Msg: "heap size under 16MiB must be a power of two", Requested: size}
		}
		return nil
	}
	if size%sixteenMiB != 0 {
		return &ErrAlloc{Msg: "heap size at or above 16MiB must be a multiple of 16MiB", Requested: size}
	}
	return nil
}

// Size returns the total size of the heap's byte region, including the
// 16-byte reserved header.
func (h *Heap) Size() uint32 { return uint32(len(h.mem)) }

// Bytes returns the heap's full backing region. Callers that need a
// stable Block view should use Block.Bytes instead: the slice returned
// here is not guaranteed to remain the heap's canonical backing array
// across future features that might migrate the region.
func (h *Heap) Bytes() []byte { return h.mem }

func (h *Heap) u32ptr(off uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&h.mem[off]))
}

func (h *Heap) watermark() uint32 {
	return atomic.LoadUint32(h.u32ptr(offWatermark))
}

func (h *Heap) setWatermark(v uint32) {
	atomic.StoreUint32(h.u32ptr(offWatermark), v)
}

// FreeMemory reports the number of bytes available above the current
// watermark, i.e. the bytes a future Allocate could still claim.
func (h *Heap) FreeMemory() uint32 {
	return h.Size() - h.watermark()
}

// lock acquires the heap's allocation lock: spin-CAS for spinBudget
// attempts, then park on the condition variable until woken by unlock.
// This is the Go-native substitute for a futex-style wait/notify pair.
func (h *Heap) lock() {
	word := h.u32ptr(offLock)
	for i := 0; i < h.spinBudget; i++ {
		if atomic.CompareAndSwapUint32(word, 0, 1) {
			return
		}
		runtime.Gosched()
	}
	h.mu.Lock()
	for !atomic.CompareAndSwapUint32(word, 0, 1) {
		h.cond.Wait()
	}
	h.mu.Unlock()
}

func (h *Heap) unlock() {
	word := h.u32ptr(offLock)
	atomic.StoreUint32(word, 0)
	h.mu.Lock()
	h.cond.Signal()
	h.mu.Unlock()
}

// blockSize rounds a requested payload size up to a multiple of 4 and
// appends the trailing 4-byte tag word.
func blockSize(size uint32) uint32 {
	payload := (size + 3) &^ 3
	return payload + 4
}

// Allocate reserves a new Block able to hold size bytes. The block's
// content is left uninitialized; use AllocateZeroed for a zeroed block.
func (h *Heap) Allocate(size uint32) (Block, error) {
	return h.allocate(size, false)
}

// AllocateZeroed behaves like Allocate but zero-fills the returned
// Block's payload.
func (h *Heap) AllocateZeroed(size uint32) (Block, error) {
	return h.allocate(size, true)
}

func (h *Heap) allocate(size uint32, zero bool) (Block, error) {
	if size > h.Size() {
		return Block{}, &ErrAlloc{Msg: "oversized request", Requested: size, Available: h.FreeMemory()}
	}
	bs := blockSize(size)
	payload := bs - 4

	h.lock()
	free := h.Size() - h.watermark()
	if bs > free {
		h.unlock()
		return Block{}, &ErrAlloc{Msg: "insufficient free space", Requested: bs, Available: free}
	}
	addr := h.watermark()
	h.setWatermark(addr + bs)
	h.unlock()

	tagOff := addr + payload
	atomic.StoreUint32(h.u32ptr(tagOff), addr<<1) // free flag (low bit) clear

	if zero {
		region := h.mem[addr : addr+payload]
		for i := range region {
			region[i] = 0
		}
	}
	return Block{heap: h, start: addr, size: payload}, nil
}

// tagFreeBit is the low bit of a block's trailing tag word: 1 means
// free, 0 means used. The remaining bits carry the block's own start
// address once it is freed.
const tagFreeBit = 1

func (h *Heap) tagWord(off uint32) uint32 {
	return atomic.LoadUint32(h.u32ptr(off))
}

func (h *Heap) setTagWord(off, v uint32) {
	atomic.StoreUint32(h.u32ptr(off), v)
}

// Free deallocates b. If b sits at the top of the allocation stack, the
// allocator walks downward reclaiming any contiguous run of now-exposed
// free blocks, restoring the watermark to what it was before the
// reclaimed run was ever allocated. Interior free
// blocks remain reserved (marked, not reclaimed) until exposed.
func (h *Heap) Free(b Block) error {
	if b.heap != h {
		return &ErrInvalidBlock{Msg: "block belongs to a different heap", Start: b.start}
	}
	tagOff := b.start + b.size
	if tagOff+4 > h.Size() {
		return &ErrInvalidBlock{Msg: "block extends beyond heap", Start: b.start}
	}

	h.lock()
	defer h.unlock()

	tag := h.tagWord(tagOff)
	if tag&tagFreeBit != 0 {
		return &ErrInvalidBlock{Msg: "double free", Start: b.start}
	}
	h.setTagWord(tagOff, (b.start<<1)|tagFreeBit)

	wm := h.watermark()
	if wm == tagOff+4 {
		h.reclaimTop(tagOff + 4)
	}
	return nil
}

// reclaimTop walks downward from top, moving the watermark below every
// contiguous free block, and stops at the first used block or heap
// start. Caller must hold the lock.
func (h *Heap) reclaimTop(top uint32) {
	cur := top
	for cur > heapHeaderSize {
		tagOff := cur - 4
		tag := h.tagWord(tagOff)
		if tag&tagFreeBit == 0 {
			break
		}
		start := tag >> 1
		if start >= cur || start < heapHeaderSize {
			break
		}
		cur = start
	}
	h.setWatermark(cur)
}

// Shrink reduces b's recorded size to newSize. When newSize >= the
// block's current size this is a no-op. Shrinking the top
// block reclaims the freed tail via the same top-walk Free uses;
// shrinking an interior block just marks its tail free without moving
// the watermark. The new size is rounded up to a multiple of 4.
// Shrinking to zero is rejected with ErrInvalidBlock.
func (h *Heap) Shrink(b *Block, newSize uint32) error {
	if newSize >= b.size {
		return nil
	}
	if newSize == 0 {
		return &ErrInvalidBlock{Msg: "shrink to zero", Start: b.start}
	}
	oldTagOff := b.start + b.size
	newPayload := (newSize + 3) &^ 3
	newTagOff := b.start + newPayload

	h.lock()
	defer h.unlock()

	if newTagOff == oldTagOff {
		return nil
	}

	// b keeps its own trailing tag at newTagOff, exactly like any other
	// live block (clear free bit, same representation Allocate uses), so
	// a later Free(b) reads it as in-use rather than already-free.
	h.setTagWord(newTagOff, b.start<<1)
	// The freed tail is the region after b's new tag, [newTagOff+4,
	// oldTagOff+4): mark it as a free block whose own tag (at oldTagOff)
	// carries its own start address, same representation Free uses.
	h.setTagWord(oldTagOff, ((newTagOff+4)<<1)|tagFreeBit)

	wm := h.watermark()
	if wm == oldTagOff+4 {
		h.reclaimTop(oldTagOff + 4)
	}
	b.size = newPayload
	return nil
}

// Stats is a non-destructive snapshot of heap occupancy, grounded on
// lldb.AllocStats (falloc.go), which plays the same optional
// stats-surface role for Allocator.Verify.
type Stats struct {
	Size      uint32
	Watermark uint32
	Free      uint32
}

// Stats returns a point-in-time snapshot of the heap's occupancy.
func (h *Heap) Stats() Stats {
	wm := h.watermark()
	return Stats{Size: h.Size(), Watermark: wm, Free: h.Size() - wm}
}

// clampBatch returns the smaller of want and remain, used by the filter
// engine to size the last (partial) row batch.
func clampBatch(want, remain uint32) uint32 {
	return uint32(mathutil.Min(int(want), int(remain)))
}
