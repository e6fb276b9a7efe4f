// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabheap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapAllocateInvariants(t *testing.T) {
	h, err := NewHeap(4096)
	require.NoError(t, err)

	sizes := []uint32{1, 2, 3, 4, 5, 100, 255, 256}
	for _, sz := range sizes {
		b, err := h.Allocate(sz)
		require.NoErrorf(t, err, "allocate(%d)", sz)
		require.GreaterOrEqualf(t, b.Size(), sz, "size %d", sz)
		require.Zero(t, b.Size()%4)
		require.Zero(t, b.Start()%4)
		require.GreaterOrEqual(t, b.Start(), uint32(16))
		require.LessOrEqual(t, b.Start()+b.Size()+4, h.Size())
	}
}

// TestAllocatorStackReclaim allocates three 1KiB blocks, frees the
// middle one (no space reclaimed), frees the top one, re-frees the
// middle one (double-free error), then frees the bottom one and
// observes free memory return to its starting value.
func TestAllocatorStackReclaim(t *testing.T) {
	h, err := NewHeap(1 << 20)
	require.NoError(t, err)

	initialFree := h.FreeMemory()

	a, err := h.Allocate(1024)
	require.NoError(t, err)
	b, err := h.Allocate(1024)
	require.NoError(t, err)
	c, err := h.Allocate(1024)
	require.NoError(t, err)

	require.NoError(t, h.Free(b))
	require.Equal(t, initialFree-blockSize(1024)*3, h.FreeMemory(), "freeing an interior block must not move the watermark")

	require.NoError(t, h.Free(c))
	err = h.Free(b)
	require.Error(t, err, "re-freeing an already-free block must be a double-free error")
	var invalid *ErrInvalidBlock
	require.ErrorAs(t, err, &invalid)

	require.NoError(t, h.Free(a))
	require.Equal(t, initialFree, h.FreeMemory(), "freeing the whole stack must restore the starting free memory")
}

func TestHeapShrinkNoopWhenNotSmaller(t *testing.T) {
	h, err := NewHeap(4096)
	require.NoError(t, err)
	b, err := h.Allocate(64)
	require.NoError(t, err)
	before := b.Size()
	require.NoError(t, h.Shrink(&b, before))
	require.Equal(t, before, b.Size())
	require.NoError(t, h.Shrink(&b, before+16))
	require.Equal(t, before, b.Size(), "shrinking to a larger size is a no-op")
}

func TestHeapShrinkTopReclaims(t *testing.T) {
	h, err := NewHeap(4096)
	require.NoError(t, err)
	free0 := h.FreeMemory()

	b, err := h.Allocate(256)
	require.NoError(t, err)
	require.NoError(t, h.Shrink(&b, 64))
	require.NoError(t, h.Free(b))
	require.Equal(t, free0, h.FreeMemory())
}

func TestHeapSizeValidation(t *testing.T) {
	_, err := NewHeap(17)
	require.Error(t, err)
	_, err = NewHeap(100)
	require.Error(t, err, "100 is not a power of two and under 16MiB")
	_, err = NewHeap(16 << 20)
	require.NoError(t, err)
}

func TestHeapConcurrentAllocateFree(t *testing.T) {
	h, err := NewHeap(1 << 20)
	require.NoError(t, err)
	initialFree := h.FreeMemory()

	const goroutines = 8
	const perGoroutine = 64

	var wg sync.WaitGroup
	seen := make(chan Block, goroutines*perGoroutine)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				b, err := h.Allocate(16)
				require.NoError(t, err)
				seen <- b
			}
		}()
	}
	wg.Wait()
	close(seen)

	starts := make(map[uint32]bool)
	blocks := make([]Block, 0, goroutines*perGoroutine)
	for b := range seen {
		require.False(t, starts[b.Start()], "no two concurrent allocations may share a start address")
		starts[b.Start()] = true
		blocks = append(blocks, b)
	}
	require.Len(t, starts, goroutines*perGoroutine)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(mine []Block) {
			defer wg.Done()
			for _, b := range mine {
				require.NoError(t, h.Free(b))
			}
		}(blocks[g*perGoroutine : (g+1)*perGoroutine])
	}
	wg.Wait()
	require.Equal(t, initialFree, h.FreeMemory(), "freeing every block, in any order, must restore the starting free memory")
}
