// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Functional-options configuration for FilterEngine. HeapOption and
// WithSpinBudget live in heap.go.

package tabheap

const defaultBatchSize = 1024

// FilterOption configures a FilterEngine at construction time.
type FilterOption func(*filterConfig)

type filterConfig struct {
	workers    int
	outputHeap *Heap
	batchSize  uint32
}

// WithWorkers sets the worker pool size. The default is 1, which runs
// synchronously in the calling goroutine; n > 1 runs n worker
// goroutines. NewFilterEngine rejects n < 1.
func WithWorkers(n int) FilterOption {
	return func(c *filterConfig) { c.workers = n }
}

// WithOutputHeap directs the result table's allocation to a heap other
// than the source table's own heap.
func WithOutputHeap(h *Heap) FilterOption {
	return func(c *filterConfig) { c.outputHeap = h }
}

// WithBatchSize overrides the row-batch size each worker reserves at a
// time via the atomic scan counter.
func WithBatchSize(n uint32) FilterOption {
	return func(c *filterConfig) { c.batchSize = n }
}
