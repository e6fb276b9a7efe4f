// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Parallel row-batch dispatch for the filter engine, built on
// golang.org/x/sync/errgroup: an errgroup fans out over independent
// goroutines and joins on group.Wait.

package tabheap

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runWorkers invokes work exactly workers times concurrently (or
// synchronously, in the calling goroutine, when workers == 1). Every
// call shares ctx; if ctx carries cancellation from a sibling worker's
// error, well-behaved work funcs should still finish their in-flight
// batch before observing it.
func runWorkers(ctx context.Context, workers int, work func(ctx context.Context, worker int) error) error {
	if workers <= 1 {
		return work(ctx, 0)
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error { return work(gctx, i) })
	}
	return g.Wait()
}
