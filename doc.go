// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package tabheap implements an in-process, in-memory tabular data engine
optimized for bulk analytical queries over wide, row-heavy datasets.

The package occupies a single contiguous byte region (a Heap) that is
safe to share across worker goroutines, packs Tables into that region
with a self-describing binary layout, and evaluates boolean filter
expressions in parallel over those tables, emitting either full
materialized result Tables or compact index-only result Tables (a
ProxyTable) that project back onto the source.

Heap

A Heap is a bump-style allocator over a fixed []byte region. Allocate
reserves a new Block by atomically advancing a watermark; Free marks a
Block's trailing tag word and, when the freed block sits at the top of
the stack, walks downward reclaiming any run of now-exposed free blocks.
Interior free blocks are never relocated or coalesced into new
allocations - see Heap.Allocate.

Table

A Table is a Block laid out as a header (schema plus row/column counts)
followed by row-major or column-major data. Tables are built by
BuildHeader from a column descriptor list and parsed back by ParseHeader;
NewTable does both, while OpenTable only parses a header already present
in a Block.

Row cursor

A Cursor is a moving, typed view over one row of a Table, returned by
NewCursor. Field access is resolved against the table's already-parsed
Column descriptors, so a GetXxx/SetXxx call is a direct offset
computation rather than a per-access name lookup.

Filter engine

A FilterEngine compiles a two-level rule Expression (DNF or CNF; see
Expression, Clause, Rule) into a predicate closure once, then runs it
across a pool of workers via Run, each worker reserving a batch of rows
with an atomic counter and reserving output slots the same way.

Proxy table

A ProxyTable wraps a source Table and an index Table whose sole column
holds row indices into the source, presenting the source's schema while
indirecting row access through the index column.
*/
package tabheap
