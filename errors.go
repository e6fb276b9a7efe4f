// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabheap

import "fmt"

// ErrAlloc reports that a Heap.Allocate request could not be satisfied
// (insufficient free space, or a request larger than the heap), or that
// NewHeap/OpenHeap was given a region size that breaks the heap size
// rules (under 16 bytes, not a multiple of 4, or not a power of two /
// multiple of 16 MiB).
type ErrAlloc struct {
	Msg       string
	Requested uint32
	Available uint32
}

func (e *ErrAlloc) Error() string {
	return fmt.Sprintf("tabheap: allocation failed: %s (requested %d, available %d)", e.Msg, e.Requested, e.Available)
}

// ErrInvalidBlock reports an operation on a Block that violates the
// allocator's single-owner, no-double-free contract: a double free, a
// shrink to zero, or a free of a block that belongs to another heap or
// extends beyond the end of the heap.
type ErrInvalidBlock struct {
	Msg   string
	Start uint32
}

func (e *ErrInvalidBlock) Error() string {
	return fmt.Sprintf("tabheap: invalid block at %#x: %s", e.Start, e.Msg)
}

// MalformedKind enumerates the ways a parsed Table header can be
// internally inconsistent.
type MalformedKind int

const (
	MalformedRowLength MalformedKind = iota
	MalformedDataLength
	MalformedTypeIndex
	MalformedDuplicateColumn
	MalformedLayout
	MalformedHeader
)

func (k MalformedKind) String() string {
	switch k {
	case MalformedRowLength:
		return "row length inconsistent with column widths"
	case MalformedDataLength:
		return "data length exceeds block capacity"
	case MalformedTypeIndex:
		return "unknown type index"
	case MalformedDuplicateColumn:
		return "duplicate column name"
	case MalformedLayout:
		return "unknown layout code"
	case MalformedHeader:
		return "malformed header encoding"
	default:
		return "unknown"
	}
}

// ErrMalformedTable reports a Table whose header fields are mutually
// inconsistent, per MalformedKind.
type ErrMalformedTable struct {
	Kind   MalformedKind
	Detail string
}

func (e *ErrMalformedTable) Error() string {
	return fmt.Sprintf("tabheap: malformed table: %s: %s", e.Kind, e.Detail)
}

// ErrSchemaMismatch reports a filter rule that references an unknown
// column, or one whose operation is incompatible with the column's type
// (e.g. GREATER_THAN against a BSTR column).
type ErrSchemaMismatch struct {
	Field string
	Msg   string
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("tabheap: schema mismatch on field %q: %s", e.Field, e.Msg)
}

// ErrOutOfBounds reports a row cursor index at or beyond a table's row
// count (Index is the requested row, Limit the row count), or a BSTR
// value longer than its field's capacity (Index is the value's length,
// Limit the capacity). Addresses outside a Block are not checked
// through this type.
type ErrOutOfBounds struct {
	Index uint32
	Limit uint32
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("tabheap: index %d out of bounds (limit %d)", e.Index, e.Limit)
}

// ErrWorkerFailure wraps the first error surfaced by any worker in a
// FilterEngine.Run call. Outstanding batches are not scheduled further
// once the first failure is observed; in-flight workers finish their
// current reserved batch before exiting.
type ErrWorkerFailure struct {
	Worker int
	Cause  error
}

func (e *ErrWorkerFailure) Error() string {
	return fmt.Sprintf("tabheap: worker %d failed: %s", e.Worker, e.Cause)
}

func (e *ErrWorkerFailure) Unwrap() error { return e.Cause }
