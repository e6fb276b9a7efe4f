// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabheap

// Table wraps a Block laid out as [Header][Data].
type Table struct {
	block  Block
	header *Header
}

// OpenTable parses b's header and wraps it as a Table. b must already contain a valid header and, for row-major
// tables, any row bytes the caller has deposited.
func OpenTable(b Block) (*Table, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	return &Table{block: b, header: h}, nil
}

// NewTable allocates a fresh Block from heap sized to hold the given
// columns at the requested layout and capacity bytes, builds its
// header, and returns the wrapped Table. capacity is the data-region
// size to reserve.
func NewTable(heap *Heap, cols []ColumnSpec, layout Layout, capacity uint32) (*Table, error) {
	probe, _, err := BuildHeader(cols, capacity, layout)
	if err != nil {
		return nil, err
	}
	headerLen := uint32(len(probe))

	b, err := heap.AllocateZeroed(headerLen + capacity)
	if err != nil {
		return nil, err
	}
	headerBytes, _, err := BuildHeader(cols, capacity, layout)
	if err != nil {
		return nil, err
	}
	copy(b.Bytes(), headerBytes)

	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	return &Table{block: b, header: h}, nil
}

// Block returns the table's owning Block.
func (t *Table) Block() Block { return t.block }

// Header returns the table's parsed header.
func (t *Table) Header() *Header { return t.header }

// RowCount atomically reads the table's current row count.
func (t *Table) RowCount() uint32 { return t.header.RowCount() }

// RowLength returns the sum of column widths.
func (t *Table) RowLength() uint32 { return t.header.RowLength }

// Layout returns the table's physical layout.
func (t *Table) Layout() Layout { return t.header.Layout }

// Columns returns the table's parsed column descriptors, in physical
// (sorted-by-type) order.
func (t *Table) Columns() []Column { return t.header.Columns }

// ColumnID interns name to its column index.
func (t *Table) ColumnID(name string) (int, bool) { return t.header.ColumnID(name) }

// dataOffset returns the byte offset, within the table's block, at which
// row/stripe data begins.
func (t *Table) dataOffset() uint32 { return t.header.Length }

// rowBase returns the absolute byte offset of row index's first byte,
// for row-major tables.
func (t *Table) rowBase(index uint32) uint32 {
	return t.dataOffset() + index*t.header.RowStep
}

// AddRows atomically reserves n additional rows and returns the row
// index the first of them occupies.
func (t *Table) AddRows(n uint32) uint32 { return t.header.AddRows(n) }

// Describe renders a human-readable column listing.
func (t *Table) Describe() string {
	out := "columns:\n"
	for _, c := range t.header.Columns {
		name, _, _ := LookupType(c.Type)
		out += "  " + c.Name + ": " + name + "\n"
	}
	return out
}
