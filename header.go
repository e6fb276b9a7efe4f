// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The table header: schema plus row-count/row-width bookkeeping at the
// start of every table's memory. Field offsets follow a fixed,
// struct-documented layout, but the column count and, therefore, the
// header's total length vary per table.

package tabheap

import (
	"encoding/binary"
	"sort"
	"sync/atomic"
)

// Layout is the table's physical row arrangement.
type Layout uint32

const (
	LayoutRowMajor Layout = iota
	LayoutColumnMajor
)

const (
	headerFixedFields = 7 // header_length, column_count, row_count, row_length, row_step, data_length, layout
	headerFixedSize   = headerFixedFields * 4
	columnDescSize    = 4 * 4 // field_length, data_offset, field_offset, type_index

	offHdrLength    = 0
	offColumnCount  = 4
	offRowCount     = 8
	offRowLength    = 12
	offRowStep      = 16
	offDataLength   = 20
	offLayout       = 24
	columnsStartOff = 28
)

// ColumnSpec describes one column as supplied to BuildHeader, before
// physical offsets are assigned.
type ColumnSpec struct {
	Name string
	Type TypeIndex
	// MaxLen is the bounded maximum length for BSTR columns; ignored for
	// every other type, whose width is the type's fixed byte size.
	MaxLen int
}

// Column is a parsed (or built) column descriptor with its final
// physical placement.
type Column struct {
	Name        string
	Length      uint32 // field_length: bytes this column occupies per row
	DataOffset  uint32 // stripe start for column-major; 0 for row-major
	FieldOffset uint32 // offset within a row for row-major; 0 for column-major
	Type        TypeIndex
}

// Header is the parsed schema and bookkeeping state at the start of a
// Table's memory. RowCount and DataLength are mutated atomically by
// AddRows; every other field is fixed once the header is built/parsed.
type Header struct {
	block        Block // the table's owning block; header lives at block.Bytes()[0:Length]
	Length       uint32
	RowLength    uint32
	RowStep      uint32
	Layout       Layout
	Columns      []Column
	nameToColumn map[string]int
}

// ColumnID returns the interned integer id (its index into Columns) for
// name, and whether it exists.
func (h *Header) ColumnID(name string) (int, bool) {
	id, ok := h.nameToColumn[name]
	return id, ok
}

// RowCount atomically loads the table's current row count.
func (h *Header) RowCount() uint32 {
	return atomic.LoadUint32(h.u32ptr(offRowCount))
}

// DataLength atomically loads the table's current data length.
func (h *Header) DataLength() uint32 {
	return atomic.LoadUint32(h.u32ptr(offDataLength))
}

func (h *Header) u32ptr(off uint32) *uint32 {
	return h.block.heap.u32ptr(h.block.start + off)
}

// AddRows atomically reserves n additional rows, advancing both
// row_count and data_length by n and n*RowLength respectively, and
// returns the row count as it was before the reservation. Callers must
// ensure capacity themselves; AddRows performs no bounds check and
// leaves capacity accounting entirely to the caller.
func (h *Header) AddRows(n uint32) uint32 {
	atomic.AddUint32(h.u32ptr(offDataLength), n*h.RowLength)
	return atomic.AddUint32(h.u32ptr(offRowCount), n) - n
}

// setRowCount and setDataLength are used once, non-concurrently, when
// finalizing a filter result table.
func (h *Header) setRowCount(n uint32)   { atomic.StoreUint32(h.u32ptr(offRowCount), n) }
func (h *Header) setDataLength(n uint32) { atomic.StoreUint32(h.u32ptr(offDataLength), n) }

// BuildHeader lays out columns by sorting them by type index (grouping
// equal widths and pushing BSTR toward the end), widths
// are summed into RowLength, and row-major columns get cumulative
// in-row offsets while column-major columns get cumulative stripe
// offsets. memoryLength is the total data-region capacity available to
// the table (used only to compute column-major row_count).
//
// BuildHeader returns the serialized header bytes (padded to a multiple
// of 4) and the row_count a column-major table was sized for (0 for
// row-major, which starts empty and grows via AddRows).
func BuildHeader(cols []ColumnSpec, memoryLength uint32, layout Layout) (headerBytes []byte, builtRowCount uint32, err error) {
	if len(cols) == 0 {
		return nil, 0, &ErrMalformedTable{Kind: MalformedHeader, Detail: "no columns"}
	}
	seen := make(map[string]bool, len(cols))
	ordered := make([]ColumnSpec, len(cols))
	copy(ordered, cols)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Type < ordered[j].Type })

	built := make([]Column, len(ordered))
	var rowLength uint32
	for i, cs := range ordered {
		if seen[cs.Name] {
			return nil, 0, &ErrMalformedTable{Kind: MalformedDuplicateColumn, Detail: cs.Name}
		}
		seen[cs.Name] = true

		var width uint32
		if cs.Type == TypeBSTR {
			width = boundStringStorageSize(cs.MaxLen)
		} else {
			_, size, ok := LookupType(cs.Type)
			if !ok {
				return nil, 0, &ErrMalformedTable{Kind: MalformedTypeIndex, Detail: cs.Name}
			}
			width = size
		}
		built[i] = Column{Name: cs.Name, Length: width, Type: cs.Type}
		rowLength += width
	}

	var rowStep uint32
	var columnMajorDataLen uint32
	switch layout {
	case LayoutRowMajor:
		var off uint32
		for i := range built {
			built[i].FieldOffset = off
			built[i].DataOffset = 0
			off += built[i].Length
		}
		rowStep = (rowLength-1)&^3 + 4
	case LayoutColumnMajor:
		if rowLength == 0 {
			return nil, 0, &ErrMalformedTable{Kind: MalformedRowLength, Detail: "zero row length"}
		}
		builtRowCount = memoryLength / rowLength
		if builtRowCount == 0 {
			return nil, 0, &ErrMalformedTable{Kind: MalformedDataLength, Detail: "memory too small for one row"}
		}
		var stripe uint32
		for i := range built {
			built[i].DataOffset = stripe
			built[i].FieldOffset = 0
			stripe += built[i].Length * builtRowCount
		}
		rowStep = built[0].Length
		columnMajorDataLen = stripe
	default:
		return nil, 0, &ErrMalformedTable{Kind: MalformedLayout, Detail: "unknown layout"}
	}

	nameBytes := 0
	for _, c := range built {
		nameBytes += 1 + len(c.Name)
	}
	unpadded := headerFixedSize + len(built)*columnDescSize + nameBytes
	headerLen := (unpadded + 3) &^ 3

	buf := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(buf[offHdrLength:], uint32(headerLen))
	binary.LittleEndian.PutUint32(buf[offColumnCount:], uint32(len(built)))
	dataLen := uint32(0)
	rowCount := uint32(0)
	if layout == LayoutColumnMajor {
		rowCount = builtRowCount
		dataLen = columnMajorDataLen
	}
	binary.LittleEndian.PutUint32(buf[offRowCount:], rowCount)
	binary.LittleEndian.PutUint32(buf[offRowLength:], rowLength)
	binary.LittleEndian.PutUint32(buf[offRowStep:], rowStep)
	binary.LittleEndian.PutUint32(buf[offDataLength:], dataLen)
	binary.LittleEndian.PutUint32(buf[offLayout:], uint32(layout))

	descOff := columnsStartOff
	for _, c := range built {
		binary.LittleEndian.PutUint32(buf[descOff:], c.Length)
		binary.LittleEndian.PutUint32(buf[descOff+4:], c.DataOffset)
		binary.LittleEndian.PutUint32(buf[descOff+8:], c.FieldOffset)
		binary.LittleEndian.PutUint32(buf[descOff+12:], uint32(c.Type))
		descOff += columnDescSize
	}
	nameOff := descOff
	for _, c := range built {
		buf[nameOff] = byte(len(c.Name))
		nameOff++
		copy(buf[nameOff:], c.Name)
		nameOff += len(c.Name)
	}
	// remaining bytes to headerLen are already zero (padding).
	return buf, builtRowCount, nil
}

// ParseHeader reverses BuildHeader's layout from a table's block,
// reading the fixed fields and column/name tables. The header is
// read-only from this point onward except for atomic mutation of
// row_count/data_length via AddRows.
func ParseHeader(b Block) (*Header, error) {
	buf := b.Bytes()
	if len(buf) < headerFixedSize {
		return nil, &ErrMalformedTable{Kind: MalformedHeader, Detail: "block too small for fixed header"}
	}
	headerLen := binary.LittleEndian.Uint32(buf[offHdrLength:])
	if headerLen < headerFixedSize || headerLen%4 != 0 || int(headerLen) > len(buf) {
		return nil, &ErrMalformedTable{Kind: MalformedHeader, Detail: "invalid header_length"}
	}
	columnCount := binary.LittleEndian.Uint32(buf[offColumnCount:])
	rowCount := binary.LittleEndian.Uint32(buf[offRowCount:])
	rowLength := binary.LittleEndian.Uint32(buf[offRowLength:])
	rowStep := binary.LittleEndian.Uint32(buf[offRowStep:])
	dataLength := binary.LittleEndian.Uint32(buf[offDataLength:])
	layout := Layout(binary.LittleEndian.Uint32(buf[offLayout:]))
	if layout != LayoutRowMajor && layout != LayoutColumnMajor {
		return nil, &ErrMalformedTable{Kind: MalformedLayout, Detail: "unknown layout code"}
	}

	descOff := uint32(columnsStartOff)
	need := descOff + columnCount*columnDescSize
	if need > headerLen {
		return nil, &ErrMalformedTable{Kind: MalformedHeader, Detail: "column descriptor table overruns header"}
	}
	cols := make([]Column, columnCount)
	for i := uint32(0); i < columnCount; i++ {
		o := descOff + i*columnDescSize
		cols[i].Length = binary.LittleEndian.Uint32(buf[o:])
		cols[i].DataOffset = binary.LittleEndian.Uint32(buf[o+4:])
		cols[i].FieldOffset = binary.LittleEndian.Uint32(buf[o+8:])
		ti := TypeIndex(binary.LittleEndian.Uint32(buf[o+12:]))
		if _, _, ok := LookupType(ti); !ok {
			return nil, &ErrMalformedTable{Kind: MalformedTypeIndex, Detail: "unknown type index"}
		}
		cols[i].Type = ti
	}

	nameOff := descOff + columnCount*columnDescSize
	nameToColumn := make(map[string]int, columnCount)
	for i := uint32(0); i < columnCount; i++ {
		if nameOff >= headerLen {
			return nil, &ErrMalformedTable{Kind: MalformedHeader, Detail: "name table overruns header"}
		}
		nameLen := uint32(buf[nameOff])
		nameOff++
		if nameOff+nameLen > headerLen {
			return nil, &ErrMalformedTable{Kind: MalformedHeader, Detail: "column name overruns header"}
		}
		name := string(buf[nameOff : nameOff+nameLen])
		nameOff += nameLen
		if _, dup := nameToColumn[name]; dup {
			return nil, &ErrMalformedTable{Kind: MalformedDuplicateColumn, Detail: name}
		}
		cols[i].Name = name
		nameToColumn[name] = int(i)
	}

	var sumWidths uint32
	for _, c := range cols {
		sumWidths += c.Length
		if layout == LayoutRowMajor && c.FieldOffset+c.Length > rowLength {
			return nil, &ErrMalformedTable{Kind: MalformedRowLength, Detail: "column exceeds row length"}
		}
	}
	if sumWidths != rowLength {
		return nil, &ErrMalformedTable{Kind: MalformedRowLength, Detail: "row_length != sum(column.size)"}
	}
	if dataLength > b.Size()-headerLen {
		return nil, &ErrMalformedTable{Kind: MalformedDataLength, Detail: "data_length exceeds block capacity"}
	}
	if uint64(rowCount)*uint64(rowLength) > uint64(dataLength) {
		return nil, &ErrMalformedTable{Kind: MalformedDataLength, Detail: "row_count * row_length exceeds data_length"}
	}

	return &Header{
		block:        b,
		Length:       headerLen,
		RowLength:    rowLength,
		RowStep:      rowStep,
		Layout:       layout,
		Columns:      cols,
		nameToColumn: nameToColumn,
	}, nil
}
