// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The row cursor: a moving, typed view over one row of a Table. Field
// access is resolved against the table's already-parsed Column
// descriptors, fixed at ParseHeader time, rather than by a per-access
// name lookup.

package tabheap

type Cursor struct {
	table *Table
	index uint32
}

// NewCursor returns a Cursor positioned at row index. index must be <
// table.RowCount(); OutOfBounds is returned otherwise.
func NewCursor(t *Table, index uint32) (*Cursor, error) {
	c := &Cursor{table: t}
	if err := c.Seek(index); err != nil {
		return nil, err
	}
	return c, nil
}

// Index returns the cursor's current row index.
func (c *Cursor) Index() uint32 { return c.index }

// Seek moves the cursor to index, failing if index is at or beyond the
// table's current row count.
func (c *Cursor) Seek(index uint32) error {
	rc := c.table.RowCount()
	if index >= rc {
		return &ErrOutOfBounds{Index: index, Limit: rc}
	}
	c.index = index
	return nil
}

// field returns the raw byte slice for column col at the cursor's
// current row, resolving the address per the table's layout:
// row-major fields live at dataOffset + index*rowStep + fieldOffset;
// column-major fields live in a contiguous per-column stripe at
// dataOffset + stripeOffset + index*columnWidth.
func (c *Cursor) field(col Column) []byte {
	t := c.table
	var off uint32
	switch t.header.Layout {
	case LayoutRowMajor:
		off = t.dataOffset() + c.index*t.header.RowStep + col.FieldOffset
	case LayoutColumnMajor:
		off = t.dataOffset() + col.DataOffset + c.index*col.Length
	}
	return t.block.Bytes()[off : off+col.Length]
}

// rawField returns the column descriptor and raw field bytes for colID
// at the cursor's current row; used internally by the filter engine's
// compiled comparators and result writers, which dispatch on type
// themselves rather than going through the narrower GetXxx accessors.
func (c *Cursor) rawField(colID int) (Column, []byte, error) {
	col, err := c.column(colID)
	if err != nil {
		return Column{}, nil, err
	}
	return col, c.field(col), nil
}

func (c *Cursor) column(colID int) (Column, error) {
	cols := c.table.header.Columns
	if colID < 0 || colID >= len(cols) {
		return Column{}, &ErrSchemaMismatch{Field: "<invalid>", Msg: "column id out of range"}
	}
	return cols[colID], nil
}

// GetU32 reads an unsigned 32-bit field.
func (c *Cursor) GetU32(colID int) (uint32, error) {
	col, err := c.column(colID)
	if err != nil {
		return 0, err
	}
	if col.Type != TypeU32 {
		return 0, &ErrSchemaMismatch{Field: col.Name, Msg: "not a U32 column"}
	}
	f, _ := numericValue(col.Type, c.field(col))
	return uint32(f), nil
}

// GetI32 reads a signed 32-bit field.
func (c *Cursor) GetI32(colID int) (int32, error) {
	col, err := c.column(colID)
	if err != nil {
		return 0, err
	}
	if col.Type != TypeI32 {
		return 0, &ErrSchemaMismatch{Field: col.Name, Msg: "not an I32 column"}
	}
	_, i := numericValue(col.Type, c.field(col))
	return int32(i), nil
}

// GetF32 reads a 32-bit IEEE float field.
func (c *Cursor) GetF32(colID int) (float32, error) {
	col, err := c.column(colID)
	if err != nil {
		return 0, err
	}
	if col.Type != TypeF32 {
		return 0, &ErrSchemaMismatch{Field: col.Name, Msg: "not an F32 column"}
	}
	f, _ := numericValue(col.Type, c.field(col))
	return float32(f), nil
}

// GetU16, GetI16, GetU8, GetI8 read their respective narrow integer
// fields.
func (c *Cursor) GetU16(colID int) (uint16, error) { return readNarrow[uint16](c, colID, TypeU16) }
func (c *Cursor) GetI16(colID int) (int16, error)  { return readNarrow[int16](c, colID, TypeI16) }
func (c *Cursor) GetU8(colID int) (uint8, error)   { return readNarrow[uint8](c, colID, TypeU8) }
func (c *Cursor) GetI8(colID int) (int8, error)    { return readNarrow[int8](c, colID, TypeI8) }

func readNarrow[T ~uint16 | ~int16 | ~uint8 | ~int8](c *Cursor, colID int, want TypeIndex) (T, error) {
	col, err := c.column(colID)
	if err != nil {
		return 0, err
	}
	if col.Type != want {
		return 0, &ErrSchemaMismatch{Field: col.Name, Msg: "type mismatch"}
	}
	_, i := numericValue(col.Type, c.field(col))
	return T(i), nil
}

// GetBoundString returns a BoundString view over a BSTR column. When
// live is true the returned string re-reads the cursor's current field
// on every access ("binary mode"); when false the bytes are copied out
// once ("text mode").
func (c *Cursor) GetBoundString(colID int, live bool) (BoundString, error) {
	col, err := c.column(colID)
	if err != nil {
		return BoundString{}, err
	}
	if col.Type != TypeBSTR {
		return BoundString{}, &ErrSchemaMismatch{Field: col.Name, Msg: "not a BSTR column"}
	}
	if live {
		return newBoundStringPointer(func() []byte {
			return c.field(col)
		}), nil
	}
	raw := c.field(col)
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return newBoundStringBuffer(cp), nil
}

// SetU32 writes v into an unsigned 32-bit field.
func (c *Cursor) SetU32(colID int, v uint32) error {
	col, err := c.column(colID)
	if err != nil {
		return err
	}
	if col.Type != TypeU32 {
		return &ErrSchemaMismatch{Field: col.Name, Msg: "not a U32 column"}
	}
	writeNumeric(col.Type, c.field(col), int64(v))
	return nil
}

// SetI32 writes v into a signed 32-bit field.
func (c *Cursor) SetI32(colID int, v int32) error {
	col, err := c.column(colID)
	if err != nil {
		return err
	}
	if col.Type != TypeI32 {
		return &ErrSchemaMismatch{Field: col.Name, Msg: "not an I32 column"}
	}
	writeNumeric(col.Type, c.field(col), int64(v))
	return nil
}

// SetF32 writes v into a 32-bit IEEE float field.
func (c *Cursor) SetF32(colID int, v float32) error {
	col, err := c.column(colID)
	if err != nil {
		return err
	}
	if col.Type != TypeF32 {
		return &ErrSchemaMismatch{Field: col.Name, Msg: "not an F32 column"}
	}
	writeFloat(col.Type, c.field(col), float64(v))
	return nil
}

// SetU16, SetI16, SetU8, SetI8 write their respective narrow integer
// fields.
func (c *Cursor) SetU16(colID int, v uint16) error { return writeNarrow(c, colID, TypeU16, int64(v)) }
func (c *Cursor) SetI16(colID int, v int16) error  { return writeNarrow(c, colID, TypeI16, int64(v)) }
func (c *Cursor) SetU8(colID int, v uint8) error   { return writeNarrow(c, colID, TypeU8, int64(v)) }
func (c *Cursor) SetI8(colID int, v int8) error    { return writeNarrow(c, colID, TypeI8, int64(v)) }

func writeNarrow(c *Cursor, colID int, want TypeIndex, v int64) error {
	col, err := c.column(colID)
	if err != nil {
		return err
	}
	if col.Type != want {
		return &ErrSchemaMismatch{Field: col.Name, Msg: "type mismatch"}
	}
	writeNumeric(col.Type, c.field(col), v)
	return nil
}

// SetBoundString writes s into a BSTR column. A value longer than the
// field's capacity (width-1) is an ErrOutOfBounds error, with nothing
// written; SetBoundStringTruncating truncates such a value instead.
func (c *Cursor) SetBoundString(colID int, s string) error {
	col, err := c.column(colID)
	if err != nil {
		return err
	}
	if col.Type != TypeBSTR {
		return &ErrSchemaMismatch{Field: col.Name, Msg: "not a BSTR column"}
	}
	maxLen := int(col.Length) - 1
	if len(s) > maxLen {
		return &ErrOutOfBounds{Index: uint32(len(s)), Limit: uint32(maxLen)}
	}
	c.writeBoundString(col, s)
	return nil
}

// SetBoundStringTruncating is SetBoundString's release-mode sibling: it
// silently truncates an oversized value instead of failing.
func (c *Cursor) SetBoundStringTruncating(colID int, s string) error {
	col, err := c.column(colID)
	if err != nil {
		return err
	}
	if col.Type != TypeBSTR {
		return &ErrSchemaMismatch{Field: col.Name, Msg: "not a BSTR column"}
	}
	maxLen := int(col.Length) - 1
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	c.writeBoundString(col, s)
	return nil
}

func (c *Cursor) writeBoundString(col Column, s string) {
	f := c.field(col)
	f[0] = byte(len(s))
	copy(f[1:], s)
}
