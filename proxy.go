// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A proxy table projects a computed index-list table back onto a source
// table, presenting the source schema with indirect row access.

package tabheap

// ProxyTable wraps (source, index) where index has one U32 column whose
// values are row indices in source. It exposes source's schema and a
// row count equal to index's row count.
type ProxyTable struct {
	Source *Table
	Index  *Table
}

// NewProxyTable wraps source and index as a ProxyTable. index must have
// exactly one U32 column; this is not re-validated here
// since FilterEngine.Run only ever constructs proxy-eligible result
// tables through this constructor.
func NewProxyTable(source, index *Table) *ProxyTable {
	return &ProxyTable{Source: source, Index: index}
}

// RowCount returns the proxy's row count, i.e. the index table's row
// count.
func (p *ProxyTable) RowCount() uint32 { return p.Index.RowCount() }

// ProxyCursor holds two inner cursors: one on the index table (moved
// directly) and one on the source table (repositioned, on every Seek,
// to the index column's current value). Moving the proxy cursor moves
// both.
type ProxyCursor struct {
	proxy   *ProxyTable
	idx     *Cursor
	src     *Cursor
	idxColB int
}

// NewProxyCursor returns a ProxyCursor positioned at proxy row index.
func NewProxyCursor(p *ProxyTable, index uint32) (*ProxyCursor, error) {
	idxCur, err := NewCursor(p.Index, index)
	if err != nil {
		return nil, err
	}
	idxCol, ok := p.Index.ColumnID("row_index")
	if !ok {
		// Fall back to the (only) column for result tables whose sole
		// row-index field was aliased to another name.
		if len(p.Index.Columns()) != 1 {
			return nil, &ErrSchemaMismatch{Field: "row_index", Msg: "index table has no single row-index column"}
		}
		idxCol = 0
	}
	srcRow, err := idxCur.GetU32(idxCol)
	if err != nil {
		return nil, err
	}
	srcCur, err := NewCursor(p.Source, srcRow)
	if err != nil {
		return nil, err
	}
	return &ProxyCursor{proxy: p, idx: idxCur, src: srcCur, idxColB: idxCol}, nil
}

// SourceIndex returns the row index into the source table that this
// proxy row currently projects.
func (pc *ProxyCursor) SourceIndex() uint32 { return pc.src.Index() }

// Seek moves the proxy cursor (and, through it, the inner source
// cursor) to proxy row index.
func (pc *ProxyCursor) Seek(index uint32) error {
	if err := pc.idx.Seek(index); err != nil {
		return err
	}
	srcRow, err := pc.idx.GetU32(pc.idxColB)
	if err != nil {
		return err
	}
	return pc.src.Seek(srcRow)
}

// Row returns the inner source-table cursor the proxy currently points
// at, exposing the source schema.
func (pc *ProxyCursor) Row() *Cursor { return pc.src }
