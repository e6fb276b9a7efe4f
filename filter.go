// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The parallel filter engine: compiles a declarative boolean expression
// into a predicate closure and runs it across worker goroutines,
// reserving output row slots atomically.

package tabheap

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Operation names a filter rule's comparison.
type Operation string

const (
	OpContains            Operation = "CONTAINS"
	OpNotContains         Operation = "NOT_CONTAINS"
	OpIn                  Operation = "IN"
	OpNotIn               Operation = "NOT_IN"
	OpEqual               Operation = "EQUAL"
	OpNotEqual            Operation = "NOT_EQUAL"
	OpGreaterThan         Operation = "GREATER_THAN"
	OpGreaterThanOrEqual  Operation = "GREATER_THAN_OR_EQUAL"
	OpLessThan            Operation = "LESS_THAN"
	OpLessThanOrEqual     Operation = "LESS_THAN_OR_EQUAL"
	OpStartsWith          Operation = "STARTS_WITH"
	OpEndsWith            Operation = "ENDS_WITH"
)

// Rule is one leaf predicate of a filter Expression: a column name, an
// Operation, and the comparison Value (a scalar, or a slice for
// IN/NOT_IN).
type Rule struct {
	Field     string
	Operation Operation
	Value     any
}

// Clause is a list of Rules composed per Mode.
type Clause []Rule

// Expression is a two-level list of Clauses. An empty
// Expression is the constant true.
type Expression []Clause

// Mode selects how Clauses and Rules within them compose.
type Mode int

const (
	ModeDNF Mode = iota
	ModeCNF
)

// ParseMode accepts the canonical mode names and their documented
// aliases.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "dnf", "disjunctive_normal_form":
		return ModeDNF, nil
	case "cnf", "conjunctive_normal_form":
		return ModeCNF, nil
	default:
		return 0, fmt.Errorf("tabheap: unknown filter mode %q", s)
	}
}

// ResultFieldKind distinguishes a projected source column from a bare
// row-index field in a filter's result_description.
type ResultFieldKind int

const (
	ResultColumn ResultFieldKind = iota
	ResultRowIndex
)

// ResultField describes one field of a FilterEngine's output table.
type ResultField struct {
	Kind   ResultFieldKind
	Column string // source column name; ignored for ResultRowIndex
	Alias  string // result column name; defaults to Column (or "row_index")
}

// FilterEngine holds a bound source Table and a result_description, and
// runs compiled filter expressions against it.
type FilterEngine struct {
	table        *Table
	resultFields []ResultField
	workers      int
	outputHeap   *Heap
	batchSize    uint32
}

// NewFilterEngine returns a FilterEngine over table, producing rows
// shaped by resultFields. By default it uses one worker (synchronous)
// and allocates results on the table's own heap; use WithWorkers and
// WithOutputHeap to change that.
func NewFilterEngine(table *Table, resultFields []ResultField, opts ...FilterOption) (*FilterEngine, error) {
	if len(resultFields) == 0 {
		return nil, &ErrSchemaMismatch{Field: "<result>", Msg: "result description must have at least one field"}
	}
	cfg := filterConfig{workers: 1, outputHeap: table.block.heap, batchSize: defaultBatchSize}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.workers < 1 {
		return nil, fmt.Errorf("tabheap: workers must be >= 1")
	}
	return &FilterEngine{
		table:        table,
		resultFields: resultFields,
		workers:      cfg.workers,
		outputHeap:   cfg.outputHeap,
		batchSize:    cfg.batchSize,
	}, nil
}

// resolvedResultField is a result field after its source column (if
// any) has been resolved and its writer precomputed.
type resolvedResultField struct {
	kind    ResultFieldKind
	srcCol  int    // valid when kind == ResultColumn
	colType TypeIndex
	offset  uint32 // offset of this field within a result row
	width   uint32
}

// Run compiles expr under mode and executes it across the engine's
// worker pool, returning the result as a FilterResult.
func (e *FilterEngine) Run(ctx context.Context, expr Expression, mode Mode) (*FilterResult, error) {
	resultCols, resolved, proxyEligible, err := e.buildResultSchema()
	if err != nil {
		return nil, err
	}
	predicate, err := compileExpression(e.table, expr, mode)
	if err != nil {
		return nil, err
	}

	var resultRowWidth uint32
	for _, rf := range resolved {
		resultRowWidth += rf.width
	}

	// Rows are stored at BuildHeader's row-major stride: the row width
	// rounded up to a multiple of 4.
	resultRowStep := (resultRowWidth-1)&^3 + 4
	srcRowCount := e.table.RowCount()
	capacity := resultRowStep * srcRowCount
	resultTable, err := NewTable(e.outputHeap, resultCols, LayoutRowMajor, capacity)
	if err != nil {
		return nil, err
	}
	if err := resolveResultOffsets(resultTable, resultCols, resolved); err != nil {
		return nil, err
	}

	var nextRow uint32
	var nextSlot uint32

	work := func(ctx context.Context, worker int) error {
		cur := &Cursor{table: e.table}
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			start := atomic.AddUint32(&nextRow, e.batchSize) - e.batchSize
			if start >= srcRowCount {
				return nil
			}
			end := start + clampBatch(e.batchSize, srcRowCount-start)
			for i := start; i < end; i++ {
				cur.index = i
				ok, err := predicate(cur)
				if err != nil {
					return &ErrWorkerFailure{Worker: worker, Cause: err}
				}
				if !ok {
					continue
				}
				slot := atomic.AddUint32(&nextSlot, 1) - 1
				writeResultRow(resultTable, slot, resultTable.header.RowStep, resolved, cur)
			}
		}
	}

	if err := runWorkers(ctx, e.workers, work); err != nil {
		return nil, err
	}

	resultCount := atomic.LoadUint32(&nextSlot)
	resultTable.header.setRowCount(resultCount)
	dataLen := resultCount * resultRowWidth
	resultTable.header.setDataLength(dataLen)

	used := resultTable.header.Length + resultCount*resultTable.header.RowStep
	if used < resultTable.block.size {
		if err := e.outputHeap.Shrink(&resultTable.block, used); err != nil {
			return nil, err
		}
	}

	fr := &FilterResult{Table: resultTable}
	if proxyEligible {
		fr.Proxy = NewProxyTable(e.table, resultTable)
	}
	return fr, nil
}

// FilterResult is the outcome of FilterEngine.Run: Table is always the
// raw materialized (or index-only) result; Proxy is additionally set
// when the result is proxy-eligible.
type FilterResult struct {
	Table *Table
	Proxy *ProxyTable
}

func (e *FilterEngine) buildResultSchema() ([]ColumnSpec, []resolvedResultField, bool, error) {
	cols := make([]ColumnSpec, len(e.resultFields))
	resolved := make([]resolvedResultField, len(e.resultFields))
	proxyEligible := len(e.resultFields) == 1 && e.resultFields[0].Kind == ResultRowIndex

	for i, rf := range e.resultFields {
		switch rf.Kind {
		case ResultRowIndex:
			name := rf.Alias
			if name == "" {
				name = "row_index"
			}
			cols[i] = ColumnSpec{Name: name, Type: TypeU32}
			resolved[i] = resolvedResultField{kind: ResultRowIndex, colType: TypeU32, width: 4}
		case ResultColumn:
			colID, ok := e.table.ColumnID(rf.Column)
			if !ok {
				return nil, nil, false, &ErrSchemaMismatch{Field: rf.Column, Msg: "unknown column"}
			}
			src := e.table.header.Columns[colID]
			name := rf.Alias
			if name == "" {
				name = rf.Column
			}
			spec := ColumnSpec{Name: name, Type: src.Type}
			if src.Type == TypeBSTR {
				spec.MaxLen = int(src.Length) - 4
			}
			cols[i] = spec
			resolved[i] = resolvedResultField{kind: ResultColumn, srcCol: colID, colType: src.Type, width: src.Length}
		default:
			return nil, nil, false, &ErrSchemaMismatch{Field: rf.Column, Msg: "unknown result field kind"}
		}
	}

	return cols, resolved, proxyEligible, nil
}

// resolveResultOffsets fills in each resolved field's offset from the
// result table's own parsed header, not from resultFields' declaration
// order: BuildHeader sorts columns by type index, so the result table's
// physical field layout need not match the order cols was declared in.
func resolveResultOffsets(resultTable *Table, cols []ColumnSpec, resolved []resolvedResultField) error {
	for i := range resolved {
		id, ok := resultTable.ColumnID(cols[i].Name)
		if !ok {
			return &ErrSchemaMismatch{Field: cols[i].Name, Msg: "result column missing from built table"}
		}
		col := resultTable.header.Columns[id]
		resolved[i].offset = col.FieldOffset
		resolved[i].width = col.Length
	}
	return nil
}

func writeResultRow(result *Table, slot uint32, rowStep uint32, fields []resolvedResultField, src *Cursor) {
	base := result.dataOffset() + slot*rowStep
	dst := result.block.Bytes()
	for _, rf := range fields {
		fieldDst := dst[base+rf.offset : base+rf.offset+rf.width]
		switch rf.kind {
		case ResultRowIndex:
			writeRowIndex(fieldDst, src.index)
		case ResultColumn:
			_, raw, _ := src.rawField(rf.srcCol)
			copy(fieldDst, raw)
		}
	}
}
