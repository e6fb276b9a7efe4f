// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Filter expression compilation: each Rule becomes a closure that takes
// the cursor as its argument, reads the cursor's field at its current
// row and evaluates the operation's comparator, pre-converting literal
// values exactly once.

package tabheap

import "fmt"

// ruleFunc evaluates one compiled Rule against the cursor's current row.
type ruleFunc func(c *Cursor) (bool, error)

// predicateFunc evaluates a compiled Expression against the cursor's
// current row.
type predicateFunc func(c *Cursor) (bool, error)

// compileExpression validates and compiles expr against t's schema,
// failing before any worker runs on an unknown column name or an
// operation incompatible with a column's type. An empty Expression compiles to the constant true.
func compileExpression(t *Table, expr Expression, mode Mode) (predicateFunc, error) {
	if len(expr) == 0 {
		return func(*Cursor) (bool, error) { return true, nil }, nil
	}

	clauseFuncs := make([]predicateFunc, len(expr))
	for i, clause := range expr {
		cf, err := compileClause(t, clause, mode)
		if err != nil {
			return nil, err
		}
		clauseFuncs[i] = cf
	}

	switch mode {
	case ModeDNF: // expression = OR of clauses
		return func(c *Cursor) (bool, error) {
			for _, cf := range clauseFuncs {
				ok, err := cf(c)
				if err != nil {
					return false, err
				}
				if ok {
					return true, nil
				}
			}
			return false, nil
		}, nil
	case ModeCNF: // expression = AND of clauses
		return func(c *Cursor) (bool, error) {
			for _, cf := range clauseFuncs {
				ok, err := cf(c)
				if err != nil {
					return false, err
				}
				if !ok {
					return false, nil
				}
			}
			return true, nil
		}, nil
	default:
		return nil, fmt.Errorf("tabheap: unknown filter mode %d", mode)
	}
}

// compileClause compiles one Clause: an AND of its rules in DNF mode, an
// OR of its rules in CNF mode.
func compileClause(t *Table, clause Clause, mode Mode) (predicateFunc, error) {
	ruleFuncs := make([]ruleFunc, len(clause))
	for i, r := range clause {
		rf, err := compileRule(t, r)
		if err != nil {
			return nil, err
		}
		ruleFuncs[i] = rf
	}

	and := mode == ModeDNF
	return func(c *Cursor) (bool, error) {
		for _, rf := range ruleFuncs {
			ok, err := rf(c)
			if err != nil {
				return false, err
			}
			if and && !ok {
				return false, nil
			}
			if !and && ok {
				return true, nil
			}
		}
		return and, nil
	}, nil
}

// compileRule resolves r.Field, checks r.Operation's compatibility with
// the column's type, pre-converts r.Value, and returns the compiled
// comparator.
func compileRule(t *Table, r Rule) (ruleFunc, error) {
	colID, ok := t.ColumnID(r.Field)
	if !ok {
		return nil, &ErrSchemaMismatch{Field: r.Field, Msg: "unknown column"}
	}
	col := t.header.Columns[colID]

	isString := func(v any) (string, bool) { s, ok := v.(string); return s, ok }

	switch r.Operation {
	case OpContains, OpNotContains, OpStartsWith, OpEndsWith:
		if col.Type != TypeBSTR {
			return nil, &ErrSchemaMismatch{Field: r.Field, Msg: fmt.Sprintf("%s requires a BSTR column", r.Operation)}
		}
		s, ok := isString(r.Value)
		if !ok {
			return nil, &ErrSchemaMismatch{Field: r.Field, Msg: "value must be a string"}
		}
		lit := FromString(s)
		return compileStringOp(colID, r.Operation, lit)

	case OpEqual, OpNotEqual:
		if col.Type == TypeBSTR {
			s, ok := isString(r.Value)
			if !ok {
				return nil, &ErrSchemaMismatch{Field: r.Field, Msg: "value must be a string"}
			}
			lit := FromString(s)
			return compileStringOp(colID, r.Operation, lit)
		}
		f, ok := toFloat64(r.Value)
		if !ok {
			return nil, &ErrSchemaMismatch{Field: r.Field, Msg: "value must be numeric"}
		}
		return compileNumericOp(colID, r.Operation, f)

	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		if col.Type == TypeBSTR || col.Type == TypeVOID {
			return nil, &ErrSchemaMismatch{Field: r.Field, Msg: fmt.Sprintf("%s is not supported on BSTR/VOID columns", r.Operation)}
		}
		f, ok := toFloat64(r.Value)
		if !ok {
			return nil, &ErrSchemaMismatch{Field: r.Field, Msg: "value must be numeric"}
		}
		return compileNumericOp(colID, r.Operation, f)

	case OpIn, OpNotIn:
		list, ok := toSlice(r.Value)
		if !ok {
			return nil, &ErrSchemaMismatch{Field: r.Field, Msg: "value must be a list"}
		}
		if col.Type == TypeBSTR {
			lits := make([]BoundString, len(list))
			for i, v := range list {
				s, ok := isString(v)
				if !ok {
					return nil, &ErrSchemaMismatch{Field: r.Field, Msg: "IN/NOT_IN values must be strings for a BSTR column"}
				}
				lits[i] = FromString(s)
			}
			return compileStringInOp(colID, r.Operation, lits)
		}
		floats := make([]float64, len(list))
		for i, v := range list {
			f, ok := toFloat64(v)
			if !ok {
				return nil, &ErrSchemaMismatch{Field: r.Field, Msg: "IN/NOT_IN values must be numeric"}
			}
			floats[i] = f
		}
		return compileNumericInOp(colID, r.Operation, floats)

	default:
		return nil, &ErrSchemaMismatch{Field: r.Field, Msg: fmt.Sprintf("unknown operation %q", r.Operation)}
	}
}

func compileNumericOp(colID int, op Operation, lit float64) (ruleFunc, error) {
	cmp := func(v float64) bool {
		switch op {
		case OpEqual:
			return v == lit
		case OpNotEqual:
			return v != lit
		case OpGreaterThan:
			return v > lit
		case OpGreaterThanOrEqual:
			return v >= lit
		case OpLessThan:
			return v < lit
		case OpLessThanOrEqual:
			return v <= lit
		}
		return false
	}
	return func(c *Cursor) (bool, error) {
		_, raw, err := c.rawField(colID)
		if err != nil {
			return false, err
		}
		col := c.table.header.Columns[colID]
		f, _ := numericValue(col.Type, raw)
		return cmp(f), nil
	}, nil
}

func compileNumericInOp(colID int, op Operation, list []float64) (ruleFunc, error) {
	return func(c *Cursor) (bool, error) {
		_, raw, err := c.rawField(colID)
		if err != nil {
			return false, err
		}
		col := c.table.header.Columns[colID]
		f, _ := numericValue(col.Type, raw)
		found := false
		for _, v := range list {
			if f == v {
				found = true
				break
			}
		}
		if op == OpNotIn {
			return !found, nil
		}
		return found, nil
	}, nil
}

func compileStringOp(colID int, op Operation, lit BoundString) (ruleFunc, error) {
	return func(c *Cursor) (bool, error) {
		col, raw, err := c.rawField(colID)
		if err != nil {
			return false, err
		}
		_ = col
		s := newBoundStringBuffer(raw)
		switch op {
		case OpEqual:
			return s.Equals(lit), nil
		case OpNotEqual:
			return !s.Equals(lit), nil
		case OpContains:
			return s.Contains(lit), nil
		case OpNotContains:
			return !s.Contains(lit), nil
		case OpStartsWith:
			return s.StartsWith(lit), nil
		case OpEndsWith:
			return s.EndsWith(lit), nil
		}
		return false, nil
	}, nil
}

func compileStringInOp(colID int, op Operation, list []BoundString) (ruleFunc, error) {
	return func(c *Cursor) (bool, error) {
		_, raw, err := c.rawField(colID)
		if err != nil {
			return false, err
		}
		s := newBoundStringBuffer(raw)
		found := false
		for _, lit := range list {
			if s.Equals(lit) {
				found = true
				break
			}
		}
		if op == OpNotIn {
			return !found, nil
		}
		return found, nil
	}, nil
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	default:
		return nil, false
	}
}
