// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabheap

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func originValues(t *testing.T, tbl *Table) []string {
	t.Helper()
	col, ok := tbl.ColumnID("origin")
	require.True(t, ok)
	var out []string
	for i := uint32(0); i < tbl.RowCount(); i++ {
		cur, err := NewCursor(tbl, i)
		require.NoError(t, err)
		s, err := cur.GetBoundString(col, false)
		require.NoError(t, err)
		out = append(out, s.ToUTF8String())
	}
	return out
}

func TestFilterEngineDNFMatchesOriginSEA(t *testing.T) {
	heap, err := NewHeap(1 << 16)
	require.NoError(t, err)
	tbl := newFlightsTable(t, heap)

	engine, err := NewFilterEngine(tbl, []ResultField{{Kind: ResultColumn, Column: "origin"}, {Kind: ResultColumn, Column: "dest"}})
	require.NoError(t, err)

	expr := Expression{{{Field: "origin", Operation: OpEqual, Value: "SEA"}}}
	res, err := engine.Run(context.Background(), expr, ModeDNF)
	require.NoError(t, err)
	require.Equal(t, uint32(2), res.Table.RowCount())
	require.ElementsMatch(t, []string{"SEA", "SEA"}, originValues(t, res.Table))
}

func TestFilterEngineCNFRequiresAllClausesTrue(t *testing.T) {
	heap, err := NewHeap(1 << 16)
	require.NoError(t, err)
	tbl := newFlightsTable(t, heap)

	engine, err := NewFilterEngine(tbl, []ResultField{{Kind: ResultColumn, Column: "origin"}})
	require.NoError(t, err)

	// CNF = AND of clauses; each clause here is a single rule, so this
	// asks for origin == SEA AND passengers == 110, matching exactly the
	// first two fixture rows.
	expr := Expression{
		{{Field: "origin", Operation: OpEqual, Value: "SEA"}},
		{{Field: "passengers", Operation: OpEqual, Value: float64(110)}},
	}
	res, err := engine.Run(context.Background(), expr, ModeCNF)
	require.NoError(t, err)
	require.Equal(t, uint32(2), res.Table.RowCount())
}

func TestFilterEngineEmptyExpressionMatchesAll(t *testing.T) {
	heap, err := NewHeap(1 << 16)
	require.NoError(t, err)
	tbl := newFlightsTable(t, heap)

	engine, err := NewFilterEngine(tbl, []ResultField{{Kind: ResultRowIndex}})
	require.NoError(t, err)

	res, err := engine.Run(context.Background(), Expression{}, ModeDNF)
	require.NoError(t, err)
	require.Equal(t, uint32(len(flightsData)), res.Table.RowCount())
}

func TestFilterEngineProjectionColumnsOnly(t *testing.T) {
	heap, err := NewHeap(1 << 16)
	require.NoError(t, err)
	tbl := newFlightsTable(t, heap)

	engine, err := NewFilterEngine(tbl, []ResultField{
		{Kind: ResultColumn, Column: "distance", Alias: "miles"},
	})
	require.NoError(t, err)

	res, err := engine.Run(context.Background(), Expression{{{Field: "passengers", Operation: OpGreaterThan, Value: float64(150)}}}, ModeDNF)
	require.NoError(t, err)
	require.Equal(t, uint32(1), res.Table.RowCount())
	require.Nil(t, res.Proxy, "a projection of non-row-index fields is not proxy-eligible")

	col, ok := res.Table.ColumnID("miles")
	require.True(t, ok)
	cur, err := NewCursor(res.Table, 0)
	require.NoError(t, err)
	dist, err := cur.GetF32(col)
	require.NoError(t, err)
	require.Equal(t, float32(1080.0), dist)
}

func TestFilterEngineUnknownColumnRejected(t *testing.T) {
	heap, err := NewHeap(1 << 16)
	require.NoError(t, err)
	tbl := newFlightsTable(t, heap)

	engine, err := NewFilterEngine(tbl, []ResultField{{Kind: ResultRowIndex}})
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), Expression{{{Field: "nonesuch", Operation: OpEqual, Value: "x"}}}, ModeDNF)
	require.Error(t, err)
	var sm *ErrSchemaMismatch
	require.ErrorAs(t, err, &sm)
}

// TestFilterEngineConcurrentSelectivityExact builds a 10,000-row synthetic
// table, filters it with 4 workers at ~50% selectivity, and checks the
// result row count is exact and that no two rows claimed the same output
// slot (each source index appears at most once in the proxy result).
func TestFilterEngineConcurrentSelectivityExact(t *testing.T) {
	const rows = 10000
	heap, err := NewHeap(1 << 24)
	require.NoError(t, err)

	cols := []ColumnSpec{{Name: "n", Type: TypeU32}}
	tbl, err := NewTable(heap, cols, LayoutRowMajor, uint32(rows)*8)
	require.NoError(t, err)
	tbl.AddRows(rows)

	var wantMatches uint32
	for i := uint32(0); i < rows; i++ {
		cur, err := NewCursor(tbl, i)
		require.NoError(t, err)
		require.NoError(t, cur.SetU32(0, i))
		if i%2 == 0 {
			wantMatches++
		}
	}

	engine, err := NewFilterEngine(tbl, []ResultField{{Kind: ResultRowIndex}}, WithWorkers(4))
	require.NoError(t, err)

	// n % 2 == 0 isn't expressible as a single comparison, so match
	// every even value with an IN list instead.
	evens := make([]any, 0, rows/2)
	for i := uint32(0); i < rows; i += 2 {
		evens = append(evens, float64(i))
	}
	res, err := engine.Run(context.Background(), Expression{{{Field: "n", Operation: OpIn, Value: evens}}}, ModeDNF)
	require.NoError(t, err)
	require.Equal(t, wantMatches, res.Table.RowCount())
	require.Equal(t, uint32(rows/2), res.Table.RowCount())

	require.NotNil(t, res.Proxy)
	seen := make(map[uint32]bool, res.Proxy.RowCount())
	var mu sync.Mutex
	var wg sync.WaitGroup
	errs := make(chan error, res.Proxy.RowCount())
	for i := uint32(0); i < res.Proxy.RowCount(); i++ {
		wg.Add(1)
		go func(i uint32) {
			defer wg.Done()
			pc, err := NewProxyCursor(res.Proxy, i)
			if err != nil {
				errs <- err
				return
			}
			src := pc.SourceIndex()
			mu.Lock()
			dup := seen[src]
			seen[src] = true
			mu.Unlock()
			if dup {
				errs <- fmt.Errorf("row %d claimed twice", src)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	require.Len(t, seen, rows/2)
}
