// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabheap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProxyTableProjectsSourceSchema(t *testing.T) {
	heap, err := NewHeap(1 << 16)
	require.NoError(t, err)
	tbl := newFlightsTable(t, heap)

	engine, err := NewFilterEngine(tbl, []ResultField{{Kind: ResultRowIndex}})
	require.NoError(t, err)

	expr := Expression{{{Field: "origin", Operation: OpEqual, Value: "SEA"}}}
	res, err := engine.Run(context.Background(), expr, ModeDNF)
	require.NoError(t, err)
	require.NotNil(t, res.Proxy)
	require.Equal(t, uint32(2), res.Proxy.RowCount())

	originCol, ok := tbl.ColumnID("origin")
	require.True(t, ok)

	for i := uint32(0); i < res.Proxy.RowCount(); i++ {
		pc, err := NewProxyCursor(res.Proxy, i)
		require.NoError(t, err)
		origin, err := pc.Row().GetBoundString(originCol, false)
		require.NoError(t, err)
		require.Equal(t, "SEA", origin.ToUTF8String())
	}
}

func TestProxyCursorSeekMovesSourceCursor(t *testing.T) {
	heap, err := NewHeap(1 << 16)
	require.NoError(t, err)
	tbl := newFlightsTable(t, heap)

	engine, err := NewFilterEngine(tbl, []ResultField{{Kind: ResultRowIndex}})
	require.NoError(t, err)

	res, err := engine.Run(context.Background(), Expression{}, ModeDNF)
	require.NoError(t, err)
	require.Equal(t, uint32(len(flightsData)), res.Proxy.RowCount())

	destCol, ok := tbl.ColumnID("dest")
	require.True(t, ok)

	pc, err := NewProxyCursor(res.Proxy, 0)
	require.NoError(t, err)
	require.NoError(t, pc.Seek(2))
	require.Equal(t, uint32(2), pc.SourceIndex())

	dest, err := pc.Row().GetBoundString(destCol, false)
	require.NoError(t, err)
	require.Equal(t, flightsData[2].dest, dest.ToUTF8String())
}
