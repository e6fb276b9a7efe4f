// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabheap

import "testing"

// flightsRow is a fixture row for the airline-routes scenarios below.
type flightsRow struct {
	origin, dest string
	passengers   uint32
	date         string
	distance     float32
}

var flightsData = []flightsRow{
	{"SEA", "SFO", 110, "2001-06-01", 1089.0},
	{"SEA", "LAX", 110, "1999-12-31", 1550.0},
	{"MCO", "JFK", 190, "2001-03-14", 1080.0},
}

// newFlightsTable builds a row-major flights table:
// origin:BSTR[4], dest:BSTR[4], passengers:U32, date:BSTR[12], distance:F32
func newFlightsTable(t *testing.T, heap *Heap) *Table {
	t.Helper()
	cols := []ColumnSpec{
		{Name: "origin", Type: TypeBSTR, MaxLen: 4},
		{Name: "dest", Type: TypeBSTR, MaxLen: 4},
		{Name: "passengers", Type: TypeU32},
		{Name: "date", Type: TypeBSTR, MaxLen: 12},
		{Name: "distance", Type: TypeF32},
	}
	tbl, err := NewTable(heap, cols, LayoutRowMajor, uint32(len(flightsData))*512)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	start := tbl.AddRows(uint32(len(flightsData)))
	if start != 0 {
		t.Fatalf("expected AddRows to start at row 0, got %d", start)
	}
	for i, row := range flightsData {
		cur, err := NewCursor(tbl, uint32(i))
		if err != nil {
			t.Fatalf("NewCursor(%d): %v", i, err)
		}
		setFlightsRow(t, tbl, cur, row)
	}
	return tbl
}

func setFlightsRow(t *testing.T, tbl *Table, cur *Cursor, row flightsRow) {
	t.Helper()
	cols := map[string]int{}
	for i, c := range tbl.Columns() {
		cols[c.Name] = i
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("set field: %v", err)
		}
	}
	must(cur.SetBoundString(cols["origin"], row.origin))
	must(cur.SetBoundString(cols["dest"], row.dest))
	must(cur.SetU32(cols["passengers"], row.passengers))
	must(cur.SetBoundString(cols["date"], row.date))
	must(cur.SetF32(cols["distance"], row.distance))
}
