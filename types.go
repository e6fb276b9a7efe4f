// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The primitive type registry.

package tabheap

import (
	"encoding/binary"
	"math"
)

// TypeIndex identifies one of the fixed-size primitive column types.
// Unknown indices must be rejected by ParseHeader.
type TypeIndex uint32

const (
	TypeU32 TypeIndex = iota
	TypeI32
	TypeF32
	TypeU16
	TypeI16
	TypeU8
	TypeI8
	TypeBSTR
	TypeVOID
)

// typeInfo describes one registered primitive: its storage width in
// bytes, its bit width, and whether it is directly read/writable (VOID
// is a 1-byte placeholder used for generic pointers and has no typed
// accessor).
type typeInfo struct {
	name      string
	byteSize  uint32
	bitSize   uint32
	primitive bool
}

// typeRegistry maps a TypeIndex to its descriptor. Registration happens
// once, at package init, as a fixed compile-time table rather than a
// runtime-registered map.
var typeRegistry = map[TypeIndex]typeInfo{
	TypeU32:  {"U32", 4, 32, true},
	TypeI32:  {"I32", 4, 32, true},
	TypeF32:  {"F32", 4, 32, true},
	TypeU16:  {"U16", 2, 16, true},
	TypeI16:  {"I16", 2, 16, true},
	TypeU8:   {"U8", 1, 8, true},
	TypeI8:   {"I8", 1, 8, true},
	TypeBSTR: {"BSTR", 0, 0, true}, // byteSize is per-column (bounded max length)
	TypeVOID: {"VOID", 1, 8, false},
}

// LookupType returns the descriptor for idx and reports whether idx is
// registered.
func LookupType(idx TypeIndex) (name string, byteSize uint32, ok bool) {
	ti, ok := typeRegistry[idx]
	if !ok {
		return "", 0, false
	}
	return ti.name, ti.byteSize, true
}

// IsPrimitive reports whether idx is a registered, directly readable
// type (everything except VOID).
func IsPrimitive(idx TypeIndex) bool {
	ti, ok := typeRegistry[idx]
	return ok && ti.primitive
}

// readNumericBits reads the little-endian value of a numeric column at
// b[0:size] as a uint64 bit pattern (sign-extended for signed types, the
// raw IEEE bits for F32) and reports whether the type is signed or a
// float. The filter engine's comparators do not use it; they compare the
// float64 from numericValue.
func readNumericBits(idx TypeIndex, b []byte) (bits uint64, signed bool, isFloat bool) {
	switch idx {
	case TypeU32:
		return uint64(binary.LittleEndian.Uint32(b)), false, false
	case TypeI32:
		return uint64(int64(int32(binary.LittleEndian.Uint32(b)))), true, false
	case TypeF32:
		return uint64(binary.LittleEndian.Uint32(b)), false, true
	case TypeU16:
		return uint64(binary.LittleEndian.Uint16(b)), false, false
	case TypeI16:
		return uint64(int64(int16(binary.LittleEndian.Uint16(b)))), true, false
	case TypeU8:
		return uint64(b[0]), false, false
	case TypeI8:
		return uint64(int64(int8(b[0]))), true, false
	default:
		return 0, false, false
	}
}

// numericValue widens a column's stored bytes into a comparable float64
// and int64, used by the filter engine's compiled comparators.
func numericValue(idx TypeIndex, b []byte) (asFloat float64, asInt int64) {
	switch idx {
	case TypeU32:
		v := binary.LittleEndian.Uint32(b)
		return float64(v), int64(v)
	case TypeI32:
		v := int32(binary.LittleEndian.Uint32(b))
		return float64(v), int64(v)
	case TypeF32:
		v := math.Float32frombits(binary.LittleEndian.Uint32(b))
		return float64(v), int64(v)
	case TypeU16:
		v := binary.LittleEndian.Uint16(b)
		return float64(v), int64(v)
	case TypeI16:
		v := int16(binary.LittleEndian.Uint16(b))
		return float64(v), int64(v)
	case TypeU8:
		return float64(b[0]), int64(b[0])
	case TypeI8:
		v := int8(b[0])
		return float64(v), int64(v)
	default:
		return 0, 0
	}
}

// writeNumeric writes v (as a float64-representable runtime value) into
// b[0:size] in little-endian, truncating to the column's declared width.
func writeNumeric(idx TypeIndex, b []byte, v int64) {
	switch idx {
	case TypeU32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case TypeI32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case TypeF32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case TypeU16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case TypeI16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case TypeU8:
		b[0] = byte(v)
	case TypeI8:
		b[0] = byte(int8(v))
	}
}

// writeFloat writes a float64 into an F32 column, truncating to float32.
func writeFloat(idx TypeIndex, b []byte, v float64) {
	if idx == TypeF32 {
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		return
	}
	writeNumeric(idx, b, int64(v))
}

// writeRowIndex writes a U32 row index, the only type a ROW_INDEX result
// field is ever declared with.
func writeRowIndex(b []byte, idx uint32) {
	binary.LittleEndian.PutUint32(b, idx)
}
