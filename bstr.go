// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A length-prefixed, bounded ASCII string: one byte of
// length L (0..255) followed by L bytes of ASCII. Case folding affects
// only A..Z.

package tabheap

// BoundString is a bounded byte-string view. It has two physical forms,
// both satisfying the same read-only interface:
//
//   - pointer-backed, constructed over a moving cursor base (re-resolved
//     on every access, for in-row fields whose address can move as the
//     cursor advances);
//   - buffer-backed, constructed over a fixed, pre-materialized byte
//     slice (for standalone literals and result-table fields).
type BoundString struct {
	buf     []byte // the field's storage: 1 length byte + up to maxSize-1 data bytes
	resolve func() []byte
}

// newBoundStringBuffer wraps a fixed, already-addressed field slice
// (length byte + data) as a buffer-backed BoundString.
func newBoundStringBuffer(field []byte) BoundString {
	return BoundString{buf: field}
}

// newBoundStringPointer wraps a resolver that re-fetches the field slice
// on every access, for pointer-backed in-row fields.
func newBoundStringPointer(resolve func() []byte) BoundString {
	return BoundString{resolve: resolve}
}

func (s BoundString) field() []byte {
	if s.resolve != nil {
		return s.resolve()
	}
	return s.buf
}

// Length returns the string's declared length (the stored length byte).
func (s BoundString) Length() int {
	f := s.field()
	if len(f) == 0 {
		return 0
	}
	return int(f[0])
}

// CharAt returns the byte at position i (0-based), or 0 if i is out of
// the string's declared length.
func (s BoundString) CharAt(i int) byte {
	f := s.field()
	if i < 0 || i >= s.Length() {
		return 0
	}
	return f[1+i]
}

func (s BoundString) bytes() []byte {
	f := s.field()
	n := s.Length()
	if 1+n > len(f) {
		n = len(f) - 1
	}
	return f[1 : 1+n]
}

// ToUTF8String materializes the bounded string's content as a Go string.
func (s BoundString) ToUTF8String() string {
	return string(s.bytes())
}

// Equals reports case-sensitive byte equality with other.
func (s BoundString) Equals(other BoundString) bool {
	if s.Length() != other.Length() {
		return false
	}
	return bytesEqual(s.bytes(), other.bytes())
}

// EqualsCaseInsensitive reports equality folding only A-Z to a-z.
// Strings of different lengths compare unequal without reading a single
// character.
func (s BoundString) EqualsCaseInsensitive(other BoundString) bool {
	if s.Length() != other.Length() {
		return false
	}
	a, b := s.bytes(), other.bytes()
	for i := range a {
		if foldByte(a[i]) != foldByte(b[i]) {
			return false
		}
	}
	return true
}

// Contains reports whether other occurs as a case-sensitive substring of
// s, using the naive O(n*m) scan (inputs are bounded to 255 bytes; spec
// §4.5).
func (s BoundString) Contains(other BoundString) bool {
	return containsBytes(s.bytes(), other.bytes(), false)
}

// ContainsCaseInsensitive is Contains folding only A-Z.
func (s BoundString) ContainsCaseInsensitive(other BoundString) bool {
	return containsBytes(s.bytes(), other.bytes(), true)
}

// StartsWith reports a case-sensitive prefix match.
func (s BoundString) StartsWith(other BoundString) bool {
	a, b := s.bytes(), other.bytes()
	if len(b) > len(a) {
		return false
	}
	return bytesEqual(a[:len(b)], b)
}

// EndsWith reports a case-sensitive suffix match.
func (s BoundString) EndsWith(other BoundString) bool {
	a, b := s.bytes(), other.bytes()
	if len(b) > len(a) {
		return false
	}
	return bytesEqual(a[len(a)-len(b):], b)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func foldByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 32
	}
	return c
}

func containsBytes(haystack, needle []byte, fold bool) bool {
	n, m := len(haystack), len(needle)
	if m == 0 {
		return true
	}
	if m > n {
		return false
	}
	for i := 0; i+m <= n; i++ {
		match := true
		for j := 0; j < m; j++ {
			hc, nc := haystack[i+j], needle[j]
			if fold {
				hc, nc = foldByte(hc), foldByte(nc)
			}
			if hc != nc {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// boundStringStorageSize returns the total bytes needed to store a
// bounded string whose declared maximum length is maxLen: one length
// byte plus maxLen data bytes, rounded up to a multiple of 4.
func boundStringStorageSize(maxLen int) uint32 {
	if maxLen > 255 {
		maxLen = 255
	}
	return uint32((maxLen+4) &^ 3)
}

// FromString builds a buffer-backed BoundString literal at a fresh
// 4-byte-aligned buffer sized for s (truncated to 255 bytes if longer).
func FromString(s string) BoundString {
	if len(s) > 255 {
		s = s[:255]
	}
	size := boundStringStorageSize(len(s))
	buf := make([]byte, size)
	buf[0] = byte(len(s))
	copy(buf[1:], s)
	return newBoundStringBuffer(buf)
}
