// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabheap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundStringEquals(t *testing.T) {
	a := FromString("SEA")
	b := FromString("SEA")
	c := FromString("sea")
	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c))
	require.True(t, a.EqualsCaseInsensitive(c))
}

func TestBoundStringEqualsCaseInsensitiveDifferentLengthShortCircuits(t *testing.T) {
	a := FromString("SEA")
	b := FromString("SEATTLE")
	require.False(t, a.EqualsCaseInsensitive(b))
}

func TestBoundStringContains(t *testing.T) {
	s := FromString("2001-06-01")
	require.True(t, s.Contains(FromString("2001")))
	require.False(t, s.Contains(FromString("2002")))
	require.True(t, s.ContainsCaseInsensitive(FromString("2001")))
}

func TestBoundStringStartsEndsWith(t *testing.T) {
	s := FromString("hello world")
	require.True(t, s.StartsWith(FromString("hello")))
	require.False(t, s.StartsWith(FromString("world")))
	require.True(t, s.EndsWith(FromString("world")))
	require.False(t, s.EndsWith(FromString("hello")))
}

func TestBoundStringStorageSize(t *testing.T) {
	require.Equal(t, uint32(4), boundStringStorageSize(0))
	require.Equal(t, uint32(8), boundStringStorageSize(4))
	require.Equal(t, uint32(12), boundStringStorageSize(10))
	require.Equal(t, uint32(256), boundStringStorageSize(300), "maxLen is clamped to 255")
}

func TestFromStringTruncatesAt255(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	s := FromString(string(long))
	require.Equal(t, 255, s.Length())
}
