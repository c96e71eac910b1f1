// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package urlcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []string{
		"hello world",
		"a=1&b=2",
		"weird/chars?here#too",
		"",
		"already-Unreserved_.~chars",
	}
	for _, c := range cases {
		enc, trunc := Encode(nil, 4096, []byte(c))
		require.False(t, trunc)
		dec, trunc := Decode(nil, 4096, enc)
		require.False(t, trunc)
		require.Equal(t, c, string(dec))
	}
}

func TestEncodeSpaceBecomesPlus(t *testing.T) {
	enc, trunc := Encode(nil, 4096, []byte("a b"))
	require.False(t, trunc)
	require.Equal(t, "a+b", string(enc))
}

func TestEncodeReservedBecomesPercent(t *testing.T) {
	enc, trunc := Encode(nil, 4096, []byte("a&b"))
	require.False(t, trunc)
	require.Equal(t, "a%26b", string(enc))
}

func TestDecodePlusBecomesSpace(t *testing.T) {
	dec, trunc := Decode(nil, 4096, []byte("a+b"))
	require.False(t, trunc)
	require.Equal(t, "a b", string(dec))
}

func TestDecodeMalformedEscapeDropped(t *testing.T) {
	dec, trunc := Decode(nil, 4096, []byte("a%2"))
	require.False(t, trunc)
	require.Equal(t, "a2", string(dec))
}

func TestEncodeReportsTruncation(t *testing.T) {
	_, trunc := Encode(nil, 2, []byte("a&b"))
	require.True(t, trunc)
}

func TestDecodeReportsTruncation(t *testing.T) {
	_, trunc := Decode(nil, 1, []byte("ab"))
	require.True(t, trunc)
}
