// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package uweb

import "github.com/intuitivelabs/bytescase"

// parseChunkSize parses a chunk-size line (hex digits, optionally followed
// by a ";"-delimited chunk-extension which is ignored) into a byte count.
// It returns false if no hex digits were found at all.
func parseChunkSize(line []byte) (uint32, bool) {
	i := skipSpaceTab(line, 0)
	start := i
	for i < len(line) && isHexDigit(line[i]) {
		i++
	}
	if i == start {
		return 0, false
	}
	var n uint32
	for _, c := range line[start:i] {
		n = n<<4 | uint32(hexNibble(c))
	}
	return n, true
}

func isHexDigit(c byte) bool {
	lc := bytescase.ByteToLower(c)
	return (c >= '0' && c <= '9') || (lc >= 'a' && lc <= 'f')
}

func hexNibble(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	return bytescase.ByteToLower(c) - 'a' + 10
}
