// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package urlcodec implements the application/x-www-form-urlencoded byte
// transforms used to decode POST resource bodies and request-lines:
// percent-encoding with "+" standing in for space, ported from the
// reference implementation's urlnencode/urlndecode.
package urlcodec

import "github.com/intuitivelabs/bytescase"

const hexDigits = "0123456789abcdef"

func isUnreserved(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') ||
		(c >= 'a' && c <= 'z') || c == '-' || c == '_' || c == '.' || c == '~'
}

// Encode appends the percent-encoded form of src to dst, stopping once dst
// reaches limit bytes total. It reports true if src could not be fully
// encoded because the limit was reached — the REDESIGN FLAG replacing the
// original's silent truncation (urlnencode never reported this to its
// caller).
func Encode(dst []byte, limit int, src []byte) ([]byte, bool) {
	for _, c := range src {
		switch {
		case isUnreserved(c):
			if len(dst) >= limit {
				return dst, true
			}
			dst = append(dst, c)
		case c == ' ':
			if len(dst) >= limit {
				return dst, true
			}
			dst = append(dst, '+')
		default:
			if len(dst)+3 > limit {
				return dst, true
			}
			dst = append(dst, '%', hexDigits[c>>4], hexDigits[c&0xf])
		}
	}
	return dst, false
}

// Decode appends the percent-decoded form of src to dst, stopping once dst
// reaches limit bytes total. It reports true if src could not be fully
// decoded because the limit was reached. A "%" not followed by two valid
// hex digits is dropped (mirroring the original, which silently skips a
// malformed escape rather than erroring).
func Decode(dst []byte, limit int, src []byte) ([]byte, bool) {
	i := 0
	for i < len(src) {
		if len(dst) >= limit {
			return dst, true
		}
		c := src[i]
		switch {
		case c == '%':
			if i+2 < len(src) && isHex(src[i+1]) && isHex(src[i+2]) {
				dst = append(dst, nibble(src[i+1])<<4|nibble(src[i+2]))
				i += 2
			}
			// malformed escape: the '%' itself is dropped, matching the
			// original's behavior of advancing past it without emitting
			// anything when the two following bytes aren't both present
		case c == '+':
			dst = append(dst, ' ')
		default:
			dst = append(dst, c)
		}
		i++
	}
	return dst, false
}

func isHex(c byte) bool {
	lc := bytescase.ByteToLower(c)
	return (c >= '0' && c <= '9') || (lc >= 'a' && lc <= 'f')
}

func nibble(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	return bytescase.ByteToLower(c) - 'a' + 10
}
