// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package uweb

import "github.com/intuitivelabs/bytescase"

// extractBoundary locates the boundary token inside a multipart/form-data
// Content-Type header value: "boundary" followed by optional whitespace,
// "=", optional whitespace, and the boundary string itself (up to the next
// ";" or end of value, trailing whitespace trimmed).
//
// Matching of the "boundary" keyword itself is case-insensitive (real HTTP
// parameter names are case-insensitive); this differs intentionally from
// the case-sensitive header-*name* matching used elsewhere in this package
// (see matchField), which preserves the original source's behavior.
func extractBoundary(contentType []byte) ([]byte, bool) {
	const key = "boundary"
	i := indexFold(contentType, []byte(key))
	if i < 0 {
		return nil, false
	}
	i += len(key)
	i = skipSpaceTab(contentType, i)
	if i >= len(contentType) || contentType[i] != '=' {
		return nil, false
	}
	i++
	i = skipSpaceTab(contentType, i)
	start := i
	for i < len(contentType) && contentType[i] != ';' {
		i++
	}
	end := i
	for end > start && (contentType[end-1] == ' ' || contentType[end-1] == '\t') {
		end--
	}
	if end == start {
		return nil, false
	}
	return contentType[start:end], true
}

// indexFold returns the index of the first case-insensitive occurrence of
// needle in hay, or -1.
func indexFold(hay, needle []byte) int {
	if len(needle) == 0 {
		return 0
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if bytescase.CmpEq(hay[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func skipSpaceTab(b []byte, i int) int {
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return i
}

// isMultipartFormData reports whether a Content-Type value begins with
// "multipart/form-data", matching the original's strstr(ct, "...") == ct
// prefix check (case-sensitive, consistent with the rest of this package's
// header-value handling).
func isMultipartFormData(contentType []byte) bool {
	const prefix = "multipart/form-data"
	return len(contentType) >= len(prefix) && string(contentType[:len(prefix)]) == prefix
}

// multipartMatcher is the rolling "--<boundary>" scanner driving
// StateMultiContentData. It is reset whenever a new multipart body starts
// and whenever a mismatch sends the parser back to plain data.
type multipartMatcher struct {
	boundary []byte // aliases RequestHeader.ContentType's backing bytes
	delim    uint8  // consecutive leading '-' bytes seen, capped at 2
	ix       int    // index into boundary matched so far
}

func (m *multipartMatcher) reset(boundary []byte) {
	m.boundary = boundary
	m.delim = 0
	m.ix = 0
}

// matchResult is the outcome of feeding one byte to the matcher.
type matchResult uint8

const (
	matchPending matchResult = iota // still inside a tentative boundary prefix
	matchNone                       // byte is definitely data, no boundary prefix pending
	matchFull                       // boundary fully matched on this byte
)

// feed advances the rolling match by one byte, per spec.md §4.2's
// three-stage rule: count up to two leading '-' bytes, then walk the
// boundary bytes one at a time, resetting on any mismatch.
func (m *multipartMatcher) feed(c byte) matchResult {
	switch {
	case c == '-' && m.delim < 2:
		m.delim++
		return matchPending
	case m.delim == 2 && m.ix < len(m.boundary) && c == m.boundary[m.ix]:
		m.ix++
		if m.ix == len(m.boundary) {
			m.delim = 0
			m.ix = 0
			return matchFull
		}
		return matchPending
	default:
		m.delim = 0
		m.ix = 0
		return matchNone
	}
}

// pending reports whether a boundary prefix is currently being tracked
// (used by the caller to decide whether a mismatch must flush buffered
// "eaten" bytes as real data).
func (m *multipartMatcher) pending() bool {
	return m.delim > 0 || m.ix > 0
}
