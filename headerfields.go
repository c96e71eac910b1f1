// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package uweb

import (
	"bytes"

	"github.com/intuitivelabs/bytescase"
)

// field identifies one of the fixed set of recognised header names.
type field int

const (
	fieldConnection field = iota
	fieldHost
	fieldContentLength
	fieldContentType
	fieldTransferEncoding
	fieldContentDisposition
	fieldCount
)

// fieldNames holds the recognised header names in prefix-match form,
// including the trailing colon. Matching is an exact-case prefix match
// (not case-insensitive, despite real HTTP requiring case-insensitive
// field names) — an intentional, documented deviation preserved from the
// original implementation (see spec §9).
var fieldNames = [fieldCount][]byte{
	fieldConnection:         []byte("Connection:"),
	fieldHost:               []byte("Host:"),
	fieldContentLength:      []byte("Content-Length:"),
	fieldContentType:        []byte("Content-Type:"),
	fieldTransferEncoding:   []byte("Transfer-Encoding:"),
	fieldContentDisposition: []byte("Content-Disposition:"),
}

// matchField checks line against the fixed set of recognised header names
// and, on a match, returns the field, its value with leading space/tab
// stripped, and true.
func matchField(line []byte) (field, []byte, bool) {
	for f, name := range fieldNames {
		if bytes.HasPrefix(line, name) {
			return field(f), trimLeadingSpaceTab(line[len(name):]), true
		}
	}
	return 0, nil, false
}

func trimLeadingSpaceTab(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	return b[i:]
}

// parseRequestLine parses the request line's method and resource. The verb
// is the first whitespace-delimited token, resolved via GetMethodNo; an
// unrecognised verb leaves req.Method == MethodBad and the resource
// untouched. The resource is everything between the verb and the following
// space, leading whitespace stripped — the HTTP version token, if any, is
// parsed no further than locating that space (it is not stored anywhere,
// matching the original implementation, which never kept it either).
func parseRequestLine(line []byte, req *RequestHeader) {
	sp := bytes.IndexByte(line, ' ')
	var verb, rest []byte
	if sp < 0 {
		verb, rest = line, nil
	} else {
		verb, rest = line[:sp], line[sp+1:]
	}
	req.Method = GetMethodNo(verb)
	if req.Method == MethodBad {
		return
	}
	rest = trimLeadingSpaceTab(rest)
	if sp := bytes.IndexByte(rest, ' '); sp >= 0 {
		rest = rest[:sp]
	}
	req.Resource.Set(rest)
}

// applyHeaderField updates req from one recognised top-level header line.
// Unrecognised headers (including Content-Disposition, which only applies
// inside a multipart part header) are ignored.
func applyHeaderField(line []byte, req *RequestHeader) {
	f, v, ok := matchField(line)
	if !ok {
		return
	}
	switch f {
	case fieldConnection:
		req.Connection.Set(v)
	case fieldHost:
		req.Host.Set(v)
	case fieldContentType:
		req.ContentType.Set(v)
	case fieldContentLength:
		req.ContentLength = parseUint32(v)
	case fieldTransferEncoding:
		req.Chunked = bytescase.CmpEq(v, []byte("chunked"))
	}
}

// parseUint32 parses leading decimal digits, atoi-style: it stops at the
// first non-digit and returns 0 if there were none (it never errors).
func parseUint32(v []byte) uint32 {
	var n uint32
	for _, c := range v {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + uint32(c-'0')
	}
	return n
}
