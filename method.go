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

// Method is the numeric type for a parsed HTTP request method.
type Method uint8

// Method values, in the order GET, HEAD, POST, PUT, DELETE, TRACE,
// OPTIONS, CONNECT, PATCH. MethodBad means the verb matched no known
// method (see GetMethodNo).
const (
	MethodBad Method = iota
	MethodGet
	MethodHead
	MethodPost
	MethodPut
	MethodDelete
	MethodTrace
	MethodOptions
	MethodConnect
	MethodPatch
	methodCount // must be last
)

// method2Name translates a Method to its ASCII wire name, indexed by
// Method value.
var method2Name = [methodCount][]byte{
	MethodBad:     []byte("<BAD>"),
	MethodGet:     []byte("GET"),
	MethodHead:    []byte("HEAD"),
	MethodPost:    []byte("POST"),
	MethodPut:     []byte("PUT"),
	MethodDelete:  []byte("DELETE"),
	MethodTrace:   []byte("TRACE"),
	MethodOptions: []byte("OPTIONS"),
	MethodConnect: []byte("CONNECT"),
	MethodPatch:   []byte("PATCH"),
}

// Name returns the ASCII method name, or "<BAD>" for MethodBad.
func (m Method) Name() []byte {
	if m >= methodCount {
		return method2Name[MethodBad]
	}
	return method2Name[m]
}

// String implements fmt.Stringer.
func (m Method) String() string {
	return string(m.Name())
}

// magic values: after adding/removing methods, make sure no bucket below
// grows past a handful of entries (there are only 9 real methods, so this
// never matters in practice, but the hash keeps lookups branch-light).
const (
	mthBitsLen   uint = 2
	mthBitsFChar uint = 3
)

type mth2Type struct {
	n []byte
	t Method
}

var mthNameLookup [1 << (mthBitsLen + mthBitsFChar)][]mth2Type

func hashMthName(n []byte) int {
	const (
		mC = (1 << mthBitsFChar) - 1
		mL = (1 << mthBitsLen) - 1
	)
	return (int(bytescase.ByteToLower(n[0])) & mC) |
		((len(n) & mL) << mthBitsFChar)
}

func init() {
	for m := MethodGet; m < methodCount; m++ {
		h := hashMthName(method2Name[m])
		mthNameLookup[h] = append(mthNameLookup[h], mth2Type{method2Name[m], m})
	}
}

// GetMethodNo resolves a request-line method token to its numeric Method.
// Matching compares the whole token, case-sensitively, against the method
// names in its hash bucket; it is not a prefix match, so a token that only
// begins with a method name (e.g. "GETX") yields MethodBad, as does an
// unknown verb.
func GetMethodNo(tok []byte) Method {
	if len(tok) == 0 {
		return MethodBad
	}
	h := hashMthName(tok)
	for _, m := range mthNameLookup[h] {
		if bytes.Equal(tok, m.n) {
			return m.t
		}
	}
	return MethodBad
}
