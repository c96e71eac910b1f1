// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package uweb

// Bounded field capacities, ported from the original compile-time knobs
// (UWEB_MAX_*_LEN).
const (
	MaxResourceLen   = 256
	MaxHostLen       = 64
	MaxContentTypeLen = 128
	MaxConnectionLen = 64
	MaxContentDispLen = 256
)

// Multipart carries the metadata of the multipart/form-data part currently
// being parsed.
type Multipart struct {
	// PartNo is the number of parts seen so far in the current body.
	PartNo      uint32
	ContentType Bounded
	ContentDisp Bounded
}

func newMultipart() Multipart {
	return Multipart{
		ContentType: NewBounded(MaxContentTypeLen),
		ContentDisp: NewBounded(MaxContentDispLen),
	}
}

func (m *Multipart) reset() {
	m.PartNo = 0
	m.ContentType.Reset()
	m.ContentDisp.Reset()
}

// RequestHeader holds the parsed metadata of one HTTP request. Its
// lifetime is a single request: entering stateHeaderMethod always resets
// it to zero values first.
type RequestHeader struct {
	Method        Method
	Resource      Bounded
	Host          Bounded
	Connection    Bounded
	ContentType   Bounded
	ContentLength uint32
	Chunked       bool
	// ChunkNbr counts chunks emitted on the *response* side. It lives here
	// (not on the response emitter) only for callback-compatibility with
	// the original implementation, which exposed it as a request field
	// even though only the response path mutates it.
	ChunkNbr  uint32
	Multipart Multipart
}

// NewRequestHeader allocates a RequestHeader with all bounded fields sized
// per the compile-time knobs above.
func NewRequestHeader() RequestHeader {
	return RequestHeader{
		Resource:    NewBounded(MaxResourceLen),
		Host:        NewBounded(MaxHostLen),
		Connection:  NewBounded(MaxConnectionLen),
		ContentType: NewBounded(MaxContentTypeLen),
		Multipart:   newMultipart(),
	}
}

// reset clears the header back to its zero-value request state, keeping
// the bounded fields' backing arrays.
func (r *RequestHeader) reset() {
	r.Method = MethodBad
	r.Resource.Reset()
	r.Host.Reset()
	r.Connection.Reset()
	r.ContentType.Reset()
	r.ContentLength = 0
	r.Chunked = false
	r.ChunkNbr = 0
	r.Multipart.reset()
}
