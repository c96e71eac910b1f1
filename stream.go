// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package uweb

// UnknownSize is the sentinel Total() value meaning "total size not known
// in advance" (e.g. a response body being produced on the fly).
const UnknownSize int32 = -1

// Stream is the byte-stream abstraction the core reads requests from and
// writes responses to. It never blocks directly on a Stream: Parse drains
// whatever Avail() currently reports and returns.
//
// Total and Avail are plain hints, not capacity constraints enforced by the
// Stream itself: the core only ever reads up to Avail() bytes at a time,
// and a response producer is expected to update Avail() (and Total(), for
// plain non-chunked replies) between rounds to advertise how many body
// bytes it is prepared to deliver next. Both streamio implementations
// (streamio.MemStream, streamio.ConnStream) compute them on the fly from
// the bytes they hold.
type Stream interface {
	// Total returns the declared total size of the stream's content, or
	// UnknownSize if not known in advance.
	Total() int32
	// Avail returns the number of bytes immediately readable without
	// blocking (for input streams) or the number of body bytes the
	// producer intends to hand over in the current round (for output
	// streams produced by a ResponseFunc).
	Avail() int32
	// Read reads up to len(dst) bytes into dst, returning the number of
	// bytes actually read. A negative return means an I/O error.
	Read(dst []byte) int32
	// Write writes up to len(src) bytes from src, returning the number of
	// bytes actually written. A negative return means an I/O error.
	Write(src []byte) int32
}
