// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package streamio

import (
	"net"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ConnStream adapts a net.Conn to uweb.Stream. Reads are non-blocking by
// construction: the caller's read loop (see cmd/uwebd) does the actual
// conn.Read and hands the bytes to Feed; ConnStream itself never blocks on
// the network. Writes go straight through to the connection.
type ConnStream struct {
	conn    net.Conn
	log     *zap.Logger
	onWrite func(n int)

	inbound []byte
	pos     int
}

// NewConnStream wraps conn for a single connection's lifetime. log may be
// nil, in which case write errors are simply reported to the caller (via a
// negative Write return) without being logged here.
func NewConnStream(conn net.Conn, log *zap.Logger) *ConnStream {
	return &ConnStream{conn: conn, log: log}
}

// OnWrite registers a callback invoked with the byte count of every
// successful Write, for callers that want to track outbound traffic (e.g.
// a metrics counter).
func (c *ConnStream) OnWrite(f func(n int)) {
	c.onWrite = f
}

// Feed appends bytes most recently read from the connection, making them
// available to the next Parse call.
func (c *ConnStream) Feed(b []byte) {
	if c.pos > 0 && c.pos == len(c.inbound) {
		c.inbound = c.inbound[:0]
		c.pos = 0
	}
	c.inbound = append(c.inbound, b...)
}

// Total implements uweb.Stream. A connection's total request size is not
// known in advance.
func (c *ConnStream) Total() int32 {
	return -1
}

// Avail implements uweb.Stream.
func (c *ConnStream) Avail() int32 {
	return int32(len(c.inbound) - c.pos)
}

// Read implements uweb.Stream.
func (c *ConnStream) Read(dst []byte) int32 {
	n := copy(dst, c.inbound[c.pos:])
	c.pos += n
	return int32(n)
}

// Write implements uweb.Stream, writing directly to the wrapped
// connection.
func (c *ConnStream) Write(src []byte) int32 {
	n, err := c.conn.Write(src)
	if err != nil {
		if c.log != nil {
			c.log.Warn("connection write failed", zap.Error(errors.Wrap(err, "conn write")), zap.String("remote", c.conn.RemoteAddr().String()))
		}
		return -1
	}
	if c.onWrite != nil {
		c.onWrite(n)
	}
	return int32(n)
}
