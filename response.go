// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package uweb

import (
	"fmt"
	"strconv"
)

const serverName = "uWeb"

// buildPlainHeaders formats the status line and headers for a RespOK
// (non-chunked) reply. Status/header lines are LF-terminated, not CRLF —
// an intentional asymmetry with chunk framing (§9), preserved verbatim
// from the original implementation and confirmed by its golden test
// fixtures.
func buildPlainHeaders(status Status, contentType string, contentLength int32, extra string) []byte {
	var b []byte
	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(status), 10)
	b = append(b, ' ')
	b = append(b, status.Reason()...)
	b = append(b, '\n')
	b = append(b, "Server: "...)
	b = append(b, serverName...)
	b = append(b, '\n')
	b = append(b, "Content-Type: "...)
	b = append(b, contentType...)
	b = append(b, '\n')
	b = append(b, "Content-Length: "...)
	b = strconv.AppendInt(b, int64(contentLength), 10)
	b = append(b, '\n')
	b = append(b, extra...)
	b = append(b, "Connection: close\n\n"...)
	return b
}

// buildChunkedHeaders formats the status line and headers for a
// RespChunked reply.
func buildChunkedHeaders(status Status, contentType string, extra string) []byte {
	var b []byte
	b = append(b, "HTTP/1.1 "...)
	b = strconv.AppendInt(b, int64(status), 10)
	b = append(b, ' ')
	b = append(b, status.Reason()...)
	b = append(b, '\n')
	b = append(b, "Server: "...)
	b = append(b, serverName...)
	b = append(b, '\n')
	b = append(b, "Content-Type: "...)
	b = append(b, contentType...)
	b = append(b, '\n')
	b = append(b, "Transfer-Encoding: chunked\n"...)
	b = append(b, extra...)
	b = append(b, '\n')
	return b
}

// chunkFrameHeader formats "<hex-length>; chunk <n>\r\n" — CRLF, unlike
// the status/header lines above (see buildPlainHeaders doc comment).
func chunkFrameHeader(length uint32, chunkNbr uint32) []byte {
	return []byte(fmt.Sprintf("%x; chunk %d\r\n", length, chunkNbr))
}

const chunkTrailer = "\r\n"
const lastChunk = "0\r\n\r\n"
