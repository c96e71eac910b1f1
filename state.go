// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package uweb

import (
	"bytes"

	"github.com/pkg/errors"
)

// parserState is the core's state machine position, per spec.md §4.
type parserState uint8

const (
	stateHeaderMethod parserState = iota
	stateHeaderFields
	stateContent
	stateMultiContentHeader
	stateMultiContentData
	stateChunkDataHeader
	stateChunkData
	stateChunkDataEnd
	stateChunkFooter
)

// TxBufLen is the default scratch buffer size used both for pumping
// response bodies and for draining Content-Length/chunked request bodies.
const TxBufLen = 2048

// Parser holds all per-connection state for one HTTP/1.1 request/response
// cycle. It is not safe for concurrent use: a Parser handles exactly one
// request at a time, by design (spec.md §3).
type Parser struct {
	resp ResponseFunc
	data DataFunc

	state parserState
	req   RequestHeader

	line lineAcc

	mm multipartMatcher

	reqBuf []byte // bounded multipart data scratch buffer
	reqLen int
	// skipNextMultipartLine is set right after a boundary is matched
	// mid-data: the rolling matcher stops exactly at the boundary text, so
	// the CRLF terminating that same physical line is read as its own
	// (would-be blank) line next. That line isn't the blank line ending
	// the new part's own headers and must be ignored rather than acted on.
	skipNextMultipartLine bool

	receivedContentLen   uint32 // shared progress counter: plain body or current chunk
	receivedMultipartLen uint32
	chunkLen             uint32
	chunkIx              uint32

	txBuf []byte // scratch for body reads/writes
}

// NewParser builds a Parser ready to parse requests and dispatch responses
// through resp and data. data may be nil if the application has no use for
// inbound body bytes (e.g. a pure GET-only service).
func NewParser(resp ResponseFunc, data DataFunc, opts ...Option) *Parser {
	p := &Parser{
		resp:   resp,
		data:   data,
		req:    NewRequestHeader(),
		line:   newLineAcc(ReqBufMaxLen),
		reqBuf: make([]byte, ReqBufMaxLen),
		txBuf:  make([]byte, TxBufLen),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Init resets the Parser to its initial state, ready for a fresh
// connection. It does not touch the buffers allocated by NewParser.
func (p *Parser) Init() {
	p.resetRequest()
	p.line.reset()
	p.reqLen = 0
}

// Parse drains whatever in currently reports available and advances the
// state machine, writing any response bytes and invoking the ResponseFunc/
// DataFunc callbacks as appropriate. It never blocks: when in.Avail()
// reaches zero it returns, ready to be called again once more bytes arrive.
func (p *Parser) Parse(in, out Stream) error {
	for in.Avail() > 0 {
		switch p.state {
		case stateHeaderMethod, stateHeaderFields, stateMultiContentHeader,
			stateChunkDataHeader, stateChunkDataEnd, stateChunkFooter:
			var c [1]byte
			n := in.Read(c[:])
			if n < 1 {
				if n < 0 {
					return errors.Wrap(ErrStreamIO, "read request line")
				}
				return nil
			}
			if line, complete := p.line.push(c[0]); complete {
				if err := p.handleLine(out, line); err != nil {
					return err
				}
			}
		case stateContent:
			if err := p.consumeContent(in); err != nil {
				return err
			}
		case stateChunkData:
			if err := p.consumeChunkData(in); err != nil {
				return err
			}
		case stateMultiContentData:
			if err := p.consumeMultipartByte(in, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// Timeout answers an idle connection. Outside stateHeaderMethod (i.e. a
// request was partially received) it sends a 408 and resets; at the very
// start of a connection/request, idling is not an error.
func (p *Parser) Timeout(out Stream) error {
	if p.state != stateHeaderMethod {
		return p.sendError(out, Status408RequestTimeout, errRequestTimeoutBody)
	}
	return nil
}

// handleLine dispatches one accumulated line according to the state it was
// accumulated in.
func (p *Parser) handleLine(out Stream, line []byte) error {
	switch p.state {
	case stateHeaderMethod:
		parseRequestLine(line, &p.req)
		p.state = stateHeaderFields
		return nil

	case stateHeaderFields:
		if len(line) == 0 {
			return p.endOfHeaders(out)
		}
		applyHeaderField(line, &p.req)
		return nil

	case stateMultiContentHeader:
		return p.handleMultipartHeaderLine(out, line)

	case stateChunkDataHeader:
		return p.handleChunkHeaderLine(line)

	case stateChunkDataEnd:
		// the CRLF following chunk data; its content is not inspected
		p.state = stateChunkDataHeader
		p.receivedContentLen = 0
		return nil

	case stateChunkFooter:
		if len(line) == 0 {
			p.resetRequest()
		}
		return nil
	}
	return nil
}

// endOfHeaders runs once the blank line ending the request header block is
// seen: it validates the request, dispatches the response, and decides
// which body-reading state (if any) comes next.
func (p *Parser) endOfHeaders(out Stream) error {
	if p.req.Method == MethodBad {
		return p.sendError(out, Status400BadRequest, errBadRequestBody)
	}
	if p.req.Chunked && p.req.ContentLength > 0 {
		return p.sendError(out, Status400BadRequest, errBadRequestBody)
	}

	wantMultipart := p.req.ContentLength > 0 && !p.req.Chunked &&
		isMultipartFormData(p.req.ContentType.Bytes())
	var boundary []byte
	if wantMultipart {
		b, ok := extractBoundary(p.req.ContentType.Bytes())
		if !ok {
			return p.sendError(out, Status400BadRequest, errBadRequestBody)
		}
		boundary = b
	}

	if err := p.dispatchResponse(out); err != nil {
		return err
	}

	switch {
	case p.req.Chunked:
		p.state = stateChunkDataHeader
		p.chunkIx = 0
		p.chunkLen = 0
		p.receivedContentLen = 0
	case p.req.ContentLength > 0:
		p.receivedContentLen = 0
		if wantMultipart {
			p.mm.reset(boundary)
			p.req.Multipart.reset()
			p.reqLen = 0
			p.receivedMultipartLen = 0
			p.state = stateMultiContentHeader
		} else {
			p.state = stateContent
		}
	default:
		p.resetRequest()
	}
	return nil
}

// handleMultipartHeaderLine processes one line read while in
// stateMultiContentHeader: either a line accumulated normally (the first
// boundary of the body, or a part's own header lines) or the synthetic
// "--<boundary>" snippet handed over by consumeMultipartByte on a full
// rolling match.
func (p *Parser) handleMultipartHeaderLine(out Stream, line []byte) error {
	if bytes.Equal(line, []byte("--")) {
		// the trailing "--" of a "--<boundary>--" terminator, split across
		// two dispatch events: the boundary text itself was consumed by
		// the data-state matcher, this is what followed it.
		p.skipNextMultipartLine = false
		p.resetRequest()
		return nil
	}
	if bytes.HasPrefix(line, []byte("--")) {
		if bIdx := bytes.Index(line[2:], p.mm.boundary); bIdx >= 0 {
			after := line[2+bIdx+len(p.mm.boundary):]
			if bytes.Contains(after, []byte("--")) {
				p.skipNextMultipartLine = false
				p.resetRequest()
				return nil
			}
			return nil // new part begins; its header lines follow
		}
	}
	if p.skipNextMultipartLine {
		// swallow the CRLF terminating the just-matched boundary line
		p.skipNextMultipartLine = false
		return nil
	}
	if len(line) == 0 {
		p.state = stateMultiContentData
		p.mm.ix = 0
		p.mm.delim = 0
		p.receivedMultipartLen = 0
		p.reqLen = 0
		return nil
	}
	if f, v, ok := matchField(line); ok {
		switch f {
		case fieldContentDisposition:
			p.req.Multipart.ContentDisp.Set(v)
		case fieldContentType:
			p.req.Multipart.ContentType.Set(v)
		}
	}
	return nil
}

func (p *Parser) handleChunkHeaderLine(line []byte) error {
	l := line
	if idx := bytes.IndexByte(l, ';'); idx >= 0 {
		l = l[:idx]
	}
	n, _ := parseChunkSize(l)
	p.chunkLen = n
	p.receivedContentLen = 0
	if n > 0 {
		p.state = stateChunkData
	} else {
		p.state = stateChunkFooter
	}
	return nil
}

// consumeContent drains as much of a Content-Length delimited body as in
// currently makes available, in chunks bounded by len(txBuf).
func (p *Parser) consumeContent(in Stream) error {
	remaining := int32(p.req.ContentLength - p.receivedContentLen)
	want := minI32(in.Avail(), int32(len(p.txBuf)), remaining)
	if want <= 0 {
		return nil
	}
	n := in.Read(p.txBuf[:want])
	if n <= 0 {
		if n < 0 {
			return errors.Wrap(ErrStreamIO, "read content")
		}
		return nil
	}
	if p.data != nil {
		p.data(&p.req, DataContent, p.receivedContentLen, p.txBuf[:n])
	}
	p.receivedContentLen += uint32(n)
	if p.receivedContentLen == p.req.ContentLength {
		p.resetRequest()
	}
	return nil
}

// consumeChunkData drains as much of the current inbound chunk as in
// currently makes available.
func (p *Parser) consumeChunkData(in Stream) error {
	remaining := int32(p.chunkLen - p.receivedContentLen)
	want := minI32(in.Avail(), int32(len(p.txBuf)), remaining)
	if want <= 0 {
		return nil
	}
	n := in.Read(p.txBuf[:want])
	if n <= 0 {
		if n < 0 {
			return errors.Wrap(ErrStreamIO, "read chunk data")
		}
		return nil
	}
	if p.data != nil {
		p.data(&p.req, DataChunk, p.receivedContentLen, p.txBuf[:n])
	}
	p.receivedContentLen += uint32(n)
	if p.receivedContentLen == p.chunkLen {
		p.chunkIx++
		p.state = stateChunkDataEnd
	}
	return nil
}

// consumeMultipartByte reads one byte of a multipart part's body, feeding
// it to both the bounded scratch buffer (flushed to DataFunc on '\n' or
// overflow) and the rolling boundary matcher.
func (p *Parser) consumeMultipartByte(in, out Stream) error {
	var c [1]byte
	n := in.Read(c[:])
	if n < 1 {
		if n < 0 {
			return errors.Wrap(ErrStreamIO, "read multipart data")
		}
		return nil
	}
	ch := c[0]
	p.reqBuf[p.reqLen] = ch
	p.reqLen++

	if ch == '\n' {
		p.flushMultipartBuf()
	}

	wasPending := p.mm.pending()
	switch p.mm.feed(ch) {
	case matchFull:
		p.req.Multipart.PartNo++
		p.state = stateMultiContentHeader
		snippetLen := len(p.mm.boundary) + 2
		snippet := append([]byte(nil), p.reqBuf[p.reqLen-snippetLen:p.reqLen]...)
		// mirrors the original's "continue": a full match skips the
		// flush/progress bookkeeping below entirely for this byte.
		if err := p.handleMultipartHeaderLine(out, snippet); err != nil {
			return err
		}
		p.skipNextMultipartLine = true
		return nil
	case matchNone:
		if wasPending {
			p.flushMultipartBuf()
		}
	}

	if p.reqLen >= len(p.reqBuf) {
		p.flushMultipartBuf()
	}

	p.receivedContentLen++
	if p.receivedContentLen == p.req.ContentLength {
		p.flushMultipartBuf()
		p.resetRequest()
	}
	return nil
}

func (p *Parser) flushMultipartBuf() {
	if p.data != nil {
		p.data(&p.req, DataMultipart, p.receivedMultipartLen, p.reqBuf[:p.reqLen])
	}
	p.receivedMultipartLen += uint32(p.reqLen)
	p.reqLen = 0
}

// dispatchResponse invokes resp (answering with 501 if none was configured)
// and writes the reply, pumping resp.Body for as many rounds as a
// RespChunked disposition requests.
func (p *Parser) dispatchResponse(out Stream) error {
	if p.resp == nil {
		return p.sendError(out, Status501NotImplemented, errNotImplBody)
	}
	resp := Response{Status: Status200OK, ContentType: "text/html; charset=utf-8"}
	disp, err := p.resp(&p.req, &resp)
	if err != nil {
		return err
	}

	if disp == RespChunked {
		hdr := buildChunkedHeaders(resp.Status, resp.ContentType, resp.ExtraHeaders)
		if out.Write(hdr) < 0 {
			return errors.Wrap(ErrStreamIO, "write chunked response headers")
		}
		if p.req.Method == MethodHead {
			return nil
		}
		for resp.Body != nil {
			length := resp.Body.Avail()
			if length <= 0 {
				break
			}
			if out.Write(chunkFrameHeader(uint32(length), p.req.ChunkNbr)) < 0 {
				return errors.Wrap(ErrStreamIO, "write chunk frame")
			}
			if err := p.pumpFixed(out, resp.Body, length); err != nil {
				return err
			}
			if out.Write([]byte(chunkTrailer)) < 0 {
				return errors.Wrap(ErrStreamIO, "write chunk trailer")
			}
			p.req.ChunkNbr++
			disp, err = p.resp(&p.req, &resp)
			if err != nil {
				return err
			}
			if disp != RespChunked {
				break
			}
		}
		if out.Write([]byte(lastChunk)) < 0 {
			return errors.Wrap(ErrStreamIO, "write final chunk")
		}
		return nil
	}

	var total int32
	if resp.Body != nil {
		total = resp.Body.Total()
	}
	if total < 0 {
		total = 0
	}
	hdr := buildPlainHeaders(resp.Status, resp.ContentType, total, resp.ExtraHeaders)
	if out.Write(hdr) < 0 {
		return errors.Wrap(ErrStreamIO, "write response headers")
	}
	if p.req.Method == MethodHead || resp.Body == nil {
		return nil
	}
	return p.pumpAvail(out, resp.Body)
}

// pumpAvail writes body to out a round at a time, for as long as
// body.Avail() reports bytes ready, bounded by len(txBuf) per round.
func (p *Parser) pumpAvail(out Stream, body Stream) error {
	for body.Avail() > 0 {
		n := minI32(body.Avail(), int32(len(p.txBuf)))
		rn := body.Read(p.txBuf[:n])
		if rn < 0 {
			return errors.Wrap(ErrStreamIO, "read response body")
		}
		if rn == 0 {
			break
		}
		if out.Write(p.txBuf[:rn]) < 0 {
			return errors.Wrap(ErrStreamIO, "write response body")
		}
	}
	return nil
}

// pumpFixed writes exactly length bytes of body to out (clamped further by
// body.Avail() each round, as the original does).
func (p *Parser) pumpFixed(out Stream, body Stream, length int32) error {
	for length > 0 {
		n := minI32(length, body.Avail(), int32(len(p.txBuf)))
		if n <= 0 {
			break
		}
		rn := body.Read(p.txBuf[:n])
		if rn < 0 {
			return errors.Wrap(ErrStreamIO, "read chunk body")
		}
		if rn == 0 {
			break
		}
		if out.Write(p.txBuf[:rn]) < 0 {
			return errors.Wrap(ErrStreamIO, "write chunk body")
		}
		length -= rn
	}
	return nil
}

// sendError writes a canned error response directly (bypassing resp) and
// resets the parser for the next request.
func (p *Parser) sendError(out Stream, status Status, body string) error {
	hdr := buildPlainHeaders(status, "text/html; charset=UTF-8", int32(len(body)), "")
	if out.Write(hdr) < 0 {
		return errors.Wrap(ErrStreamIO, "write error response headers")
	}
	if out.Write([]byte(body)) < 0 {
		return errors.Wrap(ErrStreamIO, "write error response body")
	}
	p.resetRequest()
	return nil
}

func (p *Parser) resetRequest() {
	p.req.reset()
	p.state = stateHeaderMethod
	p.reqLen = 0
	p.chunkIx = 0
	p.chunkLen = 0
	p.receivedContentLen = 0
	p.receivedMultipartLen = 0
	p.skipNextMultipartLine = false
}

func minI32(vs ...int32) int32 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
