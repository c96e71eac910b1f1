// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package uweb

import (
	"bytes"
	"strings"
	"testing"

	"github.com/halfdan-io/uweb/streamio"
)

func runRequest(t *testing.T, resp ResponseFunc, data DataFunc, req string) (*Parser, *streamio.MemStream) {
	t.Helper()
	p := NewParser(resp, data)
	p.Init()
	in := streamio.NewMemStream([]byte(req))
	out := streamio.NewMemStream(nil)
	if err := p.Parse(in, out); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p, out
}

type simpleCase struct {
	name       string
	req        string
	wantStatus string
	wantBody   string
}

var simpleCases = [...]simpleCase{
	{name: "get", req: "GET /index.html HTTP/1.1\nHost: example.com\n\n",
		wantStatus: "HTTP/1.1 200 OK\n", wantBody: "hello"},
	{name: "bad method", req: "FROB / HTTP/1.1\n\n",
		wantStatus: "400 Bad Request", wantBody: ""},
}

func TestSimpleRequests(t *testing.T) {
	for _, c := range simpleCases {
		var called bool
		var gotMethod Method
		var gotResource string
		resp := func(req *RequestHeader, r *Response) (Disposition, error) {
			called = true
			gotMethod = req.Method
			gotResource = req.Resource.String()
			r.Status = Status200OK
			r.Body = streamio.NewMemStream([]byte("hello"))
			return RespOK, nil
		}
		_, out := runRequest(t, resp, nil, c.req)
		reply := string(out.Bytes())
		if !strings.Contains(reply, c.wantStatus) {
			t.Errorf("%s: reply = %q, want status %q", c.name, reply, c.wantStatus)
		}
		switch c.name {
		case "get":
			if !called {
				t.Errorf("%s: responder was not called", c.name)
			}
			if gotMethod != MethodGet {
				t.Errorf("%s: method = %v, want MethodGet", c.name, gotMethod)
			}
			if gotResource != "/index.html" {
				t.Errorf("%s: resource = %q, want /index.html", c.name, gotResource)
			}
			if !strings.HasSuffix(reply, c.wantBody) {
				t.Errorf("%s: reply = %q, want suffix %q", c.name, reply, c.wantBody)
			}
			if !strings.Contains(reply, "Content-Length: 5\n") {
				t.Errorf("%s: reply = %q, want Content-Length: 5", c.name, reply)
			}
		case "bad method":
			if called {
				t.Errorf("%s: responder should not have been called", c.name)
			}
		}
	}
}

func TestHeadSkipsBody(t *testing.T) {
	resp := func(req *RequestHeader, r *Response) (Disposition, error) {
		r.Body = streamio.NewMemStream([]byte("hello"))
		return RespOK, nil
	}
	_, out := runRequest(t, resp, nil, "HEAD / HTTP/1.1\n\n")
	if strings.HasSuffix(string(out.Bytes()), "hello") {
		t.Errorf("HEAD response included body: %q", out.Bytes())
	}
}

func TestNoResponderYields501(t *testing.T) {
	_, out := runRequest(t, nil, nil, "GET / HTTP/1.1\n\n")
	if !strings.Contains(string(out.Bytes()), "501 Not Implemented") {
		t.Errorf("reply = %q, want 501 Not Implemented", out.Bytes())
	}
}

func TestChunkedAndContentLengthConflictYields400(t *testing.T) {
	resp := func(req *RequestHeader, r *Response) (Disposition, error) {
		return RespOK, nil
	}
	req := "POST /x HTTP/1.1\nTransfer-Encoding: chunked\nContent-Length: 5\n\n"
	_, out := runRequest(t, resp, nil, req)
	if !strings.Contains(string(out.Bytes()), "400 Bad Request") {
		t.Errorf("reply = %q, want 400 Bad Request", out.Bytes())
	}
}

func TestChunkedResponse(t *testing.T) {
	rounds := [][]byte{[]byte("abc"), []byte("de"), nil}
	i := 0
	resp := func(req *RequestHeader, r *Response) (Disposition, error) {
		r.Body = streamio.NewMemStream(rounds[i])
		i++
		return RespChunked, nil
	}
	_, out := runRequest(t, resp, nil, "GET / HTTP/1.1\n\n")
	reply := string(out.Bytes())
	want := []string{
		"Transfer-Encoding: chunked\n",
		"3; chunk 0\r\nabc\r\n",
		"2; chunk 1\r\nde\r\n",
	}
	for _, w := range want {
		if !strings.Contains(reply, w) {
			t.Errorf("reply = %q, want to contain %q", reply, w)
		}
	}
	if !strings.HasSuffix(reply, "0\r\n\r\n") {
		t.Errorf("reply = %q, want suffix 0\\r\\n\\r\\n", reply)
	}
}

func TestPostContentLengthBody(t *testing.T) {
	var gotBody []byte
	var gotLen uint32
	resp := func(req *RequestHeader, r *Response) (Disposition, error) {
		gotLen = req.ContentLength
		r.Body = streamio.NewMemStream(nil)
		return RespOK, nil
	}
	data := func(req *RequestHeader, kind DataKind, offset uint32, d []byte) {
		if kind != DataContent {
			t.Errorf("kind = %v, want DataContent", kind)
		}
		gotBody = append(gotBody, d...)
	}
	req := "POST /form HTTP/1.1\nContent-Length: 11\n\nhello=world"
	runRequest(t, resp, data, req)
	if gotLen != 11 {
		t.Errorf("ContentLength = %d, want 11", gotLen)
	}
	if string(gotBody) != "hello=world" {
		t.Errorf("body = %q, want %q", gotBody, "hello=world")
	}
}

func TestChunkedRequestBody(t *testing.T) {
	var gotBody []byte
	resp := func(req *RequestHeader, r *Response) (Disposition, error) {
		r.Body = streamio.NewMemStream(nil)
		return RespOK, nil
	}
	data := func(req *RequestHeader, kind DataKind, offset uint32, d []byte) {
		if kind != DataChunk {
			t.Errorf("kind = %v, want DataChunk", kind)
		}
		gotBody = append(gotBody, d...)
	}
	req := "POST /x HTTP/1.1\nTransfer-Encoding: chunked\n\n" +
		"3\r\nfoo\r\n3\r\nbar\r\n0\r\n\r\n"
	runRequest(t, resp, data, req)
	if string(gotBody) != "foobar" {
		t.Errorf("body = %q, want %q", gotBody, "foobar")
	}
}

// collectMultipartParts returns a DataFunc gathering DataMultipart fragments
// into one []byte per part, keyed by req.Multipart.PartNo as it changes.
func collectMultipartParts(parts *[][]byte, cur *[]byte, lastPartNo *uint32) DataFunc {
	return func(req *RequestHeader, kind DataKind, offset uint32, d []byte) {
		if kind != DataMultipart {
			return
		}
		if req.Multipart.PartNo != *lastPartNo {
			if *cur != nil {
				*parts = append(*parts, *cur)
			}
			*cur = nil
			*lastPartNo = req.Multipart.PartNo
		}
		*cur = append(*cur, d...)
	}
}

type multipartCase struct {
	name      string
	partBody  [2]string // raw part data, before the part's trailing CRLF
	wantParts [2]string // exact expected bytes delivered per part
}

var multipartCases = [...]multipartCase{
	{
		name:      "two clean parts",
		partBody:  [2]string{"111", "222"},
		wantParts: [2]string{"111\r\n", "222\r\n"},
	},
	{
		// "--XBOUND" is a prefix of, not equal to, the real boundary
		// "--XBOUNDARY" and must be delivered as ordinary part data rather
		// than mistaken for a part terminator (spec.md §8 scenario 5).
		name:      "boundary-like prefix embedded in part data",
		partBody:  [2]string{"has --XBOUND inside", "222"},
		wantParts: [2]string{"has --XBOUND inside\r\n", "222\r\n"},
	},
}

func TestMultipartFormData(t *testing.T) {
	for _, c := range multipartCases {
		var parts [][]byte
		var cur []byte
		var lastPartNo uint32
		resp := func(req *RequestHeader, r *Response) (Disposition, error) {
			r.Body = streamio.NewMemStream(nil)
			return RespOK, nil
		}
		data := collectMultipartParts(&parts, &cur, &lastPartNo)

		boundary := "XBOUNDARY"
		body := "--" + boundary + "\r\n" +
			"Content-Disposition: form-data; name=\"a\"\r\n\r\n" +
			c.partBody[0] + "\r\n" +
			"--" + boundary + "\r\n" +
			"Content-Disposition: form-data; name=\"b\"\r\n\r\n" +
			c.partBody[1] + "\r\n" +
			"--" + boundary + "--\r\n"

		req := "POST /upload HTTP/1.1\n" +
			"Content-Type: multipart/form-data; boundary=" + boundary + "\n" +
			"Content-Length: " + itoa(len(body)) + "\n\n" +
			body

		runRequest(t, resp, data, req)
		if cur != nil {
			parts = append(parts, cur)
		}
		if len(parts) != 2 {
			t.Fatalf("%s: got %d parts (%q), want 2", c.name, len(parts), parts)
		}
		if string(parts[0]) != c.wantParts[0] {
			t.Errorf("%s: part 1 = %q, want %q", c.name, parts[0], c.wantParts[0])
		}
		if string(parts[1]) != c.wantParts[1] {
			t.Errorf("%s: part 2 = %q, want %q", c.name, parts[1], c.wantParts[1])
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

// TestParseAcrossMultipleCalls feeds one request split across several
// Parse() calls on the same Parser/MemStream pair, mid-line and mid-body,
// and checks the result matches the single-call case: the suspend/resume
// contract that is the reason Parser holds all scratch state as struct
// fields instead of the original C implementation's process-wide globals.
func TestParseAcrossMultipleCalls(t *testing.T) {
	var gotMethod Method
	var gotBody []byte
	resp := func(req *RequestHeader, r *Response) (Disposition, error) {
		gotMethod = req.Method
		r.Body = streamio.NewMemStream([]byte("ok"))
		return RespOK, nil
	}
	data := func(req *RequestHeader, kind DataKind, offset uint32, d []byte) {
		gotBody = append(gotBody, d...)
	}

	full := "POST /form HTTP/1.1\nContent-Length: 11\n\nhello=world"
	pieces := []string{
		"POST /fo",
		"rm HTTP/1.1\nContent-Le",
		"ngth: 11\n\nhel",
		"lo=world",
	}
	if joined := strings.Join(pieces, ""); joined != full {
		t.Fatalf("test setup bug: pieces do not join into full request: %q", joined)
	}

	p := NewParser(resp, data)
	p.Init()
	out := streamio.NewMemStream(nil)
	in := streamio.NewMemStream(nil)
	for _, piece := range pieces {
		in.Feed([]byte(piece))
		if err := p.Parse(in, out); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
	}

	if gotMethod != MethodPost {
		t.Errorf("method = %v, want MethodPost", gotMethod)
	}
	if string(gotBody) != "hello=world" {
		t.Errorf("body = %q, want %q", gotBody, "hello=world")
	}
	if !bytes.Contains(out.Bytes(), []byte("200 OK")) {
		t.Errorf("reply = %q, want 200 OK", out.Bytes())
	}
}

func TestTimeoutMidRequestSends408(t *testing.T) {
	p := NewParser(func(req *RequestHeader, r *Response) (Disposition, error) {
		return RespOK, nil
	}, nil)
	p.Init()
	in := streamio.NewMemStream([]byte("GET / HTTP/1.1\n"))
	out := streamio.NewMemStream(nil)
	if err := p.Parse(in, out); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := p.Timeout(out); err != nil {
		t.Fatalf("Timeout() error = %v", err)
	}
	if !strings.Contains(string(out.Bytes()), "408 Request Time-out") {
		t.Errorf("reply = %q, want 408 Request Time-out", out.Bytes())
	}
}

func TestTimeoutBeforeAnyDataIsNotAnError(t *testing.T) {
	p := NewParser(func(req *RequestHeader, r *Response) (Disposition, error) {
		return RespOK, nil
	}, nil)
	p.Init()
	out := streamio.NewMemStream(nil)
	if err := p.Timeout(out); err != nil {
		t.Fatalf("Timeout() error = %v", err)
	}
	if len(out.Bytes()) != 0 {
		t.Errorf("reply = %q, want empty", out.Bytes())
	}
}
