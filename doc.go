// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package uweb implements a byte-driven, single-request-at-a-time HTTP/1.1
// parser and response emitter for constrained environments.
//
// A Parser is fed raw bytes through a Stream and drives an explicit state
// machine recognising the request line, header fields, Content-Length and
// chunked bodies, and multipart/form-data bodies. Parsed request metadata
// and body fragments are handed to two application-supplied callbacks: a
// ResponseFunc that produces the reply and a DataFunc that consumes inbound
// body bytes. The parser never blocks: it drains whatever the Stream
// currently reports available and returns, so a single Parser can be driven
// from a non-blocking event loop one read() at a time.
//
// A Parser is not re-entrant and keeps no package-level state: one instance
// serves exactly one request at a time, and a host serving N connections
// concurrently allocates N Parsers.
package uweb
