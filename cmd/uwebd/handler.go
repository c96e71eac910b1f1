// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/halfdan-io/uweb"
	"github.com/halfdan-io/uweb/streamio"
)

// newDemoResponder returns a ResponseFunc that answers every GET/HEAD with
// a tiny static page, POST with a byte-count summary of the body it just
// received, and anything else with 404. It exists to give uwebd a runnable
// default; real deployments are expected to supply their own ResponseFunc.
func newDemoResponder(log *zap.Logger) uweb.ResponseFunc {
	return func(req *uweb.RequestHeader, resp *uweb.Response) (uweb.Disposition, error) {
		switch req.Method {
		case uweb.MethodGet, uweb.MethodHead:
			resp.Status = uweb.Status200OK
			resp.Body = streamio.NewMemStream([]byte("<html><body>uWeb</body></html>"))
		case uweb.MethodPost:
			resp.Status = uweb.Status200OK
			resp.Body = streamio.NewMemStream([]byte(fmt.Sprintf("received %d bytes\n", req.ContentLength)))
		default:
			resp.Status = uweb.Status404NotFound
			resp.Body = streamio.NewMemStream([]byte("not found\n"))
		}
		requestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.Status)).Inc()
		log.Debug("dispatched response",
			zap.String("method", req.Method.String()),
			zap.String("resource", req.Resource.String()),
			zap.Uint16("status", uint16(resp.Status)))
		return uweb.RespOK, nil
	}
}

// newLoggingDataFunc returns a DataFunc that just logs fragment sizes; a
// real application would accumulate or stream these to storage.
func newLoggingDataFunc(log *zap.Logger) uweb.DataFunc {
	return func(req *uweb.RequestHeader, kind uweb.DataKind, offset uint32, data []byte) {
		log.Debug("body fragment",
			zap.String("resource", req.Resource.String()),
			zap.Uint32("offset", offset),
			zap.Int("len", len(data)))
	}
}
