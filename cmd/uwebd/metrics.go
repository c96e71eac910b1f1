// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uwebd",
		Name:      "connections_total",
		Help:      "Total number of accepted connections.",
	})
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uwebd",
		Name:      "requests_total",
		Help:      "Total number of requests dispatched, by response status.",
	}, []string{"status"})
	bytesInTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uwebd",
		Name:      "bytes_in_total",
		Help:      "Total bytes read from client connections.",
	})
	bytesOutTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uwebd",
		Name:      "bytes_out_total",
		Help:      "Total bytes written to client connections.",
	})
	connectionErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "uwebd",
		Name:      "connection_errors_total",
		Help:      "Total connections torn down due to a stream I/O error.",
	})
)

func init() {
	prometheus.MustRegister(connectionsTotal, requestsTotal, bytesInTotal, bytesOutTotal, connectionErrorsTotal)
}
