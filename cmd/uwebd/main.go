// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a source-available license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Command uwebd is a reference socket host for the uweb parser: it accepts
// TCP connections, feeds their bytes through a uweb.Parser, and writes the
// parser's response bytes back out. It is the "external collaborator"
// spec.md leaves up to the embedding application, built here so the core
// package can be exercised end to end.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/halfdan-io/uweb"
	"github.com/halfdan-io/uweb/streamio"
)

var (
	listenAddr  string
	metricsAddr string
	readBufLen  int
	idleTimeout time.Duration
	debugLog    bool
)

func main() {
	root := &cobra.Command{
		Use:   "uwebd",
		Short: "Reference TCP host for the uweb HTTP/1.1 parser",
		RunE:  run,
	}
	root.Flags().StringVar(&listenAddr, "listen", ":8080", "address to accept HTTP connections on")
	root.Flags().StringVar(&metricsAddr, "metrics-listen", ":9090", "address to expose Prometheus metrics on")
	root.Flags().IntVar(&readBufLen, "read-buf-len", 4096, "size of the per-read socket buffer")
	root.Flags().DurationVar(&idleTimeout, "idle-timeout", 30*time.Second, "connection idle timeout before a 408 is sent")
	root.Flags().BoolVar(&debugLog, "debug", false, "enable debug-level logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log, err := newLogger(debugLog)
	if err != nil {
		return err
	}
	defer log.Sync()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Info("metrics listening", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()
	log.Info("listening", zap.String("addr", listenAddr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Error("accept failed", zap.Error(err))
			continue
		}
		connectionsTotal.Inc()
		go serve(conn, log)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	return cfg.Build()
}

// serve drives one connection's lifetime: read, feed, parse, repeat, with
// an idle-timeout check on every read.
func serve(conn net.Conn, log *zap.Logger) {
	connID := uuid.NewString()
	log = log.With(zap.String("conn_id", connID), zap.String("remote", conn.RemoteAddr().String()))
	defer conn.Close()
	defer log.Debug("connection closed")

	stream := streamio.NewConnStream(conn, log)
	stream.OnWrite(func(n int) { bytesOutTotal.Add(float64(n)) })
	parser := uweb.NewParser(newDemoResponder(log), newLoggingDataFunc(log), uweb.WithTxBufLen(readBufLen))
	parser.Init()

	buf := make([]byte, readBufLen)
	for {
		conn.SetReadDeadline(time.Now().Add(idleTimeout))
		n, err := conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if err := parser.Timeout(stream); err != nil {
					log.Warn("timeout response failed", zap.Error(err))
					connectionErrorsTotal.Inc()
					return
				}
				continue
			}
			log.Debug("connection read ended", zap.Error(err))
			return
		}
		bytesInTotal.Add(float64(n))
		stream.Feed(buf[:n])
		if err := parser.Parse(stream, stream); err != nil {
			log.Warn("parse failed", zap.Error(err))
			connectionErrorsTotal.Inc()
			return
		}
	}
}
