// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"

	"github.com/bassosimone/nettap"
	"gopkg.in/natefinch/lumberjack.v2"
)

// server accepts downstream connections and proxies them while tapping.
type server struct {
	closer   io.Closer
	config   *nettap.Config
	logger   *slog.Logger
	policy   *nettap.StaticPolicy
	upstream netip.AddrPort
}

// newServer builds the tap policy and the trace sink described by cfg.
//
// Traces go to stdout unless cfg selects a file output.
func newServer(cfg *Config, logger *slog.Logger, stdout io.Writer) (*server, error) {
	upstream, err := netip.ParseAddrPort(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream: %w", err)
	}

	format, err := nettap.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	matcher := nettap.AnyMatcher()
	if len(cfg.Tap.Rules) > 0 {
		if matcher, err = nettap.NewRuleMatcher(cfg.Tap.Rules...); err != nil {
			return nil, err
		}
	}

	srv := &server{
		closer:   io.NopCloser(nil),
		config:   nettap.NewConfig(),
		logger:   logger,
		upstream: upstream,
	}

	var sinks nettap.SinkFactory
	switch {
	case cfg.Output.PerTapPrefix != "":
		sinks = nettap.NewFilePerTapSink(cfg.Output.PerTapPrefix, format)

	case cfg.Output.File.Filename != "":
		writer := &lumberjack.Logger{
			Filename:   cfg.Output.File.Filename,
			MaxSize:    cfg.Output.File.MaxSize,
			MaxBackups: cfg.Output.File.MaxBackups,
			MaxAge:     cfg.Output.File.MaxAge,
			Compress:   cfg.Output.File.Compress,
		}
		srv.closer = writer
		sinks = nettap.NewWriterSink(writer, format)

	default:
		sinks = nettap.NewWriterSink(stdout, format)
	}

	srv.policy = nettap.NewStaticPolicy(srv.config, matcher, sinks, logger)
	srv.policy.MaxRxBytes = cfg.Tap.MaxBufferedRxBytes
	srv.policy.MaxTxBytes = cfg.Tap.MaxBufferedTxBytes
	srv.policy.StreamingOutput = cfg.Tap.Streaming
	return srv, nil
}

// Serve accepts connections from ln until ctx is done and waits for the
// running sessions before returning. It closes ln.
func (s *server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	s.logger.Info("serveStart", slog.String("localAddr", ln.Addr().String()),
		slog.String("upstreamAddr", s.upstream.String()))

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("serveDone")
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.session(ctx, conn)
		}()
	}
}

// session proxies a single downstream connection with a logger carrying
// a fresh span ID, shared by the tap and the proxy.
func (s *server) session(ctx context.Context, conn net.Conn) {
	logger := s.logger.With(slog.String("spanID", nettap.NewSpanID()))

	policy := *s.policy
	policy.Logger = logger

	tap := nettap.NewTapConnFunc(s.config, &policy, logger)
	proxy := nettap.NewProxyFunc(s.config, s.upstream, tap, logger)
	proxy.Call(ctx, conn)
}

// Close releases the trace output.
func (s *server) Close() error {
	return s.closer.Close()
}
