// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var (
		mu      sync.Mutex
		records []slog.Record
	)
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			mu.Lock()
			records = append(records, record)
			mu.Unlock()
			return nil
		},
	}
	return slog.New(handler), &records
}

// recordMessages returns the messages of the captured records.
func recordMessages(records []slog.Record) []string {
	var out []string
	for _, record := range records {
		out = append(out, record.Message)
	}
	return out
}

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set. This is the minimum needed for code that calls
// [safeconn.LocalAddr], [safeconn.RemoteAddr], and [safeconn.Network]
// during construction.
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}

// fakeConnection is a [Connection] with fixed ID and addresses.
type fakeConnection struct {
	id     uint64
	local  net.Addr
	remote net.Addr
}

var _ Connection = &fakeConnection{}

// newFakeConnection returns the connection used across the tapper tests:
// ID 1, local 127.0.0.1:1000, remote 10.0.0.3:50000.
func newFakeConnection() *fakeConnection {
	return &fakeConnection{
		id:     1,
		local:  &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1000},
		remote: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 3), Port: 50000},
	}
}

func (c *fakeConnection) ID() uint64           { return c.id }
func (c *fakeConnection) LocalAddr() net.Addr  { return c.local }
func (c *fakeConnection) RemoteAddr() net.Addr { return c.remote }

// manualClock is a [Clock] that only moves when told to.
type manualClock struct {
	now time.Time
}

var _ Clock = &manualClock{}

// newManualClock returns a clock set to the given second of the Unix epoch.
func newManualClock(seconds int64) *manualClock {
	return &manualClock{now: time.Unix(seconds, 0).UTC()}
}

func (c *manualClock) Now() time.Time {
	return c.now
}

func (c *manualClock) Set(seconds int64) {
	c.now = time.Unix(seconds, 0).UTC()
}

// memorySink is a [SinkFactory] keeping every submitted message in memory.
type memorySink struct {
	mu       sync.Mutex
	closed   map[TraceID]int
	messages []*TraceMessage
}

var _ SinkFactory = &memorySink{}

func newMemorySink() *memorySink {
	return &memorySink{closed: map[TraceID]int{}}
}

func (s *memorySink) NewSinkHandle(id TraceID) (SinkHandle, error) {
	return &memorySinkHandle{id: id, sink: s}, nil
}

func (s *memorySink) Messages() []*TraceMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*TraceMessage{}, s.messages...)
}

func (s *memorySink) Closed(id TraceID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed[id]
}

type memorySinkHandle struct {
	id   TraceID
	sink *memorySink
}

func (h *memorySinkHandle) SubmitTrace(msg *TraceMessage) error {
	h.sink.mu.Lock()
	h.sink.messages = append(h.sink.messages, msg)
	h.sink.mu.Unlock()
	return nil
}

func (h *memorySinkHandle) Close() error {
	h.sink.mu.Lock()
	h.sink.closed[h.id]++
	h.sink.mu.Unlock()
	return nil
}
