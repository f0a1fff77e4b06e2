// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

import (
	"log/slog"
	"net"
	"time"
)

// Connection is what a [*Tapper] needs to know about the tapped connection.
type Connection interface {
	// ID returns the connection ID, which becomes the [TraceID].
	ID() uint64

	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// TapperState is the state of a [*Tapper].
type TapperState int

const (
	// TapperInitializing is the state during construction.
	TapperInitializing TapperState = iota

	// TapperTapping means the connection matched and events are recorded.
	TapperTapping

	// TapperDisabled means the connection did not match, or tapping failed.
	TapperDisabled

	// TapperClosed is terminal: every further call is a no-op.
	TapperClosed
)

// String implements [fmt.Stringer].
func (s TapperState) String() string {
	switch s {
	case TapperInitializing:
		return "initializing"
	case TapperTapping:
		return "tapping"
	case TapperDisabled:
		return "disabled"
	case TapperClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DirectionBudget bounds the payload bytes captured in one direction.
//
// ConsumedBytes never decreases and never exceeds MaxBytes.
type DirectionBudget struct {
	MaxBytes      uint32
	ConsumedBytes uint32
}

// capture copies as much of data[:count] as the budget allows and returns
// the copy along with whether anything was left out.
func (b *DirectionBudget) capture(data []byte, count int) (Payload, bool) {
	count = max(0, min(count, len(data)))
	size := min(uint64(count), uint64(b.MaxBytes-b.ConsumedBytes))
	b.ConsumedBytes += uint32(size)
	payload := make(Payload, size)
	copy(payload, data)
	return payload, size < uint64(count)
}

// Tapper records the I/O of a single connection.
//
// The decision to tap is taken once, by [NewTapper], and never revisited.
// When the connection is not tapped every method returns immediately.
//
// A Tapper is not safe for concurrent use: the transport must call it
// from one goroutine at a time, in the order the I/O happened.
//
// Tapping failures never reach the caller. A failing matcher or sink
// disables the tapper for the rest of the connection.
type Tapper struct {
	clock     Clock
	conn      ConnectionContext
	errClass  ErrClassifier
	logger    SLogger
	rx        DirectionBudget
	sink      SinkHandle
	state     TapperState
	streaming bool
	trace     *SocketBufferedTrace
	traceID   TraceID
	tx        DirectionBudget
}

// NewTapper creates a [*Tapper] for conn and decides whether to tap it.
//
// This function acquires a sink handle from the policy, asks the root
// matcher to populate a fresh [MatchStatusVector] and taps the connection
// when at least one rule matches. In streaming mode the connection context
// is submitted right away.
//
// The logger and errClass arguments are used to report absorbed failures.
func NewTapper(policy Policy, conn Connection, logger SLogger, errClass ErrClassifier) *Tapper {
	t := &Tapper{
		errClass: errClass,
		logger:   logger,
		state:    TapperInitializing,
		traceID:  TraceID(conn.ID()),
	}

	sink, err := policy.CreateSinkHandle(t.traceID)
	if err != nil {
		t.abandon("createSinkHandle", err)
		return t
	}
	t.sink = sink

	statuses := policy.CreateMatchStatusVector()
	info := StreamInfo{TraceID: t.traceID, Connection: NewConnectionContext(conn)}
	if err := policy.RootMatcher().OnNewStream(info, statuses); err != nil {
		t.abandon("onNewStream", err)
		return t
	}

	if !statuses.Matches() {
		t.state = TapperDisabled
		t.logger.Debug(
			"tapDisabled",
			slog.String("localAddr", info.Connection.LocalAddress.String()),
			slog.String("remoteAddr", info.Connection.RemoteAddress.String()),
			slog.Uint64("traceID", uint64(t.traceID)),
		)
		return t
	}

	t.clock = policy.Clock()
	t.conn = info.Connection
	t.rx = DirectionBudget{MaxBytes: policy.MaxBufferedRxBytes()}
	t.streaming = policy.Streaming()
	t.tx = DirectionBudget{MaxBytes: policy.MaxBufferedTxBytes()}
	t.state = TapperTapping

	t.logger.Info(
		"tapStart",
		slog.String("localAddr", t.conn.LocalAddress.String()),
		slog.String("remoteAddr", t.conn.RemoteAddress.String()),
		slog.Bool("streaming", t.streaming),
		slog.Time("t", t.clock.Now()),
		slog.Uint64("traceID", uint64(t.traceID)),
	)

	if t.streaming {
		t.submit(&TraceMessage{SocketStreamedTraceSegment: &SocketStreamedTraceSegment{
			TraceID:    t.traceID,
			Connection: &t.conn,
		}})
		return t
	}

	t.trace = &SocketBufferedTrace{TraceID: t.traceID, Connection: &t.conn}
	return t
}

// TraceID returns the trace ID of the tapped connection.
func (t *Tapper) TraceID() TraceID {
	return t.traceID
}

// State returns the current [TapperState].
func (t *Tapper) State() TapperState {
	return t.state
}

// OnRead records that count bytes of data were read from the connection.
func (t *Tapper) OnRead(data []byte, count int) {
	if t.state != TapperTapping {
		return
	}
	ev := Event{Timestamp: t.now(), Read: &ReadEvent{}}
	ev.Read.Data, ev.Read.Truncated = t.rx.capture(data, count)
	t.record(ev)
}

// OnWrite records that count bytes of data were written to the connection.
//
// The endStream flag is recorded verbatim.
func (t *Tapper) OnWrite(data []byte, count int, endStream bool) {
	if t.state != TapperTapping {
		return
	}
	ev := Event{Timestamp: t.now(), Write: &WriteEvent{EndStream: endStream}}
	ev.Write.Data, ev.Write.Truncated = t.tx.capture(data, count)
	t.record(ev)
}

// CloseSocket records that the connection was closed for the given reason.
//
// In buffered mode this emits the whole trace. The sink handle is released
// and the tapper becomes [TapperClosed].
func (t *Tapper) CloseSocket(reason CloseReason) {
	if t.state == TapperDisabled {
		t.Release()
		return
	}
	if t.state != TapperTapping {
		return
	}

	ev := Event{Timestamp: t.now(), Closed: &ClosedEvent{Reason: reason}}
	t.record(ev)
	if !t.streaming && t.state == TapperTapping {
		t.submit(&TraceMessage{SocketBufferedTrace: t.trace})
	}

	t.logger.Info(
		"tapClose",
		slog.String("localAddr", t.conn.LocalAddress.String()),
		slog.String("reason", reason.String()),
		slog.String("remoteAddr", t.conn.RemoteAddress.String()),
		slog.Uint64("rxBytes", uint64(t.rx.ConsumedBytes)),
		slog.Time("t", ev.Timestamp),
		slog.Uint64("traceID", uint64(t.traceID)),
		slog.Uint64("txBytes", uint64(t.tx.ConsumedBytes)),
	)

	t.Release()
}

// Release destroys the tapper: it releases the sink handle and drops any
// buffered trace without emitting it. Calling Release more than once is fine.
func (t *Tapper) Release() {
	t.state = TapperClosed
	t.trace = nil
	if t.sink == nil {
		return
	}
	sink := t.sink
	t.sink = nil
	if err := sink.Close(); err != nil {
		t.warn("closeSinkHandle", err)
	}
}

func (t *Tapper) now() time.Time {
	return t.clock.Now().UTC()
}

func (t *Tapper) record(ev Event) {
	if t.streaming {
		t.submit(&TraceMessage{SocketStreamedTraceSegment: &SocketStreamedTraceSegment{
			TraceID: t.traceID,
			Event:   &ev,
		}})
		return
	}
	t.trace.Events = append(t.trace.Events, ev)
}

func (t *Tapper) submit(msg *TraceMessage) {
	if err := t.sink.SubmitTrace(msg); err != nil {
		t.abandon("submitTrace", err)
	}
}

// abandon disables the tapper after a failure and releases the sink.
func (t *Tapper) abandon(operation string, err error) {
	t.warn(operation, err)
	t.state = TapperDisabled
	t.trace = nil
	if t.sink != nil {
		sink := t.sink
		t.sink = nil
		_ = sink.Close()
	}
}

func (t *Tapper) warn(operation string, err error) {
	t.logger.Warn(
		"tapFailed",
		slog.Any("err", err),
		slog.String("errClass", t.errClass.Classify(err)),
		slog.String("operation", operation),
		slog.Uint64("traceID", uint64(t.traceID)),
	)
}
