// SPDX-License-Identifier: GPL-3.0-or-later

// Package nettap records the byte-level I/O of selected network connections.
//
// # Core Abstraction
//
// A [*Tapper] sits on the synchronous I/O path of one connection. When it is
// created it asks a [Matcher] whether the connection should be tapped. The
// decision is frozen for the lifetime of the connection: a connection that
// does not match costs one branch per read, write or close.
//
// A tapped connection produces [TraceMessage] values that the tapper submits
// to a per-connection [SinkHandle]. There are two emission modes:
//
//   - Buffered: every event is kept in memory and a single
//     [SocketBufferedTrace] is submitted when the connection closes.
//   - Streaming: a [SocketStreamedTraceSegment] carrying the connection
//     endpoints is submitted right away, then one segment per event.
//
// Each direction has a byte budget ([DirectionBudget]). Once a direction's
// budget is exhausted, events are still recorded with an empty payload and
// the truncated flag set.
//
// # Available Primitives
//
// Policy and matching:
//   - [Policy]: supplies budgets, emission mode, clock, matcher and sinks
//   - [*StaticPolicy]: a [Policy] with fixed settings
//   - [*RuleMatcher]: a [Matcher] whose rules are expr-lang expressions
//
// Sinks:
//   - [*WriterSink]: all traces onto one [io.Writer] (e.g., a rotating file)
//   - [*FilePerTapSink]: one file per trace
//
// Connections:
//   - [TapConnFunc]: wraps a [net.Conn] so that its I/O drives a [*Tapper]
//   - [ProxyFunc]: relays a downstream connection to an upstream through a tap
//
// # Failure Policy
//
// Tapping is diagnostic and never load-bearing. Matcher and sink failures
// disable the tapper and are logged at warn level; they are never returned
// to the code driving the connection.
//
// # Observability
//
// All primitives support structured logging via [SLogger] (compatible with
// [log/slog]). By default, logging is disabled. Events carry localAddr,
// remoteAddr, traceID and t (timestamp); completion events also carry err
// and errClass. Use [NewSpanID] to correlate the log lines of a proxy session.
package nettap
