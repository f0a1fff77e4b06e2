// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 identifying a proxy session.
//
// Attach it to the logger with [*slog.Logger.With] so that the proxyStart,
// tapStart, tapClose and proxyDone events of one session share it. The
// trace ID correlates trace messages; the span ID correlates log lines.
//
// This function panics if the system random number generator fails,
// which should only happen under extraordinary circumstances.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
