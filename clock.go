// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

import "time"

// Clock is the time source used to stamp tap events.
//
// The clock is shared and read-only: a [*Tapper] only ever calls Now.
// Substitute a controllable implementation for deterministic tests.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the [Clock] interface.
//
// This allows wiring [Config.TimeNow] directly:
//
//	policy.Clock = ClockFunc(cfg.TimeNow)
type ClockFunc func() time.Time

var _ Clock = ClockFunc(nil)

// Now implements [Clock].
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the [Clock] backed by [time.Now].
var SystemClock = ClockFunc(time.Now)
