// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

import (
	"net"
	"sync/atomic"
	"time"
)

// Config holds common configuration for nettap operations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// Dialer is used by [*ProxyFunc] to reach the upstream.
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// IDGenerator allocates connection IDs, which double as trace IDs.
	//
	// Set by [NewConfig] to a process-wide counter starting at 1.
	IDGenerator func() uint64

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		IDGenerator:   NextConnectionID,
		TimeNow:       time.Now,
	}
}

var lastConnectionID atomic.Uint64

// NextConnectionID returns a process-wide unique, nonzero connection ID.
func NextConnectionID() uint64 {
	return lastConnectionID.Add(1)
}
