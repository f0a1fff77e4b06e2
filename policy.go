// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

// DefaultMaxBufferedBytes is the default per-direction byte budget.
const DefaultMaxBufferedBytes = 1024

// Policy supplies everything a [*Tapper] needs for one connection.
//
// Methods have no side effects beyond allocation and are called at most
// once per connection, except for the accessors which may be called again.
type Policy interface {
	// CreateTapper returns a new [*Tapper] for conn, owned by the caller.
	CreateTapper(conn Connection) *Tapper

	// CreateSinkHandle returns a new [SinkHandle] for the given trace,
	// owned by the caller.
	CreateSinkHandle(id TraceID) (SinkHandle, error)

	// CreateMatchStatusVector returns a fresh vector sized per rule count.
	CreateMatchStatusVector() MatchStatusVector

	// RootMatcher returns the shared [Matcher].
	RootMatcher() Matcher

	// Streaming returns whether to emit streamed segments rather than
	// a single buffered trace.
	Streaming() bool

	// MaxBufferedRxBytes returns the receive direction byte budget.
	MaxBufferedRxBytes() uint32

	// MaxBufferedTxBytes returns the transmit direction byte budget.
	MaxBufferedTxBytes() uint32

	// Clock returns the shared [Clock].
	Clock() Clock
}

// NewStaticPolicy returns a new [*StaticPolicy] with default budgets and
// buffered emission.
//
// The cfg argument contains the common configuration for nettap operations.
//
// The matcher argument selects the connections to tap.
//
// The sinks argument creates the per-connection [SinkHandle].
//
// The logger argument is the [SLogger] passed to each [*Tapper].
func NewStaticPolicy(cfg *Config, matcher Matcher, sinks SinkFactory, logger SLogger) *StaticPolicy {
	return &StaticPolicy{
		ErrClassifier:   cfg.ErrClassifier,
		Logger:          logger,
		Matcher:         matcher,
		MaxRxBytes:      DefaultMaxBufferedBytes,
		MaxTxBytes:      DefaultMaxBufferedBytes,
		Sinks:           sinks,
		StreamingOutput: false,
		TimeSource:      ClockFunc(cfg.TimeNow),
	}
}

// StaticPolicy is a [Policy] whose settings do not change.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [CreateTapper].
type StaticPolicy struct {
	// ErrClassifier classifies absorbed tap failures for logging.
	//
	// Set by [NewStaticPolicy] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] used by each [*Tapper].
	//
	// Set by [NewStaticPolicy] to the user-provided logger.
	Logger SLogger

	// Matcher is the root [Matcher].
	//
	// Set by [NewStaticPolicy] to the user-provided matcher.
	Matcher Matcher

	// MaxRxBytes is the receive direction byte budget.
	//
	// Set by [NewStaticPolicy] to [DefaultMaxBufferedBytes].
	MaxRxBytes uint32

	// MaxTxBytes is the transmit direction byte budget.
	//
	// Set by [NewStaticPolicy] to [DefaultMaxBufferedBytes].
	MaxTxBytes uint32

	// Sinks creates the per-connection [SinkHandle].
	//
	// Set by [NewStaticPolicy] to the user-provided factory.
	Sinks SinkFactory

	// StreamingOutput selects streamed segments over buffered traces.
	//
	// Set by [NewStaticPolicy] to false.
	StreamingOutput bool

	// TimeSource stamps tap events.
	//
	// Set by [NewStaticPolicy] from [Config.TimeNow].
	TimeSource Clock
}

var _ Policy = &StaticPolicy{}

// CreateTapper implements [Policy].
func (p *StaticPolicy) CreateTapper(conn Connection) *Tapper {
	return NewTapper(p, conn, p.Logger, p.ErrClassifier)
}

// CreateSinkHandle implements [Policy].
func (p *StaticPolicy) CreateSinkHandle(id TraceID) (SinkHandle, error) {
	return p.Sinks.NewSinkHandle(id)
}

// CreateMatchStatusVector implements [Policy].
func (p *StaticPolicy) CreateMatchStatusVector() MatchStatusVector {
	return NewMatchStatusVector(p.Matcher.Len())
}

// RootMatcher implements [Policy].
func (p *StaticPolicy) RootMatcher() Matcher {
	return p.Matcher
}

// Streaming implements [Policy].
func (p *StaticPolicy) Streaming() bool {
	return p.StreamingOutput
}

// MaxBufferedRxBytes implements [Policy].
func (p *StaticPolicy) MaxBufferedRxBytes() uint32 {
	return p.MaxRxBytes
}

// MaxBufferedTxBytes implements [Policy].
func (p *StaticPolicy) MaxBufferedTxBytes() uint32 {
	return p.MaxTxBytes
}

// Clock implements [Policy].
func (p *StaticPolicy) Clock() Clock {
	return p.TimeSource
}
