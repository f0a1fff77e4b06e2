// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

import (
	"errors"
	"fmt"

	"github.com/bassosimone/runtimex"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// MatchStatus is the outcome of a single rule for a connection.
type MatchStatus struct {
	// Matches is true when the rule selects the connection for tapping.
	Matches bool

	// MightChangeStatus is true when the rule could reach a different
	// decision after seeing more data. The [*Tapper] never re-evaluates.
	MightChangeStatus bool
}

// MatchStatusVector holds one [MatchStatus] per configured rule.
//
// The length is fixed at creation. The [Matcher] writes it once and the
// [*Tapper] reads it once.
type MatchStatusVector []MatchStatus

// NewMatchStatusVector returns a zeroed vector for the given number of rules.
func NewMatchStatusVector(rules int) MatchStatusVector {
	return make(MatchStatusVector, rules)
}

// Matches returns whether at least one rule matches.
func (v MatchStatusVector) Matches() bool {
	for _, status := range v {
		if status.Matches {
			return true
		}
	}
	return false
}

// StreamInfo is what a [Matcher] knows about a new connection.
type StreamInfo struct {
	TraceID    TraceID
	Connection ConnectionContext
}

// Matcher decides which connections to tap.
//
// Implementations must be safe to share across connections.
type Matcher interface {
	// Len returns the number of rules, which is the size of the
	// [MatchStatusVector] passed to OnNewStream.
	Len() int

	// OnNewStream populates statuses synchronously for a new connection.
	OnNewStream(info StreamInfo, statuses MatchStatusVector) error
}

// ErrNoRules indicates a [*RuleMatcher] built without rules.
var ErrNoRules = errors.New("no tap rules configured")

// RuleMatcher is a [Matcher] whose rules are boolean expressions.
//
// Each expression is compiled with [expr.Compile] and evaluated against
// the following environment:
//
//	trace_id        the connection trace ID (int)
//	local.address   the local IP address (string)
//	local.port      the local port (int)
//	remote.address  the remote IP address (string)
//	remote.port     the remote port (int)
//
// For example, `remote.port == 443 && local.address startsWith "127."`.
type RuleMatcher struct {
	rules []*matchRule
}

type matchRule struct {
	source  string
	program *vm.Program
}

var _ Matcher = &RuleMatcher{}

// NewRuleMatcher compiles the given rule expressions.
func NewRuleMatcher(rules ...string) (*RuleMatcher, error) {
	if len(rules) <= 0 {
		return nil, ErrNoRules
	}
	sample := newMatchEnv(StreamInfo{})
	m := &RuleMatcher{}
	for idx, source := range rules {
		program, err := expr.Compile(source, expr.Env(sample), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("tap rule #%d %q: %w", idx, source, err)
		}
		m.rules = append(m.rules, &matchRule{source: source, program: program})
	}
	return m, nil
}

// AnyMatcher returns a [*RuleMatcher] with a single rule matching every connection.
func AnyMatcher() *RuleMatcher {
	return runtimex.PanicOnError1(NewRuleMatcher("true"))
}

// Len implements [Matcher].
func (m *RuleMatcher) Len() int {
	return len(m.rules)
}

// Rules returns the rule expressions in evaluation order.
func (m *RuleMatcher) Rules() []string {
	out := make([]string, 0, len(m.rules))
	for _, rule := range m.rules {
		out = append(out, rule.source)
	}
	return out
}

// OnNewStream implements [Matcher].
func (m *RuleMatcher) OnNewStream(info StreamInfo, statuses MatchStatusVector) error {
	if len(statuses) != len(m.rules) {
		return fmt.Errorf("match status vector has %d entries, want %d", len(statuses), len(m.rules))
	}
	env := newMatchEnv(info)
	for idx, rule := range m.rules {
		out, err := expr.Run(rule.program, env)
		if err != nil {
			return fmt.Errorf("tap rule #%d %q: %w", idx, rule.source, err)
		}
		matches, _ := out.(bool)
		statuses[idx] = MatchStatus{Matches: matches}
	}
	return nil
}

func newMatchEnv(info StreamInfo) map[string]any {
	return map[string]any{
		"trace_id": int(info.TraceID),
		"local":    newMatchEndpoint(info.Connection.LocalAddress),
		"remote":   newMatchEndpoint(info.Connection.RemoteAddress),
	}
}

func newMatchEndpoint(addr Address) map[string]any {
	return map[string]any{
		"address": addr.Address,
		"port":    int(addr.PortValue),
	}
}
