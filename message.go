// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// TraceID correlates all the trace messages emitted for one connection.
//
// It is equal to the connection ID and never changes during the lifetime
// of a [*Tapper].
type TraceID uint64

// Address is an endpoint rendered as address and port.
type Address struct {
	Address   string `json:"address" yaml:"address"`
	PortValue uint32 `json:"port_value" yaml:"port_value"`
}

// NewAddress converts a [net.Addr] to an [Address].
//
// A nil address converts to the zero value. An address that does not
// parse as host:port keeps its string form and a zero port.
func NewAddress(addr net.Addr) Address {
	if addr == nil {
		return Address{}
	}
	if ap, err := netip.ParseAddrPort(addr.String()); err == nil {
		return Address{Address: ap.Addr().Unmap().String(), PortValue: uint32(ap.Port())}
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return Address{Address: addr.String()}
	}
	value, _ := strconv.ParseUint(port, 10, 16)
	return Address{Address: host, PortValue: uint32(value)}
}

// String returns the address in host:port form.
func (a Address) String() string {
	return net.JoinHostPort(a.Address, strconv.FormatUint(uint64(a.PortValue), 10))
}

// ConnectionContext holds the endpoints of a tapped connection.
//
// It is captured once when tapping starts and is immutable thereafter.
type ConnectionContext struct {
	LocalAddress  Address `json:"local_address" yaml:"local_address"`
	RemoteAddress Address `json:"remote_address" yaml:"remote_address"`
}

// NewConnectionContext captures the endpoints of the given [Connection].
func NewConnectionContext(conn Connection) ConnectionContext {
	return ConnectionContext{
		LocalAddress:  NewAddress(conn.LocalAddr()),
		RemoteAddress: NewAddress(conn.RemoteAddr()),
	}
}

// Payload contains captured bytes. It renders as standard base64 in both
// JSON and YAML.
type Payload []byte

var (
	_ json.Marshaler = Payload(nil)
	_ yaml.Marshaler = Payload(nil)
)

// MarshalJSON implements [json.Marshaler].
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(p))
}

// UnmarshalJSON implements [json.Unmarshaler].
func (p *Payload) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	return p.decode(encoded)
}

// MarshalYAML implements [yaml.Marshaler].
func (p Payload) MarshalYAML() (any, error) {
	return base64.StdEncoding.EncodeToString(p), nil
}

// UnmarshalYAML implements [yaml.Unmarshaler].
func (p *Payload) UnmarshalYAML(node *yaml.Node) error {
	var encoded string
	if err := node.Decode(&encoded); err != nil {
		return err
	}
	return p.decode(encoded)
}

func (p *Payload) decode(encoded string) error {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	*p = data
	return nil
}

// CloseReason tells why a tapped connection was closed.
type CloseReason int

const (
	// CloseReasonRemote means that the peer closed the connection.
	CloseReasonRemote CloseReason = iota

	// CloseReasonLocal means that we closed the connection.
	CloseReasonLocal

	// CloseReasonLocalFlushWrite means that we closed the connection
	// after flushing pending writes.
	CloseReasonLocalFlushWrite
)

var closeReasonNames = map[CloseReason]string{
	CloseReasonRemote:          "remote_close",
	CloseReasonLocal:           "local_close",
	CloseReasonLocalFlushWrite: "local_close_flush_write",
}

// String implements [fmt.Stringer].
func (r CloseReason) String() string {
	if name, ok := closeReasonNames[r]; ok {
		return name
	}
	return "close_reason_" + strconv.Itoa(int(r))
}

// MarshalText implements [encoding.TextMarshaler].
func (r CloseReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (r *CloseReason) UnmarshalText(text []byte) error {
	for reason, name := range closeReasonNames {
		if name == string(text) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("unknown close reason: %q", text)
}

// ReadEvent records bytes read from the connection.
type ReadEvent struct {
	Data      Payload `json:"data" yaml:"data"`
	Truncated bool    `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// WriteEvent records bytes written to the connection.
type WriteEvent struct {
	Data      Payload `json:"data" yaml:"data"`
	Truncated bool    `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	EndStream bool    `json:"end_stream,omitempty" yaml:"end_stream,omitempty"`
}

// ClosedEvent records the connection being closed.
type ClosedEvent struct {
	Reason CloseReason `json:"reason" yaml:"reason"`
}

// Event is a single tapped socket event. Exactly one of Read, Write
// and Closed is set.
type Event struct {
	Timestamp time.Time    `json:"timestamp" yaml:"timestamp"`
	Read      *ReadEvent   `json:"read,omitempty" yaml:"read,omitempty"`
	Write     *WriteEvent  `json:"write,omitempty" yaml:"write,omitempty"`
	Closed    *ClosedEvent `json:"closed,omitempty" yaml:"closed,omitempty"`
}

// SocketBufferedTrace is the whole trace of a connection, emitted once
// when the connection closes.
type SocketBufferedTrace struct {
	TraceID    TraceID            `json:"trace_id" yaml:"trace_id"`
	Connection *ConnectionContext `json:"connection,omitempty" yaml:"connection,omitempty"`
	Events     []Event            `json:"events,omitempty" yaml:"events,omitempty"`
}

// SocketStreamedTraceSegment is a piece of a streamed trace. Exactly one
// of Connection and Event is set.
type SocketStreamedTraceSegment struct {
	TraceID    TraceID            `json:"trace_id" yaml:"trace_id"`
	Connection *ConnectionContext `json:"connection,omitempty" yaml:"connection,omitempty"`
	Event      *Event             `json:"event,omitempty" yaml:"event,omitempty"`
}

// TraceMessage is what a [*Tapper] submits to its [SinkHandle]. Exactly
// one of the two fields is set.
type TraceMessage struct {
	SocketBufferedTrace        *SocketBufferedTrace        `json:"socket_buffered_trace,omitempty" yaml:"socket_buffered_trace,omitempty"`
	SocketStreamedTraceSegment *SocketStreamedTraceSegment `json:"socket_streamed_trace_segment,omitempty" yaml:"socket_streamed_trace_segment,omitempty"`
}

// TraceID returns the trace ID the message is tagged with.
func (m *TraceMessage) TraceID() TraceID {
	switch {
	case m.SocketBufferedTrace != nil:
		return m.SocketBufferedTrace.TraceID
	case m.SocketStreamedTraceSegment != nil:
		return m.SocketStreamedTraceSegment.TraceID
	default:
		return 0
	}
}

// Format is the serialization format of a [TraceMessage].
type Format string

const (
	// FormatJSON serializes each message as one line of JSON.
	FormatJSON = Format("json")

	// FormatYAML serializes each message as a YAML document.
	FormatYAML = Format("yaml")
)

// ErrUnknownFormat indicates an unsupported [Format].
var ErrUnknownFormat = errors.New("unknown trace format")

// ParseFormat parses a [Format] name.
func ParseFormat(name string) (Format, error) {
	switch format := Format(name); format {
	case FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// Marshal serializes a message. The result is self-delimiting: JSON output
// ends with a newline and YAML output starts with a document marker.
func (f Format) Marshal(msg *TraceMessage) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(msg)
		if err != nil {
			return nil, err
		}
		return append([]byte("---\n"), data...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// Unmarshal parses a single message serialized by [Format.Marshal].
func (f Format) Unmarshal(data []byte) (*TraceMessage, error) {
	msg := &TraceMessage{}
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, msg)
	case FormatYAML:
		err = yaml.Unmarshal(data, msg)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}
