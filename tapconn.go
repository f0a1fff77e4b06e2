//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/measurexlite/conn.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/conn.go
//

package nettap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
)

// NewTapConnFunc returns a new [*TapConnFunc].
//
// The cfg argument contains the common configuration for nettap operations.
//
// The policy argument creates the [*Tapper] for each connection.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewTapConnFunc(cfg *Config, policy Policy, logger SLogger) *TapConnFunc {
	return &TapConnFunc{
		ErrClassifier: cfg.ErrClassifier,
		IDGenerator:   cfg.IDGenerator,
		Logger:        logger,
		Policy:        policy,
		TimeNow:       cfg.TimeNow,
	}
}

// TapConnFunc wraps a [net.Conn] so that its I/O drives a [*Tapper].
//
// Every successful Read and Write is reported to the tapper, CloseWrite is
// reported as an empty end-of-stream write and Close closes the tap with
// [CloseReasonLocal]. A read failing with anything other than [io.EOF] or
// a timeout closes the tap with [CloseReasonRemote].
//
// The wrapper serializes calls into the tapper, so the returned connection
// may be read and written from different goroutines.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type TapConnFunc struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewTapConnFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// IDGenerator allocates the connection ID used as trace ID.
	//
	// Set by [NewTapConnFunc] from [Config.IDGenerator].
	IDGenerator func() uint64

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewTapConnFunc] to the user-provided logger.
	Logger SLogger

	// Policy creates the per-connection [*Tapper].
	//
	// Set by [NewTapConnFunc] to the user-provided policy.
	Policy Policy

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewTapConnFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Func[net.Conn, net.Conn] = &TapConnFunc{}

// Call invokes the [*TapConnFunc] to wrap the given [net.Conn].
//
// The tap decision for the connection is taken before Call returns.
func (op *TapConnFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	tapped := &tapConn{
		closeonce: sync.Once{},
		conn:      conn,
		id:        op.IDGenerator(),
		laddr:     safeconn.LocalAddr(conn),
		op:        op,
		protocol:  safeconn.Network(conn),
		raddr:     safeconn.RemoteAddr(conn),
	}
	tapped.tapper = op.Policy.CreateTapper(tapped)
	return tapped, nil
}

// TapperOf returns the [*Tapper] driven by a connection returned by
// [*TapConnFunc], or nil for any other connection.
func TapperOf(conn net.Conn) *Tapper {
	if tc, ok := conn.(*tapConn); ok {
		tc.mu.Lock()
		defer tc.mu.Unlock()
		return tc.tapper
	}
	return nil
}

// tapConn is a [net.Conn] reporting its I/O to a [*Tapper].
type tapConn struct {
	closeonce sync.Once
	conn      net.Conn
	id        uint64
	laddr     string
	mu        sync.Mutex
	op        *TapConnFunc
	protocol  string
	raddr     string
	tapper    *Tapper
}

var (
	_ net.Conn   = &tapConn{}
	_ Connection = &tapConn{}
)

// ID implements [Connection].
func (c *tapConn) ID() uint64 {
	return c.id
}

// Close implements [net.Conn].
//
// Subsequent calls return [net.ErrClosed], consistent with Go's standard
// library behavior for closed connections.
func (c *tapConn) Close() (err error) {
	err = net.ErrClosed
	c.closeonce.Do(func() {
		c.mu.Lock()
		c.tapper.CloseSocket(CloseReasonLocal)
		c.mu.Unlock()

		err = c.conn.Close()

		c.op.Logger.Debug(
			"tapConnClose",
			slog.Any("err", err),
			slog.String("errClass", c.op.ErrClassifier.Classify(err)),
			slog.String("localAddr", c.laddr),
			slog.String("protocol", c.protocol),
			slog.String("remoteAddr", c.raddr),
			slog.Time("t", c.op.TimeNow()),
			slog.Uint64("traceID", c.id),
		)
	})
	return
}

// CloseWrite shuts down the writing side of the underlying connection,
// when supported, and records an end-of-stream write.
func (c *tapConn) CloseWrite() error {
	type closeWriter interface {
		CloseWrite() error
	}
	cw, ok := c.conn.(closeWriter)
	if !ok {
		return errors.ErrUnsupported
	}
	err := cw.CloseWrite()
	if err == nil {
		c.mu.Lock()
		c.tapper.OnWrite(nil, 0, true)
		c.mu.Unlock()
	}
	return err
}

// LocalAddr implements [net.Conn].
func (c *tapConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Read implements [net.Conn].
func (c *tapConn) Read(buf []byte) (int, error) {
	count, err := c.conn.Read(buf)

	c.mu.Lock()
	if count > 0 {
		c.tapper.OnRead(buf[:count], count)
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrDeadlineExceeded) {
		c.tapper.CloseSocket(CloseReasonRemote)
	}
	c.mu.Unlock()

	return count, err
}

// RemoteAddr implements [net.Conn].
func (c *tapConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline implements [net.Conn].
func (c *tapConn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline implements [net.Conn].
func (c *tapConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline implements [net.Conn].
func (c *tapConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// Write implements [net.Conn].
func (c *tapConn) Write(data []byte) (int, error) {
	count, err := c.conn.Write(data)

	if count > 0 {
		c.mu.Lock()
		c.tapper.OnWrite(data[:count], count, false)
		c.mu.Unlock()
	}

	return count, err
}
