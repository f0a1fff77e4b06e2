// SPDX-License-Identifier: GPL-3.0-or-later

package nettap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/bassosimone/safeconn"
	"golang.org/x/sync/errgroup"
)

// Dialer abstracts the [*net.Dialer] behavior.
//
// By making [*ProxyFunc] depend on an abstract implementation we
// allow for unit testing and for using alternative dialers.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NewProxyFunc returns a new [*ProxyFunc].
//
// The cfg argument contains the common configuration for nettap operations.
//
// The upstream argument is the TCP endpoint to relay to.
//
// The tap argument wraps each downstream connection, usually a [*TapConnFunc].
//
// The logger argument is the [SLogger] to use for structured logging.
func NewProxyFunc(cfg *Config, upstream netip.AddrPort, tap Func[net.Conn, net.Conn], logger SLogger) *ProxyFunc {
	return &ProxyFunc{
		Dialer:        cfg.Dialer,
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Tap:           tap,
		TimeNow:       cfg.TimeNow,
		Upstream:      upstream,
	}
}

// ProxyFunc relays an accepted downstream connection to the upstream.
//
// The downstream connection is wrapped with Tap before any byte flows, so
// the tap observes what the client sent (reads) and what the proxy sent
// back (writes). When one direction reaches EOF the proxy half-closes the
// other side, when supported, and waits for the opposite direction.
//
// Call takes ownership of the downstream connection and closes it before
// returning. When the context is done, both connections are closed.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [Call].
type ProxyFunc struct {
	// Dialer is the [Dialer] to reach the upstream.
	//
	// Set by [NewProxyFunc] from [Config.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewProxyFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewProxyFunc] to the user-provided logger.
	Logger SLogger

	// Tap wraps the downstream connection.
	//
	// Set by [NewProxyFunc] to the user-provided value.
	Tap Func[net.Conn, net.Conn]

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewProxyFunc] from [Config.TimeNow].
	TimeNow func() time.Time

	// Upstream is the TCP endpoint to relay to.
	//
	// Set by [NewProxyFunc] to the user-provided value.
	Upstream netip.AddrPort
}

var _ Func[net.Conn, Unit] = &ProxyFunc{}

// Call invokes the [*ProxyFunc] to relay the given downstream connection.
func (op *ProxyFunc) Call(ctx context.Context, downstream net.Conn) (Unit, error) {
	tapped, err := op.Tap.Call(ctx, downstream)
	if err != nil {
		downstream.Close()
		return Unit{}, err
	}
	defer tapped.Close()

	t0 := op.TimeNow()
	laddr, raddr := safeconn.LocalAddr(tapped), safeconn.RemoteAddr(tapped)
	op.Logger.Info(
		"proxyStart",
		slog.String("localAddr", laddr),
		slog.String("remoteAddr", raddr),
		slog.Time("t", t0),
		slog.String("upstreamAddr", op.Upstream.String()),
	)

	var received, sent atomic.Int64
	err = op.relay(ctx, tapped, &received, &sent)

	op.Logger.Info(
		"proxyDone",
		slog.Any("err", err),
		slog.String("errClass", op.ErrClassifier.Classify(err)),
		slog.String("localAddr", laddr),
		slog.Int64("receivedBytes", received.Load()),
		slog.String("remoteAddr", raddr),
		slog.Int64("sentBytes", sent.Load()),
		slog.Time("t0", t0),
		slog.Time("t", op.TimeNow()),
		slog.String("upstreamAddr", op.Upstream.String()),
	)
	return Unit{}, err
}

func (op *ProxyFunc) relay(ctx context.Context, downstream net.Conn, received, sent *atomic.Int64) error {
	upstream, err := op.Dialer.DialContext(ctx, "tcp", op.Upstream.String())
	if err != nil {
		return err
	}
	defer upstream.Close()

	stop := context.AfterFunc(ctx, func() {
		downstream.Close()
		upstream.Close()
	})
	defer stop()

	group := &errgroup.Group{}
	group.Go(func() error {
		count, err := io.Copy(upstream, downstream)
		received.Add(count)
		halfClose(upstream)
		return ignoreClosed(err)
	})
	group.Go(func() error {
		count, err := io.Copy(downstream, upstream)
		sent.Add(count)
		halfClose(downstream)
		return ignoreClosed(err)
	})
	err = group.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// halfClose closes the write side of conn when supported and otherwise
// closes the whole connection so the peer still observes EOF.
func halfClose(conn net.Conn) {
	type closeWriter interface {
		CloseWrite() error
	}
	if cw, ok := conn.(closeWriter); ok {
		if err := cw.CloseWrite(); !errors.Is(err, errors.ErrUnsupported) {
			return
		}
	}
	conn.Close()
}

// ignoreClosed hides the errors caused by halfClose closing a connection
// that does not support half-closing.
func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
