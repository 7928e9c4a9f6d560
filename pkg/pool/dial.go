package pool

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/aerolog"
)

// defaultDialTimeout bounds a single address attempt within Dial's
// overall sweep.
const defaultDialTimeout = 1 * time.Second

// Dial tries each address in order, returning the first successful
// connection. TCP_NODELAY is set on every attempt since every
// transaction on this connection is a small, latency-sensitive
// request/response pair, never a bulk stream. When tlsConfig is
// non-nil, every connection is wrapped and handshaked before being
// handed back, so the rest of this client never has to know the
// transport is encrypted. If every address fails, Dial returns a
// NoAvailableConnections-class error; it never touches node health —
// only the tender retires nodes.
func Dial(ctx context.Context, addresses []string, tlsConfig *tls.Config) (net.Conn, error) {
	if len(addresses) == 0 {
		return nil, aeroerr.New(aeroerr.NoAvailableConnections, "pool: node has no known addresses")
	}
	dialer := &net.Dialer{Timeout: defaultDialTimeout}
	var lastErr error
	for _, addr := range addresses {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			aerolog.Logger.Debug().Str("address", addr).Err(err).Msg("pool: dial attempt failed, trying next address")
			continue
		}
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetNoDelay(true)
		}
		if tlsConfig == nil {
			return conn, nil
		}
		tlsConn := tls.Client(conn, tlsConfig)
		if deadline, ok := ctx.Deadline(); ok {
			_ = tlsConn.SetDeadline(deadline)
		}
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()
			lastErr = err
			aerolog.Logger.Debug().Str("address", addr).Err(err).Msg("pool: tls handshake failed, trying next address")
			continue
		}
		return tlsConn, nil
	}
	return nil, aeroerr.Wrap(aeroerr.NoAvailableConnections, lastErr, "pool: all %d addresses failed", len(addresses))
}
