package command

import (
	"context"
	"io"
	"net"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/ametrics"
	"github.com/cuemby/aeroclient/pkg/cluster"
	"github.com/cuemby/aeroclient/pkg/pool"
	"github.com/cuemby/aeroclient/pkg/proto"
)

// borrowConn returns an idle pooled connection if one is available,
// otherwise dials a fresh one against the node's known addresses.
func borrowConn(ctx context.Context, n *cluster.Node) (net.Conn, error) {
	if conn := n.SyncPool.PopNoWait(); conn != nil {
		return conn, nil
	}
	conn, err := pool.Dial(ctx, n.Addresses(), n.TLSConfig())
	if err != nil {
		return nil, err
	}
	ametrics.PoolConnectionsOpenedTotal.WithLabelValues(n.Name()).Inc()
	return conn, nil
}

// returnConn pools conn for reuse on success, or closes it and nudges
// the node's health score on failure (a socket_timeout or I/O error
// closes rather than pools).
func returnConn(n *cluster.Node, conn net.Conn, healthy bool) {
	if !healthy {
		_ = conn.Close()
		ametrics.PoolConnectionsClosedTotal.WithLabelValues(n.Name(), "io_error").Inc()
		n.AddHealth(5)
		return
	}
	n.SyncPool.PushIfUnderLimit(conn)
}

// writeMessage sends msg's packed form over conn.
func writeMessage(conn net.Conn, msg proto.Message) error {
	buf, err := proto.Pack(msg)
	if err != nil {
		return err
	}
	_, err = conn.Write(buf)
	return err
}

// readMessage reads one complete proto-framed message from conn.
func readMessage(conn net.Conn, maxMessageSize uint64) (*proto.Message, error) {
	var hdrBuf [proto.HeaderSize]byte
	if _, err := io.ReadFull(conn, hdrBuf[:]); err != nil {
		return nil, err
	}
	h, err := proto.UnpackHeader(hdrBuf[:])
	if err != nil {
		return nil, err
	}
	if h.Size > maxMessageSize {
		return nil, aeroerr.New(aeroerr.MessageTooLarge, "command: declared message size %d exceeds max %d", h.Size, maxMessageSize)
	}
	body := make([]byte, h.Size)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, err
	}
	full := append(hdrBuf[:], body...)
	return proto.Unpack(full, maxMessageSize)
}
