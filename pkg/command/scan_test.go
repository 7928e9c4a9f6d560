package command

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/cluster"
	"github.com/cuemby/aeroclient/pkg/proto"
)

// fakeScanServer drains the scan request then streams n canned records
// back, setting Info3Last on the final one.
func fakeScanServer(t *testing.T, n int) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var hdrBuf [proto.HeaderSize]byte
		if _, err := io.ReadFull(conn, hdrBuf[:]); err != nil {
			return
		}
		h, err := proto.UnpackHeader(hdrBuf[:])
		if err != nil {
			return
		}
		body := make([]byte, h.Size)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		for i := 0; i < n; i++ {
			op, _ := binToOp(proto.OpRead, aerotypes.NewBin("i", aerotypes.IntegerValue(int64(i))))
			header := proto.ClMsgHeader{}
			if i == n-1 {
				header.Info3 = proto.Info3Last
			}
			msg := proto.Message{Header: header, Ops: []proto.Op{op}}
			buf, err := proto.Pack(msg)
			if err != nil {
				return
			}
			if _, err := conn.Write(buf); err != nil {
				return
			}
		}
	}()
	return ln.Addr().String()
}

func TestStreamNodeCollectsAllRecordsUntilLast(t *testing.T) {
	addr := fakeScanServer(t, 3)
	n := cluster.NewNode("n1", addr, 50, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var mu sync.Mutex
	var got []int64
	err := streamNode(ctx, n, proto.ClMsgHeader{Info1: proto.Info1Read | proto.Info1GetAll}, nil, 0, false, nil, nil, func(rec *aerotypes.Record) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, int64(rec.Bins["i"].(aerotypes.IntegerValue)))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2}, got)
}
